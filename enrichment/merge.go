package enrichment

import (
	"fmt"
	"strings"
)

// MergeFragments сводит фрагменты ответа реестра в одну запись. Поля головной
// организации заполняются фрагментами MAIN и фрагментами без типа; фрагменты
// BRANCH дописываются в агрегаты филиалов в порядке следования и никогда не
// трогают поля головной организации. Ликвидированные фрагменты в слияние
// полей не попадают, но статус и даты регистрации/ликвидации фиксируются один
// раз — из первого фрагмента MAIN, без типа или типа INDIVIDUAL.
func MergeFragments(fragments []Fragment) (*EnrichmentRecord, error) {
	record := &EnrichmentRecord{}
	var branchNames, branchAddresses, branchRegions []string
	stateRecorded := false

	for i, fr := range fragments {
		isMain := fr.BranchType == BranchTypeMain || fr.BranchType == "" ||
			fr.PartyType == "INDIVIDUAL"

		if isMain && !stateRecorded && fr.Status != "" {
			record.Status = fr.Status
			record.RegistrationDate = fr.RegistrationDate
			record.LiquidationDate = fr.LiquidationDate
			stateRecorded = true
		}

		if fr.Status == StatusLiquidated {
			continue
		}
		if fr.CompanyName == "" || fr.Address == "" {
			// Реестр изредка отдает пустые карточки, пропускаем их
			continue
		}

		if fr.BranchType == BranchTypeBranch {
			// Регион обязателен для агрегата филиалов, без данных адреса
			// строить его не из чего
			if !fr.hasAddressData {
				return nil, fmt.Errorf("фрагмент %d: отсутствуют данные адреса филиала", i+1)
			}
			branchNames = append(branchNames, fmt.Sprintf("%s, КПП %s", fr.Value, fr.KPP))
			branchAddresses = append(branchAddresses, fr.Address)
			branchRegions = append(branchRegions, fr.Region)
			continue
		}

		record.CompanyName = fr.CompanyName
		record.Address = fr.Address
		record.Region = fr.Region
		record.FederalDistrict = fr.FederalDistrict
		record.City = fr.City
		record.OKVED = fr.OKVED
	}

	record.BranchName = strings.Join(branchNames, "\n")
	record.BranchAddress = strings.Join(branchAddresses, "\n")
	record.BranchRegion = strings.Join(branchRegions, "\n")
	return record, nil
}

// Empty сообщает, что слияние не дало ни одного заполненного поля.
func (er *EnrichmentRecord) Empty() bool {
	return er.CompanyName == "" && er.Address == "" && er.Region == "" &&
		er.FederalDistrict == "" && er.City == "" && er.OKVED == "" &&
		er.Status == "" && er.RegistrationDate == "" && er.LiquidationDate == "" &&
		er.BranchName == "" && er.BranchAddress == "" && er.BranchRegion == ""
}
