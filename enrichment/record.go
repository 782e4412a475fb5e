package enrichment

import "strings"

// EnrichmentRecord нормализованные данные реестра по одному ИНН.
// Поля головной организации заполняются только из фрагментов MAIN (или без
// типа); фрагменты BRANCH лишь дописывают агрегатные поля филиалов.
type EnrichmentRecord struct {
	CompanyName      string `json:"dadata_company_name"`
	Address          string `json:"dadata_address"`
	Region           string `json:"dadata_region"`
	FederalDistrict  string `json:"dadata_federal_district"`
	City             string `json:"dadata_city"`
	OKVED            string `json:"dadata_okved_activity_main_type"`
	Status           string `json:"dadata_status"`
	RegistrationDate string `json:"dadata_registration_date"`
	LiquidationDate  string `json:"dadata_liquidation_date"`
	BranchName       string `json:"dadata_branch_name"`
	BranchAddress    string `json:"dadata_branch_address"`
	BranchRegion     string `json:"dadata_branch_region"`
}

// Record одна строка выгрузки со всеми полями: исходными, служебными и
// полученными при обогащении. Необязательные значения представлены
// указателями, nil означает отсутствие значения в источнике.
type Record struct {
	INN                *string `json:"inn"`
	CompanyName        *string `json:"company_name"`
	KPP                *string `json:"kpp"`
	OGRN               *string `json:"ogrn"`
	DirectorFullName   *string `json:"director_full_name"`
	Position           *string `json:"position"`
	TelephoneNumber    *string `json:"telephone_number"`
	Email              *string `json:"email"`
	Address            *string `json:"address"`
	Region             *string `json:"region"`
	WebsiteLink        *string `json:"website_link"`
	LinkToCardInFocus  *string `json:"link_to_card_in_focus"`
	StatusAtUploadDate *string `json:"status_at_upload_date"`
	Revenue            *int64  `json:"revenue_at_upload_date_thousand_rubles"`
	NetProfitOrLoss    *int64  `json:"net_profit_or_loss_at_upload_date_thousand_rubles"`
	EmployeesNumber    *int64  `json:"employees_number_at_upload_date"`
	Licenses           *string `json:"licenses"`
	RegistrationDate   *string `json:"registration_date"`
	RegisterMSP        *string `json:"register_msp"`
	ActivityMainType   *string `json:"activity_main_type"`
	ActivityOtherTypes *string `json:"activity_other_types"`
	RegistrationRegion *string `json:"registration_region"`
	BranchName         *string `json:"branch_name"`

	OriginalFileName     *string `json:"original_file_name"`
	OriginalFileParsedOn *string `json:"original_file_parsed_on"`
	LastUpdated          *string `json:"last_updated"`

	DadataCompanyName      *string `json:"dadata_company_name"`
	DadataAddress          *string `json:"dadata_address"`
	DadataRegion           *string `json:"dadata_region"`
	DadataFederalDistrict  *string `json:"dadata_federal_district"`
	DadataCity             *string `json:"dadata_city"`
	DadataOKVED            *string `json:"dadata_okved_activity_main_type"`
	DadataStatus           *string `json:"dadata_status"`
	DadataRegistrationDate *string `json:"dadata_registration_date"`
	DadataLiquidationDate  *string `json:"dadata_liquidation_date"`
	DadataBranchName       *string `json:"dadata_branch_name"`
	DadataBranchAddress    *string `json:"dadata_branch_address"`
	DadataBranchRegion     *string `json:"dadata_branch_region"`

	// RowIndex номер строки в исходном файле (заголовок — строка 1).
	RowIndex int `json:"-"`

	// SourceFields исходные значения ячеек до обогащения, по внутренним
	// именам колонок. Нужны, чтобы отбракованную строку можно было
	// восстановить в файле аудита в исходном виде.
	SourceFields map[string]string `json:"-"`
}

// optionalValues перечисляет все необязательные поля записи в фиксированном
// порядке. Используется при подсчете заполненности для дедупликации.
func (r *Record) optionalValues() []any {
	return []any{
		r.INN, r.CompanyName, r.KPP, r.OGRN, r.DirectorFullName, r.Position,
		r.TelephoneNumber, r.Email, r.Address, r.Region, r.WebsiteLink,
		r.LinkToCardInFocus, r.StatusAtUploadDate, r.Revenue,
		r.NetProfitOrLoss, r.EmployeesNumber, r.Licenses, r.RegistrationDate,
		r.RegisterMSP, r.ActivityMainType, r.ActivityOtherTypes,
		r.RegistrationRegion, r.BranchName,
		r.OriginalFileName, r.OriginalFileParsedOn, r.LastUpdated,
		r.DadataCompanyName, r.DadataAddress, r.DadataRegion,
		r.DadataFederalDistrict, r.DadataCity, r.DadataOKVED, r.DadataStatus,
		r.DadataRegistrationDate, r.DadataLiquidationDate,
		r.DadataBranchName, r.DadataBranchAddress, r.DadataBranchRegion,
	}
}

// FilledCount возвращает число заполненных (не nil) полей записи.
func (r *Record) FilledCount() int {
	count := 0
	for _, v := range r.optionalValues() {
		switch p := v.(type) {
		case *string:
			if p != nil {
				count++
			}
		case *int64:
			if p != nil {
				count++
			}
		}
	}
	return count
}

// ApplyEnrichment переносит данные реестра на строку выгрузки. Пустые
// агрегаты филиалов остаются nil: non-nil значение означает, что хотя бы
// один филиал был найден.
func (r *Record) ApplyEnrichment(er *EnrichmentRecord) {
	r.DadataCompanyName = optString(er.CompanyName)
	r.DadataAddress = optString(er.Address)
	r.DadataRegion = optString(er.Region)
	r.DadataFederalDistrict = optString(er.FederalDistrict)
	r.DadataCity = optString(er.City)
	r.DadataOKVED = optString(er.OKVED)
	r.DadataStatus = optString(er.Status)
	r.DadataRegistrationDate = optString(er.RegistrationDate)
	r.DadataLiquidationDate = optString(er.LiquidationDate)
	r.DadataBranchName = optString(er.BranchName)
	r.DadataBranchAddress = optString(er.BranchAddress)
	r.DadataBranchRegion = optString(er.BranchRegion)
}

func optString(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// StringPtr вспомогательная функция для тестов и ридеров.
func StringPtr(s string) *string { return &s }
