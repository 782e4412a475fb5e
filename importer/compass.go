// Package importer читает выгрузки реестра компаний («Компас») и превращает
// их в плоские строки с внутренними именами полей.
package importer

import (
	"fmt"
	"log"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/agladsoft/reference-scripts/enrichment"
)

// ReadCompassXLSX читает первый лист выгрузки: первая строка — заголовки,
// остальные — данные. Графы телефонов и почты склеиваются через "/", для
// ячеек со ссылками берется адрес гиперссылки. Номера строк считаются от 1
// (строка заголовка), как в самом файле.
func ReadCompassXLSX(filePath string) ([]*enrichment.Record, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("открытие файла %s: %w", filePath, err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("в файле %s нет листов", filePath)
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("чтение листа %s: %w", sheetName, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("файл %s пуст", filePath)
	}

	// Колонка -> внутреннее имя поля
	fieldByCol := make(map[int]string)
	for col, header := range rows[0] {
		if field, ok := fieldByHeader(strings.TrimSpace(header)); ok {
			fieldByCol[col] = field
		}
	}
	if len(fieldByCol) == 0 {
		return nil, fmt.Errorf("в файле %s не распознан ни один заголовок", filePath)
	}

	records := make([]*enrichment.Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rowIndex := i + 2 // в файле данные начинаются со строки 2
		fields := make(map[string]string, len(fieldByCol))

		for col, field := range fieldByCol {
			if col >= len(row) {
				continue
			}
			value := strings.TrimSpace(row[col])

			// Для ячеек-ссылок значение подменяется адресом ссылки
			cell, err := excelize.CoordinatesToCellName(col+1, rowIndex)
			if err == nil {
				if hasLink, target, err := f.GetCellHyperLink(sheetName, cell); err == nil && hasLink && target != "" {
					value = target
				}
			}
			if value == "" {
				continue
			}

			if isJoinField(field) && fields[field] != "" {
				fields[field] = fields[field] + "/" + value
				continue
			}
			fields[field] = value
		}

		if len(fields) == 0 {
			continue // полностью пустая строка
		}
		records = append(records, newRecord(rowIndex, fields))
	}

	log.Printf("[Importer] файл %s: прочитано строк %d", filePath, len(records))
	return records, nil
}

// newRecord строит типизированную строку из исходных значений ячеек.
// Числовые и датовые поля остаются как текст в SourceFields и приводятся к
// типам на этапе обогащения.
func newRecord(rowIndex int, fields map[string]string) *enrichment.Record {
	rec := &enrichment.Record{
		RowIndex:     rowIndex,
		SourceFields: fields,
	}

	set := func(dst **string, field string) {
		if v, ok := fields[field]; ok && v != "" {
			value := v
			*dst = &value
		}
	}

	set(&rec.INN, "inn")
	set(&rec.CompanyName, "company_name")
	set(&rec.KPP, "kpp")
	set(&rec.OGRN, "ogrn")
	set(&rec.DirectorFullName, "director_full_name")
	set(&rec.Position, "position")
	set(&rec.TelephoneNumber, FieldTelephone)
	set(&rec.Email, FieldEmail)
	set(&rec.Address, "address")
	set(&rec.Region, "region")
	set(&rec.WebsiteLink, "website_link")
	set(&rec.LinkToCardInFocus, "link_to_card_in_focus")
	set(&rec.StatusAtUploadDate, "status_at_upload_date")
	set(&rec.Licenses, "licenses")
	set(&rec.RegisterMSP, "register_msp")
	set(&rec.ActivityMainType, "activity_main_type")
	set(&rec.ActivityOtherTypes, "activity_other_types")
	set(&rec.RegistrationRegion, "registration_region")
	set(&rec.BranchName, "branch_name")
	return rec
}
