package importer

import "github.com/agladsoft/reference-scripts/audit"

// Колонки с несколькими исходными графами, значения которых склеиваются
// через "/".
const (
	FieldTelephone = "telephone_number"
	FieldEmail     = "email"
)

// HeaderMapping соответствие исходных заголовков выгрузки внутренним именам
// полей. Alternatives — варианты написания заголовка в разных выгрузках.
type HeaderMapping struct {
	Field        string
	Alternatives []string
}

// Headers таблица перевода заголовков выгрузки «Компас». Порядок задает
// порядок колонок в файле аудита.
var Headers = []HeaderMapping{
	{"inn", []string{"ИНН"}},
	{"company_name", []string{"Наименование"}},
	{"kpp", []string{"КПП"}},
	{"ogrn", []string{"ОГРН"}},
	{"director_full_name", []string{"ФИО руководителя", "Ген.директор"}},
	{"position", []string{"Должность руководителя"}},
	{FieldTelephone, []string{
		"Номер телефона", "Телефон",
		"Дополнительный телефон 1", "Дополнительный телефон 2",
		"Дополнительный телефон 3", "Дополнительный телефон 4",
		"Дополнительный телефон 5", "Дополнительный телефон 6",
		"Дополнительный телефон 7", "Дополнительный телефон 8",
		"Дополнительный телефон 9",
	}},
	{FieldEmail, []string{
		"Электронная почта", "E-MAIL",
		"Дополнительная электронная почта 1", "Дополнительная электронная почта 2",
		"Дополнительная электронная почта 3", "Дополнительная электронная почта 4",
		"Дополнительная электронная почта 5", "Дополнительная электронная почта 6",
		"Дополнительная электронная почта 7", "Дополнительная электронная почта 8",
		"Дополнительная электронная почта 9",
	}},
	{"address", []string{"Адрес"}},
	{"region", []string{"Регион по адресу"}},
	{"website_link", []string{"Ссылка на сайт"}},
	{"link_to_card_in_focus", []string{"Карточка в Фокусе"}},
	{"status_at_upload_date", []string{"Статус"}},
	{"revenue_at_upload_date_thousand_rubles", []string{"Выручка, тыс. руб"}},
	{"net_profit_or_loss_at_upload_date_thousand_rubles", []string{"Чистая прибыль/ убыток, тыс. руб"}},
	{"employees_number_at_upload_date", []string{"Количество сотрудников"}},
	{"licenses", []string{"Полученные лицензии"}},
	{"registration_date", []string{"Дата регистрации"}},
	{"register_msp", []string{"Реестр МСП"}},
	{"activity_main_type", []string{"Основной вид деятельности"}},
	{"activity_other_types", []string{"Другие виды деятельности"}},
	{"registration_region", []string{"Регион регистрации"}},
	{"branch_name", []string{"Филиалы"}},
}

// fieldByHeader возвращает внутреннее имя поля по исходному заголовку.
func fieldByHeader(header string) (string, bool) {
	for _, m := range Headers {
		for _, alt := range m.Alternatives {
			if alt == header {
				return m.Field, true
			}
		}
	}
	return "", false
}

// isJoinField сообщает, склеивается ли поле из нескольких граф.
func isJoinField(field string) bool {
	return field == FieldTelephone || field == FieldEmail
}

// AuditColumns возвращает колонки файла аудита: внутреннее имя поля и
// основной (первый) вариант исходного заголовка.
func AuditColumns() []audit.Column {
	columns := make([]audit.Column, 0, len(Headers))
	for _, m := range Headers {
		columns = append(columns, audit.Column{Field: m.Field, Header: m.Alternatives[0]})
	}
	return columns
}
