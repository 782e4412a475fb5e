package enrichment

import (
	"strconv"
	"strings"
	"time"
)

// dateLayouts форматы дат выгрузки в порядке приоритета. Первый подошедший
// формат выигрывает.
var dateLayouts = []string{
	"01/02/06",
	"02.01.2006",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"02Jan2006",
}

// CoerceDate приводит строку с датой к виду ГГГГ-ММ-ДД. Непригодные значения
// дают nil, строка при этом не бракуется.
func CoerceDate(raw string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			formatted := ts.Format("2006-01-02")
			return &formatted
		}
	}
	return nil
}

// CoerceInt приводит строку к целому числу. Значение принимается только если
// после обрезки пробелов строка состоит из одних цифр, иначе nil.
func CoerceInt(raw string) *int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] < '0' || raw[i] > '9' {
			return nil
		}
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}
