package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/agladsoft/reference-scripts/enrichment"
)

// ReadCompassCSV читает выгрузку в CSV. Файлы из старых систем приходят в
// Windows-1251, такие перекодируются в UTF-8 перед разбором.
func ReadCompassCSV(filePath string) ([]*enrichment.Record, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("чтение файла %s: %w", filePath, err)
	}

	if !utf8.Valid(data) {
		decoded, _, err := transform.Bytes(charmap.Windows1251.NewDecoder(), data)
		if err != nil {
			return nil, fmt.Errorf("перекодировка файла %s из windows-1251: %w", filePath, err)
		}
		data = decoded
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	lines, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("разбор CSV %s: %w", filePath, err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("файл %s пуст", filePath)
	}

	fieldByCol := make(map[int]string)
	for col, header := range lines[0] {
		if field, ok := fieldByHeader(strings.TrimSpace(header)); ok {
			fieldByCol[col] = field
		}
	}
	if len(fieldByCol) == 0 {
		return nil, fmt.Errorf("в файле %s не распознан ни один заголовок", filePath)
	}

	records := make([]*enrichment.Record, 0, len(lines)-1)
	for i, line := range lines[1:] {
		rowIndex := i + 2
		fields := make(map[string]string, len(fieldByCol))
		for col, field := range fieldByCol {
			if col >= len(line) {
				continue
			}
			value := strings.TrimSpace(line[col])
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
			continue
		}
		records = append(records, newRecord(rowIndex, fields))
	}
	return records, nil
}
