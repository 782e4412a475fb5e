package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/agladsoft/reference-scripts/enrichment"
)

// WriteJSON записывает итоговые строки в JSON-файл с отступами, кириллица
// не экранируется.
func WriteJSON(path string, records []*enrichment.Record) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("создание каталога результата: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("создание файла результата %s: %w", path, err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "    ")
	if err := encoder.Encode(records); err != nil {
		return fmt.Errorf("запись результата %s: %w", path, err)
	}
	return nil
}
