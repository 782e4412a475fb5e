// reference_inn вспомогательный сценарий: по колонке наименований компаний
// вытаскивает из текста ИНН, проверяет его контрольную сумму и подтягивает
// каноническое наименование из rusprofile.ru через общий кэш.
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"

	"github.com/agladsoft/reference-scripts/enrichment"
	"github.com/agladsoft/reference-scripts/inn"
)

var digitRunRe = regexp.MustCompile(`\d+`)

type resolvedRow struct {
	CompanyName        string  `json:"company_name"`
	CompanyINN         *string `json:"company_inn"`
	CompanyNameUnified *string `json:"company_name_unified"`
}

func main() {
	inputFile := flag.String("input", "", "CSV file with a company name column")
	outputDir := flag.String("output", ".", "Directory for the resulting JSON file")
	cachePath := flag.String("cache", "cache_inn/cache.db", "Path to the lookup cache database")
	flag.Parse()

	if *inputFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: reference_inn -input <file.csv> -output <dir>")
		os.Exit(1)
	}

	file, err := os.Open(*inputFile)
	if err != nil {
		log.Fatalf("открытие файла %s: %v", *inputFile, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	lines, err := reader.ReadAll()
	if err != nil {
		log.Fatalf("разбор CSV: %v", err)
	}

	cache, err := enrichment.OpenCache(*cachePath)
	if err != nil {
		log.Fatalf("открытие кэша: %v", err)
	}
	defer cache.Close()

	resolver := enrichment.NewRusprofileResolver(cache)
	ctx := context.Background()

	seen := make(map[string]bool)
	var rows []resolvedRow
	for _, line := range lines {
		if len(line) == 0 || line[0] == "" || seen[line[0]] {
			continue
		}
		seen[line[0]] = true
		rows = append(rows, resolve(ctx, resolver, line[0]))
	}

	outputPath := filepath.Join(*outputDir, filepath.Base(*inputFile)+".json")
	out, err := os.Create(outputPath)
	if err != nil {
		log.Fatalf("создание файла результата: %v", err)
	}
	defer out.Close()

	encoder := json.NewEncoder(out)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "    ")
	if err := encoder.Encode(rows); err != nil {
		log.Fatalf("запись результата: %v", err)
	}
	log.Printf("обработано наименований: %d, файл %s", len(rows), outputPath)
}

// resolve ищет в строке валидный ИНН и каноническое наименование по нему.
func resolve(ctx context.Context, resolver *enrichment.RusprofileResolver, value string) resolvedRow {
	row := resolvedRow{CompanyName: value}

	for _, run := range digitRunRe.FindAllString(value, -1) {
		taxID, err := inn.Validate(run)
		if err != nil {
			continue
		}
		row.CompanyINN = &taxID

		name, err := resolver.ResolveName(ctx, taxID)
		if err != nil {
			log.Printf("ИНН %s: %v", taxID, err)
			break
		}
		row.CompanyNameUnified = &name
		break
	}
	return row
}
