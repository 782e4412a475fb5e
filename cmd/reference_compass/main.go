// reference_compass обогащает выгрузку реестра компаний данными внешнего
// справочника, убирает дубли по ИНН, выверяет результат с целевым
// хранилищем и пишет итоговый JSON.
//
// Коды выхода: 0 — успех, 2 — целевое хранилище недоступно, 1 — прочие
// фатальные ошибки. Любой ненулевой код означает, что запуск не завершен и
// нужно смотреть файл аудита и логи.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/agladsoft/reference-scripts/internal/config"
	"github.com/agladsoft/reference-scripts/pipeline"
)

const (
	exitOK               = 0
	exitUnknownError     = 1
	exitStoreUnreachable = 2
)

func main() {
	inputFile := flag.String("input", "", "Path to the source XLSX/CSV file")
	outputDir := flag.String("output", ".", "Directory for the resulting JSON file")
	configPath := flag.String("config", "", "Optional JSON config file applied over environment variables")
	flag.Parse()

	if *inputFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: reference_compass -input <file.xlsx> -output <dir>")
		os.Exit(exitUnknownError)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("ошибка конфигурации: %v", err)
		os.Exit(exitUnknownError)
	}

	p := pipeline.New(cfg, *inputFile, *outputDir)
	if err := p.Run(context.Background()); err != nil {
		log.Printf("запуск не завершен: %v", err)
		if errors.Is(err, pipeline.ErrStoreUnavailable) {
			os.Exit(exitStoreUnreachable)
		}
		os.Exit(exitUnknownError)
	}
	os.Exit(exitOK)
}
