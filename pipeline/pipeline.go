// Package pipeline связывает этапы обработки выгрузки: чтение, обогащение,
// дедупликацию, выверку с хранилищем и запись результата.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/agladsoft/reference-scripts/audit"
	"github.com/agladsoft/reference-scripts/database"
	"github.com/agladsoft/reference-scripts/enrichment"
	"github.com/agladsoft/reference-scripts/importer"
	"github.com/agladsoft/reference-scripts/internal/config"
	"github.com/agladsoft/reference-scripts/notify"
)

// ErrStoreUnavailable целевое хранилище недоступно на старте. Такой запуск
// завершается целиком, с отдельным кодом выхода.
var ErrStoreUnavailable = errors.New("целевое хранилище недоступно")

// Pipeline один запуск обработки одного файла выгрузки.
type Pipeline struct {
	cfg       *config.Config
	inputFile string
	outputDir string
	notifier  enrichment.Notifier
	runID     string
}

// New собирает конвейер для файла выгрузки.
func New(cfg *config.Config, inputFile, outputDir string) *Pipeline {
	var notifier enrichment.Notifier = notify.Nop{}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		notifier = notify.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID)
	}
	return &Pipeline{
		cfg:       cfg,
		inputFile: inputFile,
		outputDir: outputDir,
		notifier:  notifier,
		runID:     uuid.NewString(),
	}
}

// Run выполняет запуск от чтения файла до записи результата. Ошибки отдельных
// строк уходят в файл аудита и не прерывают обработку; возвращаемая ошибка
// означает фатальный сбой всего запуска.
func (p *Pipeline) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = p.fail(fmt.Errorf("непредвиденная ошибка запуска: %v", r))
		}
	}()

	log.Printf("[Pipeline] запуск %s, файл %s", p.runID, p.inputFile)

	records, err := p.readInput()
	if err != nil {
		return p.fail(err)
	}
	log.Printf("[Pipeline] прочитано строк: %d", len(records))

	cache, err := enrichment.OpenCache(p.cfg.CacheDBPath)
	if err != nil {
		return p.fail(err)
	}
	defer cache.Close()

	// Хранилище проверяется до обогащения: если оно недоступно, нет смысла
	// тратить лимиты справочника
	store, err := database.OpenTarget(ctx, database.TargetConfig{
		DSN:   p.cfg.TargetDSN,
		Table: p.cfg.TargetTable,
	})
	if err != nil {
		p.notifier.Notify(fmt.Sprintf("БД недоступна, запуск %s прерван: %v", p.runID, err))
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer store.Close()

	sink := audit.NewSink(p.inputFile+"_error.csv", importer.AuditColumns())
	defer sink.Close()

	client := enrichment.NewDadataClient(enrichment.DadataConfig{
		APIKey:        p.cfg.DadataToken,
		BaseURL:       p.cfg.DadataBaseURL,
		Timeout:       p.cfg.DadataTimeout,
		MaxRequests:   p.cfg.MaxRequests,
		RetryCooldown: p.cfg.RetryCooldown,
	})

	enricher := enrichment.NewEnricher(cache, client, sink, p.notifier, filepath.Base(p.inputFile))
	enriched := enricher.EnrichAll(ctx, records, p.cfg.Workers)
	log.Printf("[Pipeline] обогащено строк: %d из %d", len(enriched), len(records))

	deduped := enrichment.Dedupe(enriched)
	if len(deduped) < len(enriched) {
		log.Printf("[Pipeline] удалено дублей по ИНН: %d", len(enriched)-len(deduped))
	}

	reconciled := database.NewReconciler(store, sink).Reconcile(ctx, deduped)

	outputPath := filepath.Join(p.outputDir, filepath.Base(p.inputFile)+".json")
	if err := WriteJSON(outputPath, reconciled); err != nil {
		return p.fail(err)
	}

	log.Printf("[Pipeline] запуск %s завершен, записано строк: %d, файл %s",
		p.runID, len(reconciled), outputPath)
	return nil
}

// fail уведомляет о фатальном сбое запуска. Любая фатальная ошибка прерывает
// запуск целиком и обязана дойти до уведомлений, а не только до логов.
func (p *Pipeline) fail(err error) error {
	p.notifier.Notify(fmt.Sprintf("Сбой обработки файла %s (запуск %s): %v",
		filepath.Base(p.inputFile), p.runID, err))
	return err
}

// readInput выбирает ридер по расширению файла.
func (p *Pipeline) readInput() ([]*enrichment.Record, error) {
	switch strings.ToLower(filepath.Ext(p.inputFile)) {
	case ".xlsx", ".xlsm", ".xls":
		return importer.ReadCompassXLSX(p.inputFile)
	default:
		return importer.ReadCompassCSV(p.inputFile)
	}
}
