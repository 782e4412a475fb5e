package enrichment

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/agladsoft/reference-scripts/inn"
)

// Registry внешний справочник юрлиц.
type Registry interface {
	Lookup(ctx context.Context, taxID string) ([]Fragment, error)
}

// ErrorSink приемник отбракованных строк.
type ErrorSink interface {
	Record(fields map[string]string, reason string) error
}

// Notifier канал уведомлений об ошибках. Сбои самого канала не должны
// влиять на конвейер.
type Notifier interface {
	Notify(message string)
}

// Состояния строки при обогащении.
type rowState int

const (
	stateValidating rowState = iota
	stateCacheLookup
	stateAPILookup
	stateMerged
	stateRejected
)

// Enricher прогоняет строки выгрузки через проверку ИНН, кэш и внешний
// справочник. Отбракованные строки уходят в приемник ошибок и не попадают
// в результат.
type Enricher struct {
	cache    *Cache
	registry Registry
	sink     ErrorSink
	notifier Notifier
	fileName string
	now      func() time.Time

	// keyLocks сериализует обращения к справочнику по одному ИНН, чтобы
	// строки-дубли в одном запуске не тратили лимит запросов
	keyLocks sync.Map
}

// NewEnricher создает обогатитель строк. fileName — имя исходного файла,
// попадает в служебные поля каждой строки.
func NewEnricher(cache *Cache, registry Registry, sink ErrorSink, notifier Notifier, fileName string) *Enricher {
	return &Enricher{
		cache:    cache,
		registry: registry,
		sink:     sink,
		notifier: notifier,
		fileName: fileName,
		now:      time.Now,
	}
}

// EnrichAll обогащает строки пулом воркеров и возвращает новый список только
// из успешно обработанных строк в исходном порядке. Исходный список не
// мутируется по месту.
func (e *Enricher) EnrichAll(ctx context.Context, records []*Record, workers int) []*Record {
	if workers < 1 {
		workers = 1
	}

	kept := make([]*Record, len(records))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if e.enrichOne(ctx, records[i]) == stateMerged {
					kept[i] = records[i]
				}
			}
		}()
	}

	for i := range records {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	result := make([]*Record, 0, len(records))
	for _, rec := range kept {
		if rec != nil {
			result = append(result, rec)
		}
	}
	return result
}

// enrichOne ведет одну строку по состояниям
// Validating -> CacheLookup -> ApiLookup -> Merged | Rejected.
func (e *Enricher) enrichOne(ctx context.Context, rec *Record) rowState {
	// Validating
	rawINN := ""
	if rec.INN != nil {
		rawINN = *rec.INN
	}
	taxID, err := inn.Validate(rawINN)
	if err != nil {
		e.reject(rec, fmt.Sprintf("некорректный ИНН %q: %v", rawINN, err))
		return stateRejected
	}
	rec.INN = &taxID

	// CacheLookup; строки с одинаковым ИНН обрабатываются по этому ключу
	// поочередно: первая заполняет кэш, остальные попадают в него
	lock, _ := e.keyLocks.LoadOrStore(taxID, &sync.Mutex{})
	mu := lock.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	cached, found, err := e.cache.Get(taxID)
	if err != nil {
		// Поврежденный кэш не должен ронять строку, идем в справочник
		log.Printf("[Enricher] ошибка чтения кэша для ИНН %s: %v", taxID, err)
	}

	if found {
		rec.ApplyEnrichment(cached)
	} else {
		// ApiLookup
		state := e.lookupAndMerge(ctx, rec, taxID)
		if state == stateRejected {
			return stateRejected
		}
	}

	// Merged
	e.finalize(rec)
	return stateMerged
}

func (e *Enricher) lookupAndMerge(ctx context.Context, rec *Record, taxID string) rowState {
	fragments, err := e.registry.Lookup(ctx, taxID)
	if err != nil {
		e.rejectWithNotification(rec, taxID, fmt.Sprintf("ошибка справочника: %v", err))
		return stateRejected
	}
	if len(fragments) == 0 {
		// Справочник ничего не знает про этот ИНН, строка идет дальше
		// без обогащения
		return stateMerged
	}

	enriched, err := MergeFragments(fragments)
	if err != nil {
		e.rejectWithNotification(rec, taxID, fmt.Sprintf("ошибка слияния данных справочника: %v", err))
		return stateRejected
	}

	if !enriched.Empty() {
		if err := e.cache.Put(taxID, enriched); err != nil {
			log.Printf("[Enricher] ошибка записи в кэш для ИНН %s: %v", taxID, err)
		}
	}
	rec.ApplyEnrichment(enriched)
	return stateMerged
}

// finalize нормализует производные поля и проставляет служебные колонки.
func (e *Enricher) finalize(rec *Record) {
	if raw, ok := rec.SourceFields["registration_date"]; ok {
		rec.RegistrationDate = CoerceDate(raw)
	}
	if raw, ok := rec.SourceFields["revenue_at_upload_date_thousand_rubles"]; ok {
		rec.Revenue = CoerceInt(raw)
	}
	if raw, ok := rec.SourceFields["net_profit_or_loss_at_upload_date_thousand_rubles"]; ok {
		rec.NetProfitOrLoss = CoerceInt(raw)
	}
	if raw, ok := rec.SourceFields["employees_number_at_upload_date"]; ok {
		rec.EmployeesNumber = CoerceInt(raw)
	}

	now := e.now().Format("2006-01-02 15:04:05")
	rec.OriginalFileName = &e.fileName
	rec.OriginalFileParsedOn = &now
	rec.LastUpdated = &now
}

func (e *Enricher) reject(rec *Record, reason string) {
	log.Printf("[Enricher] строка %d отбракована: %s", rec.RowIndex, reason)
	if err := e.sink.Record(rec.SourceFields, reason); err != nil {
		log.Printf("[Enricher] не удалось записать строку %d в файл аудита: %v", rec.RowIndex, err)
	}
}

func (e *Enricher) rejectWithNotification(rec *Record, taxID, reason string) {
	e.reject(rec, reason)
	e.notifier.Notify(fmt.Sprintf("Ошибка обогащения: строка %d, ИНН %s — %s", rec.RowIndex, taxID, reason))
}
