package database

import (
	"context"
	"fmt"
	"log"

	"github.com/agladsoft/reference-scripts/enrichment"
)

// Store операции целевого хранилища, нужные выверке.
type Store interface {
	DeleteByINN(ctx context.Context, taxID string) (int64, error)
}

// Reconciler выверяет обогащенные строки с целевой таблицей: любая прежняя
// строка с тем же ИНН удаляется безоговорочно, побеждает свежий прогон.
type Reconciler struct {
	store Store
	sink  enrichment.ErrorSink
}

// NewReconciler создает выверку поверх открытого хранилища.
func NewReconciler(store Store, sink enrichment.ErrorSink) *Reconciler {
	return &Reconciler{store: store, sink: sink}
}

// Reconcile обрабатывает строки по одной. Сбой запроса по одной строке
// уводит ее в файл аудита и не прерывает обработку остальных. Возвращает
// строки, прошедшие выверку, в исходном порядке.
func (r *Reconciler) Reconcile(ctx context.Context, records []*enrichment.Record) []*enrichment.Record {
	kept := make([]*enrichment.Record, 0, len(records))

	for _, rec := range records {
		if rec.INN == nil {
			kept = append(kept, rec)
			continue
		}
		taxID := *rec.INN

		deleted, err := r.store.DeleteByINN(ctx, taxID)
		if err != nil {
			reason := fmt.Sprintf("ошибка выверки с хранилищем: %v", err)
			log.Printf("[Reconciler] строка %d (ИНН %s): %s", rec.RowIndex, taxID, reason)
			if sinkErr := r.sink.Record(rec.SourceFields, reason); sinkErr != nil {
				log.Printf("[Reconciler] не удалось записать строку %d в файл аудита: %v", rec.RowIndex, sinkErr)
			}
			continue
		}
		if deleted > 0 {
			log.Printf("[Reconciler] ИНН %s: удалено устаревших строк: %d", taxID, deleted)
		}
		kept = append(kept, rec)
	}
	return kept
}
