package database

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agladsoft/reference-scripts/enrichment"
)

type memorySink struct {
	mu      sync.Mutex
	reasons []string
	fields  []map[string]string
}

func (s *memorySink) Record(fields map[string]string, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields = append(s.fields, fields)
	s.reasons = append(s.reasons, reason)
	return nil
}

// flakyStore имитирует хранилище, у которого падает запрос по одному ИНН.
type flakyStore struct {
	failINN string
	deleted []string
}

func (f *flakyStore) DeleteByINN(_ context.Context, taxID string) (int64, error) {
	if taxID == f.failINN {
		return 0, errors.New("connection reset by peer")
	}
	f.deleted = append(f.deleted, taxID)
	return 0, nil
}

func record(inn string, rowIndex int) *enrichment.Record {
	return &enrichment.Record{
		INN:          &inn,
		RowIndex:     rowIndex,
		SourceFields: map[string]string{"inn": inn},
	}
}

// Сбой по одной строке не прерывает выверку остальных.
func TestReconcilePartialFailureIsolation(t *testing.T) {
	store := &flakyStore{failINN: "1658008723"}
	sink := &memorySink{}

	records := []*enrichment.Record{
		record("7707083893", 2),
		record("1658008723", 3),
		record("781310635186", 4),
	}

	kept := NewReconciler(store, sink).Reconcile(context.Background(), records)

	require.Len(t, kept, 2)
	assert.Equal(t, "7707083893", *kept[0].INN)
	assert.Equal(t, "781310635186", *kept[1].INN)

	require.Len(t, sink.reasons, 1)
	assert.Contains(t, sink.reasons[0], "connection reset by peer")
	assert.Equal(t, "1658008723", sink.fields[0]["inn"])

	assert.Equal(t, []string{"7707083893", "781310635186"}, store.deleted)
}

func TestReconcileAgainstSQLite(t *testing.T) {
	ctx := context.Background()
	store, err := OpenTarget(ctx, TargetConfig{
		DSN:   filepath.Join(t.TempDir(), "reference.db"),
		Table: "reference_compass",
	})
	require.NoError(t, err)
	defer store.Close()

	// Две устаревшие строки с одним ИНН и одна чужая
	_, err = store.conn.Exec(`INSERT INTO reference_compass (inn, company_name) VALUES
		('7707083893', 'старое имя'),
		('7707083893', 'совсем старое имя'),
		('1658008723', 'другая компания')`)
	require.NoError(t, err)

	sink := &memorySink{}
	kept := NewReconciler(store, sink).Reconcile(ctx, []*enrichment.Record{record("7707083893", 2)})

	require.Len(t, kept, 1)
	assert.Empty(t, sink.reasons)

	n, err := store.CountByINN(ctx, "7707083893")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = store.CountByINN(ctx, "1658008723")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestOpenTargetCreatesSchema(t *testing.T) {
	ctx := context.Background()
	store, err := OpenTarget(ctx, TargetConfig{DSN: filepath.Join(t.TempDir(), "new.db")})
	require.NoError(t, err)
	defer store.Close()

	// Таблица по умолчанию создана и пуста
	n, err := store.CountByINN(ctx, "7707083893")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOpenTargetUnreachable(t *testing.T) {
	_, err := OpenTarget(context.Background(), TargetConfig{
		DSN: filepath.Join(t.TempDir(), "no-such-dir", "deep", "x.db"),
	})
	require.Error(t, err)
}

func TestReconcileRecordWithoutINNKept(t *testing.T) {
	store := &flakyStore{}
	kept := NewReconciler(store, &memorySink{}).Reconcile(context.Background(),
		[]*enrichment.Record{{RowIndex: 2}})
	assert.Len(t, kept, 1)
	assert.Empty(t, store.deleted)
}
