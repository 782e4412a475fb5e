package enrichment

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegistry struct {
	fragments []Fragment
	err       error
	calls     int32
}

func (f *fakeRegistry) Lookup(_ context.Context, _ string) ([]Fragment, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.fragments, f.err
}

type sunkRow struct {
	fields map[string]string
	reason string
}

type captureSink struct {
	mu   sync.Mutex
	rows []sunkRow
}

func (s *captureSink) Record(fields map[string]string, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, sunkRow{fields: fields, reason: reason})
	return nil
}

type captureNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (n *captureNotifier) Notify(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, message)
}

func sourceRow(index int, inn string) *Record {
	rec := &Record{
		RowIndex: index,
		SourceFields: map[string]string{
			"inn":               inn,
			"company_name":      "ООО Ромашка",
			"registration_date": "15.03.2024",
			"revenue_at_upload_date_thousand_rubles": "1000",
		},
	}
	rec.INN = StringPtr(inn)
	rec.CompanyName = StringPtr("ООО Ромашка")
	return rec
}

func newTestEnricher(t *testing.T, registry Registry) (*Enricher, *captureSink, *captureNotifier) {
	t.Helper()
	sink := &captureSink{}
	notifier := &captureNotifier{}
	enricher := NewEnricher(newTestCache(t), registry, sink, notifier, "compass.xlsx")
	enricher.now = func() time.Time {
		return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	}
	return enricher, sink, notifier
}

func TestEnrichRejectsInvalidINN(t *testing.T) {
	registry := &fakeRegistry{}
	enricher, sink, notifier := newTestEnricher(t, registry)

	records := []*Record{sourceRow(2, "123")}
	got := enricher.EnrichAll(context.Background(), records, 1)

	assert.Empty(t, got)
	require.Len(t, sink.rows, 1)
	assert.Contains(t, sink.rows[0].reason, "ИНН")
	assert.Equal(t, "123", sink.rows[0].fields["inn"])
	// Для невалидного ИНН справочник не трогается, уведомление не шлется
	assert.Zero(t, atomic.LoadInt32(&registry.calls))
	assert.Empty(t, notifier.msgs)
}

func TestEnrichMergesAndCaches(t *testing.T) {
	registry := &fakeRegistry{fragments: []Fragment{mainFragment()}}
	enricher, sink, _ := newTestEnricher(t, registry)

	got := enricher.EnrichAll(context.Background(), []*Record{sourceRow(2, "7707083893")}, 1)

	require.Len(t, got, 1)
	assert.Empty(t, sink.rows)
	rec := got[0]
	require.NotNil(t, rec.DadataCompanyName)
	assert.Equal(t, "ООО Ромашка", *rec.DadataCompanyName)
	require.NotNil(t, rec.DadataStatus)
	assert.Equal(t, "ACTIVE", *rec.DadataStatus)

	// Поля приведены и проставлены служебные колонки
	require.NotNil(t, rec.RegistrationDate)
	assert.Equal(t, "2024-03-15", *rec.RegistrationDate)
	require.NotNil(t, rec.Revenue)
	assert.Equal(t, int64(1000), *rec.Revenue)
	require.NotNil(t, rec.OriginalFileName)
	assert.Equal(t, "compass.xlsx", *rec.OriginalFileName)
	require.NotNil(t, rec.OriginalFileParsedOn)
	assert.Equal(t, "2024-05-01 12:00:00", *rec.OriginalFileParsedOn)

	// Результат закэширован: повторное обогащение не ходит в справочник
	got2 := enricher.EnrichAll(context.Background(), []*Record{sourceRow(3, "7707083893")}, 1)
	require.Len(t, got2, 1)
	assert.Equal(t, int32(1), atomic.LoadInt32(&registry.calls))
	require.NotNil(t, got2[0].DadataCompanyName)
	assert.Equal(t, "ООО Ромашка", *got2[0].DadataCompanyName)
}

// Дубли одного ИНН в одном запуске дают один запрос к справочнику даже при
// параллельной обработке.
func TestEnrichDuplicateINNSingleLookup(t *testing.T) {
	registry := &fakeRegistry{fragments: []Fragment{mainFragment()}}
	enricher, _, _ := newTestEnricher(t, registry)

	records := []*Record{
		sourceRow(2, "7707083893"),
		sourceRow(3, "7707083893"),
		sourceRow(4, "7707083893"),
	}
	got := enricher.EnrichAll(context.Background(), records, 10)

	assert.Len(t, got, 3)
	assert.Equal(t, int32(1), atomic.LoadInt32(&registry.calls))
}

func TestEnrichAbsentLookupKeepsRow(t *testing.T) {
	registry := &fakeRegistry{fragments: nil}
	enricher, sink, notifier := newTestEnricher(t, registry)

	got := enricher.EnrichAll(context.Background(), []*Record{sourceRow(2, "7707083893")}, 1)

	require.Len(t, got, 1)
	assert.Empty(t, sink.rows)
	assert.Empty(t, notifier.msgs)
	// Без данных справочника агрегаты филиалов остаются nil (тройственное
	// состояние: nil = не проверялось/нет филиалов)
	assert.Nil(t, got[0].DadataCompanyName)
	assert.Nil(t, got[0].DadataBranchName)
	assert.Nil(t, got[0].DadataBranchAddress)
	assert.Nil(t, got[0].DadataBranchRegion)
}

func TestEnrichRejectsOnRegistryError(t *testing.T) {
	registry := &fakeRegistry{err: errors.New("разбор ответа dadata: unexpected EOF")}
	enricher, sink, notifier := newTestEnricher(t, registry)

	got := enricher.EnrichAll(context.Background(), []*Record{sourceRow(5, "7707083893")}, 1)

	assert.Empty(t, got)
	require.Len(t, sink.rows, 1)
	assert.Contains(t, sink.rows[0].reason, "ошибка справочника")
	require.Len(t, notifier.msgs, 1)
	assert.Contains(t, notifier.msgs[0], "строка 5")
	assert.Contains(t, notifier.msgs[0], "7707083893")
}

func TestEnrichRejectsOnMergeError(t *testing.T) {
	broken := branchFragment("Филиал", "г Тверь, пр Победы, д 5", "Тверская обл")
	broken.hasAddressData = false
	registry := &fakeRegistry{fragments: []Fragment{broken}}
	enricher, sink, notifier := newTestEnricher(t, registry)

	got := enricher.EnrichAll(context.Background(), []*Record{sourceRow(7, "7707083893")}, 1)

	assert.Empty(t, got)
	require.Len(t, sink.rows, 1)
	assert.Contains(t, sink.rows[0].reason, "слияния")
	require.Len(t, notifier.msgs, 1)
	assert.True(t, strings.Contains(notifier.msgs[0], "строка 7"))
}

func TestEnrichAllPreservesOrder(t *testing.T) {
	registry := &fakeRegistry{fragments: []Fragment{mainFragment()}}
	enricher, _, _ := newTestEnricher(t, registry)

	innList := []string{"7707083893", "1658008723", "781310635186"}
	var records []*Record
	for i, id := range innList {
		records = append(records, sourceRow(i+2, id))
	}

	got := enricher.EnrichAll(context.Background(), records, 10)
	require.Len(t, got, 3)
	for i, id := range innList {
		require.NotNil(t, got[i].INN)
		assert.Equal(t, id, *got[i].INN)
	}
}
