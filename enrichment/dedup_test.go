package enrichment

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordWithINN(inn string, filled int) *Record {
	rec := &Record{INN: &inn}
	extras := []**string{
		&rec.CompanyName, &rec.Address, &rec.Region, &rec.Email,
		&rec.TelephoneNumber, &rec.DirectorFullName, &rec.Position,
	}
	for i := 0; i < filled && i < len(extras); i++ {
		v := gofakeit.Company()
		*extras[i] = &v
	}
	return rec
}

func TestDedupeKeepsRichestRecord(t *testing.T) {
	poor := recordWithINN("7707083893", 1)
	rich := recordWithINN("7707083893", 2)

	got := Dedupe([]*Record{poor, rich})
	require.Len(t, got, 1)
	assert.Same(t, rich, got[0])
}

func TestDedupeTieKeepsEarliest(t *testing.T) {
	first := recordWithINN("7707083893", 2)
	second := recordWithINN("7707083893", 2)

	got := Dedupe([]*Record{first, second})
	require.Len(t, got, 1)
	assert.Same(t, first, got[0])
}

func TestDedupePreservesOrderOfFirstOccurrence(t *testing.T) {
	a1 := recordWithINN("7707083893", 1)
	b := recordWithINN("1658008723", 3)
	a2 := recordWithINN("7707083893", 5)

	got := Dedupe([]*Record{a1, b, a2})
	require.Len(t, got, 2)
	// Более полная запись занимает место первого вхождения своего ИНН
	assert.Same(t, a2, got[0])
	assert.Same(t, b, got[1])
}

func TestDedupeDistinctINNsUntouched(t *testing.T) {
	records := []*Record{
		recordWithINN("7707083893", 2),
		recordWithINN("1658008723", 2),
	}
	got := Dedupe(records)
	assert.Len(t, got, 2)
}

// Свойство дедупликации: у выжившей записи заполненность не меньше, чем
// у любой другой записи группы.
func TestDedupeMaxFilledProperty(t *testing.T) {
	var group []*Record
	maxFilled := 0
	for i := 0; i < 10; i++ {
		n := gofakeit.Number(0, 7)
		if n > maxFilled {
			maxFilled = n
		}
		group = append(group, recordWithINN("7707083893", n))
	}

	got := Dedupe(group)
	require.Len(t, got, 1)
	assert.Equal(t, maxFilled+1, got[0].FilledCount()) // +1 за сам ИНН
}

func TestFilledCount(t *testing.T) {
	rec := &Record{}
	assert.Equal(t, 0, rec.FilledCount())

	inn := "7707083893"
	rec.INN = &inn
	assert.Equal(t, 1, rec.FilledCount())

	revenue := int64(1000)
	rec.Revenue = &revenue
	assert.Equal(t, 2, rec.FilledCount())
}
