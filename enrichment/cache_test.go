package enrichment

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	cache, err := OpenCache(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestCacheGetMiss(t *testing.T) {
	cache := newTestCache(t)

	record, found, err := cache.Get("7707083893")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, record)
}

func TestCachePutGet(t *testing.T) {
	cache := newTestCache(t)

	original := &EnrichmentRecord{
		CompanyName:      "ООО Ромашка",
		Address:          "г Москва, ул Ленина, д 1",
		Region:           "г Москва",
		FederalDistrict:  "Центральный",
		City:             "Москва",
		OKVED:            "62.01",
		Status:           "ACTIVE",
		RegistrationDate: "2005-06-01",
		BranchName:       "Филиал, КПП 540501001",
		BranchAddress:    "г Новосибирск, ул Мира, д 2",
		BranchRegion:     "Новосибирская обл",
	}
	require.NoError(t, cache.Put("7707083893", original))

	got, found, err := cache.Get("7707083893")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, original, got)
}

// Повторный Put по тому же ключу не перезаписывает первую запись.
func TestCacheFirstWriteWins(t *testing.T) {
	cache := newTestCache(t)

	first := &EnrichmentRecord{CompanyName: "ООО Ромашка", Status: "ACTIVE"}
	second := &EnrichmentRecord{CompanyName: "ООО Лютик", Status: "LIQUIDATED"}

	require.NoError(t, cache.Put("7707083893", first))
	require.NoError(t, cache.Put("7707083893", second))
	require.NoError(t, cache.Put("7707083893", second))

	got, found, err := cache.Get("7707083893")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "ООО Ромашка", got.CompanyName)
	assert.Equal(t, "ACTIVE", got.Status)
}

// Кэш переживает переоткрытие файла.
func TestCacheSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	cache, err := OpenCache(path)
	require.NoError(t, err)
	require.NoError(t, cache.Put("1658008723", &EnrichmentRecord{CompanyName: "АО Казань"}))
	require.NoError(t, cache.Close())

	reopened, err := OpenCache(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, found, err := reopened.Get("1658008723")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "АО Казань", got.CompanyName)
}

func TestCacheCompanyName(t *testing.T) {
	cache := newTestCache(t)

	_, _, found, err := cache.GetCompanyName("7707083893")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.PutCompanyName("7707083893", "7707083893", "ПАО Сбербанк"))
	require.NoError(t, cache.PutCompanyName("7707083893", "7707083893", "другое имя"))

	inn, name, found, err := cache.GetCompanyName("7707083893")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "7707083893", inn)
	assert.Equal(t, "ПАО Сбербанк", name)
}
