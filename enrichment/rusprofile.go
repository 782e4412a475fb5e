package enrichment

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// RusprofileResolver ищет наименование компании по ИНН (и наоборот) на
// rusprofile.ru. Используется вспомогательным сценарием, когда в выгрузке
// есть только наименование без ИНН.
type RusprofileResolver struct {
	baseURL string
	client  *http.Client
	cache   *Cache
}

// NewRusprofileResolver создает резолвер поверх общего кэша.
func NewRusprofileResolver(cache *Cache) *RusprofileResolver {
	return &RusprofileResolver{
		baseURL: "https://www.rusprofile.ru",
		client:  &http.Client{Timeout: 30 * time.Second},
		cache:   cache,
	}
}

var multiSpaceRe = regexp.MustCompile(` +`)

// ResolveName возвращает наименование компании по ИНН. Сначала смотрит в
// кэш; результат поиска кэшируется, первая запись выигрывает.
func (r *RusprofileResolver) ResolveName(ctx context.Context, taxID string) (string, error) {
	if _, name, found, err := r.cache.GetCompanyName(taxID); err == nil && found {
		return name, nil
	}

	doc, err := r.search(ctx, taxID)
	if err != nil {
		return "", err
	}

	// Страница одной компании: наименование в заголовке карточки
	name := strings.TrimSpace(doc.Find(`h1[itemprop="name"]`).First().Text())

	// Страница результатов: ищем элемент, в котором совпал сам ИНН
	if name == "" {
		doc.Find("div.company-item").EachWithBreak(func(_ int, item *goquery.Selection) bool {
			matched := strings.TrimSpace(item.Find("span.finded-text").First().Text())
			if matched != taxID {
				return true
			}
			name = strings.TrimSpace(item.Find("a").First().Text())
			return false
		})
	}
	if name == "" {
		return "", fmt.Errorf("rusprofile: наименование для ИНН %s не найдено", taxID)
	}

	name = multiSpaceRe.ReplaceAllString(name, " ")
	if err := r.cache.PutCompanyName(taxID, taxID, name); err != nil {
		return name, err
	}
	return name, nil
}

func (r *RusprofileResolver) search(ctx context.Context, query string) (*goquery.Document, error) {
	reqURL := r.baseURL + "/search?query=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rusprofile: запрос не удался: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rusprofile: статус %d", resp.StatusCode)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}
