package enrichment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Типы фрагментов ответа реестра.
const (
	BranchTypeMain   = "MAIN"
	BranchTypeBranch = "BRANCH"
)

// StatusLiquidated статус ликвидированного юрлица в ответе Dadata.
const StatusLiquidated = "LIQUIDATED"

// DadataConfig конфигурация клиента Dadata
type DadataConfig struct {
	APIKey        string
	BaseURL       string
	Timeout       time.Duration
	MaxRequests   int           // Максимум запросов в минуту
	RetryCooldown time.Duration // Пауза перед единственным повтором при обрыве связи
}

// DadataClient клиент справочника юрлиц Dadata (findById/party)
type DadataClient struct {
	config  DadataConfig
	client  *http.Client
	limiter *rate.Limiter
	sleep   func(time.Duration)
}

// NewDadataClient создает новый клиент Dadata
func NewDadataClient(config DadataConfig) *DadataClient {
	if config.BaseURL == "" {
		config.BaseURL = "https://suggestions.dadata.ru"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxRequests == 0 {
		config.MaxRequests = 100
	}
	if config.RetryCooldown == 0 {
		config.RetryCooldown = 30 * time.Second
	}

	return &DadataClient{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(config.MaxRequests)), 1),
		sleep:   time.Sleep,
	}
}

type dadataRequest struct {
	Query string `json:"query"`
}

type dadataResponse struct {
	Suggestions []dadataSuggestion `json:"suggestions"`
}

type dadataSuggestion struct {
	Value string       `json:"value"`
	Data  *dadataParty `json:"data"`
}

type dadataParty struct {
	KPP        string         `json:"kpp"`
	Type       string         `json:"type"` // LEGAL, INDIVIDUAL
	BranchType string         `json:"branch_type"`
	OKVED      string         `json:"okved"`
	Name       *dadataName    `json:"name"`
	OPF        *dadataOPF     `json:"opf"`
	Address    *dadataAddress `json:"address"`
	State      *dadataState   `json:"state"`
}

type dadataName struct {
	Full  string `json:"full"`
	Short string `json:"short"`
}

type dadataOPF struct {
	Short string `json:"short"`
}

type dadataAddress struct {
	Value             string             `json:"value"`
	UnrestrictedValue string             `json:"unrestricted_value"`
	Data              *dadataAddressData `json:"data"`
}

type dadataAddressData struct {
	RegionWithType  string `json:"region_with_type"`
	FederalDistrict string `json:"federal_district"`
	City            string `json:"city"`
}

type dadataState struct {
	Status           string `json:"status"`
	RegistrationDate *int64 `json:"registration_date"` // миллисекунды epoch
	LiquidationDate  *int64 `json:"liquidation_date"`
}

// Fragment один элемент ответа реестра: головная организация, филиал или
// запись без типа.
type Fragment struct {
	Value            string // наименование из подсказки
	KPP              string
	PartyType        string // LEGAL / INDIVIDUAL
	BranchType       string // MAIN / BRANCH / ""
	CompanyName      string // "{ОПФ} {полное наименование}"
	Address          string
	Region           string
	FederalDistrict  string
	City             string
	OKVED            string
	Status           string
	RegistrationDate string
	LiquidationDate  string
	hasAddressData   bool
}

// Lookup запрашивает реестр по ИНН. При обрыве связи выполняется ровно один
// повтор после фиксированной паузы; любые прочие сбои логируются, а результат
// считается отсутствующим (nil, nil). Ошибка возвращается только когда ответ
// пришел, но его не удалось разобрать.
func (c *DadataClient) Lookup(ctx context.Context, taxID string) ([]Fragment, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := c.doRequest(ctx, taxID)
	if err != nil {
		log.Printf("[Dadata] обрыв связи для ИНН %s: %v, повтор через %s", taxID, err, c.config.RetryCooldown)
		c.sleep(c.config.RetryCooldown)
		body, err = c.doRequest(ctx, taxID)
		if err != nil {
			log.Printf("[Dadata] повторный запрос для ИНН %s не удался: %v", taxID, err)
			return nil, nil
		}
	}
	if body == nil {
		return nil, nil
	}

	var resp dadataResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("разбор ответа dadata: %w", err)
	}

	fragments := make([]Fragment, 0, len(resp.Suggestions))
	for _, s := range resp.Suggestions {
		if s.Data == nil {
			continue
		}
		fragments = append(fragments, toFragment(s))
	}
	return fragments, nil
}

// doRequest выполняет один HTTP-запрос. Сетевая ошибка возвращается как err,
// неуспешный статус логируется и дает (nil, nil) — такие ответы не повторяем.
func (c *DadataClient) doRequest(ctx context.Context, taxID string) ([]byte, error) {
	payload, err := json.Marshal(dadataRequest{Query: taxID})
	if err != nil {
		return nil, err
	}

	reqURL := c.config.BaseURL + "/suggestions/api/4_1/rs/findById/party"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Token "+c.config.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("[Dadata] статус %d для ИНН %s: %s", resp.StatusCode, taxID, string(body))
		return nil, nil
	}
	return body, nil
}

func toFragment(s dadataSuggestion) Fragment {
	data := s.Data
	fr := Fragment{
		Value:      s.Value,
		KPP:        data.KPP,
		PartyType:  data.Type,
		BranchType: data.BranchType,
		OKVED:      data.OKVED,
	}

	if data.Name != nil {
		opf := ""
		if data.OPF != nil {
			opf = data.OPF.Short
		}
		fr.CompanyName = strings.TrimSpace(opf + " " + data.Name.Full)
	}

	if addr := data.Address; addr != nil {
		fr.Address = addr.UnrestrictedValue
		if addr.Data != nil {
			fr.Region = addr.Data.RegionWithType
			fr.FederalDistrict = addr.Data.FederalDistrict
			fr.City = addr.Data.City
			fr.hasAddressData = true
		}
	}

	if st := data.State; st != nil {
		fr.Status = st.Status
		fr.RegistrationDate = formatEpochMillis(st.RegistrationDate)
		fr.LiquidationDate = formatEpochMillis(st.LiquidationDate)
	}
	return fr
}

func formatEpochMillis(ms *int64) string {
	if ms == nil {
		return ""
	}
	return time.UnixMilli(*ms).UTC().Format("2006-01-02")
}
