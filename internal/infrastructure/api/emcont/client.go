// internal/infrastructure/api/emcont/client.go
package emcont

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"forex-quotes-streamer/internal/core/domain/quotes"
)

// Фид оборачивает JSON в callback-обертку вида null({...});
var envelopeRe = regexp.MustCompile(`^null\(|\);\s*$`)

// Client - клиент внешнего источника котировок
type Client struct {
	httpClient *http.Client
	url        string
}

// ratesResponse - тело ответа фида после снятия обертки
type ratesResponse struct {
	Rates []struct {
		Symbol string  `json:"Symbol"`
		Bid    float64 `json:"Bid"`
		Ask    float64 `json:"Ask"`
	} `json:"Rates"`
}

// NewClient создает новый клиент фида
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		url:        url,
	}
}

// FetchRates запрашивает котировки и сопоставляет их с известными инструментами.
// Записи с неизвестными символами молча отбрасываются. Значение котировки -
// середина между Bid и Ask; отсутствующие поля считаются нулевыми.
func (c *Client) FetchRates(ctx context.Context, symbols map[string]int) ([]quotes.Rate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	// Снимаем callback-обертку
	payload := envelopeRe.ReplaceAll(body, nil)
	if len(payload) == 0 {
		return nil, fmt.Errorf("empty response body")
	}

	var parsed ratesResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse rates response: %w", err)
	}

	rates := make([]quotes.Rate, 0, len(parsed.Rates))
	for _, r := range parsed.Rates {
		assetID, ok := symbols[r.Symbol]
		if !ok {
			continue
		}
		rates = append(rates, quotes.Rate{
			AssetID: assetID,
			Value:   (r.Bid + r.Ask) / 2,
		})
	}

	return rates, nil
}
