package cbr

// Клиент дневных курсов ЦБ РФ (JSON-зеркало). Курс — внешний источник
// данных: движок расчета его не запрашивает, курс подставляется в параметры
// КП на уровне API.

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

type valute struct {
	CharCode string  `json:"CharCode"`
	Nominal  int64   `json:"Nominal"`
	Value    float64 `json:"Value"`
}

type dailyRates struct {
	Date   string            `json:"Date"`
	Valute map[string]valute `json:"Valute"`
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// DailyRate возвращает курс валюты к рублю за один номинал. Запрос
// повторяется с экспоненциальной паузой: зеркало отвечает нестабильно.
func (c *Client) DailyRate(ctx context.Context, charCode string) (decimal.Decimal, error) {
	var rates dailyRates

	retryPolicy := backoff.NewExponentialBackOff()
	retryPolicy.MaxElapsedTime = 30 * time.Second
	retryPolicy.MaxInterval = 5 * time.Second

	err := backoff.RetryNotify(
		func() error {
			return c.fetchDaily(ctx, &rates)
		},
		backoff.WithContext(retryPolicy, ctx),
		func(err error, duration time.Duration) {
			c.logger.Warn("CBR daily rates request failed, retrying...",
				zap.Error(err),
				zap.Duration("next_attempt_in", duration))
		},
	)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch daily rates: %w", err)
	}

	v, ok := rates.Valute[charCode]
	if !ok {
		return decimal.Zero, fmt.Errorf("currency %s not present in daily rates", charCode)
	}
	if v.Nominal <= 0 {
		return decimal.Zero, fmt.Errorf("currency %s has invalid nominal %d", charCode, v.Nominal)
	}

	rate := decimal.NewFromFloat(v.Value).DivRound(decimal.NewFromInt(v.Nominal), 4)
	return rate, nil
}

func (c *Client) fetchDaily(ctx context.Context, rates *dailyRates) error {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		fmt.Sprintf("%s/daily_json.js", c.baseURL),
		nil,
	)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(rates); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
