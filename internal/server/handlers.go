package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"kpcalc/internal/engine"
	"kpcalc/internal/export"
	"kpcalc/internal/storage"
)

const defaultOrgID = "default"

type Handlers struct {
	store    Store
	rates    RateSource
	notifier Notifier
	logger   *zap.Logger
}

func NewHandlers(store Store, rates RateSource, notifier Notifier, logger *zap.Logger) *Handlers {
	return &Handlers{
		store:    store,
		rates:    rates,
		notifier: notifier,
		logger:   logger,
	}
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CalculateQuote считает КП без сохранения.
func (h *Handlers) CalculateQuote(w http.ResponseWriter, r *http.Request) {
	result, _, ok := h.calculate(w, r)
	if !ok {
		return
	}
	h.respondJSON(w, http.StatusOK, newQuoteResponse(result))
}

// SaveQuote считает КП и сохраняет результат; уведомление уходит после
// коммита.
func (h *Handlers) SaveQuote(w http.ResponseWriter, r *http.Request) {
	result, req, ok := h.calculate(w, r)
	if !ok {
		return
	}

	input, _ := req.toEngine()

	quote := storage.Quote{
		OrgID:           orgID(req.OrgID),
		SellerCompany:   input.SellerCompany,
		ClientName:      input.ClientName,
		QuoteCurrency:   input.QuoteCurrency,
		QuoteDate:       input.QuoteDate,
		DeliveryDate:    input.DeliveryDate,
		TotalSaleExVAT:  result.Summary.TotalSaleExVAT,
		TotalSaleIncVAT: result.Summary.TotalSaleIncVAT,
		TotalProfit:     result.Summary.TotalProfit,
	}

	for _, p := range result.Products {
		values, err := json.Marshal(p.Values())
		if err != nil {
			h.respondError(w, http.StatusInternalServerError, "failed to encode product values")
			return
		}
		quote.Products = append(quote.Products, storage.QuoteProduct{
			SKU:        p.SKU,
			Name:       p.Name,
			Quantity:   p.Quantity,
			SaleIncVAT: p.SaleIncVAT,
			ValuesJSON: values,
		})
	}

	id, err := h.store.SaveQuote(r.Context(), quote)
	if err != nil {
		h.logger.Error("Failed to save quote", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to save quote")
		return
	}

	quote.ID = id
	if h.notifier != nil {
		h.notifier.QuoteSaved(quote)
	}

	resp := newQuoteResponse(result)
	resp.QuoteID = id
	h.respondJSON(w, http.StatusCreated, resp)
}

// GetQuote возвращает сохраненное КП с плоскими картами величин позиций.
func (h *Handlers) GetQuote(w http.ResponseWriter, r *http.Request) {
	quote, ok := h.loadQuote(w, r)
	if !ok {
		return
	}

	type savedProduct struct {
		Position int             `json:"position"`
		SKU      string          `json:"sku"`
		Name     string          `json:"name"`
		Quantity json.RawMessage `json:"quantity"`
		Values   json.RawMessage `json:"values"`
	}

	products := make([]savedProduct, 0, len(quote.Products))
	for _, p := range quote.Products {
		qty, _ := json.Marshal(p.Quantity)
		products = append(products, savedProduct{
			Position: p.Position,
			SKU:      p.SKU,
			Name:     p.Name,
			Quantity: qty,
			Values:   json.RawMessage(p.ValuesJSON),
		})
	}

	h.respondJSON(w, http.StatusOK, map[string]any{
		"id":                 quote.ID,
		"org_id":             quote.OrgID,
		"seller_company":     quote.SellerCompany,
		"client_name":        quote.ClientName,
		"quote_currency":     quote.QuoteCurrency,
		"quote_date":         quote.QuoteDate.Format(dateLayout),
		"delivery_date":      quote.DeliveryDate.Format(dateLayout),
		"total_sale_ex_vat":  quote.TotalSaleExVAT,
		"total_sale_inc_vat": quote.TotalSaleIncVAT,
		"total_profit":       quote.TotalProfit,
		"products":           products,
	})
}

// ExportQuote выгружает сохраненное КП в xlsx.
func (h *Handlers) ExportQuote(w http.ResponseWriter, r *http.Request) {
	quote, ok := h.loadQuote(w, r)
	if !ok {
		return
	}

	result := &engine.Result{
		Summary: engine.QuoteSummary{
			TotalSaleExVAT:  quote.TotalSaleExVAT,
			TotalSaleIncVAT: quote.TotalSaleIncVAT,
			TotalProfit:     quote.TotalProfit,
		},
	}
	for _, p := range quote.Products {
		values, err := p.Values()
		if err != nil {
			h.logger.Error("Failed to decode saved product values",
				zap.Int64("quote_id", quote.ID),
				zap.String("sku", p.SKU),
				zap.Error(err))
			h.respondError(w, http.StatusInternalServerError, "failed to decode saved quote")
			return
		}
		result.Products = append(result.Products,
			engine.ProductResultFromValues(p.SKU, p.Name, p.Quantity, values))
	}

	header := export.QuoteWorkbook{
		QuoteID:       quote.ID,
		SellerCompany: quote.SellerCompany,
		ClientName:    quote.ClientName,
		QuoteDate:     quote.QuoteDate,
		DeliveryDate:  quote.DeliveryDate,
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=quote_%d.xlsx", quote.ID))

	if err := export.WriteQuote(w, header, result); err != nil {
		// Заголовки уже ушли, остается залогировать.
		h.logger.Error("Failed to write workbook", zap.Int64("quote_id", quote.ID), zap.Error(err))
	}
}

func (h *Handlers) GetAdminSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.AdminSettings(r.Context(), orgID(r.URL.Query().Get("org_id")))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, "admin settings not found")
			return
		}
		h.logger.Error("Failed to get admin settings", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to get admin settings")
		return
	}

	h.respondJSON(w, http.StatusOK, adminSettingsDTO{
		FXRiskPct:          settings.FXRiskPct,
		AgentCommissionPct: settings.AgentCommissionPct,
		DailyInterestRate:  settings.DailyInterestRate,
	})
}

func (h *Handlers) PutAdminSettings(w http.ResponseWriter, r *http.Request) {
	var dto adminSettingsDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if dto.FXRiskPct.IsNegative() || dto.AgentCommissionPct.IsNegative() || dto.DailyInterestRate.IsNegative() {
		h.respondError(w, http.StatusBadRequest, "rates must be non-negative")
		return
	}

	settings := engine.AdminSettings{
		FXRiskPct:          dto.FXRiskPct,
		AgentCommissionPct: dto.AgentCommissionPct,
		DailyInterestRate:  dto.DailyInterestRate,
	}

	if err := h.store.SaveAdminSettings(r.Context(), orgID(r.URL.Query().Get("org_id")), settings); err != nil {
		h.logger.Error("Failed to save admin settings", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to save admin settings")
		return
	}

	h.respondJSON(w, http.StatusOK, dto)
}

// GetRate отдает дневной курс: сперва кэш, затем внешний источник.
func (h *Handlers) GetRate(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(chi.URLParam(r, "code"))

	if rate, err := h.store.CachedRate(r.Context(), code); err == nil {
		h.respondJSON(w, http.StatusOK, map[string]any{"char_code": code, "rate": rate})
		return
	}

	rate, err := h.rates.DailyRate(r.Context(), code)
	if err != nil {
		h.logger.Error("Failed to fetch daily rate", zap.String("char_code", code), zap.Error(err))
		h.respondError(w, http.StatusBadGateway, "failed to fetch daily rate")
		return
	}

	if err := h.store.CacheRate(r.Context(), code, rate); err != nil {
		h.logger.Warn("Failed to cache daily rate", zap.String("char_code", code), zap.Error(err))
	}

	h.respondJSON(w, http.StatusOK, map[string]any{"char_code": code, "rate": rate})
}

// calculate разбирает тело запроса и прогоняет расчет. Ошибки маппинга и
// валидации уходят клиенту одним списком со статусом 400.
func (h *Handlers) calculate(w http.ResponseWriter, r *http.Request) (*engine.Result, quoteRequest, bool) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return nil, req, false
	}

	input, mapErrs := req.toEngine()
	if len(mapErrs) > 0 {
		h.respondValidationErrors(w, mapErrs)
		return nil, req, false
	}

	settings, err := h.store.AdminSettings(r.Context(), orgID(req.OrgID))
	if err != nil {
		// Нулевые ставки молча исказили бы каждую цену; без настроек
		// организации расчет не выполняется.
		if errors.Is(err, storage.ErrNotFound) {
			h.respondError(w, http.StatusUnprocessableEntity, "admin settings are not configured for this organization")
			return nil, req, false
		}
		h.logger.Error("Failed to get admin settings", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to get admin settings")
		return nil, req, false
	}

	result, err := engine.Calculate(input, settings)
	if err != nil {
		var verrs engine.ValidationErrors
		if errors.As(err, &verrs) {
			h.respondValidationErrors(w, verrs)
			return nil, req, false
		}
		h.logger.Error("Calculation failed", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "calculation failed")
		return nil, req, false
	}

	for _, warning := range result.Warnings {
		h.logger.Warn("Calculation warning",
			zap.String("sku", warning.SKU),
			zap.String("field", warning.Field),
			zap.String("message", warning.Message))
	}

	return result, req, true
}

func (h *Handlers) loadQuote(w http.ResponseWriter, r *http.Request) (*storage.Quote, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid quote id")
		return nil, false
	}

	quote, err := h.store.QuoteByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, "quote not found")
			return nil, false
		}
		h.logger.Error("Failed to get quote", zap.Int64("id", id), zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to get quote")
		return nil, false
	}

	return quote, true
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

func (h *Handlers) respondValidationErrors(w http.ResponseWriter, errs engine.ValidationErrors) {
	h.respondJSON(w, http.StatusBadRequest, map[string]any{
		"errors": newFieldErrorResponses(errs),
	})
}

func orgID(raw string) string {
	if raw == "" {
		return defaultOrgID
	}
	return raw
}
