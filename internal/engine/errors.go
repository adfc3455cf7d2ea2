package engine

import (
	"fmt"
	"strings"
)

// Коды ошибок валидации.
const (
	CodeRequired      = "required"
	CodeNegative      = "negative"
	CodeNonPositive   = "non_positive"
	CodeOutOfRange    = "out_of_range"
	CodeUnknownEnum   = "unknown_enum"
	CodeUnknownSeller = "unknown_seller"
	CodeDateOrder     = "date_order"
	CodeEmptyQuote    = "empty_quote"
)

// FieldError описывает одно нарушение на конкретном поле. SKU пуст для
// ошибок уровня КП.
type FieldError struct {
	SKU     string
	Field   string
	Code    string
	Message string
}

func (e FieldError) Error() string {
	if e.SKU == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Field, e.SKU, e.Message)
}

// ValidationErrors — полный список нарушений одного расчета. Резолвер
// собирает все ошибки и возвращает их разом, не останавливаясь на первой.
type ValidationErrors []FieldError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Error()
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(msgs, "; "))
}

// Warning — нефатальное состояние расчета (например, промах по матрице
// наценки). Движок не пишет логи сам, предупреждения логирует вызывающий.
type Warning struct {
	SKU     string
	Field   string
	Message string
}
