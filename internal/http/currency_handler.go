package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/obinna-o/go_marketgate/internal/currency"
)

type CurrencyHandler struct {
	converter *currency.Converter
	timeout   time.Duration
}

func NewCurrencyHandler(converter *currency.Converter, timeout time.Duration) *CurrencyHandler {
	return &CurrencyHandler{
		converter: converter,
		timeout:   timeout,
	}
}

type ConvertResponseDTO struct {
	Amount    float64 `json:"amount"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Converted float64 `json:"converted"`
	Symbol    string  `json:"symbol"`
	// Known is false when a rate was missing and the amount passed through
	// unconverted.
	Known bool `json:"known"`
}

func (h *CurrencyHandler) Convert(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeoutContext(r, h.timeout)
	defer cancel()

	q := r.URL.Query()
	amount, err := strconv.ParseFloat(q.Get("amount"), 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount", "amount must be a number")
		return
	}

	from := strings.ToUpper(q.Get("from"))
	to := strings.ToUpper(q.Get("to"))
	if from == "" || to == "" {
		respondError(w, http.StatusBadRequest, "invalid_currency", "from and to currency codes are required")
		return
	}

	known := true
	if from != to {
		table := h.converter.Rates(ctx)
		known = table.Lookup(from).Known && table.Lookup(to).Known
	}

	respondJSON(w, http.StatusOK, ConvertResponseDTO{
		Amount:    amount,
		From:      from,
		To:        to,
		Converted: h.converter.Convert(ctx, amount, from, to),
		Symbol:    currency.Symbol(to),
		Known:     known,
	})
}
