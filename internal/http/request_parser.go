// Package http provides the JSON API server and its handlers.
//
// This file implements parsing of expense payloads. Bodies may be JSON or
// multipart/form-data; only the multipart form can carry a receipt image.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"spendwise/internal/core"
	"spendwise/internal/services"
)

const receiptField = "receipt"

// expenseRequest is the JSON form of an expense payload. Amount is either a
// JSON number or a string, which may hold an arithmetic expression.
type expenseRequest struct {
	Amount      json.RawMessage `json:"amount"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
	Category    string          `json:"category"`
}

// classifyRequest is the body of a dry-run classification.
type classifyRequest struct {
	Description string          `json:"description"`
	Amount      json.RawMessage `json:"amount,omitempty"`
	ReceiptText string          `json:"receipt_text,omitempty"`
}

// parseExpenseRequest reads an expense payload. A missing date defaults to
// today.
func parseExpenseRequest(r *http.Request, maxBytes int64, today core.Date) (services.NewExpense, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		return parseMultipartExpense(r, maxBytes, today)
	case "application/x-www-form-urlencoded":
		r.Body = http.MaxBytesReader(nil, r.Body, maxBytes)
		if err := r.ParseForm(); err != nil {
			return services.NewExpense{}, formError(err)
		}
		return buildExpense(r.PostForm.Get("amount"), nil, r.PostForm.Get("description"),
			r.PostForm.Get("date"), r.PostForm.Get("category"), nil, today)
	default:
		var req expenseRequest
		if err := decodeJSON(r, maxBytes, &req); err != nil {
			return services.NewExpense{}, err
		}
		return buildExpense("", req.Amount, req.Description, req.Date, req.Category, nil, today)
	}
}

func parseMultipartExpense(r *http.Request, maxBytes int64, today core.Date) (services.NewExpense, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return services.NewExpense{}, formError(err)
	}

	var image []byte
	file, _, err := r.FormFile(receiptField)
	switch {
	case err == nil:
		defer file.Close()
		image, err = io.ReadAll(file)
		if err != nil {
			return services.NewExpense{}, fmt.Errorf("%w: read receipt: %v", errBadRequest, err)
		}
	case !errors.Is(err, http.ErrMissingFile):
		return services.NewExpense{}, fmt.Errorf("%w: receipt: %v", errBadRequest, err)
	}

	return buildExpense(r.FormValue("amount"), nil, r.FormValue("description"),
		r.FormValue("date"), r.FormValue("category"), image, today)
}

func formError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return fmt.Errorf("%w: %v", errBadRequest, err)
}

// buildExpense validates raw field values. amountJSON takes precedence over
// amountText when set.
func buildExpense(amountText string, amountJSON json.RawMessage, description, date, category string, image []byte, today core.Date) (services.NewExpense, error) {
	var (
		amount core.Money
		err    error
	)
	if len(amountJSON) > 0 {
		amount, err = parseAmountJSON(amountJSON)
	} else {
		amount, err = core.EvaluateAmount(amountText)
	}
	if err != nil {
		return services.NewExpense{}, err
	}

	out := services.NewExpense{
		Amount:      amount,
		Description: sanitizeInput(description),
		Date:        today,
		Receipt:     image,
	}

	if v := strings.TrimSpace(date); v != "" {
		if out.Date, err = core.ParseDate(v); err != nil {
			return services.NewExpense{}, err
		}
	}
	if v := strings.TrimSpace(category); v != "" {
		if out.Category, err = core.ParseCategory(v); err != nil {
			return services.NewExpense{}, err
		}
	}
	return out, nil
}

// parseAmountJSON accepts a JSON number or a JSON string holding an amount
// expression.
func parseAmountJSON(raw json.RawMessage) (core.Money, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return core.Money{}, fmt.Errorf("%w: %s", core.ErrInvalidAmount, raw)
		}
		return core.EvaluateAmount(s)
	}
	var m core.Money
	if err := m.UnmarshalJSON(raw); err != nil {
		return core.Money{}, err
	}
	if err := m.Validate(); err != nil {
		return core.Money{}, err
	}
	return m, nil
}

func decodeJSON(r *http.Request, maxBytes int64, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxBytes))
	if err != nil {
		return formError(err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return fmt.Errorf("%w: empty body", errBadRequest)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", errBadRequest, err)
	}
	return nil
}

// referenceTime returns the instant insights are computed for. The optional
// "date" query parameter pins it to a calendar date; otherwise the clock is
// used.
func referenceTime(r *http.Request, now func() time.Time) (time.Time, error) {
	v := strings.TrimSpace(r.URL.Query().Get("date"))
	if v == "" {
		return now(), nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return time.Time{}, err
	}
	return d.Time, nil
}

// parseListFilter reads the q and category query parameters.
func parseListFilter(r *http.Request) (services.Filter, error) {
	q := r.URL.Query()
	f := services.Filter{Search: sanitizeInput(q.Get("q"))}
	if v := strings.TrimSpace(q.Get("category")); v != "" {
		c, err := core.ParseCategory(v)
		if err != nil {
			return services.Filter{}, err
		}
		f.Category = c
	}
	return f, nil
}

// parseLimit reads the optional "limit" query parameter. Zero means no limit.
func parseLimit(r *http.Request) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get("limit"))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: invalid limit %q", errBadRequest, v)
	}
	return n, nil
}

// sanitizeInput removes control characters (except tab and newlines) and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
