package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/MagicCL33/Dashboard/internal/date"
	"github.com/MagicCL33/Dashboard/internal/domain"
)

const maxBodyBytes = 1 << 20

// number accepts a JSON number or a string. Anything that does not parse reads as zero.
// A blank string counts as not supplied.
type number struct {
	value   decimal.Decimal
	present bool
}

func (n *number) UnmarshalJSON(b []byte) error {
	raw := string(bytes.TrimSpace(b))
	if len(raw) > 0 && raw[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
	}
	n.value = domain.CoerceDecimal(raw)
	n.present = raw != "" && raw != "null"
	return nil
}

func (n number) Decimal() decimal.Decimal { return n.value }

// Ptr is nil unless a value was supplied
func (n *number) Ptr() *decimal.Decimal {
	if n == nil || !n.present {
		return nil
	}
	d := n.value
	return &d
}

type transactionRequest struct {
	Symbol   string `json:"symbol"`
	Quantity number `json:"quantity"`
	Cost     number `json:"cost"`
	Date     string `json:"date"`
	Name     string `json:"name"`
	Notes    string `json:"notes"`
}

type annotateRequest struct {
	Name  *string `json:"name"`
	Notes *string `json:"notes"`
}

type actionRequest struct {
	Project    string  `json:"project"`
	Date       string  `json:"date"`
	Wallet     string  `json:"wallet"`
	Amount     number  `json:"amount"`
	Note       string  `json:"note"`
	Status     string  `json:"status"`
	TargetGain *number `json:"targetGain"`
}

type projectUpdateRequest struct {
	Name       *string `json:"name"`
	Status     *string `json:"status"`
	TargetGain *number `json:"targetGain"`
}

type tradeRequest struct {
	Symbol   string `json:"symbol"`
	Side     string `json:"side"`
	Quantity number `json:"quantity"`
	Price    number `json:"price"`
	Date     string `json:"date"`
	Note     string `json:"note"`
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// day parses a user supplied date. Unparseable values fall back to today in the use case.
func day(s string) date.Date {
	return date.ParseOr(s, date.Date{})
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return id, nil
}
