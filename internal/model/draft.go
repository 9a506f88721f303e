package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Draft statuses.
const (
	StatusDraft = "draft"
	StatusSent  = "sent"
)

// Draft represents a persisted scrap material order that has not necessarily
// been emailed yet.
type Draft struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Store     string     `json:"store"`
	Vendor    string     `json:"vendor,omitempty"`
	OrderNo   string     `json:"order_no,omitempty"`
	Engineer  string     `json:"engineer,omitempty"`
	FormData  FormData   `json:"form_data"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
}

// FormData maps category name -> item id -> selection.
type FormData map[string]map[string]ItemSelection

// ItemSelection is a single item's entry in a draft's form data. A zero
// quantity means the item was not selected and carries no business meaning.
type ItemSelection struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Quantity Quantity `json:"quantity"`
}

// Quantity is a signed item quantity. Form clients submit quantities as the
// raw text of an input field, so it accepts either a JSON number or a string;
// non-numeric input decodes to 0.
type Quantity float64

func (q *Quantity) UnmarshalJSON(data []byte) error {
	s := string(data)
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		*q = 0
		return nil
	}
	*q = Quantity(v)
	return nil
}

// NormalizeQuantity applies the stock-deduction sign convention to a raw
// quantity input: the input is parsed as a float and, when strictly positive,
// negated. Zero and already-negative values pass through unchanged, and
// non-numeric input yields 0.
func NormalizeQuantity(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v > 0 {
		return -v
	}
	return v
}

// Normalize applies the sign convention to every entry in place. Stored
// values are never positive, so renormalizing persisted data is a no-op.
func (fd FormData) Normalize() {
	for _, items := range fd {
		for id, item := range items {
			if item.Quantity > 0 {
				item.Quantity = -item.Quantity
				items[id] = item
			}
		}
	}
}

// SelectedCount returns the number of entries with a non-zero quantity.
func (fd FormData) SelectedCount() int {
	count := 0
	for _, items := range fd {
		for _, item := range items {
			if item.Quantity != 0 {
				count++
			}
		}
	}
	return count
}

// ValidationError reports a missing or invalid required submitter field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
