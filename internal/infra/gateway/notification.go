package gateway

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"directory-pass/internal/domain"
)

// ErrNoTransactionID marks a syntactically valid payload that carries no
// recognizable correlation id. Not malformed: some gateways deliver event
// types without one, and those are non-events to acknowledge, not reject.
var ErrNoTransactionID = errors.New("no transaction id in payload")

// Notification is the normalized view of an inbound gateway webhook payload.
// The raw JSON shape is owned by the aggregator and has drifted across
// endpoints and versions, so field extraction runs a small ordered list of
// strategies instead of trusting a single schema.
type Notification struct {
	TransactionID string
	Status        string // normalized: upper-cased, trimmed
	Amount        int64  // 0 when absent
	Currency      string // "" when absent
}

// Success reports whether the notification carries a recognized success
// signal. Anything else is a non-event: acknowledged, never activated.
func (n Notification) Success() bool { return IsSuccessStatus(n.Status) }

// successStatuses is the explicit allow-list of provider success markers,
// covering both status strings and the short numeric codes some endpoints
// return instead.
var successStatuses = map[string]struct{}{
	"SUCCESS":    {},
	"SUCCESSFUL": {},
	"COMPLETED":  {},
	"APPROVED":   {},
	"PAID":       {},
	"OK":         {},
	"0":          {},
	"00":         {},
	"200":        {},
}

// IsSuccessStatus checks a normalized representation of the status against
// the allow-list.
func IsSuccessStatus(s string) bool {
	_, ok := successStatuses[strings.ToUpper(strings.TrimSpace(s))]
	return ok
}

// transactionIDFields and statusFields are tried in order, at the top level
// first and then under the conventional wrapper objects.
var (
	transactionIDFields = []string{
		"externalTransactionId",
		"external_transaction_id",
		"externalTransactionID",
		"transactionId",
		"transaction_id",
		"merchantTransactionId",
		"reference",
	}
	statusFields   = []string{"status", "transactionStatus", "code", "statusCode", "state"}
	amountFields   = []string{"amount", "transactionAmount"}
	currencyFields = []string{"currency", "currencyCode"}
	wrapperFields  = []string{"data", "transaction", "payload", "event"}
)

// ParseNotification decodes a raw webhook body. A body that is not a JSON
// object fails with domain.ErrInvalidArgument; a valid object with no
// locatable transaction id fails with ErrNoTransactionID. Unknown statuses
// are kept verbatim for the caller to classify.
func ParseNotification(raw []byte) (Notification, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Notification{}, domain.ErrInvalidArgument
	}

	txID, ok := extractString(doc, transactionIDFields)
	if !ok {
		return Notification{}, ErrNoTransactionID
	}

	n := Notification{TransactionID: txID}
	if st, ok := extractString(doc, statusFields); ok {
		n.Status = strings.ToUpper(strings.TrimSpace(st))
	}
	if amt, ok := extractNumber(doc, amountFields); ok {
		n.Amount = amt
	}
	if cur, ok := extractString(doc, currencyFields); ok {
		n.Currency = strings.ToUpper(strings.TrimSpace(cur))
	}
	return n, nil
}

// extractString tries each candidate field at the top level, then one level
// down inside the known wrapper objects.
func extractString(doc map[string]interface{}, fields []string) (string, bool) {
	if s, ok := stringAt(doc, fields); ok {
		return s, true
	}
	for _, w := range wrapperFields {
		if inner, ok := doc[w].(map[string]interface{}); ok {
			if s, ok := stringAt(inner, fields); ok {
				return s, true
			}
		}
	}
	return "", false
}

func extractNumber(doc map[string]interface{}, fields []string) (int64, bool) {
	if n, ok := numberAt(doc, fields); ok {
		return n, true
	}
	for _, w := range wrapperFields {
		if inner, ok := doc[w].(map[string]interface{}); ok {
			if n, ok := numberAt(inner, fields); ok {
				return n, true
			}
		}
	}
	return 0, false
}

func stringAt(m map[string]interface{}, fields []string) (string, bool) {
	for _, f := range fields {
		switch v := m[f].(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return v, true
			}
		case float64:
			return strconv.FormatInt(int64(v), 10), true
		}
	}
	return "", false
}

func numberAt(m map[string]interface{}, fields []string) (int64, bool) {
	for _, f := range fields {
		switch v := m[f].(type) {
		case float64:
			return int64(v), true
		case string:
			if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}
