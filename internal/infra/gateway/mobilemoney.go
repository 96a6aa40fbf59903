package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"directory-pass/internal/domain"
	"directory-pass/internal/domain/ports/adapter"
)

var _ adapter.MobileMoneyGateway = (*MobileMoneyGateway)(nil)

// MobileMoneyGateway talks to the mobile money aggregator over HTTP.
// The aggregator fans the cash-in out to the operator (Orange Money, MTN MoMo,
// Moov, Wave) selected by the operator code and later notifies us through the
// webhook; the status endpoint exists for clients that poll instead.
type MobileMoneyGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewMobileMoneyGateway(baseURL, apiKey string, timeout time.Duration) *MobileMoneyGateway {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &MobileMoneyGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (g *MobileMoneyGateway) Name() string { return "mobilemoney" }

type cashInResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	Reference  string `json:"reference"`
	PaymentURL string `json:"payment_url"`
	DeepLink   string `json:"deep_link"`
}

type statusResponse struct {
	ExternalTransactionID string `json:"external_transaction_id"`
	Status                string `json:"status"`
	Message               string `json:"message"`
}

// CashIn implements adapter.MobileMoneyGateway.CashIn.
func (g *MobileMoneyGateway) CashIn(ctx context.Context, req adapter.CashInRequest) (adapter.CashInResult, error) {
	payload := map[string]interface{}{
		"phone":                   req.Phone,
		"amount":                  req.Amount,
		"currency":                req.Currency,
		"operator":                req.OperatorCode,
		"external_transaction_id": req.TransactionID,
		"reference":               req.Reference,
	}

	var resp cashInResponse
	httpStatus, err := g.post(ctx, "/v1/cashin", payload, &resp)
	if err != nil {
		return adapter.CashInResult{}, err
	}
	if httpStatus >= 400 || isRejectedStatus(resp.Status) {
		msg := resp.Message
		if msg == "" {
			msg = fmt.Sprintf("http %d", httpStatus)
		}
		return adapter.CashInResult{}, fmt.Errorf("%w: %s", domain.ErrGatewayRejected, msg)
	}

	url := resp.PaymentURL
	if url == "" {
		url = resp.DeepLink
	}
	return adapter.CashInResult{ProviderRef: resp.Reference, PaymentURL: url}, nil
}

// GetTransactionStatus implements adapter.MobileMoneyGateway.GetTransactionStatus.
func (g *MobileMoneyGateway) GetTransactionStatus(ctx context.Context, transactionID string) (adapter.TransactionStatus, error) {
	payload := map[string]interface{}{
		"external_transaction_id": transactionID,
	}

	var resp statusResponse
	httpStatus, err := g.post(ctx, "/v1/transactions/status", payload, &resp)
	if err != nil {
		return adapter.TransactionStatus{}, err
	}
	if httpStatus >= 400 {
		msg := resp.Message
		if msg == "" {
			msg = fmt.Sprintf("http %d", httpStatus)
		}
		return adapter.TransactionStatus{}, fmt.Errorf("%w: %s", domain.ErrGatewayRejected, msg)
	}

	st := strings.ToUpper(strings.TrimSpace(resp.Status))
	return adapter.TransactionStatus{
		TransactionID: transactionID,
		Status:        st,
		Succeeded:     IsSuccessStatus(st),
		Failed:        isRejectedStatus(st),
	}, nil
}

func (g *MobileMoneyGateway) post(ctx context.Context, path string, payload interface{}, out interface{}) (int, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("%w: read response: %v", domain.ErrGatewayUnavailable, err)
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return resp.StatusCode, fmt.Errorf("%w: unmarshal response: %v, body: %s", domain.ErrGatewayUnavailable, err, string(body))
		}
	}
	return resp.StatusCode, nil
}

func isRejectedStatus(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FAILED", "FAILURE", "REJECTED", "DECLINED", "CANCELLED", "CANCELED", "EXPIRED", "ERROR":
		return true
	}
	return false
}
