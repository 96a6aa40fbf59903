// File: internal/usecase/purchase_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"directory-pass/internal/config"
	"directory-pass/internal/domain"
	"directory-pass/internal/domain/model"
	"directory-pass/internal/domain/ports/adapter"
	"directory-pass/internal/infra/logging"
	"directory-pass/internal/infra/metrics"
)

// Compile-time check
var _ PurchaseUseCase = (*purchaseUC)(nil)

// InitiatedPurchase is what the client needs to continue the flow: the
// correlation id for polling, and a deep-link to approve the charge when the
// gateway returned one.
type InitiatedPurchase struct {
	TransactionID string `json:"transaction_id"`
	PaymentURL    string `json:"payment_url,omitempty"`
	ProviderRef   string `json:"provider_ref,omitempty"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
}

// PurchaseUseCase turns a purchase intent into a cash-in request against the
// gateway. It never touches the access pass table; activation belongs to the
// webhook receiver alone.
type PurchaseUseCase interface {
	Initiate(ctx context.Context, userID, phone, operatorCode string, amount int64) (*InitiatedPurchase, error)
}

type purchaseUC struct {
	gateway adapter.MobileMoneyGateway
	pass    config.PassConfig
	dev     bool
	log     *zerolog.Logger
	now     func() time.Time
}

func NewPurchaseUseCase(gw adapter.MobileMoneyGateway, pass config.PassConfig, dev bool, logger *zerolog.Logger) *purchaseUC {
	l := logger.With().Str("component", "PurchaseUC").Logger()
	return &purchaseUC{gateway: gw, pass: pass, dev: dev, log: &l, now: time.Now}
}

func (u *purchaseUC) Initiate(ctx context.Context, userID, phone, operatorCode string, amount int64) (*InitiatedPurchase, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if amount != u.pass.PriceAmount {
		return nil, fmt.Errorf("%w: got %d, want %d", domain.ErrPriceMismatch, amount, u.pass.PriceAmount)
	}
	if !u.pass.OperatorAllowed(operatorCode) {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedOperator, operatorCode)
	}
	phone = normalizePhone(phone)
	if !validPhone(phone) {
		return nil, domain.ErrInvalidPhone
	}

	txID := model.NewPassTransactionID(userID, u.now())
	res, err := u.gateway.CashIn(ctx, adapter.CashInRequest{
		Phone:         phone,
		OperatorCode:  strings.ToUpper(strings.TrimSpace(operatorCode)),
		Amount:        amount,
		Currency:      u.pass.Currency,
		TransactionID: txID,
		Reference:     "Directory access pass",
	})
	if err != nil {
		outcome := "unavailable"
		if errors.Is(err, domain.ErrGatewayRejected) {
			outcome = "rejected"
		}
		metrics.IncCashIn(outcome)
		u.log.Error().Err(err).
			Str("user_id", userID).
			Str("phone", logging.Redact(phone, u.dev)).
			Msg("cash-in failed")
		return nil, err
	}

	metrics.IncCashIn("accepted")
	u.log.Info().
		Str("user_id", userID).
		Str("tx_id", txID).
		Str("operator", operatorCode).
		Msg("cash-in submitted")

	return &InitiatedPurchase{
		TransactionID: txID,
		PaymentURL:    res.PaymentURL,
		ProviderRef:   res.ProviderRef,
		Amount:        amount,
		Currency:      u.pass.Currency,
	}, nil
}

func normalizePhone(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsDigit(r) || (r == '+' && b.Len() == 0) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func validPhone(s string) bool {
	digits := strings.TrimPrefix(s, "+")
	if len(digits) < 8 || len(digits) > 15 {
		return false
	}
	for _, r := range digits {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
