// File: internal/usecase/activation_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"directory-pass/internal/domain"
	"directory-pass/internal/domain/model"
	"directory-pass/internal/domain/ports/adapter"
)

// Compile-time check
var _ ActivationUseCase = (*activationUC)(nil)

type ActivationOutcome string

const (
	// ActivationConfirmed: the gateway reported success AND the pass is
	// persisted locally.
	ActivationConfirmed ActivationOutcome = "confirmed"
	// ActivationFailed: the gateway reported a terminal failure.
	ActivationFailed ActivationOutcome = "failed"
	// ActivationUnconfirmed: timeout or cancellation. Not an error; the
	// webhook may still arrive and activate the pass later.
	ActivationUnconfirmed ActivationOutcome = "unconfirmed"
)

type ActivationResult struct {
	Outcome ActivationOutcome `json:"outcome"`
	Pass    *model.AccessPass `json:"pass,omitempty"`
	Status  string            `json:"gateway_status,omitempty"`
}

// ActivationUseCase lets a waiting client discover, without its own webhook
// endpoint, that a payment it initiated has been confirmed.
type ActivationUseCase interface {
	// WaitForActivation polls the gateway status endpoint until a terminal
	// status or the timeout. The gateway's success report is advisory: the
	// result is only Confirmed once the local pass is visible, because the
	// webhook may lag behind the gateway's own view.
	WaitForActivation(ctx context.Context, transactionID string, interval, timeout time.Duration) (ActivationResult, error)
}

type activationUC struct {
	gateway adapter.MobileMoneyGateway
	passes  AccessPassUseCase
	log     *zerolog.Logger
}

func NewActivationUseCase(gw adapter.MobileMoneyGateway, passes AccessPassUseCase, logger *zerolog.Logger) *activationUC {
	l := logger.With().Str("component", "ActivationUC").Logger()
	return &activationUC{gateway: gw, passes: passes, log: &l}
}

func (u *activationUC) WaitForActivation(ctx context.Context, transactionID string, interval, timeout time.Duration) (ActivationResult, error) {
	userID, _, ok := model.ParsePassTransactionID(transactionID)
	if !ok {
		return ActivationResult{}, domain.ErrInvalidArgument
	}
	if interval <= 0 {
		interval = 3 * time.Second
	}
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		st, err := u.gateway.GetTransactionStatus(ctx, transactionID)
		if err != nil {
			// Transient gateway trouble: keep polling until the deadline.
			u.log.Debug().Err(err).Str("tx_id", transactionID).Msg("status poll failed")
		} else {
			switch {
			case st.Succeeded:
				if res, done := u.confirmLocally(ctx, userID, st.Status); done {
					return res, nil
				}
				// Gateway says success but the webhook has not landed yet;
				// keep polling until the pass shows up or the timeout hits.
			case st.Failed:
				return ActivationResult{Outcome: ActivationFailed, Status: st.Status}, nil
			}
		}

		select {
		case <-ctx.Done():
			return ActivationResult{Outcome: ActivationUnconfirmed, Status: ""}, nil
		case <-ticker.C:
		}
	}
}

// confirmLocally re-checks the persisted pass; activation is only
// authoritative once the webhook has written it.
func (u *activationUC) confirmLocally(ctx context.Context, userID, gatewayStatus string) (ActivationResult, bool) {
	pass, err := u.passes.ActivePass(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNoActivePass) {
			u.log.Error().Err(err).Str("user_id", userID).Msg("active pass lookup failed")
		}
		return ActivationResult{}, false
	}
	return ActivationResult{Outcome: ActivationConfirmed, Pass: pass, Status: gatewayStatus}, true
}
