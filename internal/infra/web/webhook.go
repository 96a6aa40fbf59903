package web

import (
	"errors"
	"io"
	"net/http"

	"directory-pass/internal/domain"
	"directory-pass/internal/domain/model"
	"directory-pass/internal/infra/gateway"
	"directory-pass/internal/infra/logging"
	"directory-pass/internal/infra/metrics"
)

// maxWebhookBody caps what we are willing to read from the gateway.
const maxWebhookBody = 1 << 20

// handleWebhook is the single source of truth for turning a successful
// payment into an active pass. The gateway delivers at least once and
// retries aggressively on non-2xx, so every processed-or-ignored outcome
// answers 200; only signature failures (401), unreadable bodies (400) and
// our own faults (500) deviate.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "Unreadable body", http.StatusBadRequest)
		return
	}

	if s.webhookSecret != "" {
		if !s.signatureValid(r, body) {
			metrics.IncWebhookEvent("bad_signature")
			s.log.Warn().Msg("webhook signature mismatch")
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}
	}

	note, err := gateway.ParseNotification(body)
	if err != nil {
		// Valid JSON without a correlation id is some other event type from
		// the gateway. Acknowledge it or it will be redelivered forever.
		if errors.Is(err, gateway.ErrNoTransactionID) {
			metrics.IncWebhookEvent("ignored")
			s.log.Debug().Msg("webhook without transaction id, ignoring")
			w.WriteHeader(http.StatusOK)
			return
		}
		metrics.IncWebhookEvent("malformed")
		s.log.Warn().Err(err).Msg("unparseable webhook body")
		http.Error(w, "Unparseable body", http.StatusBadRequest)
		return
	}

	ctx := logging.WithTxID(r.Context(), note.TransactionID)
	log := logging.With(ctx, s.log)

	// Not our correlation id: somebody else's event. Acknowledge so the
	// gateway stops retrying; write nothing.
	userID, _, ok := model.ParsePassTransactionID(note.TransactionID)
	if !ok {
		metrics.IncWebhookEvent("ignored")
		log.Debug().Msg("webhook for foreign transaction id, ignoring")
		w.WriteHeader(http.StatusOK)
		return
	}

	// Non-success outcomes are non-events: absence of activation is the
	// failure state, nothing to persist.
	if !note.Success() {
		metrics.IncWebhookEvent("ignored")
		log.Info().Str("status", note.Status).Msg("webhook reports non-success, ignoring")
		w.WriteHeader(http.StatusOK)
		return
	}

	if s.dedup != nil {
		if seen, err := s.dedup.Seen(ctx, body); err == nil && seen {
			metrics.IncWebhookEvent("duplicate")
			log.Debug().Msg("duplicate webhook delivery")
			// Fall through anyway: the grant is idempotent, and the pass
			// must exist even if the first delivery died mid-write.
		}
	}

	amount := note.Amount
	if amount == 0 {
		amount = s.passCfg.PriceAmount
	}
	currency := note.Currency
	if currency == "" {
		currency = s.passCfg.Currency
	}

	if _, err := s.passUC.GrantOrExtend(ctx, userID, amount, currency, s.passCfg.Duration); err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			metrics.IncWebhookEvent("ignored")
			w.WriteHeader(http.StatusOK)
			return
		}
		metrics.IncWebhookEvent("error")
		log.Error().Err(err).Msg("webhook activation failed")
		http.Error(w, "Activation failed", http.StatusInternalServerError)
		return
	}

	s.endGuardSession(userID)

	metrics.IncWebhookEvent("activated")
	metrics.AddPaymentRevenue(currency, amount)
	log.Info().Str("user_id", userID).Msg("payment confirmed, pass activated")
	w.WriteHeader(http.StatusOK)
}

// signatureValid probes the conventional signature header names; the exact
// one is gateway-defined and has varied.
func (s *Server) signatureValid(r *http.Request, body []byte) bool {
	for _, h := range gateway.SignatureHeaders {
		if v := r.Header.Get(h); v != "" {
			return gateway.VerifySignature(s.webhookSecret, body, v)
		}
	}
	return false
}
