package adapter

import "context"

// CashInRequest describes a charge against a payer's mobile money wallet.
type CashInRequest struct {
	Phone         string
	OperatorCode  string // e.g. "OM", "MOMO", "MOOV", "WAVE"
	Amount        int64  // minor units
	Currency      string
	TransactionID string // externally-unique correlation id, echoed back by the webhook
	Reference     string // human-readable label shown in the payer's app
}

// CashInResult is the gateway's acknowledgment of a cash-in request.
type CashInResult struct {
	ProviderRef string // gateway-side operation id, if any
	PaymentURL  string // deep-link the payer must open to approve the charge; may be empty
}

// TransactionStatus is a point-in-time view of a cash-in operation as
// reported by the gateway's status endpoint. It is advisory: activation is
// only authoritative once the webhook has persisted the pass.
type TransactionStatus struct {
	TransactionID string
	Status        string // raw provider status
	Succeeded     bool
	Failed        bool // terminal failure; !Succeeded && !Failed means still pending
}

// MobileMoneyGateway is the hex port for the mobile money aggregator.
type MobileMoneyGateway interface {
	Name() string

	// CashIn submits a charge request. Validation errors reported by the
	// provider surface as domain.ErrGatewayRejected wrapped with the
	// provider's message; transport errors as domain.ErrGatewayUnavailable.
	CashIn(ctx context.Context, req CashInRequest) (CashInResult, error)

	// GetTransactionStatus fetches the current status by correlation id.
	GetTransactionStatus(ctx context.Context, transactionID string) (TransactionStatus, error)
}
