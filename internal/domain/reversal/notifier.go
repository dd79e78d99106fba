package reversal

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// Notifier receives permission-denial events so out-of-window reversal
// attempts by sellers leave a trace for managers.
type Notifier interface {
	PermissionDenied(ctx context.Context, event AuditEvent)
}

// AuditLogNotifier persists denial events to audit_log. Failures are
// logged and swallowed: auditing must never block the caller's request.
type AuditLogNotifier struct {
	db *sqlx.DB
}

func NewAuditLogNotifier(db *sqlx.DB) *AuditLogNotifier {
	return &AuditLogNotifier{db: db}
}

func (n *AuditLogNotifier) PermissionDenied(ctx context.Context, event AuditEvent) {
	log.Warn().
		Str("actor_mobile", event.ActorMobile).
		Str("transaction_kind", string(event.Kind)).
		Int64("transaction_id", event.TransactionID).
		Float64("amount", event.Amount).
		Time("transaction_date", event.TransactionDate).
		Str("reason", event.Reason).
		Msg("Reversal permission denied")

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := n.db.ExecContext(ctx2, `
		INSERT INTO audit_log (actor_mobile, event, transaction_kind, transaction_id, amount, reason)
		VALUES ($1, 'reversal_denied', $2, $3, $4, $5)
	`, event.ActorMobile, string(event.Kind), event.TransactionID, event.Amount, event.Reason)
	if err != nil {
		log.Error().Err(err).Msg("Failed to write audit_log entry")
	}
}
