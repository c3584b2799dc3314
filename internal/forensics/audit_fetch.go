package forensics

import (
	"context"
	"time"
)

// AuditEntry is one audit log record, reduced to what attribution needs.
type AuditEntry struct {
	ID       string
	Action   AuditAction
	ActorID  string
	TargetID string
	Reason   string
	// At is derived from the entry's snowflake id.
	At time.Time
}

// AuditSource returns the newest audit entries of one action type, newest
// first. The platform only filters by action and recency, never by target.
type AuditSource interface {
	LatestAuditEntries(ctx context.Context, guildID string, action AuditAction, limit int) ([]AuditEntry, error)
}
