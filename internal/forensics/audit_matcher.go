package forensics

import "time"

type AuditMatcher struct {
	window time.Duration
}

func NewAuditMatcher(window time.Duration) *AuditMatcher {
	if window <= 0 {
		window = DefaultFreshnessWindow
	}
	return &AuditMatcher{window: window}
}

// ClockSkewTolerance extends the window past its end. Entry times come from
// the platform's clock and event receipt from ours.
const ClockSkewTolerance = time.Second

// Matches accepts entry only when it targets subjectID and was written no
// earlier than since and no later than since+window, give or take
// ClockSkewTolerance at the late end.
func (am *AuditMatcher) Matches(entry AuditEntry, subjectID string, since time.Time) bool {
	if subjectID == "" || entry.TargetID != subjectID {
		return false
	}
	if entry.At.Before(since) {
		return false
	}
	return !entry.At.After(since.Add(am.window + ClockSkewTolerance))
}

func (am *AuditMatcher) Window() time.Duration {
	return am.window
}
