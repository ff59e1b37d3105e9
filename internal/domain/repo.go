package domain

import (
	"context"
	"time"
)

// LogEntry is one row of the append-only audit trail.
type LogEntry struct {
	ID        uint
	Timestamp time.Time
	Action    string
	Details   string
	User      string
}

// CustomerRepo is the persistence contract. Storage failures never cross
// this boundary as errors: Save and Delete report false, Load reports nil
// and the bulk reads report empty slices, with the cause captured in the
// log output only.
type CustomerRepo interface {
	Save(ctx context.Context, c Customer) bool
	Load(ctx context.Context, id int) Customer
	LoadAll(ctx context.Context) []Customer
	// Search does a substring match on one of the allow-listed columns
	// (name, email, phone, address). Unknown fields yield an empty result.
	Search(ctx context.Context, field, value string) []Customer
	Delete(ctx context.Context, id int) bool
	AppendLog(ctx context.Context, action, details string)
	RecentLogs(ctx context.Context, limit int) []LogEntry
}

// Notifier sends the welcome message; it only ever reads name, email and
// the display label.
type Notifier interface {
	SendWelcome(c Customer) error
}
