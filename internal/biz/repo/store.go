package repo

import (
	"context"

	"github.com/n0teapp/n0te-bot/internal/biz/domain"
)

// Store is the user/note/usage persistence gateway
type Store interface {
	// ResolveUserID maps a Telegram user id to the internal user id (uuid).
	// Returns "" when the user row does not exist. Does not create users.
	ResolveUserID(ctx context.Context, tgUserID int64) (string, error)

	// CreateNote inserts one note row
	CreateNote(ctx context.Context, note *domain.Note) error

	// IncrementUsage adds one usage record to the user's running counters.
	// Counters are monotonically non-decreasing; updates are additive.
	IncrementUsage(ctx context.Context, rec *domain.UsageRecord) error

	// UpsertVisit creates the user row if missing or updates the last-visit
	// fields and bumps the visit counter
	UpsertVisit(ctx context.Context, user *domain.TgUser) error

	// GetPrivacyAccepted reports the persisted privacy flag. found is false
	// when the user row does not exist.
	GetPrivacyAccepted(ctx context.Context, tgUserID int64) (accepted, found bool, err error)

	// SetPrivacyAccepted persists privacy acceptance
	SetPrivacyAccepted(ctx context.Context, tgUserID int64) error

	// SetLanguage persists the chosen UI language
	SetLanguage(ctx context.Context, tgUserID int64, lang domain.Lang) error
}
