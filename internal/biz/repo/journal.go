package repo

import (
	"context"

	"github.com/n0teapp/n0te-bot/internal/biz/domain"
)

// UsageJournal is the local append-only usage log kept next to the remote
// counters. Best-effort: callers log and swallow failures.
type UsageJournal interface {
	Append(ctx context.Context, rec *domain.UsageRecord) error
	Close() error
}
