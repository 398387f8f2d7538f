package data

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/n0teapp/n0te-bot/internal/biz/domain"
	"github.com/n0teapp/n0te-bot/internal/biz/repo"

	_ "modernc.org/sqlite"
)

// usageJournal is a local append-only mirror of every usage increment, kept
// next to the remote counters for reconciliation
type usageJournal struct {
	db *sql.DB
}

// NewUsageJournal opens (creating if needed) the local usage journal
func NewUsageJournal(dbPath string) (repo.UsageJournal, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS usage_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tg_user_id INTEGER NOT NULL,
			kind TEXT NOT NULL,
			input_tokens INTEGER DEFAULT 0,
			output_tokens INTEGER DEFAULT 0,
			total_tokens INTEGER DEFAULT 0,
			voice_seconds REAL DEFAULT 0,
			model TEXT,
			created_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create usage_log table: %w", err)
	}

	_, _ = db.Exec(`CREATE INDEX IF NOT EXISTS idx_usage_user_created ON usage_log(tg_user_id, created_at)`)

	fmt.Println("[Usage] Journal initialized")
	return &usageJournal{db: db}, nil
}

// Append writes one usage row
func (j *usageJournal) Append(ctx context.Context, rec *domain.UsageRecord) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO usage_log (tg_user_id, kind, input_tokens, output_tokens, total_tokens, voice_seconds, model, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.TgUserID, string(rec.Kind), rec.InputTokens, rec.OutputTokens, rec.TotalTokens, rec.VoiceSeconds, rec.Model, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to append usage row: %w", err)
	}
	return nil
}

// Close closes the database connection
func (j *usageJournal) Close() error {
	return j.db.Close()
}
