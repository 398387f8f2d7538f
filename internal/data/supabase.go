package data

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	supabase "github.com/supabase-community/supabase-go"

	"github.com/n0teapp/n0te-bot/internal/biz/domain"
	"github.com/n0teapp/n0te-bot/internal/biz/repo"
)

const (
	usersTable = "app_users"
	notesTable = "notes"
)

// supabaseStore implements the persistence gateway on Supabase PostgREST.
// All usage counters are additive; PostgREST offers no atomic increment, so
// updates go through select + update like the rest of the product stack.
type supabaseStore struct {
	client *supabase.Client
}

// NewSupabaseStore creates the Supabase-backed store
func NewSupabaseStore(url, serviceRoleKey string) (repo.Store, error) {
	client, err := supabase.NewClient(url, serviceRoleKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	fmt.Println("[Store] Supabase client initialized")
	return &supabaseStore{client: client}, nil
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// ResolveUserID maps a Telegram user id to app_users.id. "" when not found.
func (s *supabaseStore) ResolveUserID(ctx context.Context, tgUserID int64) (string, error) {
	var rows []struct {
		ID string `json:"id"`
	}
	_, err := s.client.From(usersTable).
		Select("id", "", false).
		Eq("tg_user_id", strconv.FormatInt(tgUserID, 10)).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return "", fmt.Errorf("failed to resolve user: %w", err)
	}
	if len(rows) == 0 {
		return "", nil
	}
	return rows[0].ID, nil
}

// CreateNote inserts one note row
func (s *supabaseStore) CreateNote(ctx context.Context, note *domain.Note) error {
	payload := map[string]interface{}{
		"user_id":    note.OwnerID,
		"d":          note.Date,
		"t":          note.Time,
		"content":    note.Content,
		"source":     note.Source,
		"updated_at": nowISO(),
	}
	if note.Title != "" {
		payload["title"] = note.Title
	}
	_, _, err := s.client.From(notesTable).
		Insert(payload, false, "", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("failed to insert note: %w", err)
	}
	return nil
}

// userCounters mirrors the counter columns on app_users. The audio column
// name says minutes but it has always stored seconds.
type userCounters struct {
	TextTokensUsedTotal   int `json:"text_tokens_used_total"`
	TextInputTokensTotal  int `json:"text_input_tokens_total"`
	TextOutputTokensTotal int `json:"text_output_tokens_total"`
	TextGenerationsTotal  int `json:"text_generations_total"`
	AudioMinutesTotal     int `json:"audio_minutes_total"`
	AudioGenerationsTotal int `json:"audio_generations_total"`
}

// IncrementUsage adds one usage record to the user's running counters
func (s *supabaseStore) IncrementUsage(ctx context.Context, rec *domain.UsageRecord) error {
	tgID := strconv.FormatInt(rec.TgUserID, 10)

	var rows []userCounters
	_, err := s.client.From(usersTable).
		Select("text_tokens_used_total, text_input_tokens_total, text_output_tokens_total, text_generations_total, audio_minutes_total, audio_generations_total", "", false).
		Eq("tg_user_id", tgID).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return fmt.Errorf("failed to read usage counters: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("no user row for tg id %s", tgID)
	}
	cur := rows[0]

	update := map[string]interface{}{
		"updated_at": nowISO(),
	}

	switch rec.Kind {
	case domain.UsageText:
		total := rec.TotalTokens
		if total == 0 {
			total = rec.InputTokens + rec.OutputTokens
		}
		update["text_tokens_used_total"] = cur.TextTokensUsedTotal + total
		update["text_input_tokens_total"] = cur.TextInputTokensTotal + rec.InputTokens
		update["text_output_tokens_total"] = cur.TextOutputTokensTotal + rec.OutputTokens
		update["text_generations_total"] = cur.TextGenerationsTotal + 1

	case domain.UsageVoice:
		sec := int(math.Floor(math.Max(0, rec.VoiceSeconds)))
		if sec > 0 {
			update["audio_minutes_total"] = cur.AudioMinutesTotal + sec
			update["audio_generations_total"] = cur.AudioGenerationsTotal + 1
		}

	default:
		// Unknown kind: nothing to add beyond the timestamp
	}

	_, _, err = s.client.From(usersTable).
		Update(update, "", "").
		Eq("tg_user_id", tgID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to update usage counters: %w", err)
	}
	return nil
}

// UpsertVisit creates the user row if missing or bumps the visit counter
func (s *supabaseStore) UpsertVisit(ctx context.Context, user *domain.TgUser) error {
	tgID := strconv.FormatInt(user.ID, 10)

	var rows []struct {
		ID          string `json:"id"`
		VisitsCount int    `json:"visits_count"`
	}
	_, err := s.client.From(usersTable).
		Select("id, visits_count", "", false).
		Eq("tg_user_id", tgID).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return fmt.Errorf("failed to fetch user: %w", err)
	}

	fields := map[string]interface{}{
		"tg_username":      user.Username,
		"tg_first_name":    user.FirstName,
		"tg_last_name":     user.LastName,
		"tg_language_code": user.LanguageCode,
		"last_platform":    "telegram-bot",
		"last_visit_at":    nowISO(),
		"updated_at":       nowISO(),
	}

	if len(rows) == 0 {
		fields["tg_user_id"] = user.ID
		fields["visits_count"] = 1
		_, _, err = s.client.From(usersTable).
			Insert(fields, false, "", "", "").
			Execute()
		if err != nil {
			return fmt.Errorf("failed to insert user: %w", err)
		}
		return nil
	}

	fields["visits_count"] = rows[0].VisitsCount + 1
	_, _, err = s.client.From(usersTable).
		Update(fields, "", "").
		Eq("tg_user_id", tgID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to update user visit: %w", err)
	}
	return nil
}

// GetPrivacyAccepted reports the persisted privacy flag
func (s *supabaseStore) GetPrivacyAccepted(ctx context.Context, tgUserID int64) (bool, bool, error) {
	var rows []struct {
		PrivacyAccepted bool `json:"privacy_accepted"`
	}
	_, err := s.client.From(usersTable).
		Select("privacy_accepted", "", false).
		Eq("tg_user_id", strconv.FormatInt(tgUserID, 10)).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return false, false, fmt.Errorf("failed to read privacy flag: %w", err)
	}
	if len(rows) == 0 {
		return false, false, nil
	}
	return rows[0].PrivacyAccepted, true, nil
}

// SetPrivacyAccepted persists privacy acceptance
func (s *supabaseStore) SetPrivacyAccepted(ctx context.Context, tgUserID int64) error {
	_, _, err := s.client.From(usersTable).
		Update(map[string]interface{}{
			"privacy_accepted": true,
			"updated_at":       nowISO(),
		}, "", "").
		Eq("tg_user_id", strconv.FormatInt(tgUserID, 10)).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to set privacy flag: %w", err)
	}
	return nil
}

// SetLanguage persists the chosen UI language
func (s *supabaseStore) SetLanguage(ctx context.Context, tgUserID int64, lang domain.Lang) error {
	_, _, err := s.client.From(usersTable).
		Update(map[string]interface{}{
			"ui_language": string(lang),
			"updated_at":  nowISO(),
		}, "", "").
		Eq("tg_user_id", strconv.FormatInt(tgUserID, 10)).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to set language: %w", err)
	}
	return nil
}
