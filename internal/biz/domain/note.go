package domain

// Note is the persisted artifact of one processed batch.
// Content is always non-empty; Title is optional and, when present, is the
// first line of the sanitized AI reply with the remainder as Content.
type Note struct {
	OwnerID string // app_users.id (uuid)
	Date    string // YYYY-MM-DD
	Time    string // HH:MM (UTC)
	Title   string // empty means no title
	Content string
	Source  string
}

// UsageKind distinguishes the two per-user billing counters
type UsageKind string

const (
	UsageText  UsageKind = "text"
	UsageVoice UsageKind = "voice"
)

// UsageRecord is one additive increment to a user's running counters.
// A text record carries tokens and zero seconds; a voice record carries
// seconds and zero tokens.
type UsageRecord struct {
	TgUserID     int64
	Kind         UsageKind
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	VoiceSeconds float64
	Model        string
}

// TokenUsage is what one generation call reports back
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
