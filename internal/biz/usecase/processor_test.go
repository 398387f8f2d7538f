package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/n0teapp/n0te-bot/internal/biz/domain"
)

// MockTranscriber implements repo.Transcriber for testing
type MockTranscriber struct {
	mu       sync.Mutex
	delays   map[string]time.Duration
	results  map[string]string
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	calls    atomic.Int32
}

func (m *MockTranscriber) Transcribe(ctx context.Context, filePath, languageHint string) (string, error) {
	m.calls.Add(1)
	cur := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		prev := m.maxSeen.Load()
		if cur <= prev || m.maxSeen.CompareAndSwap(prev, cur) {
			break
		}
	}

	m.mu.Lock()
	var delay time.Duration
	var result string
	for key, d := range m.delays {
		if strings.Contains(filePath, key) {
			delay = d
		}
	}
	for key, r := range m.results {
		if strings.Contains(filePath, key) {
			result = r
		}
	}
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	return result, nil
}

// MockGenerator implements repo.Generator for testing
type MockGenerator struct {
	reply string
	usage domain.TokenUsage
	err   error

	calls      atomic.Int32
	lastPrompt string
	lastSystem string
	lastUserID string
	mu         sync.Mutex
}

func (m *MockGenerator) Generate(ctx context.Context, prompt, systemPrompt, userID string) (string, domain.TokenUsage, error) {
	m.calls.Add(1)
	m.mu.Lock()
	m.lastPrompt = prompt
	m.lastSystem = systemPrompt
	m.lastUserID = userID
	m.mu.Unlock()
	if m.err != nil {
		return "", domain.TokenUsage{}, m.err
	}
	return m.reply, m.usage, nil
}

// MockStore implements repo.Store for testing
type MockStore struct {
	mu         sync.Mutex
	userID     string
	resolveErr error
	noteErr    error
	notes      []*domain.Note
	usage      []*domain.UsageRecord

	privacyAccepted bool
	privacyFound    bool
	langSet         domain.Lang
}

func (m *MockStore) ResolveUserID(ctx context.Context, tgUserID int64) (string, error) {
	return m.userID, m.resolveErr
}

func (m *MockStore) CreateNote(ctx context.Context, note *domain.Note) error {
	if m.noteErr != nil {
		return m.noteErr
	}
	m.mu.Lock()
	m.notes = append(m.notes, note)
	m.mu.Unlock()
	return nil
}

func (m *MockStore) IncrementUsage(ctx context.Context, rec *domain.UsageRecord) error {
	m.mu.Lock()
	m.usage = append(m.usage, rec)
	m.mu.Unlock()
	return nil
}

func (m *MockStore) UpsertVisit(ctx context.Context, user *domain.TgUser) error { return nil }

func (m *MockStore) GetPrivacyAccepted(ctx context.Context, tgUserID int64) (bool, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.privacyAccepted, m.privacyFound, nil
}

func (m *MockStore) SetPrivacyAccepted(ctx context.Context, tgUserID int64) error {
	m.mu.Lock()
	m.privacyAccepted = true
	m.privacyFound = true
	m.mu.Unlock()
	return nil
}

func (m *MockStore) SetLanguage(ctx context.Context, tgUserID int64, lang domain.Lang) error {
	m.mu.Lock()
	m.langSet = lang
	m.mu.Unlock()
	return nil
}

// MockMessenger implements repo.Messenger for testing
type MockMessenger struct {
	mu        sync.Mutex
	nextID    int
	sent      []string
	buttons   []string
	deleted   []int
	deleteErr error
	sendErr   error
}

func (m *MockMessenger) SendText(ctx context.Context, chatID int64, text string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return 0, m.sendErr
	}
	m.nextID++
	m.sent = append(m.sent, text)
	return m.nextID, nil
}

func (m *MockMessenger) SendWithButton(ctx context.Context, chatID int64, text, buttonText, url string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return 0, m.sendErr
	}
	m.nextID++
	m.buttons = append(m.buttons, text)
	return m.nextID, nil
}

func (m *MockMessenger) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, messageID)
	return m.deleteErr
}

func (m *MockMessenger) DownloadFile(ctx context.Context, fileID, destPath string) error {
	return nil
}

func newTestProcessor(tr *MockTranscriber, gen *MockGenerator, store *MockStore) *Processor {
	return NewProcessor(tr, gen, store, nil, &MockMessenger{}, nil)
}

func textItem(text string) domain.BatchItem {
	return domain.BatchItem{Kind: domain.KindText, Text: text}
}

func voiceItem(uniqueID string, seconds int) domain.BatchItem {
	return domain.BatchItem{
		Kind:         domain.KindVoice,
		FileID:       "file-" + uniqueID,
		FileUniqueID: uniqueID,
		FileExt:      ".oga",
		Duration:     seconds,
	}
}

func TestProcessJoinsInArrivalOrder(t *testing.T) {
	// The first item is slowest; order in the prompt must still follow arrival
	tr := &MockTranscriber{
		delays:  map[string]time.Duration{"v1": 60 * time.Millisecond, "v2": 10 * time.Millisecond},
		results: map[string]string{"v1": "first voice", "v2": "second voice"},
	}
	gen := &MockGenerator{reply: "Title\nBody"}
	store := &MockStore{userID: "uuid-1"}
	p := newTestProcessor(tr, gen, store)

	items := []domain.BatchItem{
		voiceItem("v1", 5),
		textItem("middle text"),
		voiceItem("v2", 3),
	}
	if err := p.Process(context.Background(), 100, domain.LangEN, items); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	segments := strings.Split(gen.lastPrompt, promptSeparator)
	if len(segments) != 3 {
		t.Fatalf("Expected 3 prompt segments, got %d: %q", len(segments), gen.lastPrompt)
	}
	want := []string{"first voice", "middle text", "second voice"}
	for i, w := range want {
		if segments[i] != w {
			t.Errorf("Segment %d: expected %q, got %q", i, w, segments[i])
		}
	}
}

func TestProcessBoundsConcurrency(t *testing.T) {
	tr := &MockTranscriber{
		delays: map[string]time.Duration{"v": 30 * time.Millisecond},
	}
	gen := &MockGenerator{reply: "ok"}
	store := &MockStore{userID: "uuid-1"}
	p := newTestProcessor(tr, gen, store)

	var items []domain.BatchItem
	for i := 0; i < 8; i++ {
		items = append(items, voiceItem(fmt.Sprintf("v%d", i), 1))
	}
	// Empty transcripts for all items would yield ErrNoContent, so anchor
	// the batch with one text item
	items = append(items, textItem("anchor"))

	if err := p.Process(context.Background(), 100, domain.LangEN, items); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if max := tr.maxSeen.Load(); max > extractConcurrency {
		t.Errorf("Expected at most %d concurrent extractions, observed %d", extractConcurrency, max)
	}
	if calls := tr.calls.Load(); calls != 8 {
		t.Errorf("Expected 8 transcriptions, got %d", calls)
	}
}

func TestProcessNoContent(t *testing.T) {
	gen := &MockGenerator{reply: "should not be called"}
	store := &MockStore{userID: "uuid-1"}
	p := newTestProcessor(&MockTranscriber{}, gen, store)

	items := []domain.BatchItem{
		textItem("   "),
		voiceItem("silent", 4),
	}
	err := p.Process(context.Background(), 100, domain.LangEN, items)
	if !errors.Is(err, ErrNoContent) {
		t.Fatalf("Expected ErrNoContent, got %v", err)
	}
	if gen.calls.Load() != 0 {
		t.Error("Expected no generation call for an empty batch")
	}
	if len(store.usage) != 0 {
		t.Errorf("Expected no usage records, got %d", len(store.usage))
	}
}

func TestProcessUserUnresolved(t *testing.T) {
	gen := &MockGenerator{reply: "x"}
	store := &MockStore{userID: ""}
	p := newTestProcessor(&MockTranscriber{}, gen, store)

	err := p.Process(context.Background(), 100, domain.LangEN, []domain.BatchItem{textItem("hi")})
	if !errors.Is(err, ErrUserUnresolved) {
		t.Fatalf("Expected ErrUserUnresolved, got %v", err)
	}
	if gen.calls.Load() != 0 {
		t.Error("Expected no generation call when the user cannot be resolved")
	}
}

func TestProcessUsageAccounting(t *testing.T) {
	tr := &MockTranscriber{results: map[string]string{"v1": "spoken words"}}
	gen := &MockGenerator{
		reply: "Title\nBody",
		usage: domain.TokenUsage{InputTokens: 10, OutputTokens: 20, TotalTokens: 30},
	}
	store := &MockStore{userID: "uuid-1"}
	p := newTestProcessor(tr, gen, store)

	items := []domain.BatchItem{textItem("note this"), voiceItem("v1", 42)}
	if err := p.Process(context.Background(), 100, domain.LangEN, items); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if len(store.usage) != 2 {
		t.Fatalf("Expected 2 usage records, got %d", len(store.usage))
	}
	text := store.usage[0]
	if text.Kind != domain.UsageText {
		t.Errorf("Expected first record kind text, got %s", text.Kind)
	}
	if text.InputTokens != 10 || text.OutputTokens != 20 || text.TotalTokens != 30 {
		t.Errorf("Unexpected token counts: %+v", text)
	}
	voice := store.usage[1]
	if voice.Kind != domain.UsageVoice {
		t.Errorf("Expected second record kind voice, got %s", voice.Kind)
	}
	if voice.VoiceSeconds != 42 {
		t.Errorf("Expected 42 voice seconds, got %v", voice.VoiceSeconds)
	}
	if voice.TotalTokens != 0 {
		t.Errorf("Expected no tokens on the voice record, got %d", voice.TotalTokens)
	}
}

func TestProcessTextOnlyBatchSkipsVoiceRecord(t *testing.T) {
	gen := &MockGenerator{reply: "Title\nBody", usage: domain.TokenUsage{TotalTokens: 5}}
	store := &MockStore{userID: "uuid-1"}
	p := newTestProcessor(&MockTranscriber{}, gen, store)

	if err := p.Process(context.Background(), 100, domain.LangEN, []domain.BatchItem{textItem("hi")}); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(store.usage) != 1 {
		t.Fatalf("Expected 1 usage record for a text-only batch, got %d", len(store.usage))
	}
	if store.usage[0].Kind != domain.UsageText {
		t.Errorf("Expected text record, got %s", store.usage[0].Kind)
	}
}

func TestProcessEmptyReply(t *testing.T) {
	gen := &MockGenerator{
		reply: "```json\n{\"only\": \"a block\"}\n```",
		usage: domain.TokenUsage{TotalTokens: 3},
	}
	store := &MockStore{userID: "uuid-1"}
	p := newTestProcessor(&MockTranscriber{}, gen, store)

	err := p.Process(context.Background(), 100, domain.LangEN, []domain.BatchItem{textItem("hi")})
	if !errors.Is(err, ErrEmptyReply) {
		t.Fatalf("Expected ErrEmptyReply, got %v", err)
	}
	// Usage was already spent, so the records must still be there
	if len(store.usage) != 1 {
		t.Errorf("Expected usage recorded before the empty-reply check, got %d records", len(store.usage))
	}
	if len(store.notes) != 0 {
		t.Errorf("Expected no note persisted, got %d", len(store.notes))
	}
}

func TestProcessSaveFailed(t *testing.T) {
	gen := &MockGenerator{reply: "Title\nBody"}
	store := &MockStore{userID: "uuid-1", noteErr: errors.New("db down")}
	p := newTestProcessor(&MockTranscriber{}, gen, store)

	err := p.Process(context.Background(), 100, domain.LangEN, []domain.BatchItem{textItem("hi")})
	if !errors.Is(err, ErrSaveFailed) {
		t.Fatalf("Expected ErrSaveFailed, got %v", err)
	}
}

func TestProcessTimeout(t *testing.T) {
	gen := &MockGenerator{err: fmt.Errorf("call: %w", context.DeadlineExceeded)}
	store := &MockStore{userID: "uuid-1"}
	p := newTestProcessor(&MockTranscriber{}, gen, store)

	err := p.Process(context.Background(), 100, domain.LangEN, []domain.BatchItem{textItem("hi")})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Expected ErrTimeout, got %v", err)
	}
}

func TestProcessPersistsNote(t *testing.T) {
	gen := &MockGenerator{reply: "Shopping list\nmilk\neggs"}
	store := &MockStore{userID: "uuid-9"}
	p := newTestProcessor(&MockTranscriber{}, gen, store)

	if err := p.Process(context.Background(), 100, domain.LangUK, []domain.BatchItem{textItem("buy milk and eggs")}); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(store.notes) != 1 {
		t.Fatalf("Expected 1 note, got %d", len(store.notes))
	}
	note := store.notes[0]
	if note.OwnerID != "uuid-9" {
		t.Errorf("Expected owner uuid-9, got %s", note.OwnerID)
	}
	if note.Title != "Shopping list" {
		t.Errorf("Expected title %q, got %q", "Shopping list", note.Title)
	}
	if note.Content != "milk\neggs" {
		t.Errorf("Expected content %q, got %q", "milk\neggs", note.Content)
	}
	if note.Source != "web" {
		t.Errorf("Expected source web, got %s", note.Source)
	}
	if note.Date == "" || note.Time == "" {
		t.Errorf("Expected date and time set, got %q %q", note.Date, note.Time)
	}

	processed, failed := p.Stats()
	if processed != 1 || failed != 0 {
		t.Errorf("Expected stats (1, 0), got (%d, %d)", processed, failed)
	}
}

func TestProcessForwardPrefixInPrompt(t *testing.T) {
	gen := &MockGenerator{reply: "T\nC"}
	store := &MockStore{userID: "uuid-1"}
	p := newTestProcessor(&MockTranscriber{}, gen, store)

	item := textItem("quoted text")
	item.Forward = &domain.ForwardOrigin{SenderName: "Somebody"}
	if err := p.Process(context.Background(), 100, domain.LangEN, []domain.BatchItem{item}); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if !strings.HasPrefix(gen.lastPrompt, "[Forwarded from Somebody]") {
		t.Errorf("Expected forward prefix in prompt, got %q", gen.lastPrompt)
	}
}
