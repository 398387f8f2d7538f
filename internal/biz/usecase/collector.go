package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bep/debounce"

	"github.com/n0teapp/n0te-bot/internal/biz/domain"
	"github.com/n0teapp/n0te-bot/internal/biz/repo"
)

// StatusTexts provides the localized outbound strings the collector emits
type StatusTexts interface {
	Processing(lang domain.Lang) string
	ProcessingHint(lang domain.Lang) string
	Done(lang domain.Lang) string
	NextPrompt(lang domain.Lang) string
	OpenButton(lang domain.Lang) string
	AcceptPrivacyFirst(lang domain.Lang) string
	ProcessFailed(lang domain.Lang) string
}

// CollectorConfig contains collector tunables
type CollectorConfig struct {
	// DebounceWindow is how long a user must stay quiet before the buffered
	// items are flushed as one batch
	DebounceWindow time.Duration

	// WebAppURL is the target of the open button on success messages
	WebAppURL string
}

// DefaultCollectorConfig returns the default collector configuration
func DefaultCollectorConfig() CollectorConfig {
	return CollectorConfig{
		DebounceWindow: 1200 * time.Millisecond,
	}
}

// userState is one user's mutable collector state. Exclusively owned by the
// Collector; all field access goes through its mutex.
type userState struct {
	mu sync.Mutex

	chatID          int64
	lang            domain.Lang
	privacyAccepted bool
	privacyLoaded   bool

	// Most recent outbound UI messages, deleted before the next batch so the
	// chat stays clean
	lastContentMsgID int
	lastPromptMsgID  int

	// Transient indicator pair, present only while a batch is in flight
	processingMsgIDs []int

	// Buffered items in arrival order, plus whether a debounce is pending
	pending    []domain.BatchItem
	collecting bool

	// Restartable debounce handle; invoking it with a new func resets the
	// timer and replaces the pending callback
	debounce func(func())
}

// Collector turns a burst of rapid inbound messages from one user into
// exactly one downstream processing invocation per quiescence point.
type Collector struct {
	processor BatchProcessor
	messenger repo.Messenger
	store     repo.Store
	texts     StatusTexts
	cfg       CollectorConfig

	mu    sync.Mutex
	users map[int64]*userState
}

// NewCollector creates a collector
func NewCollector(
	processor BatchProcessor,
	messenger repo.Messenger,
	store repo.Store,
	texts StatusTexts,
	cfg CollectorConfig,
) *Collector {
	if cfg.DebounceWindow <= 0 {
		cfg.DebounceWindow = DefaultCollectorConfig().DebounceWindow
	}
	return &Collector{
		processor: processor,
		messenger: messenger,
		store:     store,
		texts:     texts,
		cfg:       cfg,
		users:     make(map[int64]*userState),
	}
}

// state returns the user's state, creating it lazily on first contact.
// States live for the process lifetime.
func (c *Collector) state(tgUserID int64) *userState {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.users[tgUserID]
	if !ok {
		st = &userState{debounce: debounce.New(c.cfg.DebounceWindow)}
		c.users[tgUserID] = st
	}
	return st
}

// Enqueue buffers one inbound item and restarts the user's debounce window.
// Fire-and-forget from the transport's perspective: it never blocks on AI or
// transcription work and never fails visibly to the end user.
func (c *Collector) Enqueue(ctx context.Context, tgUserID, chatID int64, item domain.BatchItem) {
	st := c.state(tgUserID)

	st.mu.Lock()
	st.chatID = chatID
	if !c.hydratePrivacyLocked(ctx, st, tgUserID) {
		lang := langOrDefault(st.lang)
		st.mu.Unlock()
		if _, err := c.messenger.SendText(ctx, chatID, c.texts.AcceptPrivacyFirst(lang)); err != nil {
			fmt.Printf("[Collector] privacy reminder failed for user %d: %v\n", tgUserID, err)
		}
		return
	}

	if !st.collecting {
		st.collecting = true
		lang := langOrDefault(st.lang)

		// First item of a new batch: drop stale UI, then show the indicator pair
		c.deleteLastMessagesLocked(ctx, st)
		var ids []int
		if id, err := c.messenger.SendText(ctx, chatID, c.texts.Processing(lang)); err == nil {
			ids = append(ids, id)
		}
		if id, err := c.messenger.SendText(ctx, chatID, c.texts.ProcessingHint(lang)); err == nil {
			ids = append(ids, id)
		}
		st.processingMsgIDs = ids
	}
	st.pending = append(st.pending, item)
	st.mu.Unlock()

	st.debounce(func() { c.flush(tgUserID) })
}

// flush snapshots and clears the buffered items, runs them through the batch
// processor, and reports the outcome. An empty snapshot (a cancellation that
// raced with the timer) is a no-op apart from indicator cleanup.
func (c *Collector) flush(tgUserID int64) {
	ctx := context.Background()
	st := c.state(tgUserID)

	st.mu.Lock()
	items := st.pending
	st.pending = nil
	indicators := st.processingMsgIDs
	st.processingMsgIDs = nil
	st.collecting = false
	chatID := st.chatID
	lang := langOrDefault(st.lang)
	st.mu.Unlock()

	if len(items) == 0 {
		c.deleteMessages(ctx, chatID, indicators)
		return
	}

	fmt.Printf("[Collector] flushing %d item(s) for user %d\n", len(items), tgUserID)

	var procErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				procErr = fmt.Errorf("processor panic: %v", r)
			}
		}()
		procErr = c.processor.Process(ctx, tgUserID, lang, items)
	}()

	c.deleteMessages(ctx, chatID, indicators)

	if procErr != nil {
		// The reason stays in the log; the user gets a generic failure
		fmt.Printf("[Collector] batch failed for user %d: %v\n", tgUserID, procErr)
		if _, err := c.messenger.SendText(ctx, chatID, c.texts.ProcessFailed(lang)); err != nil {
			fmt.Printf("[Collector] failure notice failed for user %d: %v\n", tgUserID, err)
		}
		return
	}

	doneID, err := c.messenger.SendWithButton(ctx, chatID, c.texts.Done(lang), c.texts.OpenButton(lang), c.cfg.WebAppURL)
	if err != nil {
		fmt.Printf("[Collector] success notice failed for user %d: %v\n", tgUserID, err)
	}
	promptID, err := c.messenger.SendText(ctx, chatID, c.texts.NextPrompt(lang))
	if err != nil {
		fmt.Printf("[Collector] next prompt failed for user %d: %v\n", tgUserID, err)
	}

	st.mu.Lock()
	if doneID != 0 {
		st.lastContentMsgID = doneID
	}
	if promptID != 0 {
		st.lastPromptMsgID = promptID
	}
	st.mu.Unlock()
}

// hydratePrivacyLocked lazily loads the persisted privacy flag into the state.
// Callers hold st.mu.
func (c *Collector) hydratePrivacyLocked(ctx context.Context, st *userState, tgUserID int64) bool {
	if st.privacyLoaded {
		return st.privacyAccepted
	}
	accepted, found, err := c.store.GetPrivacyAccepted(ctx, tgUserID)
	if err != nil {
		fmt.Printf("[Collector] privacy lookup failed for user %d: %v\n", tgUserID, err)
		return st.privacyAccepted
	}
	st.privacyAccepted = found && accepted
	st.privacyLoaded = true
	return st.privacyAccepted
}

// deleteLastMessagesLocked removes the previous content/prompt messages,
// best-effort. Callers hold st.mu.
func (c *Collector) deleteLastMessagesLocked(ctx context.Context, st *userState) {
	if st.lastContentMsgID != 0 {
		if err := c.messenger.DeleteMessage(ctx, st.chatID, st.lastContentMsgID); err != nil {
			fmt.Printf("[Collector] delete content message %d: %v\n", st.lastContentMsgID, err)
		}
		st.lastContentMsgID = 0
	}
	if st.lastPromptMsgID != 0 {
		if err := c.messenger.DeleteMessage(ctx, st.chatID, st.lastPromptMsgID); err != nil {
			fmt.Printf("[Collector] delete prompt message %d: %v\n", st.lastPromptMsgID, err)
		}
		st.lastPromptMsgID = 0
	}
}

func (c *Collector) deleteMessages(ctx context.Context, chatID int64, ids []int) {
	for _, id := range ids {
		if err := c.messenger.DeleteMessage(ctx, chatID, id); err != nil {
			// Already-deleted messages are expected here
			fmt.Printf("[Collector] delete indicator %d: %v\n", id, err)
		}
	}
}

// ========== Transport-facing state accessors ==========

// ResetUser reinitializes a user's session (the /start flow): language unset,
// UI refs cleared, privacy re-hydrated from the store.
func (c *Collector) ResetUser(ctx context.Context, tgUserID int64) {
	st := c.state(tgUserID)
	st.mu.Lock()
	defer st.mu.Unlock()
	st.lang = ""
	st.lastContentMsgID = 0
	st.lastPromptMsgID = 0
	st.privacyLoaded = false
	st.privacyAccepted = false
	c.hydratePrivacyLocked(ctx, st, tgUserID)
}

// SetLanguage records the user's chosen UI language
func (c *Collector) SetLanguage(tgUserID int64, lang domain.Lang) {
	st := c.state(tgUserID)
	st.mu.Lock()
	st.lang = lang
	st.mu.Unlock()
}

// Language returns the user's UI language, defaulting to English
func (c *Collector) Language(tgUserID int64) domain.Lang {
	st := c.state(tgUserID)
	st.mu.Lock()
	defer st.mu.Unlock()
	return langOrDefault(st.lang)
}

// SetPrivacyAccepted marks privacy as accepted in the in-memory state
func (c *Collector) SetPrivacyAccepted(tgUserID int64) {
	st := c.state(tgUserID)
	st.mu.Lock()
	st.privacyAccepted = true
	st.privacyLoaded = true
	st.mu.Unlock()
}

// PrivacyAccepted reports whether the user has accepted the privacy notice,
// hydrating from the store on first use
func (c *Collector) PrivacyAccepted(ctx context.Context, tgUserID int64) bool {
	st := c.state(tgUserID)
	st.mu.Lock()
	defer st.mu.Unlock()
	return c.hydratePrivacyLocked(ctx, st, tgUserID)
}

// ClearLastMessages deletes the user's previous content/prompt messages
// (best-effort) so a command reply can replace them
func (c *Collector) ClearLastMessages(ctx context.Context, tgUserID, chatID int64) {
	st := c.state(tgUserID)
	st.mu.Lock()
	defer st.mu.Unlock()
	st.chatID = chatID
	c.deleteLastMessagesLocked(ctx, st)
}

// RememberMessages records the ids of the latest content/prompt messages so
// the next batch can replace them
func (c *Collector) RememberMessages(tgUserID int64, contentMsgID, promptMsgID int) {
	st := c.state(tgUserID)
	st.mu.Lock()
	if contentMsgID != 0 {
		st.lastContentMsgID = contentMsgID
	}
	if promptMsgID != 0 {
		st.lastPromptMsgID = promptMsgID
	}
	st.mu.Unlock()
}

func langOrDefault(lang domain.Lang) domain.Lang {
	if lang == "" {
		return domain.LangEN
	}
	return lang
}
