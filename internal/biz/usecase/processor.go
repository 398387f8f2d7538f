package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/n0teapp/n0te-bot/internal/biz/domain"
	"github.com/n0teapp/n0te-bot/internal/biz/repo"
)

// Batch failure taxonomy. Each error is terminal for the current batch only;
// the collector returns to idle and accepts new items normally.
var (
	ErrNoContent      = errors.New("no item produced content")
	ErrUserUnresolved = errors.New("user identity unresolved")
	ErrEmptyReply     = errors.New("empty reply after sanitizing")
	ErrSaveFailed     = errors.New("note save failed")
	ErrTimeout        = errors.New("ai call timed out")
)

const (
	// Fixed number of simultaneous per-item extractions
	extractConcurrency = 3

	// Separator between item texts in the assembled prompt
	promptSeparator = "\n\n––––––––––––––––\n\n"

	noteSource = "web"

	// Fallback when the system prompt file is unavailable
	defaultSystemPrompt = "Use context7 for reasoning and concise, helpful responses."
)

// SystemPromptFunc returns the current system instructions, or "" when the
// source is unavailable
type SystemPromptFunc func() string

// BatchProcessor converts an ordered batch of items into one persisted note
type BatchProcessor interface {
	Process(ctx context.Context, tgUserID int64, lang domain.Lang, items []domain.BatchItem) error
}

// Processor implements the extraction -> generation -> persistence pipeline
type Processor struct {
	transcriber repo.Transcriber
	generator   repo.Generator
	store       repo.Store
	journal     repo.UsageJournal
	messenger   repo.Messenger
	loadPrompt  SystemPromptFunc

	processed atomic.Uint64
	failed    atomic.Uint64
}

// NewProcessor creates a batch processor. journal may be nil when no local
// usage journal is configured.
func NewProcessor(
	transcriber repo.Transcriber,
	generator repo.Generator,
	store repo.Store,
	journal repo.UsageJournal,
	messenger repo.Messenger,
	loadPrompt SystemPromptFunc,
) *Processor {
	if loadPrompt == nil {
		loadPrompt = func() string { return "" }
	}
	return &Processor{
		transcriber: transcriber,
		generator:   generator,
		store:       store,
		journal:     journal,
		messenger:   messenger,
		loadPrompt:  loadPrompt,
	}
}

// Stats returns the number of processed and failed batches since start
func (p *Processor) Stats() (processed, failed uint64) {
	return p.processed.Load(), p.failed.Load()
}

type extraction struct {
	text    string
	seconds int
}

// Process runs one batch to completion. Items are extracted concurrently
// (bounded) but contribute to the prompt strictly in arrival order. A
// per-item failure degrades that item to an empty contribution; batch-level
// failures are reported through the error taxonomy above.
func (p *Processor) Process(ctx context.Context, tgUserID int64, lang domain.Lang, items []domain.BatchItem) error {
	err := p.process(ctx, tgUserID, lang, items)
	if err != nil {
		p.failed.Add(1)
	} else {
		p.processed.Add(1)
	}
	return err
}

func (p *Processor) process(ctx context.Context, tgUserID int64, lang domain.Lang, items []domain.BatchItem) error {
	// 1. Bounded-concurrency extraction, results indexed by arrival position
	results := make([]extraction, len(items))
	sem := make(chan struct{}, extractConcurrency)
	var wg sync.WaitGroup
	for i := range items {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					fmt.Printf("[Processor] extraction panic for item %d: %v\n", idx, r)
					results[idx] = extraction{}
				}
			}()
			res, err := p.extractItem(ctx, lang, &items[idx])
			if err != nil {
				fmt.Printf("[Processor] item %d (%s) extraction failed: %v\n", idx, items[idx].Kind, err)
				res = extraction{}
			}
			results[idx] = res
		}(i)
	}
	wg.Wait()

	// 2. Reassemble in arrival order, dropping empty contributions
	var segments []string
	totalSeconds := 0
	for _, r := range results {
		totalSeconds += r.seconds
		if strings.TrimSpace(r.text) != "" {
			segments = append(segments, r.text)
		}
	}
	if len(segments) == 0 {
		return ErrNoContent
	}
	prompt := strings.Join(segments, promptSeparator)

	// 3. Resolve persistent identity before spending tokens
	ownerID, err := p.store.ResolveUserID(ctx, tgUserID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUserUnresolved, err)
	}
	if ownerID == "" {
		return ErrUserUnresolved
	}

	// 4. One generation call for the whole batch
	systemPrompt := p.loadPrompt()
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}
	reply, usage, err := p.generator.Generate(ctx, prompt, systemPrompt, strconv.FormatInt(tgUserID, 10))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return fmt.Errorf("generate: %w", err)
	}

	// 5. Usage accounting: a text record always, a separate voice record only
	// when the batch carried audio seconds. Two independent increments.
	p.logUsage(ctx, &domain.UsageRecord{
		TgUserID:     tgUserID,
		Kind:         domain.UsageText,
		InputTokens:  usage.InputTokens,
		OutputTokens: usage.OutputTokens,
		TotalTokens:  usage.TotalTokens,
	})
	if totalSeconds > 0 {
		p.logUsage(ctx, &domain.UsageRecord{
			TgUserID:     tgUserID,
			Kind:         domain.UsageVoice,
			VoiceSeconds: float64(totalSeconds),
		})
	}

	// 6. Sanitize and persist
	sanitized := Sanitize(reply)
	if sanitized == "" {
		return ErrEmptyReply
	}
	title, content := SplitTitleContent(sanitized)

	now := time.Now().UTC()
	note := &domain.Note{
		OwnerID: ownerID,
		Date:    now.Format("2006-01-02"),
		Time:    now.Format("15:04"),
		Title:   title,
		Content: content,
		Source:  noteSource,
	}
	if err := p.store.CreateNote(ctx, note); err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	return nil
}

// extractItem produces the (text, seconds) contribution of a single item.
// Media kinds are downloaded to a transient directory that is removed on all
// exit paths.
func (p *Processor) extractItem(ctx context.Context, lang domain.Lang, item *domain.BatchItem) (extraction, error) {
	switch item.Kind {
	case domain.KindText:
		body := strings.TrimSpace(item.Text)
		if body == "" {
			return extraction{}, nil
		}
		return extraction{text: FormatForwardPrefix(item.Forward) + body}, nil

	case domain.KindPhoto:
		// No visual analysis: a photo contributes only its caption
		caption := strings.TrimSpace(item.Caption)
		if caption == "" {
			return extraction{}, nil
		}
		return extraction{text: FormatForwardPrefix(item.Forward) + caption}, nil

	case domain.KindVoice, domain.KindVideoNote, domain.KindVideo, domain.KindAudio, domain.KindDocument:
		transcript, err := p.transcribeMedia(ctx, lang, item)
		if err != nil {
			return extraction{seconds: item.Duration}, err
		}
		body := transcript
		if caption := strings.TrimSpace(item.Caption); caption != "" {
			if body == "" {
				body = caption
			} else {
				body = caption + "\n\n" + body
			}
		}
		if body == "" {
			return extraction{seconds: item.Duration}, nil
		}
		return extraction{
			text:    FormatForwardPrefix(item.Forward) + body,
			seconds: item.Duration,
		}, nil
	}

	return extraction{}, fmt.Errorf("unsupported item kind %q", item.Kind)
}

func (p *Processor) transcribeMedia(ctx context.Context, lang domain.Lang, item *domain.BatchItem) (string, error) {
	dir, err := os.MkdirTemp("", "n0te-media-")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	ext := item.FileExt
	if ext == "" {
		ext = ".bin"
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s%s", item.Kind, item.FileUniqueID, ext))
	if err := p.messenger.DownloadFile(ctx, item.FileID, path); err != nil {
		return "", fmt.Errorf("download media: %w", err)
	}

	transcript, err := p.transcriber.Transcribe(ctx, path, string(lang))
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	return strings.TrimSpace(transcript), nil
}

func (p *Processor) logUsage(ctx context.Context, rec *domain.UsageRecord) {
	if err := p.store.IncrementUsage(ctx, rec); err != nil {
		fmt.Printf("[Processor] usage increment failed (user %d, kind %s): %v\n", rec.TgUserID, rec.Kind, err)
	}
	if p.journal != nil {
		if err := p.journal.Append(ctx, rec); err != nil {
			fmt.Printf("[Processor] usage journal append failed: %v\n", err)
		}
	}
}
