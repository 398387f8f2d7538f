package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/n0teapp/n0te-bot/internal/biz/domain"
	"github.com/n0teapp/n0te-bot/internal/biz/repo"
	"github.com/n0teapp/n0te-bot/internal/biz/usecase"
	"github.com/n0teapp/n0te-bot/internal/conf"
)

// BotService routes Telegram updates: commands and callbacks are handled
// inline, content messages are converted to batch items and handed to the
// collector (fire-and-forget).
type BotService struct {
	api       *tgbotapi.BotAPI
	collector *usecase.Collector
	store     repo.Store
	texts     *conf.Texts
	cfg       *conf.Config
}

// NewBotService creates the update router
func NewBotService(
	api *tgbotapi.BotAPI,
	collector *usecase.Collector,
	store repo.Store,
	texts *conf.Texts,
	cfg *conf.Config,
) *BotService {
	return &BotService{
		api:       api,
		collector: collector,
		store:     store,
		texts:     texts,
		cfg:       cfg,
	}
}

// Run consumes updates until ctx is cancelled
func (s *BotService) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := s.api.GetUpdatesChan(u)

	fmt.Printf("[Bot] Authorized as @%s\n", s.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			s.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			s.handleUpdate(ctx, update)
		}
	}
}

func (s *BotService) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		s.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		s.handleCommand(ctx, update.Message)
	case update.Message != nil:
		s.handleContent(ctx, update.Message)
	}
}

// ========== Commands ==========

func (s *BotService) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	userID := senderID(msg)
	lang := s.collector.Language(userID)

	switch msg.Command() {
	case "start":
		s.handleStart(ctx, msg)

	case "n0te":
		s.collector.ClearLastMessages(ctx, userID, msg.Chat.ID)
		contentID := s.sendWithOpenButton(msg.Chat.ID, s.texts.CmdNoteReply(lang), lang)
		promptID := s.send(msg.Chat.ID, s.texts.NextPrompt(lang))
		s.collector.RememberMessages(userID, contentID, promptID)

	case "privacy":
		s.send(msg.Chat.ID, s.texts.PrivacyMessage(lang, s.cfg.PrivacyURL))

	case "billing":
		s.send(msg.Chat.ID, s.texts.CmdBillingReply(lang))

	case "delete":
		s.send(msg.Chat.ID, s.texts.CmdDeleteReply(lang))

	case "ping":
		s.send(msg.Chat.ID, "pong")

	case "help":
		s.send(msg.Chat.ID, "/start — restart\n/n0te — open my n0te\n/privacy — privacy policy\n/billing — subscription\n/ping — check the bot")

	default:
		s.send(msg.Chat.ID, "Unknown command. Use /start.")
	}
}

func (s *BotService) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	userID := senderID(msg)
	s.collector.ResetUser(ctx, userID)
	if msg.From != nil {
		s.upsertVisit(ctx, msg.From)
	}

	kb := s.languageKeyboard()
	reply := tgbotapi.NewMessage(msg.Chat.ID, s.texts.ChooseLanguagePrompt())
	reply.ReplyMarkup = kb
	if _, err := s.api.Send(reply); err != nil {
		fmt.Printf("[Bot] start reply failed: %v\n", err)
	}
}

func (s *BotService) languageKeyboard() tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton
	for _, b := range s.texts.LangButtons() {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(b.Label, "lang:"+b.Code))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

// ========== Callbacks ==========

func (s *BotService) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	switch {
	case strings.HasPrefix(cb.Data, "lang:"):
		s.handleLanguageChosen(ctx, cb)
	case cb.Data == "privacy:accept":
		s.handlePrivacyAccept(ctx, cb)
	default:
		s.answerCallback(cb.ID, "")
	}
}

func (s *BotService) handleLanguageChosen(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	code := strings.TrimPrefix(cb.Data, "lang:")
	if !domain.ValidLang(code) {
		code = string(domain.LangEN)
	}
	lang := domain.Lang(code)
	userID := cb.From.ID

	s.collector.SetLanguage(userID, lang)
	if err := s.store.SetLanguage(ctx, userID, lang); err != nil {
		fmt.Printf("[Bot] persist language failed for user %d: %v\n", userID, err)
	}

	if cb.Message == nil {
		s.answerCallback(cb.ID, "")
		return
	}
	chatID := cb.Message.Chat.ID

	// Users who accepted privacy before skip the privacy block entirely
	if s.collector.PrivacyAccepted(ctx, userID) {
		s.showProBlock(userID, chatID, cb.Message.MessageID, lang)
		s.setChatCommands(chatID, lang)
		s.answerCallback(cb.ID, "")
		return
	}

	text := s.texts.PrivacyMessage(lang, s.cfg.PrivacyURL)
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(s.texts.PrivacyAcceptButton(lang), "privacy:accept"),
		),
	)
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, cb.Message.MessageID, text, kb)
	if _, err := s.api.Send(edit); err != nil {
		fmt.Printf("[Bot] privacy prompt edit failed: %v\n", err)
	}
	s.answerCallback(cb.ID, "")
}

func (s *BotService) handlePrivacyAccept(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	userID := cb.From.ID
	lang := s.collector.Language(userID)

	s.collector.SetPrivacyAccepted(userID)
	if err := s.store.SetPrivacyAccepted(ctx, userID); err != nil {
		fmt.Printf("[Bot] persist privacy failed for user %d: %v\n", userID, err)
	}

	// Alert with the data-safety note
	if _, err := s.api.Request(tgbotapi.NewCallbackWithAlert(cb.ID, s.texts.PrivacyAlert(lang))); err != nil {
		fmt.Printf("[Bot] privacy alert failed: %v\n", err)
	}

	if cb.Message == nil {
		return
	}
	s.showProBlock(userID, cb.Message.Chat.ID, cb.Message.MessageID, lang)
	s.setChatCommands(cb.Message.Chat.ID, lang)
}

// showProBlock replaces the callback message with the Pro/trial block plus
// open button, then sends the next-note hint below it
func (s *BotService) showProBlock(userID, chatID int64, messageID int, lang domain.Lang) {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL(s.texts.OpenButton(lang), s.cfg.WebAppURL),
		),
	)
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, s.texts.ProMessage(lang), kb)
	if _, err := s.api.Send(edit); err != nil {
		fmt.Printf("[Bot] pro block edit failed: %v\n", err)
	}
	promptID := s.send(chatID, s.texts.NextPrompt(lang))
	s.collector.RememberMessages(userID, messageID, promptID)
}

// setChatCommands installs the localized side-menu commands for one chat
func (s *BotService) setChatCommands(chatID int64, lang domain.Lang) {
	desc := s.texts.CommandDescriptions(lang)
	commands := []tgbotapi.BotCommand{
		{Command: "n0te", Description: desc["n0te"]},
		{Command: "billing", Description: desc["billing"]},
		{Command: "privacy", Description: desc["privacy"]},
		{Command: "delete", Description: desc["delete"]},
	}
	scope := tgbotapi.NewBotCommandScopeChat(chatID)
	if _, err := s.api.Request(tgbotapi.NewSetMyCommandsWithScope(scope, commands...)); err != nil {
		fmt.Printf("[Bot] set chat commands failed: %v\n", err)
	}
}

// ========== Content ==========

// handleContent converts an inbound message into a batch item and enqueues it
func (s *BotService) handleContent(ctx context.Context, msg *tgbotapi.Message) {
	item, ok := itemFromMessage(msg)
	if !ok {
		return
	}

	if msg.From != nil {
		s.upsertVisit(ctx, msg.From)
	}
	s.collector.Enqueue(ctx, senderID(msg), msg.Chat.ID, item)
}

// itemFromMessage maps a Telegram message onto the batch item kind set.
// Returns false for updates carrying nothing processable (stickers, contact
// cards, service messages).
func itemFromMessage(msg *tgbotapi.Message) (domain.BatchItem, bool) {
	item := domain.BatchItem{
		Caption: msg.Caption,
		Forward: forwardOrigin(msg),
	}

	switch {
	case msg.Text != "":
		item.Kind = domain.KindText
		item.Text = msg.Text

	case msg.Voice != nil:
		item.Kind = domain.KindVoice
		item.FileID = msg.Voice.FileID
		item.FileUniqueID = msg.Voice.FileUniqueID
		item.FileExt = ".oga"
		item.Duration = msg.Voice.Duration

	case msg.VideoNote != nil:
		item.Kind = domain.KindVideoNote
		item.FileID = msg.VideoNote.FileID
		item.FileUniqueID = msg.VideoNote.FileUniqueID
		item.FileExt = ".mp4"
		item.Duration = msg.VideoNote.Duration

	case msg.Video != nil:
		item.Kind = domain.KindVideo
		item.FileID = msg.Video.FileID
		item.FileUniqueID = msg.Video.FileUniqueID
		item.FileExt = extOrDefault(msg.Video.FileName, ".mp4")
		item.Duration = msg.Video.Duration

	case msg.Audio != nil:
		item.Kind = domain.KindAudio
		item.FileID = msg.Audio.FileID
		item.FileUniqueID = msg.Audio.FileUniqueID
		item.FileExt = extOrDefault(msg.Audio.FileName, ".mp3")
		item.Duration = msg.Audio.Duration

	case msg.Document != nil:
		item.Kind = domain.KindDocument
		item.FileID = msg.Document.FileID
		item.FileUniqueID = msg.Document.FileUniqueID
		item.FileExt = extOrDefault(msg.Document.FileName, ".bin")

	case len(msg.Photo) > 0:
		item.Kind = domain.KindPhoto
		// largest size is last; kept for completeness even though photos
		// contribute caption only
		best := msg.Photo[len(msg.Photo)-1]
		item.FileID = best.FileID
		item.FileUniqueID = best.FileUniqueID
		item.FileExt = ".jpg"

	default:
		return domain.BatchItem{}, false
	}

	return item, true
}

// forwardOrigin extracts forward provenance from a message, nil when the
// message was authored directly
func forwardOrigin(msg *tgbotapi.Message) *domain.ForwardOrigin {
	switch {
	case msg.ForwardFrom != nil:
		return &domain.ForwardOrigin{User: &domain.ForwardUser{
			ID:        msg.ForwardFrom.ID,
			Username:  msg.ForwardFrom.UserName,
			FirstName: msg.ForwardFrom.FirstName,
			LastName:  msg.ForwardFrom.LastName,
		}}
	case msg.ForwardSenderName != "":
		return &domain.ForwardOrigin{SenderName: msg.ForwardSenderName}
	case msg.ForwardFromChat != nil:
		return &domain.ForwardOrigin{Chat: &domain.ForwardChat{
			ID:       msg.ForwardFromChat.ID,
			Title:    msg.ForwardFromChat.Title,
			Username: msg.ForwardFromChat.UserName,
		}}
	}
	return nil
}

// ========== Helpers ==========

func senderID(msg *tgbotapi.Message) int64 {
	if msg.From != nil {
		return msg.From.ID
	}
	return msg.Chat.ID
}

func (s *BotService) upsertVisit(ctx context.Context, from *tgbotapi.User) {
	err := s.store.UpsertVisit(ctx, &domain.TgUser{
		ID:           from.ID,
		Username:     from.UserName,
		FirstName:    from.FirstName,
		LastName:     from.LastName,
		LanguageCode: from.LanguageCode,
	})
	if err != nil {
		fmt.Printf("[Bot] upsert visit failed for user %d: %v\n", from.ID, err)
	}
}

func (s *BotService) send(chatID int64, text string) int {
	sent, err := s.api.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		fmt.Printf("[Bot] send failed: %v\n", err)
		return 0
	}
	return sent.MessageID
}

func (s *BotService) sendWithOpenButton(chatID int64, text string, lang domain.Lang) int {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL(s.texts.OpenButton(lang), s.cfg.WebAppURL),
		),
	)
	sent, err := s.api.Send(msg)
	if err != nil {
		fmt.Printf("[Bot] send with button failed: %v\n", err)
		return 0
	}
	return sent.MessageID
}

func (s *BotService) answerCallback(id, text string) {
	if _, err := s.api.Request(tgbotapi.NewCallback(id, text)); err != nil {
		fmt.Printf("[Bot] answer callback failed: %v\n", err)
	}
}

func extOrDefault(fileName, def string) string {
	if ext := filepath.Ext(fileName); ext != "" {
		return ext
	}
	return def
}
