package data

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/n0teapp/n0te-bot/internal/biz/repo"
)

// telegramMessenger implements the outbound messaging surface on the
// Telegram Bot API
type telegramMessenger struct {
	bot      *tgbotapi.BotAPI
	download *http.Client
}

// NewTelegramMessenger creates a Telegram-backed messenger
func NewTelegramMessenger(bot *tgbotapi.BotAPI) repo.Messenger {
	return &telegramMessenger{
		bot: bot,
		download: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 10 * time.Second,
			},
		},
	}
}

// SendText sends a plain message and returns its message id
func (m *telegramMessenger) SendText(ctx context.Context, chatID int64, text string) (int, error) {
	sent, err := m.bot.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		return 0, fmt.Errorf("send message: %w", err)
	}
	return sent.MessageID, nil
}

// SendWithButton sends a message with a single URL button opening the web app
func (m *telegramMessenger) SendWithButton(ctx context.Context, chatID int64, text, buttonText, url string) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL(buttonText, url)),
	)
	sent, err := m.bot.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("send message with button: %w", err)
	}
	return sent.MessageID, nil
}

// DeleteMessage removes a previously sent message
func (m *telegramMessenger) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if _, err := m.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		return fmt.Errorf("delete message %d: %w", messageID, err)
	}
	return nil
}

// DownloadFile fetches a media file by its Telegram file id into destPath
func (m *telegramMessenger) DownloadFile(ctx context.Context, fileID, destPath string) error {
	file, err := m.bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return fmt.Errorf("get file: %w", err)
	}
	url := file.Link(m.bot.Token)
	if url == "" && file.FilePath != "" {
		url = fmt.Sprintf("https://api.telegram.org/file/bot%s/%s", m.bot.Token, file.FilePath)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}
	resp, err := m.download.Do(req)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download: bad status %s", resp.Status)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", destPath, err)
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("write %s: %w", destPath, err)
	}
	return nil
}
