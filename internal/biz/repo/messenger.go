package repo

import "context"

// Messenger is the narrow outbound surface of the chat transport that the
// collector and processor need. The full transport (commands, keyboards,
// callback queries) lives in the service layer.
type Messenger interface {
	// SendText sends a plain message and returns its message id
	SendText(ctx context.Context, chatID int64, text string) (int, error)

	// SendWithButton sends a message with a single URL button
	SendWithButton(ctx context.Context, chatID int64, text, buttonText, url string) (int, error)

	// DeleteMessage removes a previously sent message. Deleting an already
	// deleted message returns an error which callers treat as best-effort.
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error

	// DownloadFile fetches a media file by its transport file id into destPath
	DownloadFile(ctx context.Context, fileID, destPath string) error
}
