package domain

// ItemKind identifies the kind of an inbound message queued for processing
type ItemKind string

const (
	KindText      ItemKind = "text"
	KindVoice     ItemKind = "voice"
	KindVideoNote ItemKind = "video_note"
	KindVideo     ItemKind = "video"
	KindAudio     ItemKind = "audio"
	KindDocument  ItemKind = "document"
	KindPhoto     ItemKind = "photo"
)

// HasMedia reports whether the kind carries a downloadable media file
func (k ItemKind) HasMedia() bool {
	switch k {
	case KindVoice, KindVideoNote, KindVideo, KindAudio, KindDocument:
		return true
	}
	return false
}

// ForwardOrigin describes the original sender of a forwarded message.
// At most one of User, SenderName, Chat is set.
type ForwardOrigin struct {
	User       *ForwardUser
	SenderName string
	Chat       *ForwardChat
}

// ForwardUser is the original author when forwarded from a user account
type ForwardUser struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
}

// ForwardChat is the original source when forwarded from a channel or group
type ForwardChat struct {
	ID       int64
	Title    string
	Username string
}

// BatchItem represents one inbound message buffered for batch processing.
// Created on arrival, consumed exactly once when its batch is flushed,
// never mutated after creation. Each kind's extraction path reads only
// the fields that kind fills in.
type BatchItem struct {
	Kind ItemKind

	// Text body for KindText; caption for media kinds (may be empty)
	Text    string
	Caption string

	// Media reference and extension hint, set when Kind.HasMedia()
	FileID       string
	FileUniqueID string
	FileExt      string

	// Declared media duration in seconds (voice/video/video-note/audio)
	Duration int

	// Forward provenance, nil when the message was authored directly
	Forward *ForwardOrigin
}
