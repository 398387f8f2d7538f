package conf

import (
	"os"
	"strings"
	"sync"
	"time"
)

// SystemPrompt loads system instructions from a file with an
// mtime-invalidated cache: the file is re-read only when its modification
// time changes, so the prompt can be edited without restarting the bot.
type SystemPrompt struct {
	path string

	mu     sync.Mutex
	cached string
	mtime  time.Time
	valid  bool
}

// NewSystemPrompt creates a loader for the given file path
func NewSystemPrompt(path string) *SystemPrompt {
	return &SystemPrompt{path: path}
}

// Load returns the current prompt text, or "" when the file is unavailable.
// Callers substitute their own default for "".
func (p *SystemPrompt) Load() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	st, err := os.Stat(p.path)
	if err != nil {
		p.valid = false
		return ""
	}

	if p.valid && st.ModTime().Equal(p.mtime) {
		return p.cached
	}

	data, err := os.ReadFile(p.path)
	if err != nil {
		p.valid = false
		return ""
	}
	p.cached = strings.TrimSpace(string(data))
	p.mtime = st.ModTime()
	p.valid = true
	return p.cached
}
