package domain

// Lang is a UI language code
type Lang string

const (
	LangEN Lang = "en"
	LangUK Lang = "uk"
	LangRU Lang = "ru"
)

// ValidLang reports whether code is one of the supported languages
func ValidLang(code string) bool {
	switch Lang(code) {
	case LangEN, LangUK, LangRU:
		return true
	}
	return false
}

// TgUser carries the Telegram account fields persisted on each visit
type TgUser struct {
	ID           int64
	Username     string
	FirstName    string
	LastName     string
	LanguageCode string
}
