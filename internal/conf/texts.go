package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/n0teapp/n0te-bot/internal/biz/domain"
)

// Texts contains all user-facing strings, keyed by language code. Loaded from
// YAML with in-code defaults for anything missing.
type Texts struct {
	ProcessingMap     map[string]string `yaml:"processing"`
	ProcessingHintMap map[string]string `yaml:"processing_hint"`
	DoneMap           map[string]string `yaml:"done"`
	NextPromptMap     map[string]string `yaml:"next_prompt"`
	OpenButtonMap     map[string]string `yaml:"open_button"`
	ProcessFailedMap  map[string]string `yaml:"process_failed"`

	PrivacyMessageMap map[string]string `yaml:"privacy_message"`
	PrivacyAcceptMap  map[string]string `yaml:"privacy_accept_button"`
	PrivacyAlertMap   map[string]string `yaml:"privacy_alert"`
	AcceptFirstMap    map[string]string `yaml:"accept_privacy_first"`
	ProMessageMap     map[string]string `yaml:"pro_message"`

	CmdNoteMap    map[string]string `yaml:"cmd_note_reply"`
	CmdBillingMap map[string]string `yaml:"cmd_billing_reply"`
	CmdDeleteMap  map[string]string `yaml:"cmd_delete_reply"`

	CommandDescMap map[string]map[string]string `yaml:"command_descriptions"`
}

// LoadTexts loads the texts configuration from a YAML file. When no file is
// found the defaults are returned.
func LoadTexts(configPath string) (*Texts, error) {
	paths := []string{configPath}
	if configPath == "" {
		paths = []string{
			"configs/texts.yaml",
			"./configs/texts.yaml",
			"/etc/n0te-bot/texts.yaml",
		}
		if execPath, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Join(filepath.Dir(execPath), "configs", "texts.yaml"))
		}
	}

	var data []byte
	var loadedPath string
	for _, p := range paths {
		if p == "" {
			continue
		}
		if b, err := os.ReadFile(p); err == nil {
			data = b
			loadedPath = p
			break
		}
	}

	if data == nil {
		fmt.Println("[Config] No texts.yaml found, using defaults")
		return DefaultTexts(), nil
	}

	fmt.Printf("[Config] Loading texts from: %s\n", loadedPath)

	var texts Texts
	if err := yaml.Unmarshal(data, &texts); err != nil {
		return nil, fmt.Errorf("failed to parse texts.yaml: %w", err)
	}
	texts.fillDefaults()
	return &texts, nil
}

// fillDefaults fills in default values for empty maps
func (t *Texts) fillDefaults() {
	defaults := DefaultTexts()
	fill := func(dst *map[string]string, src map[string]string) {
		if *dst == nil {
			*dst = src
			return
		}
		for lang, v := range src {
			if (*dst)[lang] == "" {
				(*dst)[lang] = v
			}
		}
	}
	fill(&t.ProcessingMap, defaults.ProcessingMap)
	fill(&t.ProcessingHintMap, defaults.ProcessingHintMap)
	fill(&t.DoneMap, defaults.DoneMap)
	fill(&t.NextPromptMap, defaults.NextPromptMap)
	fill(&t.OpenButtonMap, defaults.OpenButtonMap)
	fill(&t.ProcessFailedMap, defaults.ProcessFailedMap)
	fill(&t.PrivacyMessageMap, defaults.PrivacyMessageMap)
	fill(&t.PrivacyAcceptMap, defaults.PrivacyAcceptMap)
	fill(&t.PrivacyAlertMap, defaults.PrivacyAlertMap)
	fill(&t.AcceptFirstMap, defaults.AcceptFirstMap)
	fill(&t.ProMessageMap, defaults.ProMessageMap)
	fill(&t.CmdNoteMap, defaults.CmdNoteMap)
	fill(&t.CmdBillingMap, defaults.CmdBillingMap)
	fill(&t.CmdDeleteMap, defaults.CmdDeleteMap)
	if t.CommandDescMap == nil {
		t.CommandDescMap = defaults.CommandDescMap
	}
}

func pick(m map[string]string, lang domain.Lang) string {
	if v, ok := m[string(lang)]; ok && v != "" {
		return v
	}
	return m["en"]
}

// ChooseLanguagePrompt is asked in English before a language is known
func (t *Texts) ChooseLanguagePrompt() string { return "Please choose your language:" }

// LangButtons returns the language selection button labels in order
func (t *Texts) LangButtons() []struct{ Code, Label string } {
	return []struct{ Code, Label string }{
		{"en", "English"},
		{"uk", "Українська"},
		{"ru", "Русский"},
	}
}

func (t *Texts) Processing(lang domain.Lang) string     { return pick(t.ProcessingMap, lang) }
func (t *Texts) ProcessingHint(lang domain.Lang) string { return pick(t.ProcessingHintMap, lang) }
func (t *Texts) Done(lang domain.Lang) string           { return pick(t.DoneMap, lang) }
func (t *Texts) NextPrompt(lang domain.Lang) string     { return pick(t.NextPromptMap, lang) }
func (t *Texts) OpenButton(lang domain.Lang) string     { return pick(t.OpenButtonMap, lang) }
func (t *Texts) ProcessFailed(lang domain.Lang) string  { return pick(t.ProcessFailedMap, lang) }

func (t *Texts) PrivacyMessage(lang domain.Lang, url string) string {
	return strings.ReplaceAll(pick(t.PrivacyMessageMap, lang), "{url}", url)
}
func (t *Texts) PrivacyAcceptButton(lang domain.Lang) string { return pick(t.PrivacyAcceptMap, lang) }
func (t *Texts) PrivacyAlert(lang domain.Lang) string        { return pick(t.PrivacyAlertMap, lang) }
func (t *Texts) AcceptPrivacyFirst(lang domain.Lang) string  { return pick(t.AcceptFirstMap, lang) }
func (t *Texts) ProMessage(lang domain.Lang) string          { return pick(t.ProMessageMap, lang) }

func (t *Texts) CmdNoteReply(lang domain.Lang) string    { return pick(t.CmdNoteMap, lang) }
func (t *Texts) CmdBillingReply(lang domain.Lang) string { return pick(t.CmdBillingMap, lang) }
func (t *Texts) CmdDeleteReply(lang domain.Lang) string  { return pick(t.CmdDeleteMap, lang) }

// CommandDescriptions returns the side-menu command descriptions for a language
func (t *Texts) CommandDescriptions(lang domain.Lang) map[string]string {
	if m, ok := t.CommandDescMap[string(lang)]; ok {
		return m
	}
	return t.CommandDescMap["en"]
}

// DefaultTexts returns the built-in strings
func DefaultTexts() *Texts {
	return &Texts{
		ProcessingMap: map[string]string{
			"en": "⏳ Processing...",
			"uk": "⏳ Обробляю...",
			"ru": "⏳ Обрабатываю...",
		},
		ProcessingHintMap: map[string]string{
			"en": "You can keep sending — everything arriving now becomes one n0te.",
			"uk": "Можете продовжувати надсилати — усе, що надійде зараз, стане одним n0te.",
			"ru": "Можете продолжать отправлять — всё, что придёт сейчас, станет одним n0te.",
		},
		DoneMap: map[string]string{
			"en": "Your note was processed safely.\nOpen n0te.",
			"uk": "Ваш запис оброблено безпечно.\nВідкрийте n0te.",
			"ru": "Ваша запись обработана безопасно.\nОткройте n0te.",
		},
		NextPromptMap: map[string]string{
			"en": "Send the next n0te or forward to the chat.",
			"uk": "Надішліть наступний n0te або перешліть у чат.",
			"ru": "Отправьте следующий n0te или перешлите в чат.",
		},
		OpenButtonMap: map[string]string{
			"en": "Open n0te",
			"uk": "Відкрити n0te",
			"ru": "Открыть n0te",
		},
		ProcessFailedMap: map[string]string{
			"en": "Something went wrong while processing your note. Please try again.",
			"uk": "Щось пішло не так під час обробки запису. Спробуйте ще раз.",
			"ru": "Что-то пошло не так при обработке записи. Попробуйте ещё раз.",
		},
		PrivacyMessageMap: map[string]string{
			"en": "Please review and accept our Privacy Notice: {url}",
			"uk": "Будь ласка, перегляньте та прийміть нашу Політику конфіденційності: {url}",
			"ru": "Пожалуйста, ознакомьтесь и примите нашу Политику конфиденциальности: {url}",
		},
		PrivacyAcceptMap: map[string]string{
			"en": "I accept",
			"uk": "Приймаю",
			"ru": "Принимаю",
		},
		PrivacyAlertMap: map[string]string{
			"en": "Your data is protected from third parties, except the AI used for processing.\nDo not send data that may compromise you.",
			"uk": "Ваші дані захищені від третіх осіб, окрім AI, який використовується для обробки.\nНе надсилайте дані, що можуть вас скомпрометувати.",
			"ru": "Ваши данные защищены от третьих лиц, кроме ИИ, используемого для обработки.\nНе отправляйте данные, которые могут вас скомпрометировать.",
		},
		AcceptFirstMap: map[string]string{
			"en": "Please accept the Privacy Notice first.",
			"uk": "Спочатку прийміть Політику конфіденційності.",
			"ru": "Сначала примите Политику конфиденциальности.",
		},
		ProMessageMap: map[string]string{
			"en": "Pro (trial) — 7 days\nSend or forward audio or text for processing.\nRecords are protected from third parties, except the AI used for processing.\n\nDo not send data that may compromise you.\n\nOpen n0te.\n\nSubscription status: see menu.",
			"uk": "Pro (trial) — 7 днів\nЗаписуйте або пересилайте аудіо чи текст для обробки.\nЗаписи захищені від третіх осіб, окрім AI, який використовується для обробки.\n\nНе надсилайте дані, що можуть вас скомпрометувати.\n\nВідкрийте n0te.\n\nСтатус підписки: у меню.",
			"ru": "Pro (trial) — 7 дней\nОтправляйте или пересылайте аудио или текст для обработки.\nЗаписи защищены от третьих лиц, кроме ИИ, используемого для обработки.\n\nНе отправляйте данные, которые могут вас скомпрометировать.\n\nОткройте n0te.\n\nСтатус подписки: в меню.",
		},
		CmdNoteMap: map[string]string{
			"en": "Open n0te.",
			"uk": "Відкрити мій n0te.",
			"ru": "Открыть мой n0te.",
		},
		CmdBillingMap: map[string]string{
			"en": "Subscription status: see menu.",
			"uk": "Статус підписки: у меню.",
			"ru": "Статус подписки: в меню.",
		},
		CmdDeleteMap: map[string]string{
			"en": "Account deletion will be available soon.",
			"uk": "Видалення акаунта незабаром буде доступним.",
			"ru": "Удаление аккаунта скоро будет доступно.",
		},
		CommandDescMap: map[string]map[string]string{
			"en": {
				"n0te":    "Open my n0te",
				"billing": "Billing and subscription",
				"privacy": "Privacy policy",
				"delete":  "Delete account",
			},
			"uk": {
				"n0te":    "Відкрити мій n0te",
				"billing": "Оплата та підписка",
				"privacy": "Політика конфіденційності",
				"delete":  "Видалити акаунт",
			},
			"ru": {
				"n0te":    "Открыть мой n0te",
				"billing": "Оплата и подписка",
				"privacy": "Политика конфиденциальности",
				"delete":  "Удалить аккаунт",
			},
		},
	}
}
