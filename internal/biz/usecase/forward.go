package usecase

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/n0teapp/n0te-bot/internal/biz/domain"
)

// FormatForwardPrefix builds a human-readable provenance prefix for a
// forwarded message, so the model knows the text was relayed rather than
// authored by the sender. Returns "" for messages that were not forwarded.
func FormatForwardPrefix(origin *domain.ForwardOrigin) string {
	if origin == nil {
		return ""
	}

	switch {
	case origin.User != nil:
		u := origin.User
		var parts []string
		if u.Username != "" {
			parts = append(parts, "@"+u.Username)
		}
		name := strings.TrimSpace(strings.Join(nonEmpty(u.FirstName, u.LastName), " "))
		if name != "" {
			parts = append(parts, name)
		}
		parts = append(parts, "id="+strconv.FormatInt(u.ID, 10))

		if u.Username != "" {
			link := "https://t.me/" + u.Username
			return fmt.Sprintf("[Forwarded from [%s](%s)]\n\n", strings.Join(parts, ", "), link)
		}
		return "[Forwarded from " + strings.Join(parts, ", ") + "]\n\n"

	case origin.SenderName != "":
		return "[Forwarded from " + origin.SenderName + "]\n\n"

	case origin.Chat != nil:
		ch := origin.Chat
		info := ch.Title
		if info == "" {
			info = ch.Username
		}
		if info == "" {
			info = strconv.FormatInt(ch.ID, 10)
		}
		if ch.Username != "" {
			link := "https://t.me/" + ch.Username
			return fmt.Sprintf("[Forwarded from chat: [%s](%s)]\n\n", info, link)
		}
		return fmt.Sprintf("[Forwarded from chat: %s]\n\n", info)
	}

	return ""
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
