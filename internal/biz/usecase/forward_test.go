package usecase

import (
	"strings"
	"testing"

	"github.com/n0teapp/n0te-bot/internal/biz/domain"
)

func TestForwardPrefixNil(t *testing.T) {
	if got := FormatForwardPrefix(nil); got != "" {
		t.Errorf("Expected empty prefix, got %q", got)
	}
}

func TestForwardPrefixUserWithUsername(t *testing.T) {
	got := FormatForwardPrefix(&domain.ForwardOrigin{User: &domain.ForwardUser{
		ID:        42,
		Username:  "alice",
		FirstName: "Alice",
		LastName:  "Smith",
	}})

	want := "[Forwarded from [@alice, Alice Smith, id=42](https://t.me/alice)]\n\n"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestForwardPrefixUserWithoutUsername(t *testing.T) {
	got := FormatForwardPrefix(&domain.ForwardOrigin{User: &domain.ForwardUser{
		ID:        7,
		FirstName: "Bob",
	}})

	want := "[Forwarded from Bob, id=7]\n\n"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
	if strings.Contains(got, "t.me") {
		t.Errorf("Expected no link without username, got %q", got)
	}
}

func TestForwardPrefixHiddenSender(t *testing.T) {
	got := FormatForwardPrefix(&domain.ForwardOrigin{SenderName: "Hidden Person"})
	want := "[Forwarded from Hidden Person]\n\n"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestForwardPrefixChannel(t *testing.T) {
	got := FormatForwardPrefix(&domain.ForwardOrigin{Chat: &domain.ForwardChat{
		ID:       -100123,
		Title:    "News Channel",
		Username: "newschan",
	}})

	want := "[Forwarded from chat: [News Channel](https://t.me/newschan)]\n\n"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestForwardPrefixChannelNoUsername(t *testing.T) {
	got := FormatForwardPrefix(&domain.ForwardOrigin{Chat: &domain.ForwardChat{
		ID:    -100123,
		Title: "Private Group",
	}})

	want := "[Forwarded from chat: Private Group]\n\n"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestForwardPrefixChatFallsBackToID(t *testing.T) {
	got := FormatForwardPrefix(&domain.ForwardOrigin{Chat: &domain.ForwardChat{ID: -5}})
	want := "[Forwarded from chat: -5]\n\n"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}
