package chatNotification

import (
	"strings"
	"unicode/utf8"
)

type NotificationLevel string

const (
	LevelAll      NotificationLevel = "all"
	LevelMentions NotificationLevel = "mentions"
	LevelNone     NotificationLevel = "none"
)

const (
	maxBodyTextLength = 60
	ellipsis          = "…"

	fallbackRoomTitle = "Chat"
)

var roomTitles = map[string]string{
	"general":       "General",
	"announcements": "Announcements",
	"events":        "Events",
	"support":       "Support",
}

// RoomTitle returns the display title for a chatroom, or a generic label for
// unknown ids.
func RoomTitle(chatroomID string) string {
	if title, ok := roomTitles[chatroomID]; ok {
		return title
	}

	return fallbackRoomTitle
}

// EffectiveLevel defaults to LevelAll when no preference is stored.
func EffectiveLevel(preference *ChatroomPreference) NotificationLevel {
	if preference == nil || preference.NotificationLevel == "" {
		return LevelAll
	}

	return preference.NotificationLevel
}

// IsMentioned reports whether text contains "@"+firstName, ignoring case.
// There is no word-boundary check: "@Annabelle" mentions "Anna".
func IsMentioned(text, firstName string) bool {
	if text == "" || firstName == "" {
		return false
	}

	return strings.Contains(strings.ToLower(text), "@"+strings.ToLower(firstName))
}

// Qualifies decides whether a user at the given level receives the message.
// Unrecognized levels never qualify.
func Qualifies(level NotificationLevel, text, firstName string) bool {
	switch level {
	case LevelAll:
		return true
	case LevelMentions:
		return IsMentioned(text, firstName)
	default:
		return false
	}
}

// TruncateText keeps text of up to 60 characters as is; longer text is cut
// to 59 characters followed by an ellipsis.
func TruncateText(text string) string {
	if utf8.RuneCountInString(text) <= maxBodyTextLength {
		return text
	}

	runes := []rune(text)
	return string(runes[:maxBodyTextLength-1]) + ellipsis
}
