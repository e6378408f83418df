package chatNotification

import (
	"fmt"
	"strings"
	"time"
)

type UpdateMask struct {
	FieldPaths []string `json:"fieldPaths"`
}

type FirestoreEvent struct {
	OldValue   FirestoreValue `json:"oldValue"`
	Value      FirestoreValue `json:"value"`
	UpdateMask UpdateMask     `json:"updateMask"`
}

type FirestoreValue struct {
	CreateTime time.Time   `json:"createTime"`
	Fields     ChatMessage `json:"fields"`
	Name       string      `json:"name"`
	UpdateTime time.Time   `json:"updateTime"`
}

type StringValue struct {
	Value string `json:"stringValue"`
}

// ChatMessage is the triggering document in Firestore's typed-value encoding.
type ChatMessage struct {
	SenderID   StringValue `json:"senderId"`
	SenderName StringValue `json:"senderName"`
	Text       StringValue `json:"text"`
}

// Message is a ChatMessage together with the path parameters of its document.
type Message struct {
	ChatroomID string
	MessageID  string
	SenderID   string
	SenderName string
	Text       string
}

type User struct {
	ID        string
	FirstName string
	FCMToken  string
}

type ChatroomPreference struct {
	NotificationLevel NotificationLevel
}

type Recipient struct {
	UserID   string
	UserName string
	Token    string
}

// MessageFromEvent decodes the created document and the chatroom and message
// ids carried in its resource name.
func MessageFromEvent(fsEvent FirestoreEvent) (Message, error) {
	chatroomID, messageID, err := parseDocumentName(fsEvent.Value.Name)
	if err != nil {
		return Message{}, err
	}

	fields := fsEvent.Value.Fields

	return Message{
		ChatroomID: chatroomID,
		MessageID:  messageID,
		SenderID:   fields.SenderID.Value,
		SenderName: fields.SenderName.Value,
		Text:       fields.Text.Value,
	}, nil
}

// parseDocumentName extracts {chatroomId} and {messageId} from
// projects/{p}/databases/{d}/documents/chatrooms/{chatroomId}/messages/{messageId}.
func parseDocumentName(name string) (string, string, error) {
	const marker = "/documents/"

	idx := strings.Index(name, marker)
	if idx < 0 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidDocumentName, name)
	}

	segments := strings.Split(name[idx+len(marker):], "/")
	if len(segments) != 4 || segments[0] != chatroomCollection || segments[2] != messageCollection ||
		segments[1] == "" || segments[3] == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidDocumentName, name)
	}

	return segments[1], segments[3], nil
}
