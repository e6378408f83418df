package chatNotification

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"firebase.google.com/go/messaging"
	"github.com/chatroomFunctions/pushNotification"
	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockUserStore struct {
	users       []User
	preferences map[string]*ChatroomPreference // keyed by userID + "/" + chatroomID

	UsersErr      error
	PreferenceErr error

	mu      sync.Mutex
	lookups []string
}

func (m *MockUserStore) Users(ctx context.Context) ([]User, error) {
	if m.UsersErr != nil {
		return nil, m.UsersErr
	}
	return m.users, nil
}

func (m *MockUserStore) ChatroomPreference(ctx context.Context, userID, chatroomID string) (*ChatroomPreference, error) {
	m.mu.Lock()
	m.lookups = append(m.lookups, userID)
	m.mu.Unlock()

	if m.PreferenceErr != nil {
		return nil, m.PreferenceErr
	}
	return m.preferences[userID+"/"+chatroomID], nil
}

type MockPushSender struct {
	notifications []pushNotification.Notification
}

func (m *MockPushSender) SendAll(ctx context.Context, notifications []pushNotification.Notification) pushNotification.Summary {
	m.notifications = append(m.notifications, notifications...)
	return pushNotification.Summary{Sent: len(notifications)}
}

type MockFCMClient struct {
	mu       sync.Mutex
	tokens   []string
	SendFunc func(ctx context.Context, message *messaging.Message) (string, error)
}

func (m *MockFCMClient) Send(ctx context.Context, message *messaging.Message) (string, error) {
	m.mu.Lock()
	m.tokens = append(m.tokens, message.Token)
	m.mu.Unlock()
	return m.SendFunc(ctx, message)
}

func createTestEvent(senderID, senderName, text string) FirestoreEvent {
	return FirestoreEvent{
		Value: FirestoreValue{
			Name: "projects/demo/databases/(default)/documents/chatrooms/general/messages/m-1",
			Fields: ChatMessage{
				SenderID:   StringValue{Value: senderID},
				SenderName: StringValue{Value: senderName},
				Text:       StringValue{Value: text},
			},
		},
	}
}

func createTestStore() *MockUserStore {
	return &MockUserStore{
		users: []User{
			{ID: "sender", FirstName: "Bob", FCMToken: "token-sender"},
			{ID: "anna", FirstName: "Anna", FCMToken: "token-anna"},
			{ID: "carl", FirstName: "Carl", FCMToken: "token-carl"},
			{ID: "dana", FirstName: "Dana", FCMToken: "token-dana"},
			{ID: "eve", FirstName: "Eve"},
		},
		preferences: map[string]*ChatroomPreference{
			"anna/general": {NotificationLevel: LevelMentions},
			"carl/general": {NotificationLevel: LevelNone},
			"carl/support": {NotificationLevel: LevelAll},
		},
	}
}

func recipientIDs(recipients []Recipient) []string {
	ids := []string{}
	for _, recipient := range recipients {
		ids = append(ids, recipient.UserID)
	}
	sort.Strings(ids)
	return ids
}

func TestHandler_Recipients(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "no mention",
			text: "hello everyone",
			want: []string{"dana"},
		},
		{
			name: "mention qualifies mentions-level user",
			text: "hello @Anna",
			want: []string{"anna", "dana"},
		},
		{
			name: "substring mention qualifies",
			text: "hello @Annabelle",
			want: []string{"anna", "dana"},
		},
		{
			name: "none level ignores mentions",
			text: "@Carl @Anna",
			want: []string{"anna", "dana"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := createTestStore()
			handler := NewHandler(store, &MockPushSender{}, 2, log.New())

			recipients, err := handler.Recipients(context.Background(), Message{
				ChatroomID: "general",
				SenderID:   "sender",
				Text:       tt.text,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, recipientIDs(recipients))
		})
	}
}

func TestHandler_Recipients_SkipsSenderLookup(t *testing.T) {
	store := createTestStore()
	handler := NewHandler(store, &MockPushSender{}, 1, log.New())

	recipients, err := handler.Recipients(context.Background(), Message{
		ChatroomID: "general",
		SenderID:   "sender",
		Text:       "@Bob talking to myself",
	})
	require.NoError(t, err)

	assert.NotContains(t, recipientIDs(recipients), "sender")
	assert.NotContains(t, store.lookups, "sender")
}

func TestHandler_Recipients_PreferenceError(t *testing.T) {
	store := createTestStore()
	store.PreferenceErr = errors.New("unavailable")
	handler := NewHandler(store, &MockPushSender{}, 2, log.New())

	recipients, err := handler.Recipients(context.Background(), Message{ChatroomID: "general", SenderID: "sender"})
	assert.Error(t, err)
	assert.Nil(t, recipients)
}

func TestHandler_PushNotification_BuildsPayloads(t *testing.T) {
	store := createTestStore()
	sender := &MockPushSender{}
	handler := NewHandler(store, sender, 2, log.New())

	longText := "@anna " + strings.Repeat("x", 80)
	require.NoError(t, handler.PushNotification(context.Background(), createTestEvent("sender", "", longText)))

	require.Len(t, sender.notifications, 2)
	sort.Slice(sender.notifications, func(i, j int) bool {
		return sender.notifications[i].Token < sender.notifications[j].Token
	})

	notification := sender.notifications[0]
	assert.Equal(t, "token-anna", notification.Token)
	assert.Equal(t, "New message in General", notification.Title)
	assert.Equal(t, "Someone: "+TruncateText(longText), notification.Body)
	assert.True(t, strings.HasSuffix(notification.Body, "…"))
	assert.Equal(t, map[string]string{"chatroomId": "general", "type": "chat_message"}, notification.Data)

	assert.Equal(t, "token-dana", sender.notifications[1].Token)
}

func TestHandler_PushNotification_NoRecipients(t *testing.T) {
	store := &MockUserStore{users: []User{{ID: "sender", FCMToken: "t"}, {ID: "eve", FirstName: "Eve"}}}
	sender := &MockPushSender{}
	handler := NewHandler(store, sender, 2, log.New())

	assert.NoError(t, handler.PushNotification(context.Background(), createTestEvent("sender", "Bob", "hi")))
	assert.Empty(t, sender.notifications)
}

func TestHandler_PushNotification_StoreErrors(t *testing.T) {
	logger, hook := logtest.NewNullLogger()

	store := createTestStore()
	store.UsersErr = errors.New("deadline exceeded")
	handler := NewHandler(store, &MockPushSender{}, 2, logger)

	err := handler.PushNotification(context.Background(), createTestEvent("sender", "Bob", "hi"))
	assert.ErrorIs(t, err, store.UsersErr)
	assert.Equal(t, log.ErrorLevel, hook.LastEntry().Level)
}

func TestHandler_PushNotification_InvalidDocumentName(t *testing.T) {
	handler := NewHandler(createTestStore(), &MockPushSender{}, 2, log.New())

	fsEvent := createTestEvent("sender", "Bob", "hi")
	fsEvent.Value.Name = "projects/demo/databases/(default)/documents/users/u-1"

	assert.ErrorIs(t, handler.PushNotification(context.Background(), fsEvent), ErrInvalidDocumentName)
}

func TestHandler_PushNotification_SendFailureIsIsolated(t *testing.T) {
	store := &MockUserStore{
		users: []User{
			{ID: "sender", FirstName: "Bob", FCMToken: "token-sender"},
			{ID: "a", FirstName: "A", FCMToken: "token-a"},
			{ID: "b", FirstName: "B", FCMToken: "token-broken"},
			{ID: "c", FirstName: "C", FCMToken: "token-c"},
		},
	}
	fcmClient := &MockFCMClient{
		SendFunc: func(ctx context.Context, message *messaging.Message) (string, error) {
			if message.Token == "token-broken" {
				return "", errors.New("unregistered")
			}
			return "ok", nil
		},
	}
	logger, hook := logtest.NewNullLogger()
	sender := pushNotification.NewSender(fcmClient, nil, 2, logger)
	handler := NewHandler(store, sender, 2, logger)

	require.NoError(t, handler.PushNotification(context.Background(), createTestEvent("sender", "Bob", "hi")))

	sort.Strings(fcmClient.tokens)
	assert.Equal(t, []string{"token-a", "token-broken", "token-c"}, fcmClient.tokens)

	summary := hook.LastEntry()
	assert.Equal(t, 2, summary.Data["sent"])
	assert.Equal(t, 1, summary.Data["failed"])
}
