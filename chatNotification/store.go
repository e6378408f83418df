package chatNotification

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	userCollection       = "users"
	preferenceCollection = "chatroomPreferences"
	chatroomCollection   = "chatrooms"
	messageCollection    = "messages"
)

// UserStore is the read side of the user and preference documents.
type UserStore interface {
	Users(ctx context.Context) ([]User, error)
	// ChatroomPreference returns nil when the user has no preference
	// document for the chatroom.
	ChatroomPreference(ctx context.Context, userID, chatroomID string) (*ChatroomPreference, error)
}

type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) Users(ctx context.Context) ([]User, error) {
	users := []User{}

	iter := s.client.Collection(userCollection).Documents(ctx)
	defer iter.Stop()

	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", userCollection, err)
		}

		users = append(users, userFromData(docSnap.Ref.ID, docSnap.Data()))
	}

	return users, nil
}

func (s *FirestoreStore) ChatroomPreference(ctx context.Context, userID, chatroomID string) (*ChatroomPreference, error) {
	docSnap, err := s.client.Collection(userCollection).Doc(userID).
		Collection(preferenceCollection).Doc(chatroomID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading preference %s/%s: %w", userID, chatroomID, err)
	}

	return preferenceFromData(docSnap.Data()), nil
}

// Fields are read loosely so that a document with a non-string firstName or
// fcmToken is treated as lacking it instead of failing the scan.
func userFromData(id string, data map[string]interface{}) User {
	user := User{ID: id}

	if firstName, ok := data["firstName"].(string); ok {
		user.FirstName = firstName
	}
	if token, ok := data["fcmToken"].(string); ok {
		user.FCMToken = token
	}

	return user
}

func preferenceFromData(data map[string]interface{}) *ChatroomPreference {
	preference := &ChatroomPreference{}

	if level, ok := data["notificationLevel"].(string); ok {
		preference.NotificationLevel = NotificationLevel(level)
	}

	return preference
}
