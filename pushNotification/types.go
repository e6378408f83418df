package pushNotification

import (
	"context"

	"firebase.google.com/go/messaging"
	expo "github.com/oliveroneill/exponent-server-sdk-golang/sdk"
)

// Notification is a single push addressed to one device token.
type Notification struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

// Summary counts the outcome of a SendAll call.
type Summary struct {
	Sent   int
	Failed int
}

// FCMClient is satisfied by *messaging.Client.
type FCMClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// ExpoClient is satisfied by *expo.PushClient.
type ExpoClient interface {
	Publish(message *expo.PushMessage) (expo.PushResponse, error)
}
