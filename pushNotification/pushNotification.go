package pushNotification

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"firebase.google.com/go/messaging"
	expo "github.com/oliveroneill/exponent-server-sdk-golang/sdk"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const DefaultConcurrency = 10

var ErrNoClient = errors.New("no push client configured for token")

type Sender struct {
	fcmClient   FCMClient
	expoClient  ExpoClient
	concurrency int
	logger      log.FieldLogger
}

// NewSender builds a Sender. Either client may be nil, in which case tokens
// routed to it fail with ErrNoClient.
func NewSender(fcmClient FCMClient, expoClient ExpoClient, concurrency int, logger log.FieldLogger) *Sender {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	return &Sender{
		fcmClient:   fcmClient,
		expoClient:  expoClient,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Send delivers one notification. Expo tokens go through the Expo push
// service, everything else is treated as an FCM registration token.
func (s *Sender) Send(ctx context.Context, notification Notification) error {
	if token, err := expo.NewExponentPushToken(notification.Token); err == nil {
		return s.sendExpo(token, notification)
	}

	return s.sendFCM(ctx, notification)
}

func (s *Sender) sendFCM(ctx context.Context, notification Notification) error {
	if s.fcmClient == nil {
		return fmt.Errorf("fcm: %w", ErrNoClient)
	}

	_, err := s.fcmClient.Send(ctx, &messaging.Message{
		Token: notification.Token,
		Notification: &messaging.Notification{
			Title: notification.Title,
			Body:  notification.Body,
		},
		Data: notification.Data,
	})
	if err != nil {
		return fmt.Errorf("fcm send: %w", err)
	}

	return nil
}

func (s *Sender) sendExpo(token expo.ExponentPushToken, notification Notification) error {
	if s.expoClient == nil {
		return fmt.Errorf("expo: %w", ErrNoClient)
	}

	response, err := s.expoClient.Publish(&expo.PushMessage{
		To:       []expo.ExponentPushToken{token},
		Body:     notification.Body,
		Sound:    "default",
		Title:    notification.Title,
		Priority: expo.HighPriority,
		Data:     notification.Data,
	})
	if err != nil {
		return fmt.Errorf("expo publish: %w", err)
	}

	if err := response.ValidateResponse(); err != nil {
		return fmt.Errorf("expo ticket: %w", err)
	}

	return nil
}

// SendAll attempts every notification with at most s.concurrency sends in
// flight. Failures are logged per recipient and never stop the others.
func (s *Sender) SendAll(ctx context.Context, notifications []Notification) Summary {
	var (
		mu      sync.Mutex
		summary Summary
		group   errgroup.Group
	)
	group.SetLimit(s.concurrency)

	for _, notification := range notifications {
		notification := notification

		group.Go(func() error {
			err := s.Send(ctx, notification)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				summary.Failed++
				s.logger.WithError(err).WithField("token", notification.Token).Error("push notification failed")
				return nil
			}

			summary.Sent++
			return nil
		})
	}

	// goroutines never return an error
	_ = group.Wait()

	return summary
}
