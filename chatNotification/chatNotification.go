package chatNotification

import (
	"context"
	"errors"

	"github.com/chatroomFunctions/pushNotification"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	messageType = "chat_message"

	anonymousSender = "Someone"
)

var ErrInvalidDocumentName = errors.New("invalid chat message document name")

// PushSender delivers a batch of notifications, best-effort per recipient.
type PushSender interface {
	SendAll(ctx context.Context, notifications []pushNotification.Notification) pushNotification.Summary
}

type Handler struct {
	store       UserStore
	sender      PushSender
	concurrency int
	logger      log.FieldLogger
}

func NewHandler(store UserStore, sender PushSender, concurrency int, logger log.FieldLogger) *Handler {
	if concurrency <= 0 {
		concurrency = pushNotification.DefaultConcurrency
	}

	return &Handler{
		store:       store,
		sender:      sender,
		concurrency: concurrency,
		logger:      logger,
	}
}

// PushNotification handles the creation of a chat message document. Store
// failures abort the invocation; push failures are only logged.
func (h *Handler) PushNotification(ctx context.Context, fsEvent FirestoreEvent) error {
	message, err := MessageFromEvent(fsEvent)
	if err != nil {
		h.logger.WithError(err).Error("unable to decode chat message event")
		return err
	}

	logger := h.logger.WithFields(log.Fields{
		"invocationId": uuid.NewString(),
		"chatroomId":   message.ChatroomID,
		"messageId":    message.MessageID,
	})

	recipients, err := h.Recipients(ctx, message)
	if err != nil {
		logger.WithError(err).Error("unable to resolve recipients")
		return err
	}

	if len(recipients) == 0 {
		logger.Info("no recipients for chat message")
		return nil
	}

	roomTitle := RoomTitle(message.ChatroomID)

	notifications := make([]pushNotification.Notification, 0, len(recipients))
	for _, recipient := range recipients {
		notifications = append(notifications, BuildNotification(roomTitle, message, recipient))
	}

	summary := h.sender.SendAll(ctx, notifications)

	logger.WithFields(log.Fields{
		"sent":   summary.Sent,
		"failed": summary.Failed,
	}).Info("chat notifications dispatched")

	return nil
}

// Recipients applies the per-user notification policy to every user. The
// order of the result is not significant.
func (h *Handler) Recipients(ctx context.Context, message Message) ([]Recipient, error) {
	users, err := h.store.Users(ctx)
	if err != nil {
		return nil, err
	}

	// one slot per user so goroutines never share an index
	slots := make([]*Recipient, len(users))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(h.concurrency)

	for i, user := range users {
		i, user := i, user

		// Because we should not send notification to the same user
		if user.ID == message.SenderID {
			continue
		}

		group.Go(func() error {
			preference, err := h.store.ChatroomPreference(groupCtx, user.ID, message.ChatroomID)
			if err != nil {
				return err
			}

			if !Qualifies(EffectiveLevel(preference), message.Text, user.FirstName) {
				return nil
			}

			if user.FCMToken == "" {
				return nil
			}

			slots[i] = &Recipient{
				UserID:   user.ID,
				UserName: user.FirstName,
				Token:    user.FCMToken,
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	recipients := []Recipient{}
	for _, recipient := range slots {
		if recipient != nil {
			recipients = append(recipients, *recipient)
		}
	}

	return recipients, nil
}

func BuildNotification(roomTitle string, message Message, recipient Recipient) pushNotification.Notification {
	senderName := message.SenderName
	if senderName == "" {
		senderName = anonymousSender
	}

	return pushNotification.Notification{
		Token: recipient.Token,
		Title: "New message in " + roomTitle,
		Body:  senderName + ": " + TruncateText(message.Text),
		Data: map[string]string{
			"chatroomId": message.ChatroomID,
			"type":       messageType,
		},
	}
}
