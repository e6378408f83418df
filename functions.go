package chatroomFunctions

import (
	"context"
	"net/http"
	"sync"

	"github.com/chatroomFunctions/chatNotification"
	"github.com/chatroomFunctions/pushNotification"
	"github.com/chatroomFunctions/videoRelay"
	expo "github.com/oliveroneill/exponent-server-sdk-golang/sdk"
	log "github.com/sirupsen/logrus"
)

var (
	functionsOnce sync.Once
	functions     *Functions
)

func init() {
	log.SetFormatter(&log.JSONFormatter{
		FieldMap: log.FieldMap{log.FieldKeyMsg: "message"},
	})
	log.SetLevel(log.InfoLevel)
}

// Functions holds the handlers behind the deployed entry points. The
// clients they share are built once per instance.
type Functions struct {
	notifier    *chatNotification.Handler
	notifierErr error
	relay       *videoRelay.Handler
}

// NewFunctions builds both handlers from cfg. A Firebase initialization
// failure only disables chat notifications.
func NewFunctions(ctx context.Context, cfg Config, logger *log.Logger) *Functions {
	fns := &Functions{
		relay: newRelayHandler(cfg, logger),
	}

	clients, err := newFirebaseClients(ctx, cfg)
	if err != nil {
		logger.WithError(err).Error("chat notifications unavailable")
		fns.notifierErr = err
		return fns
	}

	sender := pushNotification.NewSender(
		clients.messaging,
		expo.NewPushClient(nil),
		cfg.PushConcurrency,
		logger.WithField("component", "pushNotification"),
	)

	fns.notifier = chatNotification.NewHandler(
		chatNotification.NewFirestoreStore(clients.firestore),
		sender,
		cfg.PushConcurrency,
		logger.WithField("function", "NotifyChatMessage"),
	)

	return fns
}

func newRelayHandler(cfg Config, logger *log.Logger) *videoRelay.Handler {
	return videoRelay.NewHandler(
		nil,
		cfg.MuxAssetsURL,
		videoRelay.Credentials{
			TokenID:     cfg.MuxTokenID,
			TokenSecret: cfg.MuxTokenSecret,
		},
		logger.WithField("function", "RelayVideo"),
	)
}

func (f *Functions) NotifyChatMessage(ctx context.Context, fsEvent chatNotification.FirestoreEvent) error {
	if f.notifierErr != nil {
		return f.notifierErr
	}

	return f.notifier.PushNotification(ctx, fsEvent)
}

func (f *Functions) RelayVideo(w http.ResponseWriter, r *http.Request) {
	f.relay.ServeHTTP(w, r)
}

func loadFunctions() *Functions {
	functionsOnce.Do(func() {
		cfg := LoadConfig()

		if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
			log.SetLevel(level)
		}

		functions = NewFunctions(context.Background(), cfg, log.StandardLogger())
	})

	return functions
}

// NotifyChatMessage is triggered by the creation of
// chatrooms/{chatroomId}/messages/{messageId}.
func NotifyChatMessage(ctx context.Context, fsEvent chatNotification.FirestoreEvent) error {
	return loadFunctions().NotifyChatMessage(ctx, fsEvent)
}

// RelayVideo is the HTTP entry point that hands a video URL to Mux.
func RelayVideo(w http.ResponseWriter, r *http.Request) {
	loadFunctions().RelayVideo(w, r)
}
