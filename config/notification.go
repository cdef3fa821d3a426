package config

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"
)

// Notification is the wire format published to the notification topic. A
// separate delivery service (push/email) consumes it; this backend only
// publishes and never waits for delivery.
type Notification struct {
	OwnerId       string    `json:"owner_id"`
	Title         string    `json:"title"`
	Body          string    `json:"body"`
	DeepLink      string    `json:"deep_link"`
	CorrelationId string    `json:"correlation_id"`
	SentAt        time.Time `json:"sent_at"`
}

var (
	pubsubClient   *pubsub.Client
	pubsubClientMu sync.Mutex
)

func init() {
	godotenv.Load()
}

func getPubSubProjectID() string {
	if v := os.Getenv("PUBSUB_PROJECT_ID"); v != "" {
		return v
	}
	if v := os.Getenv("GOOGLE_CLOUD_PROJECT"); v != "" {
		return v
	}
	return ""
}

func getNotificationTopic() string {
	if v := os.Getenv("NOTIFICATION_TOPIC"); v != "" {
		return v
	}
	return "portal-notifications"
}

func getPubSubClient(ctx context.Context) (*pubsub.Client, error) {
	pubsubClientMu.Lock()
	defer pubsubClientMu.Unlock()
	if pubsubClient != nil {
		return pubsubClient, nil
	}

	projectID := getPubSubProjectID()
	if projectID == "" {
		return nil, errors.New("PUBSUB_PROJECT_ID/GOOGLE_CLOUD_PROJECT not set")
	}

	var (
		c   *pubsub.Client
		err error
	)
	if credJSON := os.Getenv("PUBSUB_CREDENTIALS_JSON"); credJSON != "" {
		c, err = pubsub.NewClient(ctx, projectID, option.WithCredentialsJSON([]byte(credJSON)))
	} else {
		// Application Default Credentials (service account or GOOGLE_APPLICATION_CREDENTIALS).
		c, err = pubsub.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, err
	}
	pubsubClient = c
	return pubsubClient, nil
}

// PubSubNotifier publishes notifications to the configured topic.
// Fire-and-forget: publish failures are logged and swallowed so one owner's
// failed notification never aborts a batch job.
type PubSubNotifier struct{}

func (PubSubNotifier) Notify(ctx context.Context, ownerId string, title string, body string, deepLink string) {
	logger := GetLogger()

	client, err := getPubSubClient(ctx)
	if err != nil {
		LogError(logger, "notification.go", "Notify", "getPubSubClient", ownerId, err)
		return
	}

	n := Notification{
		OwnerId:       ownerId,
		Title:         title,
		Body:          body,
		DeepLink:      deepLink,
		CorrelationId: uuid.NewString(),
		SentAt:        time.Now().UTC(),
	}
	data, err := json.Marshal(n)
	if err != nil {
		LogError(logger, "notification.go", "Notify", "Marshal", n, err)
		return
	}

	topic := client.Topic(getNotificationTopic())
	result := topic.Publish(ctx, &pubsub.Message{Data: data})
	go func() {
		if _, err := result.Get(context.Background()); err != nil {
			log.Printf("notification publish failed (owner_id=%s): %v", ownerId, err)
		}
	}()
}
