package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// GatePassJobMessage is the payload published for every queued gate pass job.
type GatePassJobMessage struct {
	JobId         int       `json:"job_id"`
	BusinessId    string    `json:"business_id"`
	Kind          string    `json:"kind"`
	StockEntry    string    `json:"stock_entry"`
	EnqueuedBy    string    `json:"enqueued_by"`
	CorrelationId string    `json:"correlation_id"`
	EnqueuedAt    time.Time `json:"enqueued_at"`
}

var (
	pubsubClient   *pubsub.Client
	pubsubClientMu sync.Mutex
)

func getPubSubProjectID() string {
	for _, key := range []string{"PUBSUB_PROJECT_ID", "GOOGLE_CLOUD_PROJECT", "GCP_PROJECT"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

func GatePassJobsTopic() string {
	if v := os.Getenv("GATE_PASS_JOBS_TOPIC"); v != "" {
		return v
	}
	return "gate-pass-jobs"
}

// getPubSubClient returns the shared client, retrying creation until ctx ends.
// It uses Application Default Credentials unless PUBSUB_CREDENTIALS_JSON is provided.
func getPubSubClient(ctx context.Context) (*pubsub.Client, error) {
	pubsubClientMu.Lock()
	if c := pubsubClient; c != nil {
		pubsubClientMu.Unlock()
		return c, nil
	}
	pubsubClientMu.Unlock()

	projectID := getPubSubProjectID()
	if projectID == "" {
		return nil, errors.New("PUBSUB_PROJECT_ID/GOOGLE_CLOUD_PROJECT not set")
	}

	var opts []option.ClientOption
	if credJSON := os.Getenv("PUBSUB_CREDENTIALS_JSON"); credJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credJSON)))
	}

	var attempt int
	for {
		attempt++
		c, err := pubsub.NewClient(ctx, projectID, opts...)
		if err == nil {
			pubsubClientMu.Lock()
			if pubsubClient == nil {
				pubsubClient = c
			} else {
				// lost the race
				_ = c.Close()
			}
			winner := pubsubClient
			pubsubClientMu.Unlock()

			log.Printf("pubsub client ready (project_id=%s attempt=%d)", projectID, attempt)
			return winner, nil
		}

		sleep := retryDelay(attempt)
		log.Printf("failed to init pubsub client (project_id=%s attempt=%d): %v; retrying in %s", projectID, attempt, err, sleep)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("pubsub client: %w", ctx.Err())
		case <-time.After(sleep):
		}
	}
}

func GatePassJobsSubscription() string {
	if v := os.Getenv("GATE_PASS_JOBS_SUBSCRIPTION"); v != "" {
		return v
	}
	return GatePassJobsTopic() + "-push"
}

// EnsureGatePassJobsTopology creates the jobs topic and its push subscription when they
// are missing. Existing resources are left as they are.
func EnsureGatePassJobsTopology(ctx context.Context, endpoint string) error {
	if endpoint == "" {
		return errors.New("push endpoint is required")
	}
	c, err := getPubSubClient(ctx)
	if err != nil {
		return err
	}
	topic := c.Topic(GatePassJobsTopic())
	ok, err := topic.Exists(ctx)
	if err != nil {
		return fmt.Errorf("check topic exists: %w", err)
	}
	if !ok {
		if topic, err = c.CreateTopic(ctx, GatePassJobsTopic()); err != nil {
			return fmt.Errorf("create topic %q: %w", GatePassJobsTopic(), err)
		}
	}

	name := GatePassJobsSubscription()
	sub := c.Subscription(name)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return fmt.Errorf("check subscription exists: %w", err)
	}
	if exists {
		return nil
	}
	_, err = c.CreateSubscription(ctx, name, pubsub.SubscriptionConfig{
		Topic:       topic,
		AckDeadline: 60 * time.Second,
		PushConfig:  pubsub.PushConfig{Endpoint: endpoint},
		RetryPolicy: &pubsub.RetryPolicy{MinimumBackoff: 10 * time.Second, MaximumBackoff: 10 * time.Minute},
	})
	if err != nil {
		return fmt.Errorf("create subscription %q: %w", name, err)
	}
	log.Printf("created pubsub subscription %s -> %s", name, endpoint)
	return nil
}

// PublishGatePassJobWithResult publishes and returns the Pub/Sub server-assigned message ID.
func PublishGatePassJobWithResult(ctx context.Context, msg GatePassJobMessage) (string, error) {
	client, err := getPubSubClient(ctx)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}
	result := client.Topic(GatePassJobsTopic()).Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"business_id": msg.BusinessId,
			"kind":        msg.Kind,
		},
	})
	return result.Get(ctx)
}

func ClosePubSub() {
	pubsubClientMu.Lock()
	defer pubsubClientMu.Unlock()
	if pubsubClient != nil {
		_ = pubsubClient.Close()
		pubsubClient = nil
	}
}
