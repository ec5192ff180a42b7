// --- File: pushactions/service_integration_test.go ---
//go:build integration

package pushactions_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"firebase.google.com/go/v4/messaging"
	"github.com/google/uuid"
	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/illmade-knight/go-test/emulators"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/durationpb"

	"github.com/tinywideclouds/go-push-actions/internal/pipeline"
	"github.com/tinywideclouds/go-push-actions/internal/sender"
	"github.com/tinywideclouds/go-push-actions/pkg/fcm"
	"github.com/tinywideclouds/go-push-actions/pushactions"
	"github.com/tinywideclouds/go-push-actions/pushactions/config"
)

// --- MOCKS ---

// mockMessagingClient stands in for the FCM Admin SDK so the pipeline can be
// driven end to end against the Pub/Sub emulator.
type mockMessagingClient struct {
	mu        sync.Mutex
	callCount int
	lastToken string
	sendErr   error
}

func (m *mockMessagingClient) Send(ctx context.Context, msg *messaging.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount++
	m.lastToken = msg.Token
	if m.sendErr != nil {
		return "", m.sendErr
	}
	return fmt.Sprintf("projects/test/messages/%d", m.callCount), nil
}

func (m *mockMessagingClient) SendDryRun(ctx context.Context, msg *messaging.Message) (string, error) {
	return m.Send(ctx, msg)
}

func (m *mockMessagingClient) SendEach(ctx context.Context, msgs []*messaging.Message) (*messaging.BatchResponse, error) {
	return &messaging.BatchResponse{}, nil
}

func (m *mockMessagingClient) SendEachDryRun(ctx context.Context, msgs []*messaging.Message) (*messaging.BatchResponse, error) {
	return &messaging.BatchResponse{}, nil
}

func (m *mockMessagingClient) SendEachForMulticast(ctx context.Context, msg *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
	return &messaging.BatchResponse{}, nil
}

func (m *mockMessagingClient) SendEachForMulticastDryRun(ctx context.Context, msg *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
	return &messaging.BatchResponse{}, nil
}

func (m *mockMessagingClient) SubscribeToTopic(ctx context.Context, tokens []string, topic string) (*messaging.TopicManagementResponse, error) {
	return &messaging.TopicManagementResponse{SuccessCount: len(tokens)}, nil
}

func (m *mockMessagingClient) UnsubscribeFromTopic(ctx context.Context, tokens []string, topic string) (*messaging.TopicManagementResponse, error) {
	return &messaging.TopicManagementResponse{SuccessCount: len(tokens)}, nil
}

func (m *mockMessagingClient) GetCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

func (m *mockMessagingClient) GetLastToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastToken
}

// --- TEST ---

func TestPushActionsService_Integration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	projectID := "test-project-integ"

	// 1. Emulator
	pubsubConn := emulators.SetupPubsubEmulator(t, ctx, emulators.GetDefaultPubsubConfig(projectID))
	psClient, err := pubsub.NewClient(ctx, projectID, pubsubConn.ClientOptions...)
	require.NoError(t, err)
	t.Cleanup(func() { psClient.Close() })

	t.Run("Full Lifecycle: Publish -> Transform -> Send", func(t *testing.T) {
		// Arrange
		topicID := "push-success-" + uuid.NewString()
		subID := topicID + "-sub"
		createPubsubResources(t, ctx, psClient, projectID, topicID, subID)

		fcmClient := &mockMessagingClient{}
		snd := sender.NewSender(fcmClient, logger)

		consumerCfg := *messagepipeline.NewGooglePubsubConsumerDefaults(subID)
		consumer, _ := messagepipeline.NewGooglePubsubConsumer(&consumerCfg, psClient, logger)

		svc, err := pushactions.New(
			&config.Config{ListenAddr: ":0", NumPipelineWorkers: 2},
			consumer,
			snd,
			func(h http.Handler) http.Handler { return h }, // No-op Auth
			logger,
		)
		require.NoError(t, err)

		// Start Service
		svcCtx, svcCancel := context.WithCancel(ctx)
		defer svcCancel()
		go func() { svc.Start(svcCtx) }()
		t.Cleanup(func() { svc.Shutdown(context.Background()) })

		// Publish a send request addressed to a single device token.
		req := &pipeline.SendRequest{
			Message: &fcm.Message{
				Token: "device-token-999",
				Data:  map[string]string{"kind": "ping"},
			},
		}
		payload, _ := json.Marshal(req)

		psClient.Publisher(topicID).Publish(ctx, &pubsub.Message{Data: payload}).Get(ctx)

		// Assert: provider called with the token from the published request
		require.Eventually(t, func() bool {
			return fcmClient.GetCallCount() == 1
		}, 10*time.Second, 100*time.Millisecond)

		assert.Equal(t, "device-token-999", fcmClient.GetLastToken())
	})
}

func createPubsubResources(t *testing.T, ctx context.Context, client *pubsub.Client, projectID, topicID, subID string) {
	t.Helper()
	topicName := fmt.Sprintf("projects/%s/topics/%s", projectID, topicID)
	_, err := client.TopicAdminClient.CreateTopic(ctx, &pubsubpb.Topic{Name: topicName})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.TopicAdminClient.DeleteTopic(context.Background(), &pubsubpb.DeleteTopicRequest{Topic: topicName})
	})

	subName := fmt.Sprintf("projects/%s/subscriptions/%s", projectID, subID)
	sub := &pubsubpb.Subscription{
		Name:               subName,
		Topic:              topicName,
		AckDeadlineSeconds: 10,
		RetryPolicy: &pubsubpb.RetryPolicy{
			MinimumBackoff: &durationpb.Duration{Seconds: 1},
		},
	}
	_, err = client.SubscriptionAdminClient.CreateSubscription(ctx, sub)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.SubscriptionAdminClient.DeleteSubscription(context.Background(), &pubsubpb.DeleteSubscriptionRequest{Subscription: subName})
	})
}
