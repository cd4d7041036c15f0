package notification

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atm-fleet-backend/config"
	"atm-fleet-backend/internal/model"
)

type fakePushSender struct {
	sent chan []byte
}

func (f *fakePushSender) Send(payload []byte, _ *webpush.Subscription, _ *webpush.Options) (*http.Response, error) {
	f.sent <- payload
	return &http.Response{StatusCode: 201, Body: io.NopCloser(strings.NewReader(""))}, nil
}

type fakeTextSender struct {
	sent chan string
}

func (f *fakeTextSender) SendText(_ context.Context, _, content string) error {
	f.sent <- content
	return nil
}

func testEngineer() model.User {
	return model.User{
		ID:           "eng-1",
		PushEndpoint: "https://push.example.com/sub",
		PushP256DH:   "p256dh-key",
		PushAuth:     "auth-secret",
		PhoneNumber:  "+15550100",
	}
}

func TestWorkerPoolDeliversPushAndText(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	push := &fakePushSender{sent: make(chan []byte, 1)}
	text := &fakeTextSender{sent: make(chan string, 1)}

	pool := NewWorkerPool(2, &webpush.Options{}, text)
	pool.SetPushSender(push)
	pool.Start(ctx)

	task := model.Task{ID: "task-1", AtmID: "atm-1", TaskTitle: model.TitleCardJammed, IssueDescription: "Card jammed in ATM dispenser"}
	pool.NotifyAssignment(testEngineer(), task)

	select {
	case payload := <-push.sent:
		var body map[string]string
		require.NoError(t, json.Unmarshal(payload, &body))
		assert.Equal(t, "task-1", body["taskId"])
		assert.Equal(t, "atm-1", body["atmId"])
		assert.Contains(t, body["body"], "CARD_JAMMED")
	case <-time.After(2 * time.Second):
		t.Fatal("push was never sent")
	}

	select {
	case content := <-text.sent:
		assert.Contains(t, content, "New CARD_JAMMED task at ATM atm-1")
	case <-time.After(2 * time.Second):
		t.Fatal("text was never sent")
	}
}

func TestWorkerPoolSkipsPushWithoutSubscription(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	push := &fakePushSender{sent: make(chan []byte, 1)}
	text := &fakeTextSender{sent: make(chan string, 1)}

	pool := NewWorkerPool(1, &webpush.Options{}, text)
	pool.SetPushSender(push)
	pool.Start(ctx)

	engineer := testEngineer()
	engineer.PushEndpoint = ""
	pool.NotifyAssignment(engineer, model.Task{ID: "task-1"})

	// The text still goes out; the push is skipped silently.
	select {
	case <-text.sent:
	case <-time.After(2 * time.Second):
		t.Fatal("text was never sent")
	}
	select {
	case <-push.sent:
		t.Fatal("push sent without a subscription")
	default:
	}
}

func TestNotifyAssignmentDropsWhenQueueFull(t *testing.T) {
	// Workers never started: the buffered channel fills up.
	pool := NewWorkerPool(1, &webpush.Options{}, nil)

	for i := 0; i < 5; i++ {
		pool.NotifyAssignment(model.User{}, model.Task{ID: "task"})
	}
	assert.Equal(t, 2, len(pool.Jobs()))
}

func TestHTTPProviderSenderSendText(t *testing.T) {
	var gotAuth string
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := NewHTTPProviderSender(&config.NotifyConfig{
		TextURL:        server.URL,
		TextAPIKey:     "text-key",
		TimeoutSeconds: 5,
	})

	require.NoError(t, sender.SendText(context.Background(), "+15550100", "hello"))
	assert.Equal(t, "Bearer text-key", gotAuth)
	assert.Equal(t, "+15550100", gotBody["to"])
	assert.Equal(t, "hello", gotBody["body"])

	// Unconfigured channel is an error, not a silent no-op.
	unconfigured := NewHTTPProviderSender(&config.NotifyConfig{TimeoutSeconds: 5})
	assert.Error(t, unconfigured.SendText(context.Background(), "+15550100", "hello"))
	assert.Error(t, unconfigured.SendEmail(context.Background(), "a@example.com", "subject", "<p>hi</p>"))
}

func TestHTTPProviderSenderRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	sender := NewHTTPProviderSender(&config.NotifyConfig{EmailURL: server.URL, TimeoutSeconds: 5})
	err := sender.SendEmail(context.Background(), "a@example.com", "subject", "<p>hi</p>")
	assert.ErrorContains(t, err, "status 502")
}
