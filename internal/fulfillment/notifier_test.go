package fulfillment

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/resend/resend-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- MOCKS ---

type fakeMailer struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (f *fakeMailer) SendEmail(ctx context.Context, msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakePublisher struct {
	queue string
	body  []byte
	err   error
}

func (f *fakePublisher) Publish(ctx context.Context, queueName string, body []byte) error {
	f.queue, f.body = queueName, body
	return f.err
}

var testDelivery = Delivery{
	To:              "a@example.com",
	BuyerName:       "Asha",
	ProductTitle:    "Go Patterns",
	FileURL:         "https://files.test/go-patterns.pdf",
	PaymentID:       "pay_123",
	ProviderOrderID: "order_ABC",
}

func TestRenderMessage(t *testing.T) {
	msg, err := RenderMessage(testDelivery)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", msg.To)
	assert.Equal(t, "Your purchase: Go Patterns", msg.Subject)
	assert.Contains(t, msg.HTML, "Hi Asha,")
	assert.Contains(t, msg.HTML, `href="https://files.test/go-patterns.pdf"`)
	assert.Contains(t, msg.HTML, "Payment ID: pay_123")
}

func TestRenderMessage_DefaultsAndEscaping(t *testing.T) {
	d := testDelivery
	d.BuyerName = ""
	msg, err := RenderMessage(d)
	require.NoError(t, err)
	assert.Contains(t, msg.HTML, "Hi there,")

	d.BuyerName = "<script>x</script>"
	msg, err = RenderMessage(d)
	require.NoError(t, err)
	assert.NotContains(t, msg.HTML, "<script>")
}

func TestRenderMessage_Invalid(t *testing.T) {
	_, err := RenderMessage(Delivery{To: "a@example.com"})
	require.ErrorIs(t, err, ErrInvalidDelivery)
}

func TestMailNotifier_Send(t *testing.T) {
	m := &fakeMailer{}
	n := NewMailNotifier(m, nil)
	require.NoError(t, n.Send(context.Background(), testDelivery))
	require.Len(t, m.sent, 1)
	assert.Equal(t, "Your purchase: Go Patterns", m.sent[0].Subject)

	m.err = errors.New("smtp down")
	require.Error(t, n.Send(context.Background(), testDelivery))
}

func TestQueueNotifier_Send(t *testing.T) {
	p := &fakePublisher{}
	require.NoError(t, NewQueueNotifier(p).Send(context.Background(), testDelivery))
	assert.Equal(t, EmailQueue, p.queue)

	var got Delivery
	require.NoError(t, json.Unmarshal(p.body, &got))
	assert.Equal(t, testDelivery, got)

	p.err = errors.New("channel closed")
	require.Error(t, NewQueueNotifier(p).Send(context.Background(), testDelivery))
}

func TestResendMailer_SendEmail(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		b, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(b, &got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"email_1"}`))
	}))
	defer srv.Close()

	client := resend.NewClient("re_test")
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	client.BaseURL = base

	m := NewResendMailerWithClient(client, "shop@example.com")
	require.NoError(t, m.SendEmail(context.Background(), Message{To: "a@example.com", Subject: "Your purchase: X", HTML: "<p>hi</p>"}))

	assert.Equal(t, "shop@example.com", got["from"])
	assert.Equal(t, "Your purchase: X", got["subject"])
	assert.Equal(t, []any{"a@example.com"}, got["to"])
}
