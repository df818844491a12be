package notify_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/redis/rueidis"
	"github.com/robalyx/verdict/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func setupTest(t *testing.T) (*notify.Publisher, *miniredis.Miniredis, rueidis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{mr.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return notify.NewPublisher(client, "verdict:notify", zaptest.NewLogger(t)), mr, client
}

func TestSendWithoutSubscribers(t *testing.T) {
	t.Parallel()

	publisher, _, _ := setupTest(t)

	err := publisher.Send(t.Context(), &notify.Notification{
		UserID:  uuid.New(),
		Type:    notify.TypeRefundIssued,
		Message: "refund issued",
	})
	require.NoError(t, err)
}

func TestSendDeliversToUserChannel(t *testing.T) {
	t.Parallel()

	publisher, mr, client := setupTest(t)
	userID := uuid.New()
	channel := publisher.Channel(userID)

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	received := make(chan string, 1)
	go func() {
		_ = client.Receive(ctx, client.B().Subscribe().Channel(channel).Build(),
			func(msg rueidis.PubSubMessage) {
				received <- msg.Message
			})
	}()

	require.Eventually(t, func() bool {
		return mr.PubSubNumSub(channel)[channel] == 1
	}, 2*time.Second, 10*time.Millisecond)

	err := publisher.Send(t.Context(), &notify.Notification{
		UserID:  userID,
		Type:    notify.TypeRefundIssued,
		Message: "refund issued",
		Data:    map[string]any{"credits": 6},
	})
	require.NoError(t, err)

	select {
	case payload := <-received:
		var n notify.Notification
		require.NoError(t, sonic.UnmarshalString(payload, &n))
		assert.Equal(t, userID, n.UserID)
		assert.Equal(t, notify.TypeRefundIssued, n.Type)
		assert.False(t, n.CreatedAt.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not delivered")
	}
}
