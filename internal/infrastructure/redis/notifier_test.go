package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"bidmarket/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestRedisNotifier_PublishesJSON(t *testing.T) {
	_, client := newTestClient(t)
	sub := subscribe(t, client, "push_alarms")
	notifier := NewRedisNotifier(client, "push_alarms")

	sent := &domain.Notification{
		RecipientID: "u1",
		Kind:        domain.NotifyOutbidByProxy,
		AuctionID:   "a1",
		AuctionName: "Leica M6",
		ImageURL:    "https://img.example/a1/1.jpg",
		Price:       20_000,
		Timestamp:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, notifier.Notify(context.Background(), sent))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var received domain.Notification
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &received))
	require.True(t, sent.Timestamp.Equal(received.Timestamp))
	received.Timestamp = sent.Timestamp
	require.Equal(t, *sent, received)
}
