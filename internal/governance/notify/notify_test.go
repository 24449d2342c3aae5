package notify

//go:generate mockgen -source=notify.go -destination=mocks/mocks.go -package=mocks Publisher

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"condo/internal/governance/models"
	"condo/internal/governance/notify/mocks"
	id "condo/pkg/domain"
)

func sample(kind models.NotificationType) models.Notification {
	status := models.StatusApproved
	return models.Notification{
		ID:         uuid.New(),
		Type:       kind,
		OccurredAt: time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
		Topic:      "Repair roof",
		Status:     &status,
	}
}

func TestEncodeDecode(t *testing.T) {
	manager := id.MustParseAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	n := sample(models.NotificationManagerChanged)
	n.Manager = &manager

	payload, err := Encode(n)
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"type":"manager_changed"`)
	assert.Contains(t, string(payload), `"status":"APPROVED"`)
	assert.Contains(t, string(payload), `"manager":"0x70997970C51812dc3A010C7d01b50e0d17dc79C8"`)
	assert.NotContains(t, string(payload), `"amount"`)

	decoded, err := Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, n, decoded)

	_, err = Decode([]byte("{"))
	assert.Error(t, err)
}

func TestMulti(t *testing.T) {
	ctrl := gomock.NewController(t)
	first := mocks.NewMockPublisher(ctrl)
	second := mocks.NewMockPublisher(ctrl)
	n := sample(models.NotificationTopicChanged)

	t.Run("every publisher is called even after a failure", func(t *testing.T) {
		boom := errors.New("broker down")
		first.EXPECT().Publish(gomock.Any(), n).Return(boom)
		second.EXPECT().Publish(gomock.Any(), n).Return(nil)

		err := Multi{first, second}.Publish(context.Background(), n)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("no publishers is a no-op", func(t *testing.T) {
		assert.NoError(t, Multi{}.Publish(context.Background(), n))
	})
}

func TestBroker(t *testing.T) {
	t.Run("fans out to every subscriber", func(t *testing.T) {
		b := NewBroker(4, nil)
		a, cancelA := b.Subscribe(context.Background())
		defer cancelA()
		c, cancelC := b.Subscribe(context.Background())
		defer cancelC()

		n := sample(models.NotificationTopicChanged)
		require.NoError(t, b.Publish(context.Background(), n))

		assert.Equal(t, n, <-a)
		assert.Equal(t, n, <-c)
	})

	t.Run("slow subscribers drop instead of blocking", func(t *testing.T) {
		b := NewBroker(1, nil)
		ch, cancel := b.Subscribe(context.Background())
		defer cancel()

		require.NoError(t, b.Publish(context.Background(), sample(models.NotificationTopicChanged)))
		require.NoError(t, b.Publish(context.Background(), sample(models.NotificationQuotaChanged)))

		got := <-ch
		assert.Equal(t, models.NotificationTopicChanged, got.Type)
		select {
		case extra := <-ch:
			t.Fatalf("unexpected buffered notification %v", extra.Type)
		default:
		}
	})

	t.Run("cancel and context end unsubscribe", func(t *testing.T) {
		b := NewBroker(1, nil)
		ctx, stop := context.WithCancel(context.Background())
		ch, _ := b.Subscribe(ctx)
		_, cancel := b.Subscribe(context.Background())
		require.Equal(t, 2, b.Subscribers())

		cancel()
		cancel()
		assert.Equal(t, 1, b.Subscribers())

		stop()
		_, open := <-ch
		assert.False(t, open)
		assert.Eventually(t, func() bool { return b.Subscribers() == 0 }, time.Second, 10*time.Millisecond)
	})

	t.Run("cancel releases the watcher of a long lived context", func(t *testing.T) {
		b := NewBroker(1, nil)
		before := runtime.NumGoroutine()
		for range 50 {
			_, cancel := b.Subscribe(context.Background())
			cancel()
		}
		assert.Eventually(t, func() bool { return runtime.NumGoroutine() <= before }, time.Second, 10*time.Millisecond)
	})

	t.Run("close ends subscriptions and refuses new ones", func(t *testing.T) {
		b := NewBroker(1, nil)
		ch, _ := b.Subscribe(context.Background())
		b.Close()
		_, open := <-ch
		assert.False(t, open)

		late, _ := b.Subscribe(context.Background())
		_, open = <-late
		assert.False(t, open)
	})
}
