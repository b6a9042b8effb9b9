package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/dealer-users/internal/models"
)

type MockChannel struct {
	mock.Mock
}

func (m *MockChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	args := m.Called(exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

func TestPublisher_PublishSubscriptionExpired(t *testing.T) {
	event := models.SubscriptionExpired{
		UserUID:   "6f0f8a1c-2d6e-4b9d-8d7a-9c0b1e2f3a4b",
		Email:     "dealer@example.com",
		ExpiredAt: time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC),
	}

	t.Run("success", func(t *testing.T) {
		ch := new(MockChannel)
		ch.On("Publish", Exchange, RoutingKeySubscriptionExpired, false, false,
			mock.MatchedBy(func(msg amqp.Publishing) bool {
				var got models.SubscriptionExpired
				if err := json.Unmarshal(msg.Body, &got); err != nil {
					return false
				}
				return msg.ContentType == "application/json" &&
					msg.DeliveryMode == amqp.Persistent &&
					got.UserUID == event.UserUID &&
					got.ExpiredAt.Equal(event.ExpiredAt)
			})).Return(nil).Once()

		err := NewPublisher(ch).PublishSubscriptionExpired(context.Background(), event)
		require.NoError(t, err)
		ch.AssertExpectations(t)
	})

	t.Run("channel error", func(t *testing.T) {
		ch := new(MockChannel)
		ch.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(errors.New("channel closed")).Once()

		err := NewPublisher(ch).PublishSubscriptionExpired(context.Background(), event)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "channel closed")
	})

	t.Run("canceled context", func(t *testing.T) {
		ch := new(MockChannel)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := NewPublisher(ch).PublishSubscriptionExpired(ctx, event)
		require.ErrorIs(t, err, context.Canceled)
		ch.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestPublisher_PublishMessage_Unmarshalable(t *testing.T) {
	ch := new(MockChannel)
	err := NewPublisher(ch).PublishMessage(Exchange, "key", make(chan int))
	assert.Error(t, err)
	ch.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
