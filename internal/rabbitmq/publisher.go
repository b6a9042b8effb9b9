package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/dealer-users/internal/models"
)

// Channel часть amqp.Channel, нужная для публикации.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher публикует события пользователей в Exchange.
// Публикация в один amqp.Channel из нескольких горутин сериализуется.
type Publisher struct {
	mu sync.Mutex
	ch Channel
}

// NewPublisher создаёт Publisher поверх канала.
func NewPublisher(ch Channel) *Publisher {
	return &Publisher{ch: ch}
}

// PublishMessage сериализует message в JSON и публикует его как persistent-сообщение.
func (p *Publisher) PublishMessage(exchange, routingKey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.Publish(
		exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// PublishSubscriptionExpired публикует событие об окончании дней подписки.
func (p *Publisher) PublishSubscriptionExpired(ctx context.Context, event models.SubscriptionExpired) error {
	const op = "rabbitmq.PublishSubscriptionExpired"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if err := p.PublishMessage(Exchange, RoutingKeySubscriptionExpired, event); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
