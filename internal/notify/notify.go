// Package notify tells the outside world that an order was placed.
package notify

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/fekuna/chronostore/internal/model"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const EventOrderPlaced = "OrderPlaced"

type Notifier interface {
	OrderPlaced(ctx context.Context, order model.Order) error
}

type OrderPlacedEvent struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Payload   OrderPayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

type OrderPayload struct {
	OrderID       int64            `json:"order_id"`
	Customer      model.Customer   `json:"customer"`
	Items         []model.LineItem `json:"items"`
	Total         int64            `json:"total"`
	PaymentMethod string           `json:"payment_method"`
	Comment       string           `json:"comment,omitempty"`
}

func NewOrderPlacedEvent(o model.Order, now time.Time) OrderPlacedEvent {
	return OrderPlacedEvent{
		EventID:   uuid.New().String(),
		EventType: EventOrderPlaced,
		Payload: OrderPayload{
			OrderID:       o.ID,
			Customer:      o.Customer,
			Items:         o.Items,
			Total:         o.Total,
			PaymentMethod: string(o.PaymentMethod),
			Comment:       o.Comment,
		},
		Timestamp: now,
	}
}

// messageWriter abstracts kafka.Writer for testability.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type KafkaNotifier struct {
	writer messageWriter
	now    func() time.Time
}

func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	return NewKafkaNotifierWith(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	})
}

func NewKafkaNotifierWith(w messageWriter) *KafkaNotifier {
	return &KafkaNotifier{writer: w, now: time.Now}
}

func (k *KafkaNotifier) OrderPlaced(ctx context.Context, order model.Order) error {
	b, err := json.Marshal(NewOrderPlacedEvent(order, k.now()))
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(order.ID, 10)),
		Value: b,
	})
}

func (k *KafkaNotifier) Close() error {
	if c, ok := k.writer.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// Nop drops every notification.
type Nop struct{}

func (Nop) OrderPlaced(context.Context, model.Order) error { return nil }
