package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/chronostore/internal/inventory"
	"github.com/fekuna/chronostore/internal/logger"
	"github.com/fekuna/chronostore/internal/metrics"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const EventStockAdjusted = "StockAdjusted"

// MessageReader is the part of *kafka.Reader the listener needs.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type Config struct {
	Brokers []string
	Topic   string
	GroupID string
}

func NewKafkaReader(cfg Config) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
}

// StockListener applies warehouse stock counts published on Kafka.
type StockListener struct {
	reader  MessageReader
	uc      inventory.UseCase
	metrics *metrics.Registry
	logger  logger.ZapLogger
	backoff time.Duration
}

func NewStockListener(reader MessageReader, uc inventory.UseCase, m *metrics.Registry, logger logger.ZapLogger) *StockListener {
	return &StockListener{
		reader:  reader,
		uc:      uc,
		metrics: m,
		logger:  logger,
		backoff: time.Second,
	}
}

func (l *StockListener) Start(ctx context.Context) {
	l.logger.Info("Starting stock sync listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping stock sync listener")
			return
		default:
			msg, err := l.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(l.backoff):
				}
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type StockAdjustedEvent struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Payload   StockPayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

// StockPayload carries the absolute stock count, not a delta.
type StockPayload struct {
	ProductID int64  `json:"product_id"`
	Stock     int    `json:"stock"`
	Source    string `json:"source"`
}

func (l *StockListener) processMessage(ctx context.Context, value []byte) {
	var event StockAdjustedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.metrics.StockEvent("malformed")
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	if event.EventType != EventStockAdjusted {
		l.metrics.StockEvent("skipped")
		return
	}

	l.logger.Debug("Processing StockAdjusted event",
		zap.String("event_id", event.EventID),
		zap.Int64("product_id", event.Payload.ProductID),
		zap.Int("stock", event.Payload.Stock),
	)

	if err := l.uc.UpdateStock(ctx, event.Payload.ProductID, event.Payload.Stock); err != nil {
		l.metrics.StockEvent("failed")
		l.logger.Error("Failed to apply stock event",
			zap.String("event_id", event.EventID),
			zap.Int64("product_id", event.Payload.ProductID),
			zap.Error(err),
		)
		return
	}
	l.metrics.StockEvent("applied")
}

func (l *StockListener) Close() error {
	return l.reader.Close()
}
