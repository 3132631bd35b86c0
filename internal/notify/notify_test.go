package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/fekuna/chronostore/internal/model"
	"github.com/segmentio/kafka-go"
)

type fakeKafkaWriter struct {
	msgs []kafka.Message
}

func (f *fakeKafkaWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func TestKafkaNotifierPublishesOrder(t *testing.T) {
	w := &fakeKafkaWriter{}
	n := NewKafkaNotifierWith(w)
	ts := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return ts }

	order := model.Order{
		ID:       1714824000000,
		Customer: model.Customer{Name: "Dana", Phone: "+77001112233"},
		Items:    []model.LineItem{{ProductID: 3, Title: "Prospex", Price: 200000, Quantity: 1}},
		Total:    200000,
		Comment:  "call before delivery",
	}
	if err := n.OrderPlaced(context.Background(), order); err != nil {
		t.Fatalf("OrderPlaced() error = %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(w.msgs))
	}
	if string(w.msgs[0].Key) != "1714824000000" {
		t.Errorf("key = %q", w.msgs[0].Key)
	}

	var ev OrderPlacedEvent
	if err := json.Unmarshal(w.msgs[0].Value, &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.EventType != EventOrderPlaced || ev.EventID == "" || !ev.Timestamp.Equal(ts) {
		t.Errorf("unexpected envelope %+v", ev)
	}
	if ev.Payload.Total != 200000 || ev.Payload.Comment != "call before delivery" || len(ev.Payload.Items) != 1 {
		t.Errorf("unexpected payload %+v", ev.Payload)
	}
}
