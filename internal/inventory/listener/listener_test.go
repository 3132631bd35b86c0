package listener

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/fekuna/chronostore/internal/inventory/dto"
	"github.com/fekuna/chronostore/internal/inventory/repository"
	"github.com/fekuna/chronostore/internal/inventory/usecase"
	"github.com/fekuna/chronostore/internal/logger"
	"github.com/fekuna/chronostore/internal/metrics"
	"github.com/fekuna/chronostore/internal/model"
	"github.com/fekuna/chronostore/internal/storage"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
)

// fakeReader replays queued messages, then blocks until the context ends.
type fakeReader struct {
	msgs   chan kafka.Message
	errs   int
	closed bool
}

func (f *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if f.errs > 0 {
		f.errs--
		return kafka.Message{}, errors.New("broker unavailable")
	}
	select {
	case m := <-f.msgs:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (f *fakeReader) Close() error {
	f.closed = true
	return nil
}

func stockMessage(t *testing.T, eventType string, productID int64, stock int) kafka.Message {
	t.Helper()
	b, err := json.Marshal(StockAdjustedEvent{
		EventID:   "ev-1",
		EventType: eventType,
		Payload:   StockPayload{ProductID: productID, Stock: stock, Source: "warehouse"},
		Timestamp: time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return kafka.Message{Value: b}
}

func TestListenerAppliesStockEvents(t *testing.T) {
	ctx := context.Background()
	store := storage.NewStore(storage.NewMemoryKV(), logger.NewNop())
	repo := repository.NewStoreRepository(store)
	uc := usecase.NewInventoryUseCase(repo, nil, nil, logger.NewNop())

	a, _ := uc.CreateProduct(ctx, &dto.ProductInput{ProductDraft: model.ProductDraft{Brand: "Rado", Title: "Captain Cook", Price: 900000, Stock: 2}})
	b, _ := uc.CreateProduct(ctx, &dto.ProductInput{ProductDraft: model.ProductDraft{Brand: "Rado", Title: "True", Price: 700000, Stock: 1}})

	reader := &fakeReader{msgs: make(chan kafka.Message, 4), errs: 1}
	reader.msgs <- stockMessage(t, EventStockAdjusted, a.ID, 7)
	reader.msgs <- kafka.Message{Value: []byte("{not json")}
	reader.msgs <- stockMessage(t, "PriceChanged", b.ID, 99)
	reader.msgs <- stockMessage(t, EventStockAdjusted, b.ID, 0)

	m := metrics.NewRegistry()
	l := NewStockListener(reader, uc, m, logger.NewNop())
	l.backoff = time.Millisecond

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		l.Start(runCtx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for testutil.ToFloat64(m.StockEventsApplied.WithLabelValues("applied")) < 2 {
		select {
		case <-deadline:
			t.Fatal("listener did not apply events in time")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done

	if p, _ := repo.FindActive(ctx, a.ID); p == nil || p.Stock != 7 {
		t.Errorf("product a = %+v, want stock 7", p)
	}
	if p, _ := repo.FindArchived(ctx, b.ID); p == nil {
		t.Error("product b should be archived by a zero stock event")
	}
	if got := testutil.ToFloat64(m.StockEventsApplied.WithLabelValues("malformed")); got != 1 {
		t.Errorf("malformed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.StockEventsApplied.WithLabelValues("skipped")); got != 1 {
		t.Errorf("skipped = %v, want 1", got)
	}

	if err := l.Close(); err != nil || !reader.closed {
		t.Errorf("Close() = %v, closed = %v", err, reader.closed)
	}
}
