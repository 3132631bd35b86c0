package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/fekuna/chronostore/internal/inventory"
	"github.com/fekuna/chronostore/internal/inventory/dto"
	"github.com/fekuna/chronostore/internal/logger"
	"github.com/fekuna/chronostore/internal/metrics"
	"github.com/fekuna/chronostore/internal/model"
	"github.com/fekuna/chronostore/internal/notify"
	"go.uber.org/zap"
)

const notifyTimeout = 10 * time.Second

type inventoryUseCase struct {
	repo     inventory.Repository
	notifier notify.Notifier
	metrics  *metrics.Registry
	logger   logger.ZapLogger

	ids    model.Sequence
	seedMu sync.Mutex
	seeded bool
	now    func() time.Time
	// wg tracks in-flight notifications; tests wait on it.
	wg sync.WaitGroup
}

func NewInventoryUseCase(repo inventory.Repository, notifier notify.Notifier, m *metrics.Registry, log logger.ZapLogger) inventory.UseCase {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &inventoryUseCase{
		repo:     repo,
		notifier: notifier,
		metrics:  m,
		logger:   log,
		now:      time.Now,
	}
}

func (uc *inventoryUseCase) PlaceOrder(ctx context.Context, input *dto.PlaceOrderInput) (*model.Order, error) {
	now := uc.now()
	if _, err := model.NewOrder(0, input.Customer, input.Items, input.PaymentMethod, input.Comment, now); err != nil {
		return nil, err
	}
	id, err := uc.nextID(ctx, now)
	if err != nil {
		return nil, err
	}

	var (
		order    model.Order
		archived []int64
	)
	err = uc.repo.WithTx(ctx, func(tx inventory.Tx) error {
		// Lines are repriced from the live product; the caller's copy only
		// names the product and the quantity.
		lines := make([]model.LineItem, 0, len(input.Items))
		demand := make(map[int64]int)
		products := make(map[int64]*model.Product)
		var productIDs []int64
		for _, it := range input.Items {
			p, ok := products[it.ProductID]
			if !ok {
				if p, ok = tx.FindActive(it.ProductID); !ok {
					continue
				}
				products[it.ProductID] = p
				productIDs = append(productIDs, it.ProductID)
			}
			lines = append(lines, model.LineItemFrom(*p, it.Quantity))
			demand[it.ProductID] += it.Quantity
		}
		if len(lines) == 0 {
			return inventory.ErrNothingAvailable
		}

		var err error
		order, err = model.NewOrder(id, input.Customer, lines, input.PaymentMethod, input.Comment, now)
		if err != nil {
			return err
		}
		if err := tx.SaveOrder(order); err != nil {
			return err
		}

		for _, pid := range productIDs {
			p := products[pid]
			p.Stock -= demand[pid]
			if p.Stock < 0 {
				p.Stock = 0
			}
			p.UpdatedAt = now
			if p.Stock == 0 {
				if err := archive(tx, *p, now); err != nil {
					return err
				}
				archived = append(archived, pid)
				continue
			}
			if err := tx.SaveActive(*p); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, inventory.ErrNothingAvailable) {
		return nil, err
	}
	if err != nil {
		uc.logger.Error("failed to place order", zap.Int64("order_id", id), zap.Error(err))
		return nil, err
	}

	uc.logger.Info("order placed",
		zap.Int64("order_id", order.ID),
		zap.Int64("total", order.Total),
		zap.Int("items", len(order.Items)),
		zap.Int64s("archived_products", archived),
	)
	uc.metrics.OrderPlaced(order.Total)
	uc.metrics.Archived(len(archived))

	uc.wg.Add(1)
	go uc.notifyOrderPlaced(order)

	return &order, nil
}

func (uc *inventoryUseCase) notifyOrderPlaced(order model.Order) {
	defer uc.wg.Done()
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	if err := uc.notifier.OrderPlaced(ctx, order); err != nil {
		uc.metrics.NotificationFailed()
		uc.logger.Error("failed to send order notification", zap.Int64("order_id", order.ID), zap.Error(err))
	}
}

func (uc *inventoryUseCase) UpdateStock(ctx context.Context, productID int64, newStock int) error {
	now := uc.now()
	archived := false
	err := uc.repo.WithTx(ctx, func(tx inventory.Tx) error {
		p, ok := tx.FindActive(productID)
		if !ok {
			return nil
		}
		p.UpdatedAt = now
		if newStock <= 0 {
			archived = true
			p.Stock = 0
			return archive(tx, *p, now)
		}
		p.Stock = newStock
		return tx.SaveActive(*p)
	})
	if err != nil {
		return err
	}
	if archived {
		uc.metrics.Archived(1)
		uc.logger.Info("product archived", zap.Int64("product_id", productID))
	}
	return nil
}

func (uc *inventoryUseCase) RestoreFromArchive(ctx context.Context, productID int64, initialStock int) error {
	if initialStock <= 0 {
		return nil
	}
	now := uc.now()
	restored := false
	err := uc.repo.WithTx(ctx, func(tx inventory.Tx) error {
		p, ok := tx.FindArchived(productID)
		if !ok {
			return nil
		}
		tx.RemoveArchived(productID)
		p.Stock = initialStock
		p.ArchivedAt = nil
		p.RestoredAt = &now
		p.UpdatedAt = now
		restored = true
		return tx.SaveActive(*p)
	})
	if err != nil {
		return err
	}
	if restored {
		uc.metrics.Restored()
		uc.logger.Info("product restored", zap.Int64("product_id", productID), zap.Int("stock", initialStock))
	}
	return nil
}

func (uc *inventoryUseCase) DeleteFromArchive(ctx context.Context, productID int64) error {
	return uc.repo.WithTx(ctx, func(tx inventory.Tx) error {
		if tx.RemoveArchived(productID) {
			uc.logger.Info("archived product deleted", zap.Int64("product_id", productID))
		}
		return nil
	})
}

func (uc *inventoryUseCase) DeleteProduct(ctx context.Context, productID int64) error {
	return uc.repo.WithTx(ctx, func(tx inventory.Tx) error {
		if tx.RemoveActive(productID) {
			uc.logger.Info("product deleted", zap.Int64("product_id", productID))
		}
		return nil
	})
}

// UpdateOrderStatus accepts any known status from any other; there is no
// transition table. Unknown statuses and orders are ignored.
func (uc *inventoryUseCase) UpdateOrderStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	if !status.Valid() {
		uc.logger.Warn("ignoring unknown order status", zap.Int64("order_id", orderID), zap.String("status", string(status)))
		return nil
	}
	now := uc.now()
	return uc.repo.WithTx(ctx, func(tx inventory.Tx) error {
		o, ok := tx.FindOrder(orderID)
		if !ok || o.Status == status {
			return nil
		}
		uc.logger.Info("order status changed",
			zap.Int64("order_id", orderID),
			zap.String("from", string(o.Status)),
			zap.String("to", string(status)),
		)
		o.Status = status
		o.UpdatedAt = now
		return tx.SaveOrder(*o)
	})
}

// CreateProduct puts a product with no stock straight into the archive.
func (uc *inventoryUseCase) CreateProduct(ctx context.Context, input *dto.ProductInput) (*model.Product, error) {
	now := uc.now()
	id, err := uc.nextID(ctx, now)
	if err != nil {
		return nil, err
	}
	p, err := model.NewProduct(id, input.ProductDraft, now)
	if err != nil {
		return nil, err
	}

	err = uc.repo.WithTx(ctx, func(tx inventory.Tx) error {
		if p.Stock == 0 {
			p.Archived = true
			p.ArchivedAt = &now
			return tx.SaveArchived(p)
		}
		return tx.SaveActive(p)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProduct edits the descriptive fields and price. Stock and archive
// state only change through the stock operations.
func (uc *inventoryUseCase) UpdateProduct(ctx context.Context, productID int64, input *dto.ProductInput) (*model.Product, error) {
	draft := input.ProductDraft
	draft.Stock = 0
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	now := uc.now()
	var updated *model.Product
	err := uc.repo.WithTx(ctx, func(tx inventory.Tx) error {
		save := tx.SaveActive
		p, ok := tx.FindActive(productID)
		if !ok {
			if p, ok = tx.FindArchived(productID); !ok {
				return nil
			}
			save = tx.SaveArchived
		}
		next, err := model.NewProduct(p.ID, draft, p.CreatedAt)
		if err != nil {
			return err
		}
		next.Stock = p.Stock
		next.Archived = p.Archived
		next.ArchivedAt = p.ArchivedAt
		next.RestoredAt = p.RestoredAt
		next.UpdatedAt = now
		updated = &next
		return save(next)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (uc *inventoryUseCase) GetProduct(ctx context.Context, productID int64) (*model.Product, error) {
	p, err := uc.repo.FindActive(ctx, productID)
	if err != nil || p != nil {
		return p, err
	}
	return uc.repo.FindArchived(ctx, productID)
}

func (uc *inventoryUseCase) ListActive(ctx context.Context) ([]model.Product, error) {
	return uc.repo.ListActive(ctx)
}

func (uc *inventoryUseCase) ListArchived(ctx context.Context) ([]model.Product, error) {
	return uc.repo.ListArchived(ctx)
}

// ListOrders returns newest first.
func (uc *inventoryUseCase) ListOrders(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error) {
	orders, err := uc.repo.ListOrders(ctx)
	if err != nil {
		return nil, 0, err
	}

	out := orders[:0]
	for _, o := range orders {
		if filters != nil && filters.Status != "" && o.Status != filters.Status {
			continue
		}
		out = append(out, o)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })

	total := len(out)
	if filters != nil && filters.PageSize > 0 {
		page := max(filters.Page, 1)
		start := min((page-1)*filters.PageSize, total)
		end := min(start+filters.PageSize, total)
		out = out[start:end]
	}
	return out, total, nil
}

func (uc *inventoryUseCase) GetOrder(ctx context.Context, orderID int64) (*model.Order, error) {
	return uc.repo.FindOrder(ctx, orderID)
}

func (uc *inventoryUseCase) nextID(ctx context.Context, now time.Time) (int64, error) {
	if err := uc.seedIDs(ctx); err != nil {
		return 0, err
	}
	return uc.ids.Next(now), nil
}

// seedIDs raises the sequence above every stored id. A failed read leaves
// the sequence unseeded so the next call tries again.
func (uc *inventoryUseCase) seedIDs(ctx context.Context) error {
	uc.seedMu.Lock()
	defer uc.seedMu.Unlock()
	if uc.seeded {
		return nil
	}
	snap, err := uc.repo.Snapshot(ctx)
	if err != nil {
		return err
	}
	for _, p := range snap.Active {
		uc.ids.Observe(p.ID)
	}
	for _, p := range snap.Archived {
		uc.ids.Observe(p.ID)
	}
	for _, o := range snap.Orders {
		uc.ids.Observe(o.ID)
	}
	uc.seeded = true
	return nil
}

func archive(tx inventory.Tx, p model.Product, now time.Time) error {
	tx.RemoveActive(p.ID)
	p.Stock = 0
	p.ArchivedAt = &now
	return tx.SaveArchived(p)
}
