package settings

import (
	"context"
	"errors"

	"github.com/fekuna/chronostore/internal/model"
)

var (
	ErrEmptyStoreName    = errors.New("store name must not be empty")
	ErrUnknownCurrency   = errors.New("unknown currency")
	ErrNegativeThreshold = errors.New("low stock threshold must not be negative")
)

type UseCase interface {
	Load(ctx context.Context) error
	Get(ctx context.Context) model.Settings
	Update(ctx context.Context, patch model.SettingsPatch) (model.Settings, error)

	LowStockThreshold(ctx context.Context) (int, bool)
	PaymentAllowed(ctx context.Context, m model.PaymentMethod) bool
}
