package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fekuna/chronostore/internal/currency"
	"github.com/fekuna/chronostore/internal/logger"
	"github.com/fekuna/chronostore/internal/model"
	"github.com/fekuna/chronostore/internal/settings"
	"go.uber.org/zap"
)

type settingsUseCase struct {
	local  settings.Local
	remote settings.Remote
	rates  *currency.Converter
	logger logger.ZapLogger

	// mu keeps apply-then-rollback of one update from interleaving with another.
	mu  sync.Mutex
	now func() time.Time
}

// NewSettingsUseCase works without a remote; updates are then local only.
func NewSettingsUseCase(local settings.Local, remote settings.Remote, rates *currency.Converter, log logger.ZapLogger) settings.UseCase {
	return &settingsUseCase{
		local:  local,
		remote: remote,
		rates:  rates,
		logger: log,
		now:    time.Now,
	}
}

func (uc *settingsUseCase) Load(ctx context.Context) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if uc.remote != nil {
		s, err := uc.remote.Fetch(ctx)
		switch {
		case err != nil:
			uc.logger.Warn("could not fetch remote settings, keeping local copy", zap.Error(err))
		case s != nil:
			return uc.local.Save(ctx, *s)
		}
	}

	cur, err := uc.local.Get(ctx)
	if err != nil {
		return err
	}
	if cur == nil {
		return uc.local.Save(ctx, model.DefaultSettings())
	}
	return nil
}

func (uc *settingsUseCase) Get(ctx context.Context) model.Settings {
	cur, err := uc.local.Get(ctx)
	if err != nil {
		uc.logger.Error("failed to read settings", zap.Error(err))
	}
	if cur == nil {
		return model.DefaultSettings()
	}
	return *cur
}

// Update applies patch locally first and then persists it remotely. A remote
// failure puts the previous record back and is returned to the caller.
func (uc *settingsUseCase) Update(ctx context.Context, patch model.SettingsPatch) (model.Settings, error) {
	if err := uc.validate(&patch); err != nil {
		return model.Settings{}, err
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	prev := uc.Get(ctx)
	next := prev.Apply(patch, uc.now())
	if err := uc.local.Save(ctx, next); err != nil {
		return prev, fmt.Errorf("save settings locally: %w", err)
	}
	if uc.remote == nil {
		return next, nil
	}

	if err := uc.remote.Save(ctx, next); err != nil {
		uc.logger.Error("remote settings update failed, rolling back", zap.Error(err))
		if rerr := uc.local.Save(ctx, prev); rerr != nil {
			uc.logger.Error("settings rollback failed", zap.Error(rerr))
		}
		return prev, fmt.Errorf("save settings remotely: %w", err)
	}

	uc.logger.Info("settings updated", zap.String("store_name", next.StoreName), zap.String("currency", next.Currency))
	return next, nil
}

func (uc *settingsUseCase) validate(p *model.SettingsPatch) error {
	if p.StoreName != nil {
		name := strings.TrimSpace(*p.StoreName)
		if name == "" {
			return settings.ErrEmptyStoreName
		}
		p.StoreName = &name
	}
	if p.Currency != nil {
		cur, ok := uc.rates.Resolve(*p.Currency)
		if !ok {
			return fmt.Errorf("%w: %q", settings.ErrUnknownCurrency, *p.Currency)
		}
		p.Currency = &cur.Code
	}
	if p.Notifications != nil && p.Notifications.LowStockThreshold < 0 {
		return settings.ErrNegativeThreshold
	}
	return nil
}

func (uc *settingsUseCase) LowStockThreshold(ctx context.Context) (int, bool) {
	n := uc.Get(ctx).Notifications
	return n.LowStockThreshold, n.LowStockAlert
}

func (uc *settingsUseCase) PaymentAllowed(ctx context.Context, m model.PaymentMethod) bool {
	return uc.Get(ctx).Payments.Allows(m)
}
