package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fekuna/chronostore/internal/admin"
	"github.com/fekuna/chronostore/internal/admin/dto"
	"github.com/fekuna/chronostore/internal/logger"
	"github.com/fekuna/chronostore/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 6

type adminUseCase struct {
	repo   admin.Repository
	cost   int
	logger logger.ZapLogger
}

func NewAdminUseCase(repo admin.Repository, log logger.ZapLogger) admin.UseCase {
	return &adminUseCase{
		repo:   repo,
		cost:   bcrypt.DefaultCost,
		logger: log,
	}
}

func (uc *adminUseCase) CreateAdmin(ctx context.Context, input *dto.CreateAdminInput) (*model.Admin, error) {
	name := strings.TrimSpace(input.Name)
	phone := model.NormalizePhone(input.Phone)
	if name == "" || phone == "" || len(input.Password) < minPasswordLen {
		return nil, admin.ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), uc.cost)
	if err != nil {
		return nil, err
	}

	a := model.Admin{
		ID:           uuid.New().String(),
		Name:         name,
		Phone:        phone,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}

	err = uc.repo.WithTx(ctx, func(tx admin.Tx) error {
		for _, existing := range tx.List() {
			if existing.Phone == phone {
				return admin.ErrPhoneTaken
			}
		}
		return tx.Save(a)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("administrator created", zap.String("admin_id", a.ID))
	return &a, nil
}

// DeleteAdmin is a no-op for unknown targets.
func (uc *adminUseCase) DeleteAdmin(ctx context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return admin.ErrSelfDelete
	}
	return uc.repo.WithTx(ctx, func(tx admin.Tx) error {
		all := tx.List()
		found := false
		for _, a := range all {
			if a.ID == targetID {
				found = true
				break
			}
		}
		if !found {
			return nil
		}
		if len(all) <= 1 {
			return admin.ErrLastAdmin
		}
		tx.Remove(targetID)
		uc.logger.Info("administrator deleted", zap.String("admin_id", targetID), zap.String("by", actorID))
		return nil
	})
}

func (uc *adminUseCase) ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return admin.ErrInvalidInput
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), uc.cost)
	if err != nil {
		return err
	}
	return uc.repo.WithTx(ctx, func(tx admin.Tx) error {
		for _, a := range tx.List() {
			if a.ID != id {
				continue
			}
			if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(oldPassword)) != nil {
				return admin.ErrInvalidCredentials
			}
			a.PasswordHash = string(hash)
			return tx.Save(a)
		}
		return admin.ErrInvalidCredentials
	})
}

func (uc *adminUseCase) Authenticate(ctx context.Context, phone, password string) (*model.Admin, error) {
	a, err := uc.repo.FindByPhone(ctx, model.NormalizePhone(phone))
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, admin.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, admin.ErrInvalidCredentials
		}
		return nil, err
	}
	return a, nil
}

func (uc *adminUseCase) ListAdmins(ctx context.Context) ([]model.Admin, error) {
	return uc.repo.List(ctx)
}

func (uc *adminUseCase) IsAdmin(ctx context.Context, id string) (bool, error) {
	a, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	return a != nil, nil
}

// EnsureDefault seeds the first administrator on an empty store.
func (uc *adminUseCase) EnsureDefault(ctx context.Context, input *dto.CreateAdminInput) (bool, error) {
	admins, err := uc.repo.List(ctx)
	if err != nil {
		return false, err
	}
	if len(admins) > 0 {
		return false, nil
	}
	if _, err := uc.CreateAdmin(ctx, input); err != nil {
		return false, err
	}
	uc.logger.Warn("seeded default administrator, change its password", zap.String("phone", model.NormalizePhone(input.Phone)))
	return true, nil
}
