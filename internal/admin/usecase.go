package admin

import (
	"context"
	"errors"

	"github.com/fekuna/chronostore/internal/admin/dto"
	"github.com/fekuna/chronostore/internal/model"
)

var (
	ErrInvalidInput       = errors.New("name, phone and a password of at least 6 characters are required")
	ErrPhoneTaken         = errors.New("phone number already belongs to an administrator")
	ErrSelfDelete         = errors.New("administrators cannot delete their own account")
	ErrLastAdmin          = errors.New("at least one administrator must remain")
	ErrInvalidCredentials = errors.New("invalid phone or password")
)

type UseCase interface {
	CreateAdmin(ctx context.Context, input *dto.CreateAdminInput) (*model.Admin, error)
	DeleteAdmin(ctx context.Context, actorID, targetID string) error
	ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error
	Authenticate(ctx context.Context, phone, password string) (*model.Admin, error)
	ListAdmins(ctx context.Context) ([]model.Admin, error)
	IsAdmin(ctx context.Context, id string) (bool, error)
	EnsureDefault(ctx context.Context, input *dto.CreateAdminInput) (bool, error)
}
