package dto

import (
	"time"

	"github.com/fekuna/chronostore/internal/model"
)

type CreateAdminInput struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type DeleteAdminInput struct {
	ID string `json:"id"`
}

type LoginInput struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type ChangePasswordInput struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// AdminResponse never carries the password hash.
type AdminResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

func NewAdminResponse(a *model.Admin) AdminResponse {
	return AdminResponse{ID: a.ID, Name: a.Name, Phone: a.Phone, CreatedAt: a.CreatedAt}
}

type AdminListResponse struct {
	Admins []AdminResponse `json:"admins"`
}
