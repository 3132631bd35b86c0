package model

import (
	"strings"
	"time"
)

type Admin struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// NormalizePhone strips spaces, parentheses and dashes.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '(', ')', '-':
			return -1
		}
		return r
	}, phone)
}

func (a Admin) Key() string { return a.ID }

func (a Admin) Clone() Admin { return a }
