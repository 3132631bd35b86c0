package model

import "time"

const SettingsKey = "current"

type Contact struct {
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Address   string `json:"address"`
	Instagram string `json:"instagram"`
	WhatsApp  string `json:"whatsapp"`
}

type PaymentToggles struct {
	Cash     bool `json:"cash"`
	Card     bool `json:"card"`
	Kaspi    bool `json:"kaspi"`
	Transfer bool `json:"transfer"`
}

func (t PaymentToggles) Allows(m PaymentMethod) bool {
	switch m {
	case PaymentCash:
		return t.Cash
	case PaymentCard:
		return t.Card
	case PaymentKaspi:
		return t.Kaspi
	case PaymentTransfer:
		return t.Transfer
	}
	return false
}

type NotificationPrefs struct {
	OrderEmail        bool `json:"order_email"`
	OrderTelegram     bool `json:"order_telegram"`
	LowStockAlert     bool `json:"low_stock_alert"`
	LowStockThreshold int  `json:"low_stock_threshold"`
}

type Settings struct {
	Logo          string            `json:"logo"`
	StoreName     string            `json:"store_name"`
	Currency      string            `json:"currency"`
	Contact       Contact           `json:"contact"`
	Payments      PaymentToggles    `json:"payments"`
	Notifications NotificationPrefs `json:"notifications"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

func DefaultSettings() Settings {
	return Settings{
		StoreName: "Chronostore",
		Currency:  "KZT",
		Payments: PaymentToggles{
			Cash:  true,
			Card:  true,
			Kaspi: true,
		},
		Notifications: NotificationPrefs{
			OrderEmail:        true,
			LowStockAlert:     true,
			LowStockThreshold: 2,
		},
	}
}

// SettingsPatch carries only the fields an administrator changed.
type SettingsPatch struct {
	Logo          *string            `json:"logo,omitempty"`
	StoreName     *string            `json:"store_name,omitempty"`
	Currency      *string            `json:"currency,omitempty"`
	Contact       *Contact           `json:"contact,omitempty"`
	Payments      *PaymentToggles    `json:"payments,omitempty"`
	Notifications *NotificationPrefs `json:"notifications,omitempty"`
}

func (s Settings) Apply(p SettingsPatch, now time.Time) Settings {
	if p.Logo != nil {
		s.Logo = *p.Logo
	}
	if p.StoreName != nil {
		s.StoreName = *p.StoreName
	}
	if p.Currency != nil {
		s.Currency = *p.Currency
	}
	if p.Contact != nil {
		s.Contact = *p.Contact
	}
	if p.Payments != nil {
		s.Payments = *p.Payments
	}
	if p.Notifications != nil {
		s.Notifications = *p.Notifications
	}
	s.UpdatedAt = now
	return s
}

func (s Settings) Key() string { return SettingsKey }

func (s Settings) Clone() Settings { return s }
