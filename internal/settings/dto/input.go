package dto

import "github.com/fekuna/chronostore/internal/model"

type UpdateSettingsInput struct {
	model.SettingsPatch
}

type SettingsResponse struct {
	model.Settings
	Currencies []string `json:"currencies"`
}
