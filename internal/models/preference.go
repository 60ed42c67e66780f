package models

import "time"

// Preference keys.
const (
	PreferenceCurrency = "currency"
	PreferenceTheme    = "theme"
)

// Theme values.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Preference is one persisted key/value setting for a user.
type Preference struct {
	UserID    string    `gorm:"type:varchar(36);primaryKey" json:"-"`
	Name      string    `gorm:"type:varchar(64);primaryKey" json:"name"`
	Value     string    `gorm:"type:varchar(255);not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
