package models

import "time"

// PlatformSetting is one row of the platform_settings key/value store.
// Keys are persisted in snake_case (e.g. "merchant_commission"); the typed
// view over these rows lives in services.PlatformSettings.
type PlatformSetting struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SettingKey   string    `gorm:"column:setting_key;uniqueIndex;size:100;not null" json:"setting_key"`
	SettingValue string    `gorm:"column:setting_value;type:text;not null" json:"setting_value"`
	UpdatedBy    *uint     `json:"updated_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (PlatformSetting) TableName() string { return "platform_settings" }

// PlatformSettingHistory is an append-only record of a setting change.
// Rows are written by the settings service in the same transaction as the
// value update and are never mutated or deleted afterwards.
type PlatformSettingHistory struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	SettingKey    string    `gorm:"size:100;index;not null" json:"setting_key"`
	OldValue      string    `gorm:"type:text" json:"old_value"`
	NewValue      string    `gorm:"type:text" json:"new_value"`
	ChangedBy     *uint     `json:"changed_by"`
	ChangedByUser *User     `gorm:"foreignKey:ChangedBy" json:"changed_by_user,omitempty"`
	ChangedAt     time.Time `gorm:"index" json:"changed_at"`
}

func (PlatformSettingHistory) TableName() string { return "platform_settings_history" }
