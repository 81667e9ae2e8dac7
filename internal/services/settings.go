package services

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/ecopanier/backend/internal/models"
	"github.com/ecopanier/backend/pkg/logger"
	"gorm.io/gorm"
)

const historyLimit = 50

// SettingsService bridges the flat platform_settings key/value rows and the
// typed PlatformSettings object.
//
// Error policy: read operations are fail-open, they always hand back a
// usable value (defaults, empty history) and report the store failure as a
// secondary signal. Write operations are fail-closed and return an error
// naming the first key that could not be persisted.
type SettingsService struct {
	db *gorm.DB
}

func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{db: db}
}

// LoadAll fetches every settings row and merges it over the defaults.
// The returned object always has every field populated. The error reports a
// store failure for observability; callers may ignore it and use the
// returned defaults.
func (s *SettingsService) LoadAll() (*PlatformSettings, error) {
	settings := DefaultPlatformSettings()

	var rows []models.PlatformSetting
	if err := s.db.Find(&rows).Error; err != nil {
		logger.Warn().Err(err).Msg("failed to load platform settings, serving defaults")
		return settings, err
	}

	byKey := make(map[string]string, len(rows))
	for _, row := range rows {
		byKey[row.SettingKey] = row.SettingValue
	}

	v := reflect.ValueOf(settings).Elem()
	for i := 0; i < settingsType.NumField(); i++ {
		field := settingsType.Field(i)
		raw, ok := byKey[field.Tag.Get("json")]
		if !ok {
			continue
		}
		if err := parseSettingValue(v.Field(i), raw); err != nil {
			// Malformed row: keep the default for this field.
			logger.Warn().Str("key", field.Tag.Get("json")).Str("value", raw).
				Err(err).Msg("malformed setting value, keeping default")
			continue
		}
	}

	return settings, nil
}

// SaveAll persists every field as an individual keyed update, in declaration
// order. The whole object is validated before anything is written. There is
// no transaction spanning the set of keys: if one key fails, the error names
// it and earlier keys stay persisted.
func (s *SettingsService) SaveAll(settings *PlatformSettings, actorID uint) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	v := reflect.ValueOf(settings).Elem()
	for i := 0; i < settingsType.NumField(); i++ {
		key := settingsType.Field(i).Tag.Get("json")
		value := formatSettingValue(v.Field(i))
		if err := s.writeKey(key, value, actorID); err != nil {
			return fmt.Errorf("failed to save setting %q: %w", key, err)
		}
	}
	return nil
}

// GetOne returns the typed value for a camelCase key. Unknown keys are an
// error; a store failure falls back to the field's default.
func (s *SettingsService) GetOne(key string) (any, error) {
	storageKey := ToSnakeKey(key)
	idx, ok := fieldIndexByStorageKey[storageKey]
	if !ok {
		return nil, fmt.Errorf("unknown setting %q", key)
	}

	defaults := DefaultPlatformSettings()
	field := reflect.ValueOf(defaults).Elem().Field(idx)

	var row models.PlatformSetting
	if err := s.db.Where("setting_key = ?", storageKey).First(&row).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn().Str("key", storageKey).Err(err).Msg("failed to read setting, serving default")
		}
		return field.Interface(), nil
	}

	if err := parseSettingValue(field, row.SettingValue); err != nil {
		logger.Warn().Str("key", storageKey).Str("value", row.SettingValue).
			Err(err).Msg("malformed setting value, serving default")
		return reflect.ValueOf(DefaultPlatformSettings()).Elem().Field(idx).Interface(), nil
	}
	return field.Interface(), nil
}

// SetOne persists a single camelCase-keyed value with the actor identity.
// The value must match the field's type (JSON-decoded values accepted).
func (s *SettingsService) SetOne(key string, value any, actorID uint) error {
	storageKey := ToSnakeKey(key)
	idx, ok := fieldIndexByStorageKey[storageKey]
	if !ok {
		return fmt.Errorf("unknown setting %q", key)
	}

	raw, err := coerceSettingValue(settingsType.Field(idx), value)
	if err != nil {
		return fmt.Errorf("invalid value for setting %q: %w", key, err)
	}

	if err := s.checkConstraints(storageKey, idx, raw); err != nil {
		return err
	}

	if err := s.writeKey(storageKey, raw, actorID); err != nil {
		return fmt.Errorf("failed to save setting %q: %w", key, err)
	}
	return nil
}

// checkConstraints validates a single stored value against its field's
// validate tag, plus the price cross-field rule when a lot price bound is
// being moved. The counterpart bound comes from the current stored values.
func (s *SettingsService) checkConstraints(storageKey string, idx int, raw string) error {
	current, _ := s.LoadAll()
	field := reflect.ValueOf(current).Elem().Field(idx)
	if err := parseSettingValue(field, raw); err != nil {
		return fmt.Errorf("invalid value for %s: %w", storageKey, err)
	}

	if err := checkSettingRules(settingsType.Field(idx), field); err != nil {
		return fmt.Errorf("invalid value for %s: %w", storageKey, err)
	}

	if storageKey == "min_lot_price" || storageKey == "max_lot_price" {
		if current.MaxLotPrice < current.MinLotPrice {
			return fmt.Errorf("invalid value for %s: max_lot_price (%v) must not be below min_lot_price (%v)",
				storageKey, current.MaxLotPrice, current.MinLotPrice)
		}
	}
	return nil
}

// GetHistory returns up to 50 most recent change records for a camelCase
// key, newest first, with the changing user preloaded. Returns an empty
// list on any store failure.
func (s *SettingsService) GetHistory(key string) []models.PlatformSettingHistory {
	storageKey := ToSnakeKey(key)

	var records []models.PlatformSettingHistory
	err := s.db.Where("setting_key = ?", storageKey).
		Order("changed_at DESC").
		Limit(historyLimit).
		Preload("ChangedByUser").
		Find(&records).Error
	if err != nil {
		logger.Warn().Str("key", storageKey).Err(err).Msg("failed to load setting history")
		return []models.PlatformSettingHistory{}
	}
	return records
}

// ResetAll restores every setting to its hard-coded default. The caller is
// responsible for confirming destructive intent.
func (s *SettingsService) ResetAll(actorID uint) error {
	return s.SaveAll(DefaultPlatformSettings(), actorID)
}

// SeedDefaults inserts a row for every missing key so a fresh database
// starts fully populated. Seed rows carry no actor and write no history.
func (s *SettingsService) SeedDefaults() error {
	defaults := DefaultPlatformSettings()
	v := reflect.ValueOf(defaults).Elem()

	for i := 0; i < settingsType.NumField(); i++ {
		key := settingsType.Field(i).Tag.Get("json")
		var count int64
		s.db.Model(&models.PlatformSetting{}).Where("setting_key = ?", key).Count(&count)
		if count > 0 {
			continue
		}
		row := models.PlatformSetting{
			SettingKey:   key,
			SettingValue: formatSettingValue(v.Field(i)),
		}
		if err := s.db.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

// ListSettingInfos returns all settings with their metadata, grouped by
// category in declaration order. Current values come from LoadAll and are
// therefore fail-open as well.
func (s *SettingsService) ListSettingInfos() []models.CategorizedSettings {
	current, _ := s.LoadAll()
	defaults := DefaultPlatformSettings()

	cv := reflect.ValueOf(current).Elem()
	dv := reflect.ValueOf(defaults).Elem()

	var categories []models.CategorizedSettings
	byName := make(map[string]int)

	for i := 0; i < settingsType.NumField(); i++ {
		field := settingsType.Field(i)
		info := models.SettingInfo{
			Key:          field.Tag.Get("json"),
			Name:         field.Tag.Get("name"),
			Value:        cv.Field(i).Interface(),
			Type:         settingTypeName(field),
			DefaultValue: dv.Field(i).Interface(),
			Description:  field.Tag.Get("desc"),
			Category:     field.Tag.Get("category"),
		}

		idx, ok := byName[info.Category]
		if !ok {
			categories = append(categories, models.CategorizedSettings{CategoryName: info.Category})
			idx = len(categories) - 1
			byName[info.Category] = idx
		}
		categories[idx].Settings = append(categories[idx].Settings, info)
	}

	return categories
}

// writeKey upserts one settings row, recording a history entry in the same
// transaction when the value actually changes. No-op writes touch nothing.
// An actorID of 0 (maintenance tooling) is recorded as no actor.
func (s *SettingsService) writeKey(key, value string, actorID uint) error {
	var actor *uint
	if actorID > 0 {
		actor = &actorID
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var row models.PlatformSetting
		err := tx.Where("setting_key = ?", key).First(&row).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			row = models.PlatformSetting{
				SettingKey:   key,
				SettingValue: value,
				UpdatedBy:    actor,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			return tx.Create(&models.PlatformSettingHistory{
				SettingKey: key,
				OldValue:   "",
				NewValue:   value,
				ChangedBy:  actor,
				ChangedAt:  time.Now(),
			}).Error
		}
		if err != nil {
			return err
		}

		if row.SettingValue == value {
			return nil
		}

		oldValue := row.SettingValue
		updates := map[string]any{
			"setting_value": value,
			"updated_by":    actor,
		}
		if err := tx.Model(&row).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Create(&models.PlatformSettingHistory{
			SettingKey: key,
			OldValue:   oldValue,
			NewValue:   value,
			ChangedBy:  actor,
			ChangedAt:  time.Now(),
		}).Error
	})
}
