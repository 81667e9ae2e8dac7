package services

import (
	"reflect"
	"strings"
	"testing"

	"github.com/ecopanier/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.PlatformSetting{}, &models.PlatformSettingHistory{}, &models.SystemLog{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func TestDefaultPlatformSettings(t *testing.T) {
	s := DefaultPlatformSettings()

	if s.PlatformName != "EcoPanier" {
		t.Errorf("PlatformName = %q, expected %q", s.PlatformName, "EcoPanier")
	}
	if s.MinLotPrice != 0.5 {
		t.Errorf("MinLotPrice = %v, expected 0.5", s.MinLotPrice)
	}
	if s.MaxLotPrice != 500 {
		t.Errorf("MaxLotPrice = %v, expected 500", s.MaxLotPrice)
	}
	if s.MerchantCommission != 15 {
		t.Errorf("MerchantCommission = %v, expected 15", s.MerchantCommission)
	}
	if s.CollectorCommission != 10 {
		t.Errorf("CollectorCommission = %v, expected 10", s.CollectorCommission)
	}
	if s.MaxDailyBeneficiaryReservations != 3 {
		t.Errorf("MaxDailyBeneficiaryReservations = %v, expected 3", s.MaxDailyBeneficiaryReservations)
	}
	if !s.EmailNotificationsEnabled {
		t.Error("EmailNotificationsEnabled should default to true")
	}
	if s.SmsNotificationsEnabled {
		t.Error("SmsNotificationsEnabled should default to false")
	}
}

func TestLoadAll_EmptyStore(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSettingsService(db)

	settings, err := svc.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() on empty store: %v", err)
	}

	if !reflect.DeepEqual(settings, DefaultPlatformSettings()) {
		t.Error("LoadAll() on empty store should return the defaults")
	}
}

func TestLoadAll_MergesStoredValues(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSettingsService(db)

	db.Create(&models.PlatformSetting{SettingKey: "merchant_commission", SettingValue: "20"})
	db.Create(&models.PlatformSetting{SettingKey: "platform_name", SettingValue: "Paniers Solidaires"})

	settings, err := svc.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll(): %v", err)
	}

	if settings.MerchantCommission != 20 {
		t.Errorf("MerchantCommission = %v, expected 20", settings.MerchantCommission)
	}
	if settings.PlatformName != "Paniers Solidaires" {
		t.Errorf("PlatformName = %q, expected %q", settings.PlatformName, "Paniers Solidaires")
	}
	// Untouched fields keep their defaults
	if settings.CollectorCommission != 10 {
		t.Errorf("CollectorCommission = %v, expected default 10", settings.CollectorCommission)
	}
}

func TestLoadAll_MalformedRowKeepsDefault(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSettingsService(db)

	db.Create(&models.PlatformSetting{SettingKey: "max_login_attempts", SettingValue: "not-a-number"})

	settings, err := svc.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll(): %v", err)
	}

	if settings.MaxLoginAttempts != 5 {
		t.Errorf("MaxLoginAttempts = %v, expected default 5", settings.MaxLoginAttempts)
	}
}

func TestLoadAll_StoreFailure(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSettingsService(db)

	// Dropping the table makes every read fail.
	db.Migrator().DropTable(&models.PlatformSetting{})

	settings, err := svc.LoadAll()
	if err == nil {
		t.Error("LoadAll() should report the store failure")
	}
	if settings == nil {
		t.Fatal("LoadAll() must still return a usable object on failure")
	}
	if !reflect.DeepEqual(settings, DefaultPlatformSettings()) {
		t.Error("LoadAll() should serve the defaults on store failure")
	}
}

func TestSaveAll_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSettingsService(db)

	want := DefaultPlatformSettings()
	want.PlatformName = "Paniers Verts"
	want.MerchantCommission = 12.5
	want.MaxReservationsPerDay = 8
	want.PushNotificationsEnabled = false

	if err := svc.SaveAll(want, 1); err != nil {
		t.Fatalf("SaveAll(): %v", err)
	}

	got, err := svc.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll(): %v", err)
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestSaveAll_PartialFailureNamesKey(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSettingsService(db)

	// Fail the insert for one specific key; keys before it in declaration
	// order must stay persisted.
	const failKey = "merchant_commission"
	err := db.Callback().Create().Before("gorm:create").Register("fail_one_key", func(tx *gorm.DB) {
		if row, ok := tx.Statement.Dest.(*models.PlatformSetting); ok && row.SettingKey == failKey {
			tx.AddError(gorm.ErrInvalidData)
		}
	})
	if err != nil {
		t.Fatalf("failed to register callback: %v", err)
	}

	saveErr := svc.SaveAll(DefaultPlatformSettings(), 1)
	if saveErr == nil {
		t.Fatal("SaveAll() should fail when a key cannot be written")
	}
	if !strings.Contains(saveErr.Error(), failKey) {
		t.Errorf("error %q should name the failing key %q", saveErr.Error(), failKey)
	}

	// Keys written before the failure survive.
	var count int64
	db.Model(&models.PlatformSetting{}).Where("setting_key = ?", "platform_name").Count(&count)
	if count != 1 {
		t.Error("keys saved before the failure should remain persisted")
	}
	db.Model(&models.PlatformSetting{}).Where("setting_key = ?", failKey).Count(&count)
	if count != 0 {
		t.Error("the failing key should not be persisted")
	}
}

func TestGetOne(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSettingsService(db)

	// Default when the row is missing
	value, err := svc.GetOne("merchantCommission")
	if err != nil {
		t.Fatalf("GetOne(): %v", err)
	}
	if value != 15.0 {
		t.Errorf("GetOne(merchantCommission) = %v, expected default 15", value)
	}

	// Stored value wins
	db.Create(&models.PlatformSetting{SettingKey: "merchant_commission", SettingValue: "18"})
	value, err = svc.GetOne("merchantCommission")
	if err != nil {
		t.Fatalf("GetOne(): %v", err)
	}
	if value != 18.0 {
		t.Errorf("GetOne(merchantCommission) = %v, expected 18", value)
	}
}

func TestGetOne_UnknownKey(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSettingsService(db)

	if _, err := svc.GetOne("noSuchSetting"); err == nil {
		t.Error("GetOne() should reject unknown keys")
	}
}

func TestSetOne(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSettingsService(db)

	if err := svc.SetOne("maxLoginAttempts", float64(7), 42); err != nil {
		t.Fatalf("SetOne(): %v", err)
	}

	value, err := svc.GetOne("maxLoginAttempts")
	if err != nil {
		t.Fatalf("GetOne(): %v", err)
	}
	if value != 7 {
		t.Errorf("value = %v, expected 7", value)
	}

	var row models.PlatformSetting
	if err := db.Where("setting_key = ?", "max_login_attempts").First(&row).Error; err != nil {
		t.Fatalf("row lookup: %v", err)
	}
	if row.UpdatedBy == nil || *row.UpdatedBy != 42 {
		t.Error("SetOne() should record the actor on the row")
	}
}

func TestSetOne_TypeMismatch(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSettingsService(db)

	tests := []struct {
		key   string
		value any
	}{
		{"maxLoginAttempts", "seven"},
		{"maxLoginAttempts", 7.5},
		{"emailNotificationsEnabled", "yes"},
		{"merchantCommission", true},
		{"platformName", 3},
	}

	for _, tt := range tests {
		if err := svc.SetOne(tt.key, tt.value, 1); err == nil {
			t.Errorf("SetOne(%q, %v) should reject the mismatched type", tt.key, tt.value)
		}
	}
}

func TestSetOne_UnknownKey(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSettingsService(db)

	if err := svc.SetOne("noSuchSetting", "x", 1); err == nil {
		t.Error("SetOne() should reject unknown keys")
	}
}

func TestValidate(t *testing.T) {
	if err := DefaultPlatformSettings().Validate(); err != nil {
		t.Fatalf("defaults should validate, got %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*PlatformSettings)
		wantKey string
	}{
		{"commission above 100", func(s *PlatformSettings) { s.MerchantCommission = 150 }, "merchant_commission"},
		{"negative commission", func(s *PlatformSettings) { s.CollectorCommission = -1 }, "collector_commission"},
		{"negative min price", func(s *PlatformSettings) { s.MinLotPrice = -5 }, "min_lot_price"},
		{"max price below min price", func(s *PlatformSettings) { s.MinLotPrice = 100; s.MaxLotPrice = 10 }, "max_lot_price"},
		{"zero duration", func(s *PlatformSettings) { s.DefaultLotDuration = 0 }, "default_lot_duration"},
		{"duration above a week", func(s *PlatformSettings) { s.DefaultLotDuration = 169 }, "default_lot_duration"},
		{"zero daily limit", func(s *PlatformSettings) { s.MaxReservationsPerDay = 0 }, "max_reservations_per_day"},
		{"empty platform name", func(s *PlatformSettings) { s.PlatformName = "  " }, "platform_name"},
		{"malformed email", func(s *PlatformSettings) { s.PlatformEmail = "not-an-address" }, "platform_email"},
	}

	for _, tt := range tests {
		s := DefaultPlatformSettings()
		tt.mutate(s)
		err := s.Validate()
		if err == nil {
			t.Errorf("%s: Validate() should fail", tt.name)
			continue
		}
		if !strings.Contains(err.Error(), tt.wantKey) {
			t.Errorf("%s: error %q should name %q", tt.name, err.Error(), tt.wantKey)
		}
	}
}

func TestValidate_Boundaries(t *testing.T) {
	s := DefaultPlatformSettings()
	s.MerchantCommission = 0
	s.CollectorCommission = 100
	s.MinLotPrice = 0
	s.MaxLotPrice = 0 // equal to min is allowed
	s.DefaultLotDuration = 168
	if err := s.Validate(); err != nil {
		t.Errorf("boundary values should validate, got %v", err)
	}
}

func TestSaveAll_RejectsInvalid(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSettingsService(db)

	bad := DefaultPlatformSettings()
	bad.MinLotPrice = 100
	bad.MaxLotPrice = 10

	err := svc.SaveAll(bad, 1)
	if err == nil {
		t.Fatal("SaveAll() should reject a max price below the min price")
	}
	if !strings.Contains(err.Error(), "max_lot_price") {
		t.Errorf("error %q should name the offending key", err.Error())
	}

	// Nothing may be written when validation fails.
	var count int64
	db.Model(&models.PlatformSetting{}).Count(&count)
	if count != 0 {
		t.Errorf("rejected SaveAll() persisted %d rows", count)
	}
}

func TestSetOne_RejectsOutOfRange(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSettingsService(db)

	tests := []struct {
		key   string
		value any
	}{
		{"merchantCommission", float64(150)},
		{"collectorCommission", float64(-1)},
		{"minLotPrice", float64(-5)},
		{"defaultLotDuration", float64(0)},
		{"defaultLotDuration", float64(169)},
		{"maxReservationsPerDay", float64(0)},
		{"maxLoginAttempts", float64(0)},
		{"platformEmail", "not-an-address"},
		{"platformName", ""},
	}

	for _, tt := range tests {
		if err := svc.SetOne(tt.key, tt.value, 1); err == nil {
			t.Errorf("SetOne(%q, %v) should reject the out-of-range value", tt.key, tt.value)
		}
	}

	// Rejected writes leave no rows behind.
	var count int64
	db.Model(&models.PlatformSetting{}).Count(&count)
	if count != 0 {
		t.Errorf("rejected SetOne() persisted %d rows", count)
	}
}

func TestSetOne_PriceBoundsAreCrossChecked(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSettingsService(db)

	// Defaults: min 0.5, max 500.
	if err := svc.SetOne("maxLotPrice", 0.2, 1); err == nil {
		t.Error("SetOne() should reject a max price below the stored min price")
	}
	if err := svc.SetOne("minLotPrice", float64(600), 1); err == nil {
		t.Error("SetOne() should reject a min price above the stored max price")
	}

	if err := svc.SetOne("minLotPrice", float64(500), 1); err != nil {
		t.Errorf("min price equal to the max price should be accepted, got %v", err)
	}
}

func TestHistory_WrittenOnChange(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSettingsService(db)

	if err := svc.SetOne("merchantCommission", float64(18), 7); err != nil {
		t.Fatalf("SetOne(): %v", err)
	}
	if err := svc.SetOne("merchantCommission", float64(20), 7); err != nil {
		t.Fatalf("SetOne(): %v", err)
	}

	history := svc.GetHistory("merchantCommission")
	if len(history) != 2 {
		t.Fatalf("expected 2 history records, got %d", len(history))
	}

	// Newest first
	if history[0].OldValue != "18" || history[0].NewValue != "20" {
		t.Errorf("latest record = %q -> %q, expected 18 -> 20", history[0].OldValue, history[0].NewValue)
	}
	if history[1].OldValue != "" || history[1].NewValue != "18" {
		t.Errorf("first record = %q -> %q, expected \"\" -> 18", history[1].OldValue, history[1].NewValue)
	}
	if history[0].ChangedBy == nil || *history[0].ChangedBy != 7 {
		t.Error("history should record the actor")
	}
}

func TestHistory_NoRecordOnNoOpWrite(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSettingsService(db)

	if err := svc.SetOne("platformName", "EcoPanier", 1); err != nil {
		t.Fatalf("SetOne(): %v", err)
	}
	if err := svc.SetOne("platformName", "EcoPanier", 1); err != nil {
		t.Fatalf("SetOne(): %v", err)
	}

	history := svc.GetHistory("platformName")
	if len(history) != 1 {
		t.Errorf("no-op write should not add history, got %d records", len(history))
	}
}

func TestGetHistory_EmptyOnFailure(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSettingsService(db)

	db.Migrator().DropTable(&models.PlatformSettingHistory{})

	history := svc.GetHistory("merchantCommission")
	if history == nil {
		t.Error("GetHistory() should return an empty slice, not nil")
	}
	if len(history) != 0 {
		t.Errorf("expected no records, got %d", len(history))
	}
}

func TestResetAll(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSettingsService(db)

	custom := DefaultPlatformSettings()
	custom.MerchantCommission = 25
	custom.PlatformName = "Autre"
	if err := svc.SaveAll(custom, 1); err != nil {
		t.Fatalf("SaveAll(): %v", err)
	}

	if err := svc.ResetAll(1); err != nil {
		t.Fatalf("ResetAll(): %v", err)
	}

	got, err := svc.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll(): %v", err)
	}
	if !reflect.DeepEqual(got, DefaultPlatformSettings()) {
		t.Error("ResetAll() should restore every default")
	}
}

func TestSeedDefaults(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSettingsService(db)

	// Pre-existing rows survive seeding
	db.Create(&models.PlatformSetting{SettingKey: "merchant_commission", SettingValue: "22"})

	if err := svc.SeedDefaults(); err != nil {
		t.Fatalf("SeedDefaults(): %v", err)
	}

	var count int64
	db.Model(&models.PlatformSetting{}).Count(&count)
	if int(count) != len(SettingKeys()) {
		t.Errorf("expected %d rows after seeding, got %d", len(SettingKeys()), count)
	}

	value, _ := svc.GetOne("merchantCommission")
	if value != 22.0 {
		t.Errorf("seeding must not overwrite existing values, got %v", value)
	}

	// Seeding writes no history
	var historyCount int64
	db.Model(&models.PlatformSettingHistory{}).Count(&historyCount)
	if historyCount != 0 {
		t.Errorf("seeding should not write history, got %d records", historyCount)
	}
}

func TestListSettingInfos(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSettingsService(db)

	db.Create(&models.PlatformSetting{SettingKey: "merchant_commission", SettingValue: "18"})

	categories := svc.ListSettingInfos()
	if len(categories) == 0 {
		t.Fatal("expected categorized settings")
	}

	total := 0
	var commission *models.SettingInfo
	for i := range categories {
		for j := range categories[i].Settings {
			total++
			if categories[i].Settings[j].Key == "merchant_commission" {
				commission = &categories[i].Settings[j]
			}
		}
	}

	if total != len(SettingKeys()) {
		t.Errorf("expected %d settings across categories, got %d", len(SettingKeys()), total)
	}
	if commission == nil {
		t.Fatal("merchant_commission missing from listing")
	}
	if commission.Value != 18.0 {
		t.Errorf("current value = %v, expected 18", commission.Value)
	}
	if commission.DefaultValue != 15.0 {
		t.Errorf("default value = %v, expected 15", commission.DefaultValue)
	}
	if commission.Category != "Commissions" {
		t.Errorf("category = %q, expected Commissions", commission.Category)
	}
	if commission.Type != "float" {
		t.Errorf("type = %q, expected float", commission.Type)
	}
}

func TestDiffSettings(t *testing.T) {
	before := DefaultPlatformSettings()
	after := DefaultPlatformSettings()

	if changes := DiffSettings(before, after); len(changes) != 0 {
		t.Errorf("identical objects should produce no changes, got %d", len(changes))
	}

	after.MerchantCommission = 20
	after.PlatformName = "Autre"

	changes := DiffSettings(before, after)
	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(changes))
	}

	byKey := make(map[string]SettingChange)
	for _, c := range changes {
		byKey[c.Key] = c
	}
	if c := byKey["merchant_commission"]; c.OldValue != "15" || c.NewValue != "20" {
		t.Errorf("merchant_commission change = %q -> %q", c.OldValue, c.NewValue)
	}
	if c := byKey["platform_name"]; c.OldValue != "EcoPanier" || c.NewValue != "Autre" {
		t.Errorf("platform_name change = %q -> %q", c.OldValue, c.NewValue)
	}
}
