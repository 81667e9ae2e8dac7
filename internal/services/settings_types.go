package services

import (
	"fmt"
	"net/mail"
	"reflect"
	"strconv"
	"strings"
)

// PlatformSettings is the typed view over the platform_settings table.
// The json tag is the storage key; the default tag is the hard-coded
// fallback used whenever a key is missing or malformed in the store; the
// validate tag carries the write-path constraints.
type PlatformSettings struct {
	// General
	PlatformName  string `json:"platform_name" default:"EcoPanier" validate:"nonempty" name:"Platform Name" category:"General" desc:"Public name of the marketplace."`
	PlatformEmail string `json:"platform_email" default:"contact@ecopanier.fr" validate:"email" name:"Contact Email" category:"General" desc:"Address shown to users and used for platform notifications."`
	SupportPhone  string `json:"support_phone" default:"+33 1 84 80 00 00" name:"Support Phone" category:"General" desc:"Support phone number shown to users."`

	// Lots
	MinLotPrice        float64 `json:"min_lot_price" default:"0.5" validate:"min=0" name:"Minimum Lot Price (€)" category:"Lots" desc:"Lowest price a merchant may set on a lot."`
	MaxLotPrice        float64 `json:"max_lot_price" default:"500" validate:"min=0" name:"Maximum Lot Price (€)" category:"Lots" desc:"Highest price a merchant may set on a lot."`
	DefaultLotDuration int     `json:"default_lot_duration" default:"24" validate:"min=1,max=168" name:"Default Lot Duration (hours)" category:"Lots" desc:"Pre-filled availability window for new lots."`

	// Reservations
	MaxReservationsPerDay           int  `json:"max_reservations_per_day" default:"5" validate:"min=1" name:"Max Reservations Per Day" category:"Reservations" desc:"Daily reservation limit for customers."`
	BeneficiaryVerificationRequired bool `json:"beneficiary_verification_required" default:"true" name:"Beneficiary Verification Required" category:"Reservations" desc:"Whether beneficiaries must be verified by an association before reserving donation baskets."`
	MaxDailyBeneficiaryReservations int  `json:"max_daily_beneficiary_reservations" default:"3" validate:"min=1" name:"Max Daily Beneficiary Reservations" category:"Reservations" desc:"Daily donation-basket limit per beneficiary."`

	// Commissions
	MerchantCommission  float64 `json:"merchant_commission" default:"15" validate:"min=0,max=100" name:"Merchant Commission (%)" category:"Commissions" desc:"Percentage retained by the platform on merchant sales."`
	CollectorCommission float64 `json:"collector_commission" default:"10" validate:"min=0,max=100" name:"Collector Commission (%)" category:"Commissions" desc:"Percentage paid out to collectors on deliveries."`

	// Notifications
	EmailNotificationsEnabled bool `json:"email_notifications_enabled" default:"true" name:"Email Notifications" category:"Notifications" desc:"Enable outbound email notifications."`
	SmsNotificationsEnabled   bool `json:"sms_notifications_enabled" default:"false" name:"SMS Notifications" category:"Notifications" desc:"Enable outbound SMS notifications."`
	PushNotificationsEnabled  bool `json:"push_notifications_enabled" default:"true" name:"Push Notifications" category:"Notifications" desc:"Enable mobile push notifications."`

	// Security
	TwoFactorAuthRequired  bool `json:"two_factor_auth_required" default:"false" name:"Two-Factor Auth Required" category:"Security" desc:"Require a second factor for admin logins."`
	PasswordExpirationDays int  `json:"password_expiration_days" default:"90" validate:"min=1" name:"Password Expiration (days)" category:"Security" desc:"Days before a password must be renewed."`
	MaxLoginAttempts       int  `json:"max_login_attempts" default:"5" validate:"min=1" name:"Max Login Attempts" category:"Security" desc:"Consecutive failed logins before an account is locked."`
}

var settingsType = reflect.TypeOf(PlatformSettings{})

// DefaultPlatformSettings builds a settings object populated entirely from
// the default tags. Panics on a malformed tag, which would be a programming
// error caught by the package tests.
func DefaultPlatformSettings() *PlatformSettings {
	s := &PlatformSettings{}
	v := reflect.ValueOf(s).Elem()
	for i := 0; i < settingsType.NumField(); i++ {
		field := settingsType.Field(i)
		if err := parseSettingValue(v.Field(i), field.Tag.Get("default")); err != nil {
			panic(fmt.Sprintf("bad default for %s: %v", field.Name, err))
		}
	}
	return s
}

// SettingKeys returns the snake_case storage keys in declaration order.
func SettingKeys() []string {
	keys := make([]string, 0, settingsType.NumField())
	for i := 0; i < settingsType.NumField(); i++ {
		keys = append(keys, settingsType.Field(i).Tag.Get("json"))
	}
	return keys
}

// fieldIndexByStorageKey maps snake_case keys to struct field indexes.
var fieldIndexByStorageKey = func() map[string]int {
	m := make(map[string]int, settingsType.NumField())
	for i := 0; i < settingsType.NumField(); i++ {
		m[settingsType.Field(i).Tag.Get("json")] = i
	}
	return m
}()

// parseSettingValue assigns a stored string to a settings field.
func parseSettingValue(field reflect.Value, raw string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Int:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return err
		}
		field.SetInt(int64(n))
	case reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("unsupported setting kind %s", field.Kind())
	}
	return nil
}

// formatSettingValue renders a settings field as its stored string form.
func formatSettingValue(field reflect.Value) string {
	switch field.Kind() {
	case reflect.String:
		return field.String()
	case reflect.Int:
		return strconv.FormatInt(field.Int(), 10)
	case reflect.Float64:
		return strconv.FormatFloat(field.Float(), 'f', -1, 64)
	case reflect.Bool:
		return strconv.FormatBool(field.Bool())
	}
	return ""
}

// coerceSettingValue converts a JSON-decoded value (string, float64, bool)
// into the stored string form for the given field, rejecting type mismatches.
func coerceSettingValue(field reflect.StructField, value any) (string, error) {
	switch field.Type.Kind() {
	case reflect.String:
		s, ok := value.(string)
		if !ok {
			return "", fmt.Errorf("expected string, got %T", value)
		}
		return s, nil
	case reflect.Int:
		switch n := value.(type) {
		case float64:
			if n != float64(int(n)) {
				return "", fmt.Errorf("expected integer, got %v", n)
			}
			return strconv.Itoa(int(n)), nil
		case int:
			return strconv.Itoa(n), nil
		default:
			return "", fmt.Errorf("expected integer, got %T", value)
		}
	case reflect.Float64:
		switch n := value.(type) {
		case float64:
			return strconv.FormatFloat(n, 'f', -1, 64), nil
		case int:
			return strconv.Itoa(n), nil
		default:
			return "", fmt.Errorf("expected number, got %T", value)
		}
	case reflect.Bool:
		b, ok := value.(bool)
		if !ok {
			return "", fmt.Errorf("expected boolean, got %T", value)
		}
		return strconv.FormatBool(b), nil
	}
	return "", fmt.Errorf("unsupported setting type %s", field.Type.Kind())
}

func settingTypeName(field reflect.StructField) string {
	switch field.Type.Kind() {
	case reflect.Int:
		return "int"
	case reflect.Float64:
		return "float"
	case reflect.Bool:
		return "bool"
	default:
		return "string"
	}
}

// Validate checks every field against its validate tag, plus the
// cross-field rule that max_lot_price must not fall below min_lot_price.
// The error names the storage key of the first violating field.
func (s *PlatformSettings) Validate() error {
	v := reflect.ValueOf(s).Elem()
	for i := 0; i < settingsType.NumField(); i++ {
		field := settingsType.Field(i)
		if err := checkSettingRules(field, v.Field(i)); err != nil {
			return fmt.Errorf("invalid value for %s: %w", field.Tag.Get("json"), err)
		}
	}
	if s.MaxLotPrice < s.MinLotPrice {
		return fmt.Errorf("invalid value for max_lot_price: must not be below min_lot_price (%v)", s.MinLotPrice)
	}
	return nil
}

// checkSettingRules applies the comma-separated rules of a field's
// validate tag. Fields without a tag always pass.
func checkSettingRules(field reflect.StructField, value reflect.Value) error {
	tag := field.Tag.Get("validate")
	if tag == "" {
		return nil
	}

	for _, rule := range strings.Split(tag, ",") {
		switch {
		case rule == "nonempty":
			if strings.TrimSpace(value.String()) == "" {
				return fmt.Errorf("must not be empty")
			}
		case rule == "email":
			if _, err := mail.ParseAddress(value.String()); err != nil {
				return fmt.Errorf("must be a valid email address")
			}
		case strings.HasPrefix(rule, "min="):
			bound, err := strconv.ParseFloat(rule[len("min="):], 64)
			if err != nil {
				return fmt.Errorf("malformed rule %q", rule)
			}
			if numericValue(value) < bound {
				return fmt.Errorf("must be at least %v", rule[len("min="):])
			}
		case strings.HasPrefix(rule, "max="):
			bound, err := strconv.ParseFloat(rule[len("max="):], 64)
			if err != nil {
				return fmt.Errorf("malformed rule %q", rule)
			}
			if numericValue(value) > bound {
				return fmt.Errorf("must not exceed %v", rule[len("max="):])
			}
		default:
			return fmt.Errorf("unknown rule %q", rule)
		}
	}
	return nil
}

func numericValue(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Int:
		return float64(v.Int())
	case reflect.Float64:
		return v.Float()
	}
	return 0
}

// DiffSettings lists the fields whose stored values differ between two
// settings objects, keyed by storage key.
func DiffSettings(before, after *PlatformSettings) []SettingChange {
	if before == nil || after == nil {
		return nil
	}

	var changes []SettingChange
	bv := reflect.ValueOf(before).Elem()
	av := reflect.ValueOf(after).Elem()
	for i := 0; i < settingsType.NumField(); i++ {
		old := formatSettingValue(bv.Field(i))
		cur := formatSettingValue(av.Field(i))
		if old != cur {
			changes = append(changes, SettingChange{
				Key:      settingsType.Field(i).Tag.Get("json"),
				OldValue: old,
				NewValue: cur,
			})
		}
	}
	return changes
}
