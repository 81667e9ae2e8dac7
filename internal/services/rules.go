package services

import "fmt"

// Pure validation and derivation rules over a loaded PlatformSettings
// object. None of these functions touch the store; callers pass the cached
// settings in.

// Lot duration bounds. The upper bound is a fixed safety ceiling and does
// not follow DefaultLotDuration.
const (
	MinLotDurationHours = 1
	MaxLotDurationHours = 168
)

// Notification channels accepted by AreNotificationsEnabled.
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
	ChannelPush  = "push"
)

// ValidateLotPrice checks a lot price against the configured bounds.
func ValidateLotPrice(price float64, s *PlatformSettings) error {
	if price < s.MinLotPrice {
		return fmt.Errorf("price %.2f € is below the minimum of %.2f €", price, s.MinLotPrice)
	}
	if price > s.MaxLotPrice {
		return fmt.Errorf("price %.2f € is above the maximum of %.2f €", price, s.MaxLotPrice)
	}
	return nil
}

// ValidateLotDuration checks an availability window in hours against the
// fixed 1-168h bounds, regardless of the configured default duration.
func ValidateLotDuration(hours int, _ *PlatformSettings) error {
	if hours < MinLotDurationHours {
		return fmt.Errorf("duration must be at least %d hour", MinLotDurationHours)
	}
	if hours > MaxLotDurationHours {
		return fmt.Errorf("duration must not exceed %d hours", MaxLotDurationHours)
	}
	return nil
}

// CanBeneficiaryReserve reports whether a beneficiary with dailyCount
// reservations today may take another donation basket.
func CanBeneficiaryReserve(dailyCount int, s *PlatformSettings) (bool, string) {
	if dailyCount >= s.MaxDailyBeneficiaryReservations {
		return false, fmt.Sprintf("daily limit of %d donation baskets reached", s.MaxDailyBeneficiaryReservations)
	}
	return true, ""
}

// CalculateMerchantCommission returns the platform's cut of a merchant sale.
func CalculateMerchantCommission(amount float64, s *PlatformSettings) float64 {
	return amount * s.MerchantCommission / 100
}

// CalculateCollectorCommission returns the collector's cut of a delivery.
func CalculateCollectorCommission(amount float64, s *PlatformSettings) float64 {
	return amount * s.CollectorCommission / 100
}

// AmountBreakdown details how a gross amount splits between the platform
// and the merchant.
type AmountBreakdown struct {
	GrossAmount    float64 `json:"gross_amount"`
	Commission     float64 `json:"commission"`
	NetAmount      float64 `json:"net_amount"`
	CommissionRate float64 `json:"commission_rate"`
}

// CalculateMerchantNetAmount computes what a merchant receives from a gross
// sale amount after the platform commission.
func CalculateMerchantNetAmount(grossAmount float64, s *PlatformSettings) AmountBreakdown {
	commission := CalculateMerchantCommission(grossAmount, s)
	return AmountBreakdown{
		GrossAmount:    grossAmount,
		Commission:     commission,
		NetAmount:      grossAmount - commission,
		CommissionRate: s.MerchantCommission,
	}
}

// FormatAmountWithCommission renders a gross amount with the net amount the
// given role sees. The meaning of "net" differs by role: a merchant nets the
// amount minus commission, a collector nets the commission itself.
func FormatAmountWithCommission(amount float64, s *PlatformSettings, role string) string {
	switch role {
	case "merchant":
		net := amount - CalculateMerchantCommission(amount, s)
		return fmt.Sprintf("%.2f € (net %.2f € after %.1f%% commission)", amount, net, s.MerchantCommission)
	case "collector":
		earned := CalculateCollectorCommission(amount, s)
		return fmt.Sprintf("%.2f € (you earn %.2f €)", amount, earned)
	default:
		return fmt.Sprintf("%.2f €", amount)
	}
}

// AreNotificationsEnabled reports whether the named channel is enabled.
// Unrecognized channels are disabled.
func AreNotificationsEnabled(channel string, s *PlatformSettings) bool {
	switch channel {
	case ChannelEmail:
		return s.EmailNotificationsEnabled
	case ChannelSMS:
		return s.SmsNotificationsEnabled
	case ChannelPush:
		return s.PushNotificationsEnabled
	default:
		return false
	}
}
