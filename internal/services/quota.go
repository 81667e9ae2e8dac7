package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/ecopanier/backend/internal/models"
	"gorm.io/gorm"
)

// ReservationCounter tracks per-user reservation counts for the current
// day. Counts live in memory only; a restart resets them, which errs on the
// side of letting users reserve.
type ReservationCounter struct {
	mu     sync.Mutex
	day    string
	counts map[uint]int
}

// NewReservationCounter returns a counter primed for today.
func NewReservationCounter() *ReservationCounter {
	return &ReservationCounter{
		day:    dayKey(time.Now()),
		counts: make(map[uint]int),
	}
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// rollover clears the counts when the calendar day has changed. Callers must
// hold mu.
func (c *ReservationCounter) rollover(now time.Time) {
	if key := dayKey(now); key != c.day {
		c.day = key
		c.counts = make(map[uint]int)
	}
}

// Count returns the number of reservations the user has made today.
func (c *ReservationCounter) Count(userID uint) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rollover(time.Now())
	return c.counts[userID]
}

// Increment records one more reservation for the user today and returns the
// new count.
func (c *ReservationCounter) Increment(userID uint) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rollover(time.Now())
	c.counts[userID]++
	return c.counts[userID]
}

// TryIncrement counts one more reservation for the user unless the limit
// is already reached. Check and increment happen under one lock, so two
// concurrent requests at the limit cannot both pass.
func (c *ReservationCounter) TryIncrement(userID uint, limit int) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rollover(time.Now())
	if c.counts[userID] >= limit {
		return c.counts[userID], false
	}
	c.counts[userID]++
	return c.counts[userID], true
}

// Reset clears all counts. Wired to the midnight cron job.
func (c *ReservationCounter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.day = dayKey(time.Now())
	c.counts = make(map[uint]int)
}

// ReservationQuotaService answers whether a user may reserve right now,
// applying the role-specific daily limits from the settings cache and the
// beneficiary verification requirement.
type ReservationQuotaService struct {
	db      *gorm.DB
	counter *ReservationCounter
	cache   *SettingsCache
}

func NewReservationQuotaService(db *gorm.DB, counter *ReservationCounter, cache *SettingsCache) *ReservationQuotaService {
	return &ReservationQuotaService{db: db, counter: counter, cache: cache}
}

const reasonUnverifiedBeneficiary = "beneficiary account must be verified by a partner association"

// CheckQuota reports whether the user may make another reservation today.
// The reason string is empty when allowed.
func (s *ReservationQuotaService) CheckQuota(userID uint, role string) (bool, string) {
	settings := s.cache.Current()

	if denied, reason := s.verificationDenied(userID, role, settings); denied {
		return false, reason
	}

	count := s.counter.Count(userID)
	switch role {
	case "beneficiary":
		return CanBeneficiaryReserve(count, settings)
	default:
		if count >= settings.MaxReservationsPerDay {
			return false, fmt.Sprintf("daily limit of %d reservations reached", settings.MaxReservationsPerDay)
		}
		return true, ""
	}
}

// TryRecord atomically checks the quota and counts the reservation. Unlike
// CheckQuota followed by Record, two concurrent requests at the limit
// cannot both pass. Returns the user's updated (or current, when denied)
// count for today.
func (s *ReservationQuotaService) TryRecord(userID uint, role string) (bool, string, int) {
	settings := s.cache.Current()

	if denied, reason := s.verificationDenied(userID, role, settings); denied {
		return false, reason, s.counter.Count(userID)
	}

	limit := settings.MaxReservationsPerDay
	if role == "beneficiary" {
		limit = settings.MaxDailyBeneficiaryReservations
	}

	count, ok := s.counter.TryIncrement(userID, limit)
	if !ok {
		if role == "beneficiary" {
			_, reason := CanBeneficiaryReserve(count, settings)
			return false, reason, count
		}
		return false, fmt.Sprintf("daily limit of %d reservations reached", limit), count
	}
	return true, "", count
}

// verificationDenied applies the beneficiary verification requirement.
// Unknown users are treated as unverified.
func (s *ReservationQuotaService) verificationDenied(userID uint, role string, settings *PlatformSettings) (bool, string) {
	if role != "beneficiary" || !settings.BeneficiaryVerificationRequired {
		return false, ""
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil || !user.IsVerified {
		return true, reasonUnverifiedBeneficiary
	}
	return false, ""
}

// Record counts a completed reservation against the user's daily quota and
// returns the updated count.
func (s *ReservationQuotaService) Record(userID uint) int {
	return s.counter.Increment(userID)
}
