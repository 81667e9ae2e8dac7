package services

import (
	"sync"

	"github.com/ecopanier/backend/pkg/logger"
)

// SettingsCache is the process-wide holder of the loaded settings.
// It is constructed once at bootstrap and handed to consumers explicitly;
// there is no package-level instance.
//
// The cached object is replaced wholesale on every refresh and treated as
// immutable by readers, so a consumer never observes a partially updated
// settings object.
type SettingsCache struct {
	svc *SettingsService

	mu      sync.RWMutex
	current *PlatformSettings
	loadErr error
}

// NewSettingsCache creates a cache primed with the hard-coded defaults.
// Call Refresh to replace them with stored values.
func NewSettingsCache(svc *SettingsService) *SettingsCache {
	return &SettingsCache{
		svc:     svc,
		current: DefaultPlatformSettings(),
	}
}

// Refresh re-loads the settings from the store and swaps the cached object.
// On failure the store hands back the defaults, so the cache serves those
// and records the error; the failure is observable via LoadError.
func (c *SettingsCache) Refresh() error {
	settings, err := c.svc.LoadAll()

	c.mu.Lock()
	c.current = settings
	c.loadErr = err
	c.mu.Unlock()

	if err != nil {
		logger.Warn().Err(err).Msg("settings refresh failed, cache serving defaults")
	}
	return err
}

// Current returns the cached settings object. Callers must not mutate it.
func (c *SettingsCache) Current() *PlatformSettings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// LoadError reports the error of the most recent refresh, nil when it
// succeeded. UI layers surface this as a non-fatal warning banner.
func (c *SettingsCache) LoadError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadErr
}
