package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	gosync "sync"

	"go.uber.org/zap"

	"github.com/devel-adr/medistream/internal/model"
	"github.com/devel-adr/medistream/internal/store"
)

// settingsKey is the preference key holding the JSON-encoded settings.
const settingsKey = "notification_settings"

// SettingsManager owns the notification settings. It loads them once and
// writes them back after every change.
type SettingsManager struct {
	prefs store.PreferenceStore
	log   *zap.Logger

	mu  gosync.RWMutex
	cur model.NotificationSettings
}

var _ SettingsSource = (*SettingsManager)(nil)

// LoadSettings reads the settings from prefs. Missing or unreadable
// settings fall back to the defaults.
func LoadSettings(ctx context.Context, prefs store.PreferenceStore, log *zap.Logger) (*SettingsManager, error) {
	if log == nil {
		log = zap.NewNop()
	}
	m := &SettingsManager{
		prefs: prefs,
		log:   log,
		cur:   model.DefaultNotificationSettings(),
	}

	raw, err := prefs.GetPreference(ctx, settingsKey)
	if errors.Is(err, store.ErrNotFound) {
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading notification settings: %w", err)
	}

	var s model.NotificationSettings
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		log.Warn("ignoring unreadable notification settings", zap.Error(err))
		return m, nil
	}
	// Re-apply the volume rule in case the stored value predates it.
	s.SetVolume(s.Volume)
	if s.Tone == "" {
		s.Tone = model.ToneNotification
	}
	m.cur = s
	return m, nil
}

// Current returns a copy of the settings.
func (m *SettingsManager) Current() model.NotificationSettings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cur
}

// SetEnabled turns playback on or off.
func (m *SettingsManager) SetEnabled(ctx context.Context, enabled bool) error {
	return m.update(ctx, func(s *model.NotificationSettings) { s.SetEnabled(enabled) })
}

// SetVolume changes the volume. Zero disables playback.
func (m *SettingsManager) SetVolume(ctx context.Context, volume float64) error {
	return m.update(ctx, func(s *model.NotificationSettings) { s.SetVolume(volume) })
}

// SetTone selects the tone preset.
func (m *SettingsManager) SetTone(ctx context.Context, tone string) error {
	return m.update(ctx, func(s *model.NotificationSettings) { s.Tone = tone })
}

// Replace applies a whole settings value, as submitted by the settings
// form. A zero volume wins over an enabled flag.
func (m *SettingsManager) Replace(ctx context.Context, next model.NotificationSettings) error {
	return m.update(ctx, func(s *model.NotificationSettings) {
		s.Tone = next.Tone
		s.SetVolume(next.Volume)
		if next.Volume > 0 {
			s.SetEnabled(next.Enabled)
		}
	})
}

func (m *SettingsManager) update(ctx context.Context, fn func(*model.NotificationSettings)) error {
	m.mu.Lock()
	next := m.cur
	fn(&next)
	m.cur = next
	m.mu.Unlock()

	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encoding notification settings: %w", err)
	}
	if err := m.prefs.SetPreference(ctx, settingsKey, string(data)); err != nil {
		return fmt.Errorf("saving notification settings: %w", err)
	}
	m.log.Debug("notification settings saved",
		zap.Bool("enabled", next.Enabled),
		zap.Float64("volume", next.Volume),
		zap.String("tone", next.Tone),
	)
	return nil
}
