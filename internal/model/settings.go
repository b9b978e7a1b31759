package model

// Tone identifiers understood by the tone synthesizer.
const (
	ToneDing         = "ding"
	ToneNotification = "notification"
	ToneChime        = "chime"
	ToneBeep         = "beep"
)

// DefaultVolume is the volume restored when playback is enabled from
// a muted (zero volume) state.
const DefaultVolume = 0.5

// NotificationSettings is the locally persisted sound configuration.
type NotificationSettings struct {
	Enabled bool    `json:"enabled"`
	Volume  float64 `json:"volume"`
	Tone    string  `json:"tone"`
}

// DefaultNotificationSettings returns the settings used before the user
// changed anything.
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		Enabled: true,
		Volume:  DefaultVolume,
		Tone:    ToneNotification,
	}
}

// SetVolume clamps v to [0, 1]. A zero volume disables playback; a
// non-zero volume never re-enables it.
func (s *NotificationSettings) SetVolume(v float64) {
	switch {
	case v < 0:
		v = 0
	case v > 1:
		v = 1
	}
	s.Volume = v
	if v == 0 {
		s.Enabled = false
	}
}

// SetEnabled toggles playback. Enabling from a zero volume resets the
// volume to DefaultVolume so the change is audible.
func (s *NotificationSettings) SetEnabled(enabled bool) {
	s.Enabled = enabled
	if enabled && s.Volume == 0 {
		s.Volume = DefaultVolume
	}
}

// Audible reports whether a tone should actually be played.
func (s NotificationSettings) Audible() bool {
	return s.Enabled && s.Volume > 0
}
