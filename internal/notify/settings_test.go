package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devel-adr/medistream/internal/model"
	"github.com/devel-adr/medistream/tests/testutil"
)

func TestSettingsManager_DefaultsWhenUnset(t *testing.T) {
	s := testutil.NewTestStore(t)

	m, err := LoadSettings(context.Background(), s, nil)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultNotificationSettings(), m.Current())
}

func TestSettingsManager_PersistsEveryChange(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	m, err := LoadSettings(ctx, s, nil)
	require.NoError(t, err)

	require.NoError(t, m.SetTone(ctx, model.ToneDing))
	require.NoError(t, m.SetVolume(ctx, 0))
	assert.False(t, m.Current().Enabled, "zero volume disables playback")

	require.NoError(t, m.SetVolume(ctx, 0.3))
	assert.False(t, m.Current().Enabled, "raising the volume does not re-enable")
	assert.False(t, m.Current().Audible())

	reloaded, err := LoadSettings(ctx, s, nil)
	require.NoError(t, err)
	assert.Equal(t, model.NotificationSettings{Enabled: false, Volume: 0.3, Tone: model.ToneDing}, reloaded.Current())

	require.NoError(t, reloaded.SetEnabled(ctx, true))
	assert.True(t, reloaded.Current().Audible())
}

func TestSettingsManager_EnableFromMutedRestoresVolume(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	m, err := LoadSettings(ctx, s, nil)
	require.NoError(t, err)
	require.NoError(t, m.SetVolume(ctx, 0))
	require.NoError(t, m.SetEnabled(ctx, true))

	assert.Equal(t, model.DefaultVolume, m.Current().Volume)
	assert.True(t, m.Current().Enabled)
}

func TestSettingsManager_Replace(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	m, err := LoadSettings(ctx, s, nil)
	require.NoError(t, err)

	require.NoError(t, m.Replace(ctx, model.NotificationSettings{Enabled: true, Volume: 0, Tone: model.ToneBeep}))
	assert.Equal(t, model.NotificationSettings{Enabled: false, Volume: 0, Tone: model.ToneBeep}, m.Current())

	require.NoError(t, m.Replace(ctx, model.NotificationSettings{Enabled: true, Volume: 0.8, Tone: model.ToneChime}))
	assert.Equal(t, model.NotificationSettings{Enabled: true, Volume: 0.8, Tone: model.ToneChime}, m.Current())
}

func TestSettingsManager_UnreadableValueFallsBack(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SetPreference(ctx, settingsKey, "{not json"))

	m, err := LoadSettings(ctx, s, nil)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultNotificationSettings(), m.Current())
}
