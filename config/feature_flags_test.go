package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureFlags_Defaults(t *testing.T) {
	ff := LoadFeatureFlags()

	assert.True(t, ff.IsEnabled(FeatureAvailabilityCache, nil))
	assert.True(t, ff.IsEnabled(FeatureAuditLog, nil))
	assert.True(t, ff.IsEnabled(FeatureCacheInvalidation, nil))
	assert.False(t, ff.IsEnabled(FeatureExperimentalPanelSuggest, nil))
	assert.False(t, ff.IsEnabled("no.such.feature", nil))
}

func TestFeatureFlags_EnvOverride(t *testing.T) {
	t.Setenv("FEATURE_SCHEDULING_AVAILABILITY_CACHE", "false")
	t.Setenv("FEATURE_EXPERIMENTAL_PANEL_SUGGEST", "true")

	ff := LoadFeatureFlags()

	assert.False(t, ff.IsEnabled(FeatureAvailabilityCache, nil))
	assert.True(t, ff.IsEnabled(FeatureExperimentalPanelSuggest, nil))
}

func TestFeatureFlags_UserOverrideWins(t *testing.T) {
	ff := LoadFeatureFlags()
	ctx := &FeatureContext{UserID: "coord-1"}

	require.True(t, ff.IsEnabled(FeatureAuditLog, ctx))

	ff.SetUserOverride("coord-1", FeatureAuditLog, false)
	assert.False(t, ff.IsEnabled(FeatureAuditLog, ctx))

	ff.ClearUserOverrides("coord-1")
	assert.True(t, ff.IsEnabled(FeatureAuditLog, ctx))
}

func TestFeatureFlags_RolloutIsDeterministicPerUser(t *testing.T) {
	ff := LoadFeatureFlags()
	require.NoError(t, ff.SetRolloutPercent(FeatureExperimentalDigest, 50))

	ctx := &FeatureContext{UserID: "coord-1"}
	first := ff.IsEnabled(FeatureExperimentalDigest, ctx)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ff.IsEnabled(FeatureExperimentalDigest, ctx),
			"same user must stay in the same rollout bucket")
	}
}

func TestFeatureFlags_SetRolloutPercentValidates(t *testing.T) {
	ff := LoadFeatureFlags()

	assert.ErrorIs(t, ff.SetRolloutPercent("no.such.feature", 10), ErrFeatureNotFound)
	assert.ErrorIs(t, ff.SetRolloutPercent(FeatureAuditLog, 101), ErrInvalidRolloutPercent)
}
