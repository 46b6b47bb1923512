package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FeatureFlags manages feature toggles. Supports gradual rollout,
// per-coordinator overrides, and time-based activation, so scheduling
// behavior can change mid-semester without a deploy.
type FeatureFlags struct {
	mu sync.RWMutex

	// Core features
	features map[string]*Feature

	// Override rules (for testing/debugging)
	userOverrides map[string]map[string]bool // userID -> feature -> enabled
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100)
	// Users are assigned based on hash of their ID
	RolloutPercent int

	// Semester targeting (e.g., "2026/2027-ganjil")
	// Empty means all semesters
	TargetSemesters []string

	// Time-based activation
	EnabledFrom  *time.Time
	EnabledUntil *time.Time
}

// FeatureContext provides context for feature flag evaluation.
type FeatureContext struct {
	UserID   string // coordinator or student account ID
	Semester string // active semester key (e.g., "2026/2027-ganjil")
	IsAdmin  bool   // faculty admin
}

// Predefined feature flag names.
const (
	// === Scheduling Features ===
	FeatureAvailabilityCache = "scheduling.availability_cache" // Redis-backed day grids
	FeatureSameDayMoves      = "scheduling.same_day_moves"     // reschedule within the same day
	FeatureRoomAutoSuggest   = "scheduling.room_auto_suggest"  // suggest the least-booked room

	// === Lifecycle Features ===
	FeatureAutoAdvanceSupervisor = "lifecycle.auto_advance_supervisor" // stage 1->2 on first assignment
	FeatureRevisionCap           = "lifecycle.revision_cap"            // enforce the revision attempt limit

	// === Event Features ===
	FeatureAuditLog          = "events.audit_log"          // one log line per domain event
	FeatureCacheInvalidation = "events.cache_invalidation" // async cache invalidation on commits

	// === Experimental Features ===
	FeatureExperimentalPanelSuggest = "experimental.panel_suggest" // examiner panel suggestions
	FeatureExperimentalDigest       = "experimental.weekly_digest" // weekly schedule digest
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:      make(map[string]*Feature),
		userOverrides: make(map[string]map[string]bool),
	}

	ff.initializeDefaults()
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	// Scheduling features - stable, enabled by default
	ff.features[FeatureAvailabilityCache] = &Feature{
		Name:           FeatureAvailabilityCache,
		Description:    "Serve availability grids from Redis",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureSameDayMoves] = &Feature{
		Name:           FeatureSameDayMoves,
		Description:    "Allow rescheduling within the same day",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureRoomAutoSuggest] = &Feature{
		Name:           FeatureRoomAutoSuggest,
		Description:    "Suggest the least-booked room for a slot",
		Enabled:        false, // Phase 2
		RolloutPercent: 0,
	}

	// Lifecycle features
	ff.features[FeatureAutoAdvanceSupervisor] = &Feature{
		Name:           FeatureAutoAdvanceSupervisor,
		Description:    "Complete the first milestone when a supervisor is assigned",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureRevisionCap] = &Feature{
		Name:           FeatureRevisionCap,
		Description:    "Enforce the revision attempt limit",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Event features
	ff.features[FeatureAuditLog] = &Feature{
		Name:           FeatureAuditLog,
		Description:    "Write one structured log line per domain event",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureCacheInvalidation] = &Feature{
		Name:           FeatureCacheInvalidation,
		Description:    "Invalidate cached grids after scheduling writes",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Experimental features - disabled by default
	ff.features[FeatureExperimentalPanelSuggest] = &Feature{
		Name:           FeatureExperimentalPanelSuggest,
		Description:    "Suggest examiner panels from expertise tags",
		Enabled:        false,
		RolloutPercent: 0,
	}

	ff.features[FeatureExperimentalDigest] = &Feature{
		Name:           FeatureExperimentalDigest,
		Description:    "Weekly schedule digest for coordinators",
		Enabled:        false,
		RolloutPercent: 0,
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_SCHEDULING_AVAILABILITY_CACHE=false
// Example: FEATURE_EXPERIMENTAL_PANEL_SUGGEST=25 (25% rollout)
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		envKey := featureNameToEnvKey(name)
		if val := os.Getenv(envKey); val != "" {
			// Try parsing as boolean
			if b, err := strconv.ParseBool(val); err == nil {
				feature.Enabled = b
				if b {
					feature.RolloutPercent = 100
				} else {
					feature.RolloutPercent = 0
				}
				continue
			}

			// Try parsing as percentage
			if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
				feature.Enabled = p > 0
				feature.RolloutPercent = p
			}
		}
	}
}

// featureNameToEnvKey converts feature name to environment variable key.
// "scheduling.availability_cache" -> "FEATURE_SCHEDULING_AVAILABILITY_CACHE"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is enabled for the given context.
func (ff *FeatureFlags) IsEnabled(featureName string, ctx *FeatureContext) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	// Check user overrides first
	if ctx != nil && ctx.UserID != "" {
		if userOverrides, ok := ff.userOverrides[ctx.UserID]; ok {
			if enabled, ok := userOverrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok {
		return false
	}

	// Admin users get all features
	if ctx != nil && ctx.IsAdmin {
		return true
	}

	if !feature.Enabled {
		return false
	}

	// Check time-based activation
	now := time.Now()
	if feature.EnabledFrom != nil && now.Before(*feature.EnabledFrom) {
		return false
	}
	if feature.EnabledUntil != nil && now.After(*feature.EnabledUntil) {
		return false
	}

	// Check semester targeting
	if len(feature.TargetSemesters) > 0 && ctx != nil && ctx.Semester != "" {
		semesterMatch := false
		for _, s := range feature.TargetSemesters {
			if s == ctx.Semester {
				semesterMatch = true
				break
			}
		}
		if !semesterMatch {
			return false
		}
	}

	// Check rollout percentage
	if feature.RolloutPercent < 100 && ctx != nil && ctx.UserID != "" {
		return ff.isInRollout(ctx.UserID, featureName, feature.RolloutPercent)
	}

	return feature.RolloutPercent > 0
}

// isInRollout determines if a user is in the rollout percentage.
// Uses consistent hashing so users stay in their bucket.
func (ff *FeatureFlags) isInRollout(userID, featureName string, percent int) bool {
	h := fnv.New32a()
	h.Write([]byte(featureName))
	h.Write([]byte(userID))
	hash := h.Sum32()

	// Map to 0-99 range
	bucket := int(hash % 100)

	return bucket < percent
}

// SetUserOverride sets a feature override for a specific user.
// Useful for testing and debugging.
func (ff *FeatureFlags) SetUserOverride(userID, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if _, ok := ff.userOverrides[userID]; !ok {
		ff.userOverrides[userID] = make(map[string]bool)
	}
	ff.userOverrides[userID][featureName] = enabled
}

// ClearUserOverrides removes all overrides for a user.
func (ff *FeatureFlags) ClearUserOverrides(userID string) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	delete(ff.userOverrides, userID)
}

// SetRolloutPercent updates the rollout percentage for a feature.
// Thread-safe for live updates.
func (ff *FeatureFlags) SetRolloutPercent(featureName string, percent int) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}

	if percent < 0 || percent > 100 {
		return ErrInvalidRolloutPercent
	}

	feature.RolloutPercent = percent
	feature.Enabled = percent > 0

	return nil
}

// EnableFeature enables a feature at 100% rollout.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 100)
}

// DisableFeature disables a feature completely.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 0)
}

// GetAllFeatures returns a copy of all feature configurations.
func (ff *FeatureFlags) GetAllFeatures() map[string]*Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]*Feature, len(ff.features))
	for k, v := range ff.features {
		featureCopy := *v
		result[k] = &featureCopy
	}
	return result
}

// --- Errors ---

var (
	ErrFeatureNotFound       = &FeatureFlagError{Message: "feature not found"}
	ErrInvalidRolloutPercent = &FeatureFlagError{Message: "rollout percent must be 0-100"}
)

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}
