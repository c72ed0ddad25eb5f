package config

import (
	"errors"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
)

const (
	// FeatureStatusCache reads and writes learner statuses through Redis.
	FeatureStatusCache = "cache.status"
	// FeatureRemoteEvents fans events out over Redis Pub/Sub.
	FeatureRemoteEvents = "events.remote"
	// FeatureWeeklyEvaluation registers the weekly performance job.
	FeatureWeeklyEvaluation = "jobs.weekly_evaluation"
	// FeatureNotifications logs progress notifications from events.
	FeatureNotifications = "events.notifications"
)

var ErrFeatureNotFound = errors.New("feature not found")

// Feature is one runtime toggle.
type Feature struct {
	Name        string
	Description string
	Enabled     bool
}

// knownFeatures are the toggles and their defaults. All start on.
var knownFeatures = []Feature{
	{FeatureStatusCache, "Cache learner statuses in Redis", true},
	{FeatureRemoteEvents, "Publish events over Redis Pub/Sub", true},
	{FeatureWeeklyEvaluation, "Run the weekly performance evaluation", true},
	{FeatureNotifications, "Log notifications for progress events", true},
}

// FeatureFlags switches optional subsystems on and off.
type FeatureFlags struct {
	mu    sync.RWMutex
	flags map[string]Feature
}

// LoadFeatureFlags layers defaults, then file values, then FEATURE_*
// variables (FEATURE_CACHE_STATUS=false). Unknown names are ignored.
func LoadFeatureFlags(file map[string]bool) *FeatureFlags {
	ff := &FeatureFlags{flags: make(map[string]Feature, len(knownFeatures))}
	for _, f := range knownFeatures {
		if v, ok := file[f.Name]; ok {
			f.Enabled = v
		}
		if v, err := strconv.ParseBool(os.Getenv(envKey(f.Name))); err == nil {
			f.Enabled = v
		}
		ff.flags[f.Name] = f
	}
	return ff
}

func envKey(name string) string {
	return "FEATURE_" + strings.ToUpper(strings.ReplaceAll(name, ".", "_"))
}

// IsEnabled is false for unknown names.
func (ff *FeatureFlags) IsEnabled(name string) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()
	return ff.flags[name].Enabled
}

func (ff *FeatureFlags) SetEnabled(name string, enabled bool) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	f, ok := ff.flags[name]
	if !ok {
		return ErrFeatureNotFound
	}
	f.Enabled = enabled
	ff.flags[name] = f
	return nil
}

// GetAllFeatures is sorted by name.
func (ff *FeatureFlags) GetAllFeatures() []Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	out := make([]Feature, 0, len(ff.flags))
	for _, f := range ff.flags {
		out = append(out, f)
	}
	slices.SortFunc(out, func(a, b Feature) int { return strings.Compare(a.Name, b.Name) })
	return out
}
