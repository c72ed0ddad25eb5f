package hifz

import (
	"math"
	"sort"

	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETION CALCULATOR
// ══════════════════════════════════════════════════════════════════════════════

// CompletionInput - the para lists and current position of a learner.
type CompletionInput struct {
	// AlreadyMemorized - paras memorized before enrollment.
	AlreadyMemorized []int

	// Completed - paras completed during training.
	Completed []int

	// CurrentUnit - para currently being memorized.
	CurrentUnit int

	// CurrentUnitProgress - progress of the current para, 0..100.
	CurrentUnitProgress int
}

// Completion - result of the completion calculation.
type Completion struct {
	// MemorizedLines - lines memorized, including partial credit for the current para.
	MemorizedLines float64 `json:"memorized_lines" yaml:"memorized_lines"`

	// MemorizedUnits - whole paras memorized (already memorized plus valid completed).
	MemorizedUnits int `json:"memorized_units" yaml:"memorized_units"`

	// DisplayUnits - MemorizedUnits plus 0.5 when the current para is at least half done.
	// Only used for display; projections use MemorizedUnits.
	DisplayUnits float64 `json:"display_units" yaml:"display_units"`

	// RemainingLines - lines left to memorize.
	RemainingLines float64 `json:"remaining_lines" yaml:"remaining_lines"`

	// RemainingUnits - whole paras left to memorize.
	RemainingUnits int `json:"remaining_units" yaml:"remaining_units"`

	// Percent - completion percentage in [0, 100].
	Percent float64 `json:"percent" yaml:"percent"`

	// AlreadyMemorized - deduplicated, valid, sorted.
	AlreadyMemorized []int `json:"already_memorized" yaml:"already_memorized"`

	// ValidCompleted - completed paras minus overlaps, sorted.
	ValidCompleted []int `json:"valid_completed" yaml:"valid_completed"`

	// Overlaps - paras present in both lists.
	Overlaps []int `json:"overlaps,omitempty" yaml:"overlaps,omitempty"`

	// Warnings - data integrity problems found in the input.
	Warnings []shared.DataIntegrityWarning `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// HasOverlap reports whether any para was double-listed.
func (c Completion) HasOverlap() bool {
	return len(c.Overlaps) > 0
}

// CalculateCompletion computes memorized lines and completion percentage.
//
// Overlapping paras are counted once. Unit numbers outside 1..30 are skipped
// and reported as warnings instead of failing the calculation.
func CalculateCompletion(in CompletionInput) Completion {
	var malformed []int

	already, bad := uniqueUnits(in.AlreadyMemorized)
	malformed = append(malformed, bad...)
	completed, bad := uniqueUnits(in.Completed)
	malformed = append(malformed, bad...)

	alreadySet := make(map[int]bool, len(already))
	for _, u := range already {
		alreadySet[u] = true
	}

	var overlaps, validCompleted []int
	completedSet := make(map[int]bool, len(completed))
	for _, u := range completed {
		completedSet[u] = true
		if alreadySet[u] {
			overlaps = append(overlaps, u)
			continue
		}
		validCompleted = append(validCompleted, u)
	}

	lines := 0.0
	for _, u := range already {
		lines += float64(LinesPerUnit(u))
	}
	for _, u := range validCompleted {
		lines += float64(LinesPerUnit(u))
	}

	units := len(already) + len(validCompleted)
	display := float64(units)

	// Partial credit only when the current para is not already counted.
	if IsValidUnit(in.CurrentUnit) && !alreadySet[in.CurrentUnit] && !completedSet[in.CurrentUnit] {
		progress := clampPercent(in.CurrentUnitProgress)
		lines += float64(LinesPerUnit(in.CurrentUnit)) * float64(progress) / 100
		if progress >= HalfCreditThreshold {
			display += 0.5
		}
	}

	result := Completion{
		MemorizedLines:   lines,
		MemorizedUnits:   units,
		DisplayUnits:     display,
		RemainingLines:   math.Max(0, float64(TotalLines)-lines),
		RemainingUnits:   max(0, TotalUnits-units),
		Percent:          math.Min(100, lines/float64(TotalLines)*100),
		AlreadyMemorized: already,
		ValidCompleted:   validCompleted,
		Overlaps:         overlaps,
	}

	if len(overlaps) > 0 {
		result.Warnings = append(result.Warnings, shared.DataIntegrityWarning{
			Code:    shared.WarningOverlap,
			Message: "paras listed as both already memorized and completed during training",
			Units:   overlaps,
		})
	}
	if len(malformed) > 0 {
		result.Warnings = append(result.Warnings, shared.DataIntegrityWarning{
			Code:    shared.WarningMalformedUnit,
			Message: "para numbers outside 1..30 were ignored",
			Units:   malformed,
		})
	}

	return result
}

// uniqueUnits deduplicates and sorts valid units, returning invalid ones separately.
func uniqueUnits(units []int) (valid, invalid []int) {
	seen := make(map[int]bool, len(units))
	for _, u := range units {
		if !IsValidUnit(u) {
			invalid = append(invalid, u)
			continue
		}
		if seen[u] {
			continue
		}
		seen[u] = true
		valid = append(valid, u)
	}
	sort.Ints(valid)
	return valid, invalid
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
