package hifz

import "fmt"

// ══════════════════════════════════════════════════════════════════════════════
// CURRICULUM CONSTANTS
// ══════════════════════════════════════════════════════════════════════════════

const (
	// TotalUnits - number of paras in the curriculum.
	TotalUnits = 30

	// TotalLines - total lines across all 30 paras.
	TotalLines = 9664

	// LinesPerPage - lines on one page of the 16-line mushaf used for recitation.
	LinesPerPage = 16

	// ProjectionLinesPerUnit - per-unit line estimate used by the projection.
	// Not the same figure as LinesPerUnit.
	ProjectionLinesPerUnit = 20

	// ProjectionBufferPercent - raw projected days are scaled by 120%.
	ProjectionBufferPercent = 120

	// HalfCreditThreshold - current-unit progress (%) that earns +0.5 display units.
	HalfCreditThreshold = 50
)

// Condition thresholds (mistakes per category). Exceeding a "below average"
// threshold takes priority over exceeding a "medium" one.
const (
	BelowAverageNewMistakes    = 2
	BelowAverageRecentMistakes = 2
	BelowAverageOlderMistakes  = 3

	MediumNewMistakes    = 0
	MediumRecentMistakes = 1
	MediumOlderMistakes  = 1
)

// Analytics and alert thresholds.
const (
	// HighMistakeDayThreshold - a present day with more total mistakes is a high-mistake day.
	HighMistakeDayThreshold = 5

	// SlowPaceLinesPerDay - pace below this triggers the slow-pace alert.
	SlowPaceLinesPerDay = 3.0

	// MinPresentDaysForProgressAlerts - present days needed before progress alerts fire.
	MinPresentDaysForProgressAlerts = 5

	// TrendWindowDays - size of the recent window compared against the full window.
	TrendWindowDays = 7
)

// linesPerUnit - line counts per para, index 0 is unit 1. The last para is shorter.
var linesPerUnit = [TotalUnits]int{
	323, 323, 323, 323, 323, 323, 323, 323, 323, 323,
	323, 323, 323, 323, 323, 323, 323, 323, 323, 323,
	323, 323, 323, 323, 323, 323, 322, 322, 322, 300,
}

// IsValidUnit reports whether n is a para number in 1..30.
func IsValidUnit(n int) bool {
	return n >= 1 && n <= TotalUnits
}

// LinesPerUnit returns the line count of a para, or 0 for an invalid unit.
func LinesPerUnit(unit int) int {
	if !IsValidUnit(unit) {
		return 0
	}
	return linesPerUnit[unit-1]
}

// CurriculumLines sums the per-unit table. It always equals TotalLines.
func CurriculumLines() int {
	sum := 0
	for _, n := range linesPerUnit {
		sum += n
	}
	return sum
}

// UnitLabel renders a para number for humans.
func UnitLabel(unit int) string {
	return fmt.Sprintf("Para %d", unit)
}
