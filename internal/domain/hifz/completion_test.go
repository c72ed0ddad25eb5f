package hifz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/shared"
)

func TestCurriculumLines(t *testing.T) {
	assert.Equal(t, TotalLines, CurriculumLines())
	assert.Equal(t, 323, LinesPerUnit(1))
	assert.Equal(t, 300, LinesPerUnit(30))
	assert.Less(t, LinesPerUnit(30), LinesPerUnit(29))
	assert.Equal(t, 0, LinesPerUnit(0))
	assert.Equal(t, 0, LinesPerUnit(31))
}

func TestCalculateCompletion_Empty(t *testing.T) {
	c := CalculateCompletion(CompletionInput{CurrentUnit: 1})

	assert.Equal(t, 0.0, c.MemorizedLines)
	assert.Equal(t, 0, c.MemorizedUnits)
	assert.Equal(t, 30, c.RemainingUnits)
	assert.Equal(t, float64(TotalLines), c.RemainingLines)
	assert.Equal(t, 0.0, c.Percent)
	assert.Empty(t, c.Warnings)
}

func TestCalculateCompletion_OverlapCountedOnce(t *testing.T) {
	c := CalculateCompletion(CompletionInput{
		AlreadyMemorized: []int{1, 2},
		Completed:        []int{2, 3},
		CurrentUnit:      4,
	})

	assert.Equal(t, []int{2}, c.Overlaps)
	assert.Equal(t, []int{3}, c.ValidCompleted)
	assert.Equal(t, 3, c.MemorizedUnits)
	assert.Equal(t, float64(3*323), c.MemorizedLines)
	require.Len(t, c.Warnings, 1)
	assert.Equal(t, shared.WarningOverlap, c.Warnings[0].Code)
	assert.True(t, c.HasOverlap())
}

func TestCalculateCompletion_OverlapIdempotent(t *testing.T) {
	withOverlap := CalculateCompletion(CompletionInput{
		AlreadyMemorized: []int{5, 6},
		Completed:        []int{6, 7},
	})
	withoutOverlap := CalculateCompletion(CompletionInput{
		AlreadyMemorized: []int{5, 6},
		Completed:        []int{7},
	})

	assert.Equal(t, withoutOverlap.Percent, withOverlap.Percent)
	assert.Equal(t, withoutOverlap.MemorizedLines, withOverlap.MemorizedLines)
}

func TestCalculateCompletion_Deduplicates(t *testing.T) {
	c := CalculateCompletion(CompletionInput{
		AlreadyMemorized: []int{3, 1, 3, 1},
		Completed:        []int{8, 8},
	})

	assert.Equal(t, []int{1, 3}, c.AlreadyMemorized)
	assert.Equal(t, []int{8}, c.ValidCompleted)
	assert.Equal(t, 3, c.MemorizedUnits)
}

func TestCalculateCompletion_MalformedUnitsIgnored(t *testing.T) {
	c := CalculateCompletion(CompletionInput{
		AlreadyMemorized: []int{0, 1},
		Completed:        []int{31, -4},
	})

	assert.Equal(t, 1, c.MemorizedUnits)
	require.Len(t, c.Warnings, 1)
	assert.Equal(t, shared.WarningMalformedUnit, c.Warnings[0].Code)
	assert.ElementsMatch(t, []int{0, 31, -4}, c.Warnings[0].Units)
}

func TestCalculateCompletion_PartialCredit(t *testing.T) {
	tests := []struct {
		name        string
		progress    int
		wantLines   float64
		wantDisplay float64
		wantUnits   int
	}{
		{"not started", 0, 0, 0, 0},
		{"just below half", 49, 323 * 0.49, 0, 0},
		{"half", 50, 323 * 0.5, 0.5, 0},
		{"almost done", 90, 323 * 0.9, 0.5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := CalculateCompletion(CompletionInput{CurrentUnit: 1, CurrentUnitProgress: tt.progress})
			assert.InDelta(t, tt.wantLines, c.MemorizedLines, 1e-9)
			assert.Equal(t, tt.wantDisplay, c.DisplayUnits)
			assert.Equal(t, tt.wantUnits, c.MemorizedUnits)
			assert.Equal(t, 30, c.RemainingUnits)
		})
	}
}

func TestCalculateCompletion_NoPartialCreditForCountedUnit(t *testing.T) {
	c := CalculateCompletion(CompletionInput{
		Completed:           []int{4},
		CurrentUnit:         4,
		CurrentUnitProgress: 80,
	})

	assert.Equal(t, float64(323), c.MemorizedLines)
	assert.Equal(t, 1.0, c.DisplayUnits)
}

func TestCalculateCompletion_AllUnits(t *testing.T) {
	all := make([]int, 0, TotalUnits)
	for u := 1; u <= TotalUnits; u++ {
		all = append(all, u)
	}

	c := CalculateCompletion(CompletionInput{
		AlreadyMemorized:    all[:10],
		Completed:           all[10:],
		CurrentUnit:         30,
		CurrentUnitProgress: 100,
	})

	assert.Equal(t, 100.0, c.Percent)
	assert.Equal(t, 0.0, c.RemainingLines)
	assert.Equal(t, 0, c.RemainingUnits)
	assert.Equal(t, 30, c.MemorizedUnits)
}

func TestCalculateCompletion_PercentBounds(t *testing.T) {
	for already := 0; already <= TotalUnits; already += 5 {
		for progress := 0; progress <= 100; progress += 25 {
			units := make([]int, 0, already)
			for u := 1; u <= already; u++ {
				units = append(units, u)
			}
			c := CalculateCompletion(CompletionInput{
				AlreadyMemorized:    units,
				Completed:           units,
				CurrentUnit:         min(already+1, TotalUnits),
				CurrentUnitProgress: progress,
			})
			assert.GreaterOrEqual(t, c.Percent, 0.0)
			assert.LessOrEqual(t, c.Percent, 100.0)
		}
	}
}
