package hifz

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROJECTION ESTIMATOR
// ══════════════════════════════════════════════════════════════════════════════

const (
	daysPerMonth = 30
	daysPerWeek  = 7
)

// NotEnoughData is the description of an unavailable projection.
const NotEnoughData = "Not enough data"

// Projection - estimated time to finish the remaining paras.
type Projection struct {
	// Available - false when pace is zero or nothing remains.
	Available bool `json:"available" yaml:"available"`

	// RemainingUnits - paras left at the time of projection.
	RemainingUnits int `json:"remaining_units" yaml:"remaining_units"`

	// LinesNeeded - RemainingUnits × ProjectionLinesPerUnit.
	LinesNeeded int `json:"lines_needed" yaml:"lines_needed"`

	// RawDays - ceil(LinesNeeded / pace).
	RawDays int `json:"raw_days" yaml:"raw_days"`

	// EstimatedDays - RawDays with the buffer applied, rounded up.
	EstimatedDays int `json:"estimated_days" yaml:"estimated_days"`

	// EstimatedDate - today + EstimatedDays.
	EstimatedDate *time.Time `json:"estimated_date,omitempty" yaml:"estimated_date,omitempty"`

	// Description - e.g. "About 2 months and 1 week".
	Description string `json:"description" yaml:"description"`
}

// Estimate projects the completion date from the remaining paras and the pace
// in lines per active day.
func Estimate(remainingUnits int, linesPerDay float64, today time.Time) Projection {
	if remainingUnits <= 0 || linesPerDay <= 0 || math.IsNaN(linesPerDay) || math.IsInf(linesPerDay, 0) {
		return Projection{RemainingUnits: max(0, remainingUnits), Description: NotEnoughData}
	}

	linesNeeded := remainingUnits * ProjectionLinesPerUnit
	rawDays := int(math.Ceil(float64(linesNeeded) / linesPerDay))
	// Integer ceil of rawDays × 120 / 100.
	estimated := (rawDays*ProjectionBufferPercent + 99) / 100

	date := shared.DateOf(today).AddDate(0, 0, estimated)
	return Projection{
		Available:      true,
		RemainingUnits: remainingUnits,
		LinesNeeded:    linesNeeded,
		RawDays:        rawDays,
		EstimatedDays:  estimated,
		EstimatedDate:  &date,
		Description:    HumanizeDays(estimated),
	}
}

// HumanizeDays describes a day count with its two largest non-zero units,
// counting 30-day months and 7-day weeks.
//
//	HumanizeDays(67) == "About 2 months and 1 week"
//	HumanizeDays(3)  == "About 3 days"
func HumanizeDays(days int) string {
	if days <= 0 {
		return "Less than a day"
	}

	months := days / daysPerMonth
	rest := days % daysPerMonth
	weeks := rest / daysPerWeek
	rest %= daysPerWeek

	var parts []string
	for _, p := range []struct {
		n    int
		unit string
	}{
		{months, "month"},
		{weeks, "week"},
		{rest, "day"},
	} {
		if p.n == 0 {
			continue
		}
		parts = append(parts, plural(p.n, p.unit))
		if len(parts) == 2 {
			break
		}
	}

	return "About " + strings.Join(parts, " and ")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
