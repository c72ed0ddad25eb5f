package hifz

// Milestones - memorized-unit totals that are celebrated.
var Milestones = []int{10, 20, 30}

// CrossedMilestones returns the milestones in (before, after].
func CrossedMilestones(before, after int) []int {
	var crossed []int
	for _, m := range Milestones {
		if before < m && after >= m {
			crossed = append(crossed, m)
		}
	}
	return crossed
}

// MilestoneProgress - distance to the next milestone.
type MilestoneProgress struct {
	// Reached - milestones already reached.
	Reached []int `json:"reached" yaml:"reached"`

	// Next - next milestone, 0 when all are reached.
	Next int `json:"next" yaml:"next"`

	// UnitsToNext - whole paras left until Next.
	UnitsToNext int `json:"units_to_next" yaml:"units_to_next"`
}

// ProgressToMilestone computes milestone progress for a memorized-unit total.
func ProgressToMilestone(memorizedUnits int) MilestoneProgress {
	var p MilestoneProgress
	for _, m := range Milestones {
		if memorizedUnits >= m {
			p.Reached = append(p.Reached, m)
			continue
		}
		if p.Next == 0 {
			p.Next = m
			p.UnitsToNext = m - memorizedUnits
		}
	}
	return p
}
