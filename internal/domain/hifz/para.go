package hifz

// ══════════════════════════════════════════════════════════════════════════════
// PARA COMPLETION STATE MACHINE
// ══════════════════════════════════════════════════════════════════════════════
//
//	InProgress(u, p<100) --progress=100, u<30--> InProgress(u+1, 0)
//	InProgress(30, p<100) --progress=100--> Completed(30, 100)
//
// Completed units are append-only. A unit completes at most once. Completed
// is final: later updates leave the learner at para 30 with 100%.

// Transition - outcome of applying a progress update.
type Transition struct {
	// Unit - para the progress update applied to.
	Unit int

	// Completed - true when Unit was newly appended to the completed list.
	Completed bool

	// TotalCompleted - size of the completed list after the update.
	TotalCompleted int

	// Advanced - true when the learner moved on to the next para.
	Advanced bool

	// Terminal - true once para 30 is on the completed list.
	Terminal bool
}

// ApplyProgress moves the learner to the given para and progress and runs the
// completion transition when progress reaches 100.
//
// unit == 0 keeps the current para. Callers validate ranges beforehand.
func (s *LearnerStatus) ApplyProgress(unit, progress int) Transition {
	if s.IsTerminal() {
		s.CurrentUnitProgress = 100
		return Transition{Unit: TotalUnits, TotalCompleted: len(s.CompletedUnits), Terminal: true}
	}
	if unit != 0 {
		s.CurrentUnit = unit
	}
	s.CurrentUnitProgress = clampPercent(progress)

	if s.CurrentUnitProgress < 100 {
		return Transition{
			Unit:           s.CurrentUnit,
			TotalCompleted: len(s.CompletedUnits),
			Terminal:       s.IsTerminal(),
		}
	}
	return s.completeCurrentUnit()
}

func (s *LearnerStatus) completeCurrentUnit() Transition {
	unit := s.CurrentUnit
	t := Transition{Unit: unit}

	if !containsUnit(s.CompletedUnits, unit) {
		s.CompletedUnits = append(s.CompletedUnits, unit)
		t.Completed = true
	}

	if unit < TotalUnits {
		s.CurrentUnit = unit + 1
		s.CurrentUnitProgress = 0
		t.Advanced = true
	} else {
		s.CurrentUnit = TotalUnits
		s.CurrentUnitProgress = 100
		t.Terminal = true
	}

	t.TotalCompleted = len(s.CompletedUnits)
	return t
}

// IsTerminal reports whether the final para is finished.
func (s *LearnerStatus) IsTerminal() bool {
	return s.CurrentUnit == TotalUnits && containsUnit(s.CompletedUnits, TotalUnits)
}

func containsUnit(units []int, unit int) bool {
	for _, u := range units {
		if u == unit {
			return true
		}
	}
	return false
}
