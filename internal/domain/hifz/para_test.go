package hifz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyProgress_AdvancesOnCompletion(t *testing.T) {
	s := &LearnerStatus{CurrentUnit: 5, CompletedUnits: []int{}}

	tr := s.ApplyProgress(5, 100)

	assert.True(t, tr.Completed)
	assert.True(t, tr.Advanced)
	assert.Equal(t, 5, tr.Unit)
	assert.Equal(t, 1, tr.TotalCompleted)
	assert.Equal(t, []int{5}, s.CompletedUnits)
	assert.Equal(t, 6, s.CurrentUnit)
	assert.Equal(t, 0, s.CurrentUnitProgress)
}

func TestApplyProgress_PartialDoesNotComplete(t *testing.T) {
	s := &LearnerStatus{CurrentUnit: 5}

	tr := s.ApplyProgress(0, 60)

	assert.False(t, tr.Completed)
	assert.Equal(t, 5, s.CurrentUnit)
	assert.Equal(t, 60, s.CurrentUnitProgress)
	assert.Empty(t, s.CompletedUnits)
}

func TestApplyProgress_CompletionIsIdempotent(t *testing.T) {
	s := &LearnerStatus{CurrentUnit: 5}

	first := s.ApplyProgress(5, 100)
	second := s.ApplyProgress(5, 100)

	assert.True(t, first.Completed)
	assert.False(t, second.Completed)
	assert.Equal(t, []int{5}, s.CompletedUnits)
}

func TestApplyProgress_FinalUnitIsTerminal(t *testing.T) {
	s := &LearnerStatus{CurrentUnit: 30}

	tr := s.ApplyProgress(30, 100)
	assert.True(t, tr.Completed)
	assert.True(t, tr.Terminal)
	assert.False(t, tr.Advanced)
	assert.Equal(t, 30, s.CurrentUnit)
	assert.Equal(t, 100, s.CurrentUnitProgress)
	assert.True(t, s.IsTerminal())

	again := s.ApplyProgress(0, 100)
	assert.False(t, again.Completed)
	assert.True(t, again.Terminal)
	assert.Equal(t, 30, s.CurrentUnit)
	assert.Equal(t, []int{30}, s.CompletedUnits)

	lower := s.ApplyProgress(0, 40)
	assert.True(t, lower.Terminal)
	assert.True(t, s.IsTerminal())
	assert.Equal(t, 30, s.CurrentUnit)
	assert.Equal(t, 100, s.CurrentUnitProgress)

	elsewhere := s.ApplyProgress(12, 100)
	assert.False(t, elsewhere.Completed)
	assert.Equal(t, 30, s.CurrentUnit)
	assert.Equal(t, []int{30}, s.CompletedUnits)
}

func TestIsTerminal_NeedsFinalParaCompleted(t *testing.T) {
	s := &LearnerStatus{CurrentUnit: 30, CurrentUnitProgress: 100}
	assert.False(t, s.IsTerminal())

	s.CompletedUnits = []int{30}
	assert.True(t, s.IsTerminal())
}

func TestApplyProgress_CompletedListIsAppendOnly(t *testing.T) {
	s := &LearnerStatus{CurrentUnit: 1}
	for u := 1; u <= 3; u++ {
		s.ApplyProgress(0, 100)
	}
	assert.Equal(t, []int{1, 2, 3}, s.CompletedUnits)

	// moving back to an earlier para never removes completions
	s.ApplyProgress(2, 40)
	assert.Equal(t, []int{1, 2, 3}, s.CompletedUnits)
	assert.Equal(t, 2, s.CurrentUnit)
}

func TestCrossedMilestones(t *testing.T) {
	assert.Equal(t, []int{10}, CrossedMilestones(9, 10))
	assert.Nil(t, CrossedMilestones(10, 11))
	assert.Equal(t, []int{10, 20}, CrossedMilestones(5, 25))
	assert.Equal(t, []int{30}, CrossedMilestones(29, 30))
	assert.Nil(t, CrossedMilestones(3, 3))
}

func TestProgressToMilestone(t *testing.T) {
	p := ProgressToMilestone(12)
	assert.Equal(t, []int{10}, p.Reached)
	assert.Equal(t, 20, p.Next)
	assert.Equal(t, 8, p.UnitsToNext)

	done := ProgressToMilestone(30)
	assert.Equal(t, []int{10, 20, 30}, done.Reached)
	assert.Equal(t, 0, done.Next)
}
