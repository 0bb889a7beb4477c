package dialog

import (
	"testing"

	"github.com/mirelle/solace/internal/profile"
	"go.uber.org/zap"
)

func neverCrisis(string) (bool, float64)  { return false, 0 }
func alwaysCrisis(string) (bool, float64) { return true, 4.0 }

func TestSelectPriorityOrder(t *testing.T) {
	p := profile.NewPersonalityProfile()
	p.ConfidenceScore = 0.5
	a := profile.NewTherapeuticAssessment()

	// Crisis wins even when distress and coaching keywords are present.
	sel := NewSelector(alwaysCrisis, zap.NewNop())
	a.MoodScore = 2.0
	if got := sel.Select("I want to improve and achieve my goals", p, a); got != ModeCrisis {
		t.Fatalf("mode = %s, want crisis", got)
	}

	// Distress beats assessment and coaching.
	sel = NewSelector(neverCrisis, zap.NewNop())
	if got := sel.Select("help me improve my goals", p, a); got != ModeTherapeutic {
		t.Fatalf("mode = %s, want therapeutic", got)
	}

	// Low confidence beats coaching.
	a.MoodScore = 6.0
	a.AnxietyLevel = 3.0
	p.ConfidenceScore = 0.1
	if got := sel.Select("help me improve my goals", p, a); got != ModeAssessment {
		t.Fatalf("mode = %s, want assessment", got)
	}

	// Coaching keywords.
	p.ConfidenceScore = 0.5
	if got := sel.Select("I'd love to improve my productivity and hit my goals", p, a); got != ModeCoaching {
		t.Fatalf("mode = %s, want coaching", got)
	}

	// Default.
	if got := sel.Select("nice weather today", p, a); got != ModeCompanion {
		t.Fatalf("mode = %s, want companion", got)
	}
}

func TestSelectHighAnxietyIsTherapeutic(t *testing.T) {
	sel := NewSelector(neverCrisis, zap.NewNop())
	p := profile.NewPersonalityProfile()
	p.ConfidenceScore = 0.9
	a := profile.NewTherapeuticAssessment()
	a.MoodScore = 7.0
	a.AnxietyLevel = 7.5

	if got := sel.Select("everything is fine", p, a); got != ModeTherapeutic {
		t.Fatalf("mode = %s, want therapeutic on anxiety > 7", got)
	}
}

func TestSelectFailsClosedOnDetectorPanic(t *testing.T) {
	sel := NewSelector(func(string) (bool, float64) { panic("detector broke") }, zap.NewNop())
	p := profile.NewPersonalityProfile()
	a := profile.NewTherapeuticAssessment()

	if got := sel.Select("hello", p, a); got != ModeCrisis {
		t.Fatalf("mode = %s, want crisis when detection fails", got)
	}
}

func TestSelectNotSticky(t *testing.T) {
	calls := 0
	sel := NewSelector(func(string) (bool, float64) {
		calls++
		return calls == 1, 2.0
	}, zap.NewNop())
	p := profile.NewPersonalityProfile()
	p.ConfidenceScore = 0.5
	a := profile.NewTherapeuticAssessment()

	if got := sel.Select("first", p, a); got != ModeCrisis {
		t.Fatalf("first turn mode = %s, want crisis", got)
	}
	// Next turn re-evaluates from scratch; crisis does not persist.
	if got := sel.Select("second", p, a); got != ModeCompanion {
		t.Fatalf("second turn mode = %s, want companion", got)
	}
}
