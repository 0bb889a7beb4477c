package dialog

import (
	"strings"
	"testing"

	"github.com/mirelle/solace/internal/memory"
	"github.com/mirelle/solace/internal/profile"
	"go.uber.org/zap"
)

func newState() *TurnState {
	return &TurnState{
		Profile:    profile.NewPersonalityProfile(),
		Assessment: profile.NewTherapeuticAssessment(),
		Mode:       ModeCompanion,
	}
}

func TestNextStageFirstMatchWins(t *testing.T) {
	g := NewGraph(zap.NewNop())
	s := newState()
	s.Assessment.MoodScore = 8.0
	s.Assessment.AnxietyLevel = 2.0
	s.Mode = ModeCrisis // crisis edge is declared after neutral_mood

	// distress guard is false, neutral_mood is true, crisis_detected is
	// also true but declared later: first match must win.
	if got := g.NextStage(StageMoodCheck, s); got != StageCompanion {
		t.Fatalf("NextStage(mood_check) = %s, want companion_mode", got)
	}
}

func TestNextStageDistress(t *testing.T) {
	g := NewGraph(zap.NewNop())
	s := newState()
	s.Assessment.MoodScore = 3.0

	if got := g.NextStage(StageMoodCheck, s); got != StageTherapeutic {
		t.Fatalf("NextStage(mood_check) = %s, want therapeutic_mode", got)
	}

	s.Assessment.MoodScore = 6.0
	s.Assessment.AnxietyLevel = 8.5
	if got := g.NextStage(StageMoodCheck, s); got != StageTherapeutic {
		t.Fatalf("high anxiety: NextStage(mood_check) = %s, want therapeutic_mode", got)
	}
}

func TestNextStageSelfLoopWhenNoGuardMatches(t *testing.T) {
	g := NewGraph(zap.NewNop())
	s := newState()
	s.ConversationHistory = []memory.Entry{{Role: "user", Content: "hi"}}

	// initial's only guard requires an empty history.
	if got := g.NextStage(StageInitial, s); got != StageInitial {
		t.Fatalf("NextStage(initial) = %s, want self-loop", got)
	}

	// closure and follow_up have no outgoing edges at all.
	if got := g.NextStage(StageClosure, s); got != StageClosure {
		t.Fatalf("NextStage(closure) = %s, want self-loop", got)
	}
	if got := g.NextStage(StageFollowUp, s); got != StageFollowUp {
		t.Fatalf("NextStage(follow_up) = %s, want self-loop", got)
	}
}

func TestNextStageGreetingBranchesOnConfidence(t *testing.T) {
	g := NewGraph(zap.NewNop())
	s := newState()

	s.Profile.ConfidenceScore = 0.1
	if got := g.NextStage(StageGreeting, s); got != StagePersonalityAssessment {
		t.Fatalf("new user: NextStage(greeting) = %s, want personality_assessment", got)
	}

	s.Profile.ConfidenceScore = 0.5
	if got := g.NextStage(StageGreeting, s); got != StageMoodCheck {
		t.Fatalf("returning user: NextStage(greeting) = %s, want mood_check", got)
	}
}

func TestNextStageCrisisEscalation(t *testing.T) {
	g := NewGraph(zap.NewNop())
	s := newState()
	s.Assessment.MoodScore = 5.0
	s.Assessment.RiskFactors = []string{"crisis indicators detected: risk=2.0"}

	if got := g.NextStage(StageTherapeutic, s); got != StageCrisisIntervention {
		t.Fatalf("NextStage(therapeutic) = %s, want crisis_intervention", got)
	}
}

func TestPromptHintTherapeuticBranches(t *testing.T) {
	s := newState()

	s.Assessment.MoodScore = 2.0
	if hint := PromptHint(StageTherapeutic, s); !strings.Contains(hint, "Depression") {
		t.Errorf("mood<3 hint = %q, want depression-oriented", hint)
	}

	s.Assessment.MoodScore = 6.0
	s.Assessment.AnxietyLevel = 9.0
	if hint := PromptHint(StageTherapeutic, s); !strings.Contains(hint, "anxiety") {
		t.Errorf("anxiety>8 hint = %q, want anxiety-oriented", hint)
	}

	s.Assessment.AnxietyLevel = 3.0
	s.Assessment.MoodScore = 4.5
	if hint := PromptHint(StageTherapeutic, s); !strings.Contains(hint, "feeling down") {
		t.Errorf("mood<5 hint = %q, want mild-low-mood", hint)
	}

	s.Assessment.MoodScore = 7.0
	if hint := PromptHint(StageTherapeutic, s); !strings.Contains(hint, "support you") {
		t.Errorf("neutral hint = %q, want generic supportive", hint)
	}
}

func TestPromptHintLookup(t *testing.T) {
	s := newState()
	if hint := PromptHint(StageCoaching, s); !strings.Contains(hint, "goals") {
		t.Errorf("coaching hint = %q", hint)
	}
	if hint := PromptHint(Stage("unknown"), s); hint == "" {
		t.Error("unknown stage should fall back to a default hint")
	}
}
