package dialog

import (
	"strings"

	"go.uber.org/zap"
)

// Stage is a node in the conversation-flow graph, distinct from Mode.
type Stage string

const (
	StageInitial               Stage = "initial"
	StageGreeting              Stage = "greeting"
	StagePersonalityAssessment Stage = "personality_assessment"
	StageMoodCheck             Stage = "mood_check"
	StageTherapeutic           Stage = "therapeutic_mode"
	StageCrisisIntervention    Stage = "crisis_intervention"
	StageCompanion             Stage = "companion_mode"
	StageCoaching              Stage = "coaching_mode"
	StageAssessment            Stage = "assessment_mode"
	StageClosure               Stage = "closure"
	StageFollowUp              Stage = "follow_up"
)

// InitialStage is where every conversation starts.
const InitialStage = StageInitial

// guard is a named pure predicate over TurnState. Guards are registered
// once here and referenced by stable identifier in the edge table.
type guard struct {
	id   string
	test func(*TurnState) bool
}

var guards = map[string]func(*TurnState) bool{
	"first_message": func(s *TurnState) bool { return len(s.ConversationHistory) == 0 },
	"new_user":      func(s *TurnState) bool { return s.Profile.ConfidenceScore < 0.3 },
	"returning_user": func(s *TurnState) bool {
		return s.Profile.ConfidenceScore >= 0.3
	},
	"assessment_complete": func(s *TurnState) bool {
		return s.Profile.ConfidenceScore >= 0.7
	},
	"distress_detected": func(s *TurnState) bool {
		return s.Assessment.MoodScore < 4.0 || s.Assessment.AnxietyLevel > 7.0
	},
	"neutral_mood": func(s *TurnState) bool {
		return s.Assessment.MoodScore >= 4.0 && s.Assessment.AnxietyLevel <= 7.0
	},
	"crisis_detected": func(s *TurnState) bool { return s.Mode == ModeCrisis },
	"progress_made":   func(s *TurnState) bool { return s.Assessment.MoodScore > 6.0 },
	"crisis_escalation": func(s *TurnState) bool {
		return len(s.Assessment.RiskFactors) > 0
	},
	"support_needed": func(s *TurnState) bool {
		lower := strings.ToLower(s.CurrentMessage)
		for _, w := range []string{"help", "support", "struggling", "difficult"} {
			if strings.Contains(lower, w) {
				return true
			}
		}
		return false
	},
	"crisis_resolved": func(s *TurnState) bool {
		return s.Assessment.MoodScore > 5.0 && len(s.Assessment.RiskFactors) == 0
	},
	"goal_achieved": func(s *TurnState) bool {
		return len(s.Assessment.TherapeuticGoals) > 0
	},
	"issues_identified": func(s *TurnState) bool {
		return len(s.Assessment.StressIndicators) > 0
	},
	"session_end":      func(s *TurnState) bool { return len(s.ConversationHistory) > 20 },
	"conversation_end": func(s *TurnState) bool { return strings.Contains(strings.ToLower(s.CurrentMessage), "goodbye") },
	"coaching_complete": func(s *TurnState) bool {
		return s.Confidence > 0.8
	},
}

// edge is one guarded transition. Outgoing edges of a node are evaluated
// in declaration order, first match wins.
type edge struct {
	guard  guard
	target Stage
}

// Graph is the directed conversation-stage graph.
type Graph struct {
	edges  map[Stage][]edge
	logger *zap.Logger
}

// NewGraph builds the conversation graph with its full transition table.
func NewGraph(logger *zap.Logger) *Graph {
	g := &Graph{edges: make(map[Stage][]edge), logger: logger}

	transitions := []struct {
		from    Stage
		to      Stage
		guardID string
	}{
		{StageInitial, StageGreeting, "first_message"},
		{StageGreeting, StagePersonalityAssessment, "new_user"},
		{StageGreeting, StageMoodCheck, "returning_user"},
		{StagePersonalityAssessment, StageMoodCheck, "assessment_complete"},
		{StageMoodCheck, StageTherapeutic, "distress_detected"},
		{StageMoodCheck, StageCompanion, "neutral_mood"},
		{StageMoodCheck, StageCrisisIntervention, "crisis_detected"},
		{StageTherapeutic, StageCoaching, "progress_made"},
		{StageTherapeutic, StageCrisisIntervention, "crisis_escalation"},
		{StageCompanion, StageTherapeutic, "support_needed"},
		{StageCrisisIntervention, StageTherapeutic, "crisis_resolved"},
		{StageCoaching, StageCompanion, "goal_achieved"},
		{StageAssessment, StageTherapeutic, "issues_identified"},
		{StageTherapeutic, StageFollowUp, "session_end"},
		{StageCompanion, StageClosure, "conversation_end"},
		{StageCoaching, StageClosure, "coaching_complete"},
	}

	for _, t := range transitions {
		test, ok := guards[t.guardID]
		if !ok {
			// A transition referencing an unregistered guard is a
			// programming error, caught at construction.
			panic("dialog: unknown guard " + t.guardID)
		}
		g.edges[t.from] = append(g.edges[t.from], edge{
			guard:  guard{id: t.guardID, test: test},
			target: t.to,
		})
	}
	return g
}

// NextStage evaluates the outgoing edges of current in declaration order
// and returns the target of the first guard that holds. When no guard
// matches, the stage stays put.
func (g *Graph) NextStage(current Stage, state *TurnState) Stage {
	for _, e := range g.edges[current] {
		if e.guard.test(state) {
			g.logger.Debug("stage transition",
				zap.String("from", string(current)),
				zap.String("to", string(e.target)),
				zap.String("guard", e.guard.id))
			return e.target
		}
	}
	return current
}
