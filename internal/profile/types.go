package profile

import (
	"time"
)

// Trait identifies a tracked personality dimension.
type Trait string

const (
	TraitOpenness           Trait = "openness"
	TraitConscientiousness  Trait = "conscientiousness"
	TraitExtraversion       Trait = "extraversion"
	TraitAgreeableness      Trait = "agreeableness"
	TraitNeuroticism        Trait = "neuroticism"
	TraitEmpathy            Trait = "empathy"
	TraitOptimism           Trait = "optimism"
	TraitEmotionalStability Trait = "emotional_stability"
)

// AllTraits lists every tracked trait in a stable order.
var AllTraits = []Trait{
	TraitOpenness, TraitConscientiousness, TraitExtraversion,
	TraitAgreeableness, TraitNeuroticism, TraitEmpathy,
	TraitOptimism, TraitEmotionalStability,
}

// Communication style identifiers.
const (
	StyleFormal     = "formal"
	StyleCasual     = "casual"
	StyleEmotional  = "emotional"
	StyleAnalytical = "analytical"
)

// AllStyles lists every tracked style in a stable order.
var AllStyles = []string{StyleFormal, StyleCasual, StyleEmotional, StyleAnalytical}

// PersonalityProfile holds confidence-weighted running estimates of a user's
// traits and communication style. Scores live in [0,1]. ConfidenceScore is
// monotone non-decreasing and saturates at 1.0.
type PersonalityProfile struct {
	Traits          map[Trait]float64  `json:"traits"`
	Styles          map[string]float64 `json:"styles"`
	ConfidenceScore float64            `json:"confidence_score"`
	LastUpdated     time.Time          `json:"last_updated"`
}

// NewPersonalityProfile returns an empty profile ready for updates.
func NewPersonalityProfile() *PersonalityProfile {
	return &PersonalityProfile{
		Traits: make(map[Trait]float64),
		Styles: make(map[string]float64),
	}
}

// Clone returns a deep copy of the profile.
func (p *PersonalityProfile) Clone() *PersonalityProfile {
	cp := &PersonalityProfile{
		Traits:          make(map[Trait]float64, len(p.Traits)),
		Styles:          make(map[string]float64, len(p.Styles)),
		ConfidenceScore: p.ConfidenceScore,
		LastUpdated:     p.LastUpdated,
	}
	for k, v := range p.Traits {
		cp.Traits[k] = v
	}
	for k, v := range p.Styles {
		cp.Styles[k] = v
	}
	return cp
}

// TherapeuticAssessment tracks a user's emotional state. MoodScore and
// AnxietyLevel are smoothed scalars in [1,10]. All tag sequences are
// append-only; only CopingStrategies dedupes.
type TherapeuticAssessment struct {
	MoodScore         float64            `json:"mood_score"`
	AnxietyLevel      float64            `json:"anxiety_level"`
	RiskFactors       []string           `json:"risk_factors"`
	CopingStrategies  []string           `json:"coping_strategies"`
	StressIndicators  []string           `json:"stress_indicators"`
	TherapeuticGoals  []string           `json:"therapeutic_goals"`
	ProtectiveFactors []string           `json:"protective_factors"`
	ProgressMetrics   map[string]float64 `json:"progress_metrics"`
}

// NewTherapeuticAssessment returns an assessment at neutral baseline.
func NewTherapeuticAssessment() *TherapeuticAssessment {
	return &TherapeuticAssessment{
		MoodScore:       5.0,
		AnxietyLevel:    5.0,
		ProgressMetrics: make(map[string]float64),
	}
}

// Clone returns a deep copy of the assessment.
func (a *TherapeuticAssessment) Clone() *TherapeuticAssessment {
	cp := &TherapeuticAssessment{
		MoodScore:         a.MoodScore,
		AnxietyLevel:      a.AnxietyLevel,
		RiskFactors:       append([]string(nil), a.RiskFactors...),
		CopingStrategies:  append([]string(nil), a.CopingStrategies...),
		StressIndicators:  append([]string(nil), a.StressIndicators...),
		TherapeuticGoals:  append([]string(nil), a.TherapeuticGoals...),
		ProtectiveFactors: append([]string(nil), a.ProtectiveFactors...),
		ProgressMetrics:   make(map[string]float64, len(a.ProgressMetrics)),
	}
	for k, v := range a.ProgressMetrics {
		cp.ProgressMetrics[k] = v
	}
	return cp
}
