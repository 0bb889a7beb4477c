package analyzer

import (
	"math"
	"strings"
	"time"

	"github.com/mirelle/solace/internal/profile"
	"go.uber.org/zap"
)

// Smoothing factor for personality estimates. Traits move slowly: each
// turn contributes a tenth of the new observation.
const personalityAlpha = 0.1

// Confidence gained per observed turn, saturating at 1.0.
const confidenceStep = 0.05

var traitKeywords = map[profile.Trait][]string{
	profile.TraitOpenness:           {"creative", "curious", "open-minded", "imaginative", "artistic"},
	profile.TraitConscientiousness:  {"organized", "responsible", "reliable", "disciplined", "thorough"},
	profile.TraitExtraversion:       {"outgoing", "social", "talkative", "energetic", "assertive"},
	profile.TraitAgreeableness:      {"kind", "cooperative", "trusting", "helpful", "sympathetic"},
	profile.TraitNeuroticism:        {"anxious", "worried", "stressed", "emotional", "sensitive"},
	profile.TraitEmpathy:            {"understanding", "compassionate", "caring", "supportive"},
	profile.TraitOptimism:           {"positive", "hopeful", "confident", "enthusiastic"},
	profile.TraitEmotionalStability: {"calm", "steady", "composed", "grounded", "balanced"},
}

var styleKeywords = map[string][]string{
	profile.StyleFormal:     {"please", "thank you", "would you", "could you", "appreciate"},
	profile.StyleCasual:     {"hey", "yeah", "cool", "awesome", "no problem"},
	profile.StyleEmotional:  {"feel", "emotion", "heart", "soul", "deeply"},
	profile.StyleAnalytical: {"think", "analyze", "consider", "evaluate", "logical"},
}

// PersonalityAnalyzer estimates trait and communication-style scores from
// raw text via lexical keyword coverage. Stateless apart from the injected
// noise source; construct once and share.
type PersonalityAnalyzer struct {
	noise  Noise
	logger *zap.Logger
}

// NewPersonalityAnalyzer creates an analyzer with the given noise source.
func NewPersonalityAnalyzer(noise Noise, logger *zap.Logger) *PersonalityAnalyzer {
	if noise == nil {
		noise = NoNoise{}
	}
	return &PersonalityAnalyzer{noise: noise, logger: logger}
}

// Score returns per-trait scores in [0,1] for the text. Keyword coverage is
// normalized by vocabulary size, then a symmetric jitter term is added and
// the result clamped. The jitter keeps short texts from producing
// zero-variance signals.
func (pa *PersonalityAnalyzer) Score(text string) map[profile.Trait]float64 {
	lower := strings.ToLower(text)
	scores := make(map[profile.Trait]float64, len(traitKeywords))
	for trait, words := range traitKeywords {
		matches := 0
		for _, w := range words {
			if strings.Contains(lower, w) {
				matches++
			}
		}
		score := math.Min(float64(matches)/math.Max(float64(len(words))*0.3, 1.0), 1.0)
		score += pa.noise.Jitter()
		scores[trait] = clamp01(score)
	}
	return scores
}

// StyleScores returns the fraction of each style vocabulary present in the
// text. No jitter; range [0,1].
func (pa *PersonalityAnalyzer) StyleScores(text string) map[string]float64 {
	lower := strings.ToLower(text)
	scores := make(map[string]float64, len(styleKeywords))
	for style, words := range styleKeywords {
		matches := 0
		for _, w := range words {
			if strings.Contains(lower, w) {
				matches++
			}
		}
		scores[style] = float64(matches) / float64(len(words))
	}
	return scores
}

// UpdateProfile folds one turn's text into the profile. Existing keys are
// exponentially smoothed; first-seen keys take the observed value directly.
// Bumps the confidence score and refreshes the update timestamp.
func (pa *PersonalityAnalyzer) UpdateProfile(p *profile.PersonalityProfile, text string) {
	for trait, observed := range pa.Score(text) {
		if old, ok := p.Traits[trait]; ok {
			p.Traits[trait] = (1-personalityAlpha)*old + personalityAlpha*observed
		} else {
			p.Traits[trait] = observed
		}
	}
	for style, observed := range pa.StyleScores(text) {
		if old, ok := p.Styles[style]; ok {
			p.Styles[style] = (1-personalityAlpha)*old + personalityAlpha*observed
		} else {
			p.Styles[style] = observed
		}
	}
	p.ConfidenceScore = math.Min(p.ConfidenceScore+confidenceStep, 1.0)
	p.LastUpdated = time.Now()
}

func clamp01(v float64) float64 {
	return math.Max(0.0, math.Min(1.0, v))
}
