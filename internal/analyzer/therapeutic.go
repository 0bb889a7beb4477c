package analyzer

import (
	"fmt"
	"math"
	"strings"

	"github.com/mirelle/solace/internal/profile"
	"go.uber.org/zap"
)

// Smoothing factor for mood and anxiety. Emotional state is more volatile
// than personality, so it tracks new observations faster.
const assessmentAlpha = 0.3

var positiveMoodWords = []string{"happy", "great", "wonderful", "excellent", "fantastic", "amazing"}
var negativeMoodWords = []string{"sad", "down", "terrible", "awful", "horrible", "depressed"}

var anxietyWords = []string{
	"anxious", "worried", "panic", "nervous", "scared", "frightened",
	"overwhelmed", "stressed", "tense", "restless",
}

var crisisPhrases = []string{
	"suicide", "kill myself", "end it all", "can't go on", "hopeless",
	"want to die", "better off dead", "no point", "give up",
}

// copingTaxonomy maps strategy categories to trigger phrases. Category
// order is fixed so identified strategies come out deterministically.
var copingCategories = []string{"cognitive", "behavioral", "social", "mindfulness"}

var copingTaxonomy = map[string][]string{
	"cognitive":   {"reframe", "perspective", "think differently", "challenge thoughts"},
	"behavioral":  {"exercise", "walk", "breathe", "relax", "activity"},
	"social":      {"talk", "friends", "family", "support", "help"},
	"mindfulness": {"meditate", "mindful", "present", "aware", "focus"},
}

// TherapeuticAnalyzer derives mood, anxiety, crisis, and coping signals
// from raw text. Stateless; construct once and share.
type TherapeuticAnalyzer struct {
	logger *zap.Logger
}

// NewTherapeuticAnalyzer creates a therapeutic analyzer.
func NewTherapeuticAnalyzer(logger *zap.Logger) *TherapeuticAnalyzer {
	return &TherapeuticAnalyzer{logger: logger}
}

// AssessMood scores mood on [1,10]: base 5.0 shifted half a point per
// positive/negative keyword hit, clamped.
func (ta *TherapeuticAnalyzer) AssessMood(text string) float64 {
	lower := strings.ToLower(text)
	pos, neg := 0, 0
	for _, w := range positiveMoodWords {
		if strings.Contains(lower, w) {
			pos++
		}
	}
	for _, w := range negativeMoodWords {
		if strings.Contains(lower, w) {
			neg++
		}
	}
	return clampScale(5.0 + 0.5*float64(pos-neg))
}

// AssessAnxiety scores anxiety on [1,10]: base 3.0 plus 1.5 per keyword
// hit, clamped.
func (ta *TherapeuticAnalyzer) AssessAnxiety(text string) float64 {
	lower := strings.ToLower(text)
	hits := 0
	for _, w := range anxietyWords {
		if strings.Contains(lower, w) {
			hits++
		}
	}
	return clampScale(3.0 + 1.5*float64(hits))
}

// DetectCrisis reports whether any crisis phrase is a substring of the
// lower-cased text, with risk = min(2*hits, 10). Pure phrase matching with
// no smoothing or history: a crisis signal must never be averaged away.
func (ta *TherapeuticAnalyzer) DetectCrisis(text string) (bool, float64) {
	lower := strings.ToLower(text)
	hits := 0
	for _, phrase := range crisisPhrases {
		if strings.Contains(lower, phrase) {
			hits++
		}
	}
	return hits > 0, math.Min(2.0*float64(hits), 10.0)
}

// IdentifyCoping returns "category: phrase" entries for every coping
// phrase found in the text, in fixed taxonomy order.
func (ta *TherapeuticAnalyzer) IdentifyCoping(text string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, category := range copingCategories {
		for _, phrase := range copingTaxonomy[category] {
			if strings.Contains(lower, phrase) {
				found = append(found, category+": "+phrase)
			}
		}
	}
	return found
}

// UpdateAssessment folds one turn's text into the assessment: mood and
// anxiety are exponentially smoothed, newly seen coping strategies are
// appended (deduplicated), and every crisis turn appends a fresh risk
// factor. Risk factors are never deduplicated — each crisis turn is a
// distinct safety event.
func (ta *TherapeuticAnalyzer) UpdateAssessment(a *profile.TherapeuticAssessment, text string) {
	mood := ta.AssessMood(text)
	anxiety := ta.AssessAnxiety(text)
	isCrisis, risk := ta.DetectCrisis(text)

	a.MoodScore = (1-assessmentAlpha)*a.MoodScore + assessmentAlpha*mood
	a.AnxietyLevel = (1-assessmentAlpha)*a.AnxietyLevel + assessmentAlpha*anxiety

	for _, strategy := range ta.IdentifyCoping(text) {
		if !contains(a.CopingStrategies, strategy) {
			a.CopingStrategies = append(a.CopingStrategies, strategy)
		}
	}

	if isCrisis {
		a.RiskFactors = append(a.RiskFactors,
			fmt.Sprintf("crisis indicators detected: risk=%.1f", risk))
		ta.logger.Warn("crisis indicators in message", zap.Float64("risk", risk))
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func clampScale(v float64) float64 {
	return math.Max(1.0, math.Min(10.0, v))
}
