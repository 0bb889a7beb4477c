package dialog

import (
	"strings"

	"github.com/mirelle/solace/internal/profile"
	"go.uber.org/zap"
)

// Mode is the behavioral policy governing response generation for one turn.
type Mode string

const (
	ModeCompanion   Mode = "companion"
	ModeTherapeutic Mode = "therapeutic"
	ModeCrisis      Mode = "crisis"
	ModeAssessment  Mode = "assessment"
	ModeCoaching    Mode = "coaching"
)

// CrisisDetector reports whether a message contains crisis indicators and
// the associated risk level.
type CrisisDetector func(text string) (bool, float64)

var coachingKeywords = []string{"goal", "improve", "achieve"}

// Selector picks the conversation mode for a turn. The priority chain is
// fixed and re-evaluated fresh every turn; mode is never sticky. Crisis
// always wins, and a crisis detector that panics selects crisis too:
// under-triggering crisis handling is the unsafe direction.
type Selector struct {
	detect CrisisDetector
	logger *zap.Logger
}

// NewSelector creates a mode selector around the given crisis detector.
func NewSelector(detect CrisisDetector, logger *zap.Logger) *Selector {
	return &Selector{detect: detect, logger: logger}
}

// Select returns the mode for the current turn. The order of checks is
// load-bearing: crisis, then distress, then low profile confidence, then
// coaching intent, then companion.
func (s *Selector) Select(message string, p *profile.PersonalityProfile, a *profile.TherapeuticAssessment) (mode Mode) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("crisis detection panicked, failing closed to crisis",
				zap.Any("panic", r))
			mode = ModeCrisis
		}
	}()

	if isCrisis, _ := s.detect(message); isCrisis {
		return ModeCrisis
	}
	if a.MoodScore < 4.0 || a.AnxietyLevel > 7.0 {
		return ModeTherapeutic
	}
	if p.ConfidenceScore < 0.3 {
		return ModeAssessment
	}
	lower := strings.ToLower(message)
	for _, kw := range coachingKeywords {
		if strings.Contains(lower, kw) {
			return ModeCoaching
		}
	}
	return ModeCompanion
}
