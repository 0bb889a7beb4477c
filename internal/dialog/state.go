package dialog

import (
	"time"

	"github.com/mirelle/solace/internal/memory"
	"github.com/mirelle/solace/internal/profile"
)

// Adaptation records one per-turn adjustment of the companion's behavior.
type Adaptation struct {
	ID            string    `json:"id"`
	Kind          string    `json:"kind"`
	Target        string    `json:"target"`
	Effectiveness float64   `json:"effectiveness"`
	CreatedAt     time.Time `json:"created_at"`
}

// GraphContext carries the conversation-graph output for one turn.
type GraphContext struct {
	Stage      Stage  `json:"stage"`
	PromptHint string `json:"prompt_hint"`
}

// TurnState is the single mutable record threaded through one
// orchestration run. Created fresh per incoming message and discarded when
// the turn completes; durable state lives in the profile registry and the
// memory store.
type TurnState struct {
	UserID         string
	SessionID      string
	CurrentMessage string

	ConversationHistory []memory.Entry
	Profile             *profile.PersonalityProfile
	Assessment          *profile.TherapeuticAssessment

	Mode           Mode
	ContextVectors []float32
	MemoryContext  memory.EnhancedContext
	Adaptations    []Adaptation
	GraphContext   GraphContext

	Response   string
	Confidence float64
}
