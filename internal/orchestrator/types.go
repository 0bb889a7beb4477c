package orchestrator

import (
	"context"
	"time"

	"github.com/mirelle/solace/internal/dialog"
	"github.com/mirelle/solace/internal/memory"
	"github.com/mirelle/solace/internal/profile"
	"github.com/mirelle/solace/internal/provider"
)

// Memory is the conversation-memory surface the pipeline consumes.
// Reads degrade to empty structures; writes fail open.
type Memory interface {
	History(ctx context.Context, sessionID string, limit int) []memory.Entry
	EnhancedContext(ctx context.Context, sessionID, userID, query string) memory.EnhancedContext
	Record(ctx context.Context, sessionID, userMsg, response string, meta map[string]any)
}

// Embedder encodes text into fixed-length vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorMemory stores conversation and profile vectors for semantic recall.
type VectorMemory interface {
	StoreConversation(ctx context.Context, userID, text string, meta map[string]string) error
	StoreProfileVector(ctx context.Context, userID string, p *profile.PersonalityProfile) error
}

// ProfileStore persists profile snapshots so they survive restarts.
type ProfileStore interface {
	SaveProfile(ctx context.Context, userID string, profileJSON, assessmentJSON []byte) error
}

// Generator produces the assistant response. Satisfied by *provider.Router.
type Generator interface {
	Chat(ctx context.Context, req *provider.ChatRequest) (*provider.ChatResponse, error)
}

// Relations records turn activity in the relationship graph.
type Relations interface {
	RecordTurn(ctx context.Context, sessionID string) error
}

// Result is the outcome of one orchestration run.
type Result struct {
	Response   string      `json:"message"`
	Mode       dialog.Mode `json:"mode"`
	Confidence float64     `json:"confidence"`
	Timestamp  time.Time   `json:"timestamp"`
}

// Config bounds pipeline behavior.
type Config struct {
	GenerateTimeout time.Duration
	HistoryLimit    int
	Model           string
}
