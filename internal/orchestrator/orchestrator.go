package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mirelle/solace/internal/analyzer"
	"github.com/mirelle/solace/internal/dialog"
	"github.com/mirelle/solace/internal/profile"
	"github.com/mirelle/solace/internal/provider"
)

// Fixed responses for the two failure paths. Generation failure keeps the
// turn alive with fallbackResponse; any other stage failure surfaces
// apologyResponse so the caller never sees a half-mutated silent success.
const (
	fallbackResponse = "I'm here to help you. Could you tell me more about what's on your mind?"
	apologyResponse  = "I apologize, but I ran into an issue processing your message. Please try again."
)

// ErrPipelineFailure labels an unexpected failure inside a pipeline stage.
var ErrPipelineFailure = fmt.Errorf("pipeline failure")

// Orchestrator runs the per-turn pipeline:
//
//	analyze_input → update_personality → update_therapeutic → determine_mode
//	  → get_context (skipped in crisis) → generate_response
//	  → apply_adaptation → update_memory
//
// One run per incoming message; runs for different sessions are independent.
// The only shared mutable state is the per-user profile, serialized by the
// registry.
type Orchestrator struct {
	registry    *profile.Registry
	personality *analyzer.PersonalityAnalyzer
	therapeutic *analyzer.TherapeuticAnalyzer
	selector    *dialog.Selector
	graph       *dialog.Graph

	memory    Memory
	embedder  Embedder
	vectors   VectorMemory
	generator Generator
	relations Relations
	profiles  ProfileStore

	cfg    Config
	logger *zap.Logger
}

// New wires an orchestrator. embedder, vectors, relations, and profiles may
// be nil; the corresponding stages degrade. memory and generator are
// required.
func New(
	registry *profile.Registry,
	personality *analyzer.PersonalityAnalyzer,
	therapeutic *analyzer.TherapeuticAnalyzer,
	selector *dialog.Selector,
	graph *dialog.Graph,
	mem Memory,
	embedder Embedder,
	vectors VectorMemory,
	generator Generator,
	relations Relations,
	profiles ProfileStore,
	cfg Config,
	logger *zap.Logger,
) *Orchestrator {
	if cfg.GenerateTimeout == 0 {
		cfg.GenerateTimeout = 30 * time.Second
	}
	if cfg.HistoryLimit == 0 {
		cfg.HistoryLimit = 10
	}
	return &Orchestrator{
		registry:    registry,
		personality: personality,
		therapeutic: therapeutic,
		selector:    selector,
		graph:       graph,
		memory:      mem,
		embedder:    embedder,
		vectors:     vectors,
		generator:   generator,
		relations:   relations,
		profiles:    profiles,
		cfg:         cfg,
		logger:      logger,
	}
}

// ProcessMessage drives one full turn. It always returns a usable Result:
// on pipeline failure the Result carries the fixed apology and the error is
// returned alongside it for the caller's logging.
func (o *Orchestrator) ProcessMessage(ctx context.Context, userID, sessionID, message string) (result *Result, err error) {
	state := &dialog.TurnState{
		UserID:         userID,
		SessionID:      sessionID,
		CurrentMessage: message,
	}

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("pipeline panic",
				zap.String("session", sessionID), zap.Any("panic", r))
			result = o.apology(state)
			err = fmt.Errorf("%w: panic: %v", ErrPipelineFailure, r)
		}
	}()

	o.analyzeInput(ctx, state)

	if err := o.updatePersonality(ctx, state); err != nil {
		return o.apology(state), fmt.Errorf("%w: update_personality: %v", ErrPipelineFailure, err)
	}
	if err := o.updateTherapeutic(ctx, state); err != nil {
		return o.apology(state), fmt.Errorf("%w: update_therapeutic: %v", ErrPipelineFailure, err)
	}

	state.Mode = o.selector.Select(message, state.Profile, state.Assessment)
	o.logger.Debug("stage determine_mode",
		zap.String("session", sessionID), zap.String("mode", string(state.Mode)))

	// Crisis turns go straight to generation: the response must not wait
	// on non-essential context fetch.
	if state.Mode != dialog.ModeCrisis {
		o.getContext(state)
	}

	o.generateResponse(ctx, state)
	o.applyAdaptation(state)
	o.updateMemory(ctx, state)

	return &Result{
		Response:   state.Response,
		Mode:       state.Mode,
		Confidence: state.Confidence,
		Timestamp:  time.Now().UTC(),
	}, nil
}

func (o *Orchestrator) apology(state *dialog.TurnState) *Result {
	return &Result{
		Response:   apologyResponse,
		Mode:       state.Mode,
		Confidence: 0,
		Timestamp:  time.Now().UTC(),
	}
}

// analyzeInput gathers memory context and the message embedding. Both
// degrade: an empty context is a valid result, never a hang.
func (o *Orchestrator) analyzeInput(ctx context.Context, state *dialog.TurnState) {
	o.logger.Debug("stage analyze_input", zap.String("session", state.SessionID))

	state.MemoryContext = o.memory.EnhancedContext(ctx, state.SessionID, state.UserID, state.CurrentMessage)
	state.ConversationHistory = o.memory.History(ctx, state.SessionID, o.cfg.HistoryLimit)

	if o.embedder == nil {
		return
	}
	vecs, err := o.embedder.Embed(ctx, []string{state.CurrentMessage})
	if err != nil {
		o.logger.Warn("message embedding failed, continuing without vectors", zap.Error(err))
		return
	}
	if len(vecs) > 0 {
		state.ContextVectors = vecs[0]
	}
}

// updatePersonality folds the message into the durable profile under the
// per-user lock, then snapshots it into the turn state.
func (o *Orchestrator) updatePersonality(ctx context.Context, state *dialog.TurnState) error {
	o.logger.Debug("stage update_personality", zap.String("session", state.SessionID))
	return o.registry.Update(ctx, state.UserID, func(p *profile.PersonalityProfile, _ *profile.TherapeuticAssessment) {
		o.personality.UpdateProfile(p, state.CurrentMessage)
		state.Profile = p.Clone()
	})
}

func (o *Orchestrator) updateTherapeutic(ctx context.Context, state *dialog.TurnState) error {
	o.logger.Debug("stage update_therapeutic", zap.String("session", state.SessionID))
	return o.registry.Update(ctx, state.UserID, func(_ *profile.PersonalityProfile, a *profile.TherapeuticAssessment) {
		o.therapeutic.UpdateAssessment(a, state.CurrentMessage)
		state.Assessment = a.Clone()
	})
}

// getContext advances the conversation graph and picks the stage hint.
func (o *Orchestrator) getContext(state *dialog.TurnState) {
	o.logger.Debug("stage get_context", zap.String("session", state.SessionID))
	stage := o.graph.NextStage(dialog.InitialStage, state)
	state.GraphContext = dialog.GraphContext{
		Stage:      stage,
		PromptHint: dialog.PromptHint(stage, state),
	}
}

// generateResponse calls the generation collaborator under a mandatory
// timeout. Failure substitutes the fixed fallback at confidence 0.3 and the
// pipeline continues so the turn is still recorded.
func (o *Orchestrator) generateResponse(ctx context.Context, state *dialog.TurnState) {
	o.logger.Debug("stage generate_response", zap.String("session", state.SessionID))

	messages := []provider.Message{{Role: "system", Content: buildSystemPrompt(state)}}
	history := state.ConversationHistory
	if len(history) > 6 {
		history = history[len(history)-6:]
	}
	for _, e := range history {
		role := e.Role
		if role != "user" {
			role = "assistant"
		}
		messages = append(messages, provider.Message{Role: role, Content: e.Content})
	}
	messages = append(messages, provider.Message{Role: "user", Content: state.CurrentMessage})

	genCtx, cancel := context.WithTimeout(ctx, o.cfg.GenerateTimeout)
	defer cancel()

	resp, err := o.generator.Chat(genCtx, &provider.ChatRequest{
		Model:    o.cfg.Model,
		Messages: messages,
	})
	if err != nil {
		o.logger.Warn("response generation failed, using fallback",
			zap.String("session", state.SessionID), zap.Error(err))
		state.Response = fallbackResponse
		state.Confidence = 0.3
		return
	}
	state.Response = resp.Content
	state.Confidence = 0.8
}

// applyAdaptation records one behavioral adjustment per turn after the
// first and folds its effectiveness into the turn confidence.
func (o *Orchestrator) applyAdaptation(state *dialog.TurnState) {
	o.logger.Debug("stage apply_adaptation", zap.String("session", state.SessionID))
	if len(state.ConversationHistory) == 0 {
		return
	}
	effectiveness := state.Profile.ConfidenceScore
	state.Adaptations = append(state.Adaptations, dialog.Adaptation{
		ID:            uuid.NewString(),
		Kind:          "style_adjustment",
		Target:        string(state.Mode),
		Effectiveness: effectiveness,
		CreatedAt:     time.Now().UTC(),
	})
	state.Confidence = min(state.Confidence+effectiveness*0.1, 1.0)
}

// updateMemory persists the exchange everywhere: durable store and cache,
// vector index, relation graph. Every write fails open — losing a memory
// write must not fail a turn that already has a response.
func (o *Orchestrator) updateMemory(ctx context.Context, state *dialog.TurnState) {
	o.logger.Debug("stage update_memory", zap.String("session", state.SessionID))

	o.memory.Record(ctx, state.SessionID, state.CurrentMessage, state.Response, map[string]any{
		"mode":                   string(state.Mode),
		"confidence":             state.Confidence,
		"personality_confidence": state.Profile.ConfidenceScore,
		"mood_score":             state.Assessment.MoodScore,
		"anxiety_level":          state.Assessment.AnxietyLevel,
	})

	if o.vectors != nil {
		text := fmt.Sprintf("User: %s\nSolace: %s", state.CurrentMessage, state.Response)
		err := o.vectors.StoreConversation(ctx, state.UserID, text, map[string]string{
			"mode":       string(state.Mode),
			"session_id": state.SessionID,
		})
		if err != nil {
			o.logger.Warn("conversation vector store failed", zap.Error(err))
		}
		if err := o.vectors.StoreProfileVector(ctx, state.UserID, state.Profile); err != nil {
			o.logger.Warn("profile vector store failed", zap.Error(err))
		}
	}

	if o.relations != nil {
		if err := o.relations.RecordTurn(ctx, state.SessionID); err != nil {
			o.logger.Warn("relation turn record failed", zap.Error(err))
		}
	}

	if o.profiles != nil {
		profileJSON, _ := json.Marshal(state.Profile)
		assessmentJSON, _ := json.Marshal(state.Assessment)
		if err := o.profiles.SaveProfile(ctx, state.UserID, profileJSON, assessmentJSON); err != nil {
			o.logger.Warn("profile snapshot save failed", zap.Error(err))
		}
	}
}
