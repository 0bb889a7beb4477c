package memory

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// HistorySource provides durable conversation history.
type HistorySource interface {
	History(ctx context.Context, sessionID string, limit int) ([]Entry, error)
	SessionCount(ctx context.Context, userID string) (int, error)
	AppendExchange(ctx context.Context, sessionID, userMsg, response string, meta map[string]any) error
}

// Recall searches past conversations by semantic similarity.
type Recall interface {
	SearchSimilar(ctx context.Context, query, userID string, topK int) ([]SimilarConversation, error)
}

// Relations reports relationship-graph context for a user.
type Relations interface {
	RelationshipContext(ctx context.Context, userID string) (RelationshipContext, error)
}

// Service assembles conversation memory from the durable store, the hot
// cache, vector recall, and the relation graph. Per the collaborator
// contract, reads never fail the caller: any sub-fetch that errors is
// logged and replaced with an empty structure.
type Service struct {
	store     HistorySource
	cache     *Cache
	recall    Recall
	relations Relations
	logger    *zap.Logger
}

// NewService wires a memory service. cache, recall, and relations may be
// nil; the service degrades accordingly.
func NewService(store HistorySource, cache *Cache, recall Recall, relations Relations, logger *zap.Logger) *Service {
	return &Service{store: store, cache: cache, recall: recall, relations: relations, logger: logger}
}

// History returns recent session history, most-recent-last. Prefers the
// hot cache, falls back to the store, degrades to empty.
func (s *Service) History(ctx context.Context, sessionID string, limit int) []Entry {
	if s.cache != nil {
		if entries := s.cache.Recent(ctx, sessionID, limit); entries != nil {
			return entries
		}
	}
	if s.store == nil {
		return nil
	}
	entries, err := s.store.History(ctx, sessionID, limit)
	if err != nil {
		s.logger.Warn("history fetch failed, degrading to empty",
			zap.String("session", sessionID), zap.Error(err))
		return nil
	}
	return entries
}

// EnhancedContext gathers the full memory context for one turn.
func (s *Service) EnhancedContext(ctx context.Context, sessionID, userID, query string) EnhancedContext {
	ec := EnhancedContext{
		RecentHistory: s.History(ctx, sessionID, 10),
	}

	ec.UserPatterns = s.userPatterns(ctx, userID, ec.RecentHistory)

	if s.recall != nil {
		hits, err := s.recall.SearchSimilar(ctx, query, userID, 3)
		if err != nil {
			s.logger.Warn("semantic recall failed", zap.Error(err))
		} else {
			ec.Semantic = SemanticContext{
				SimilarConversations: hits,
				ContextStrength:      float64(len(hits)),
			}
		}
	}

	if s.relations != nil {
		rc, err := s.relations.RelationshipContext(ctx, userID)
		if err != nil {
			s.logger.Warn("relationship context failed", zap.Error(err))
		} else {
			ec.Relationship = rc
		}
	}

	return ec
}

// Record persists one exchange. Storage failures are logged, not
// propagated: losing one memory write must not fail the turn.
func (s *Service) Record(ctx context.Context, sessionID, userMsg, response string, meta map[string]any) {
	if s.store != nil {
		if err := s.store.AppendExchange(ctx, sessionID, userMsg, response, meta); err != nil {
			s.logger.Warn("exchange persistence failed",
				zap.String("session", sessionID), zap.Error(err))
		}
	}
	if s.cache != nil {
		s.cache.Push(ctx, sessionID,
			Entry{Role: "user", Content: userMsg, Metadata: meta},
			Entry{Role: "assistant", Content: response, Metadata: meta},
		)
	}
}

func (s *Service) userPatterns(ctx context.Context, userID string, recent []Entry) UserPatterns {
	p := UserPatterns{}
	if s.store != nil {
		n, err := s.store.SessionCount(ctx, userID)
		if err != nil {
			s.logger.Warn("session count failed", zap.Error(err))
		} else {
			p.TotalSessions = n
		}
	}
	for _, e := range recent {
		if e.Role == "user" {
			p.EmotionalProgression = append(p.EmotionalProgression, emotionalIndicators(e.Content)...)
		}
	}
	return p
}

var emotionOrder = []string{"joy", "sadness", "anxiety", "anger", "calm"}

var emotionKeywords = map[string][]string{
	"joy":     {"happy", "excited", "wonderful", "great", "amazing"},
	"sadness": {"sad", "down", "depressed", "blue", "unhappy"},
	"anxiety": {"anxious", "worried", "nervous", "scared", "stressed"},
	"anger":   {"angry", "frustrated", "mad", "annoyed", "irritated"},
	"calm":    {"calm", "peaceful", "relaxed", "serene", "tranquil"},
}

// emotionalIndicators tags a message with the emotion categories whose
// keywords it mentions.
func emotionalIndicators(text string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, emotion := range emotionOrder {
		for _, kw := range emotionKeywords[emotion] {
			if strings.Contains(lower, kw) {
				found = append(found, emotion)
				break
			}
		}
	}
	return found
}
