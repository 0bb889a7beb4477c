package recall

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mirelle/solace/internal/memory"
	"github.com/mirelle/solace/internal/profile"
	"github.com/mirelle/solace/internal/vectorstore"
)

const (
	// ConversationCollection stores embedded user messages.
	ConversationCollection = "conversations"
	// ProfileCollection stores personality vectors for cross-user analysis.
	ProfileCollection = "profiles"
)

// Embedder turns text into vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// Index is the vector store surface the service needs. Satisfied by
// *vectorstore.Client.
type Index interface {
	EnsureCollection(ctx context.Context, name string, dimension uint64) error
	Upsert(ctx context.Context, collection, id string, vector []float32, payload map[string]string) error
	Search(ctx context.Context, collection string, vector []float32, topK uint64, filter map[string]string) ([]*vectorstore.SearchResult, error)
}

// Service provides semantic memory: it embeds conversations and profiles
// into the vector index and retrieves similar past conversations per user.
type Service struct {
	embedder Embedder
	index    Index
	logger   *zap.Logger
}

// NewService wires a recall service. Call Init before first use.
func NewService(embedder Embedder, index Index, logger *zap.Logger) *Service {
	return &Service{embedder: embedder, index: index, logger: logger}
}

// Init ensures both collections exist at the embedder's dimension.
func (s *Service) Init(ctx context.Context) error {
	dim := uint64(s.embedder.Dimension())
	for _, name := range []string{ConversationCollection, ProfileCollection} {
		if err := s.index.EnsureCollection(ctx, name, dim); err != nil {
			return fmt.Errorf("ensure collection %s: %w", name, err)
		}
	}
	return nil
}

// StoreConversation embeds one user message and upserts it with its
// metadata. The point ID is a fresh UUID.
func (s *Service) StoreConversation(ctx context.Context, userID, text string, meta map[string]string) error {
	vecs, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return fmt.Errorf("embed conversation: %w", err)
	}
	if len(vecs) == 0 {
		return fmt.Errorf("embed conversation: empty result")
	}

	payload := map[string]string{
		"user_id":   userID,
		"text":      text,
		"stored_at": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range meta {
		payload[k] = v
	}

	id := uuid.NewString()
	if err := s.index.Upsert(ctx, ConversationCollection, id, vecs[0], payload); err != nil {
		return fmt.Errorf("upsert conversation: %w", err)
	}
	s.logger.Debug("conversation indexed",
		zap.String("user", userID), zap.String("point", id))
	return nil
}

// SearchSimilar returns up to topK past conversations of the same user,
// most similar first.
func (s *Service) SearchSimilar(ctx context.Context, query, userID string, topK int) ([]memory.SimilarConversation, error) {
	vecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) == 0 {
		return nil, nil
	}

	hits, err := s.index.Search(ctx, ConversationCollection, vecs[0], uint64(topK),
		map[string]string{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("search conversations: %w", err)
	}

	similar := make([]memory.SimilarConversation, 0, len(hits))
	for _, h := range hits {
		similar = append(similar, memory.SimilarConversation{
			ID:         h.ID,
			Similarity: float64(h.Score),
			Metadata:   h.Payload,
		})
	}
	sort.SliceStable(similar, func(i, j int) bool {
		return similar[i].Similarity > similar[j].Similarity
	})
	return similar, nil
}

// StoreProfileVector flattens a personality profile into a vector
// (trait values followed by style values, zero-padded to the embedding
// dimension) and upserts it keyed by a per-user deterministic UUID so
// each user keeps exactly one profile point.
func (s *Service) StoreProfileVector(ctx context.Context, userID string, p *profile.PersonalityProfile) error {
	dim := s.embedder.Dimension()
	vector := make([]float32, 0, dim)
	for _, trait := range profile.AllTraits {
		vector = append(vector, float32(p.Traits[trait]))
	}
	for _, style := range profile.AllStyles {
		vector = append(vector, float32(p.Styles[style]))
	}
	if len(vector) > dim {
		vector = vector[:dim]
	}
	for len(vector) < dim {
		vector = append(vector, 0)
	}

	payload := map[string]string{
		"user_id":    userID,
		"confidence": fmt.Sprintf("%.2f", p.ConfidenceScore),
		"updated_at": p.LastUpdated.UTC().Format(time.RFC3339),
	}
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte("profile:"+userID)).String()
	if err := s.index.Upsert(ctx, ProfileCollection, id, vector, payload); err != nil {
		return fmt.Errorf("upsert profile vector: %w", err)
	}
	return nil
}
