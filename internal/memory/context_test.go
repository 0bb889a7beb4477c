package memory

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

type fakeHistory struct {
	entries  []Entry
	sessions int
	err      error
	appends  int
}

func (f *fakeHistory) History(_ context.Context, _ string, _ int) ([]Entry, error) {
	return f.entries, f.err
}

func (f *fakeHistory) SessionCount(_ context.Context, _ string) (int, error) {
	return f.sessions, f.err
}

func (f *fakeHistory) AppendExchange(_ context.Context, _, _, _ string, _ map[string]any) error {
	f.appends++
	return f.err
}

type fakeRecall struct {
	hits []SimilarConversation
	err  error
}

func (f *fakeRecall) SearchSimilar(_ context.Context, _, _ string, _ int) ([]SimilarConversation, error) {
	return f.hits, f.err
}

type fakeRelations struct {
	rc  RelationshipContext
	err error
}

func (f *fakeRelations) RelationshipContext(_ context.Context, _ string) (RelationshipContext, error) {
	return f.rc, f.err
}

func TestEnhancedContextAssembly(t *testing.T) {
	store := &fakeHistory{
		entries: []Entry{
			{Role: "user", Content: "I am happy but a bit worried"},
			{Role: "assistant", Content: "Tell me more."},
		},
		sessions: 3,
	}
	recall := &fakeRecall{hits: []SimilarConversation{{ID: "v1", Similarity: 0.92}}}
	relations := &fakeRelations{rc: RelationshipContext{Connections: 4, RelationshipStrength: 0.4}}

	svc := NewService(store, nil, recall, relations, zap.NewNop())
	ec := svc.EnhancedContext(context.Background(), "s1", "u1", "how are you")

	if len(ec.RecentHistory) != 2 {
		t.Fatalf("recent history = %d entries, want 2", len(ec.RecentHistory))
	}
	if ec.UserPatterns.TotalSessions != 3 {
		t.Errorf("total sessions = %d, want 3", ec.UserPatterns.TotalSessions)
	}
	// "happy" -> joy, "worried" -> anxiety; assistant turns are skipped.
	if len(ec.UserPatterns.EmotionalProgression) != 2 {
		t.Errorf("emotional progression = %v, want 2 indicators", ec.UserPatterns.EmotionalProgression)
	}
	if ec.Semantic.ContextStrength != 1 {
		t.Errorf("context strength = %v, want 1", ec.Semantic.ContextStrength)
	}
	if ec.Relationship.Connections != 4 {
		t.Errorf("connections = %d, want 4", ec.Relationship.Connections)
	}
}

func TestEnhancedContextDegradesToEmpty(t *testing.T) {
	boom := errors.New("down")
	svc := NewService(
		&fakeHistory{err: boom},
		nil,
		&fakeRecall{err: boom},
		&fakeRelations{err: boom},
		zap.NewNop(),
	)

	ec := svc.EnhancedContext(context.Background(), "s1", "u1", "hello")
	if len(ec.RecentHistory) != 0 {
		t.Error("expected empty history on failure")
	}
	if ec.UserPatterns.TotalSessions != 0 {
		t.Error("expected zero sessions on failure")
	}
	if len(ec.Semantic.SimilarConversations) != 0 {
		t.Error("expected empty semantic context on failure")
	}
	if ec.Relationship.Connections != 0 {
		t.Error("expected empty relationship context on failure")
	}
}

func TestRecordSwallowsStoreErrors(t *testing.T) {
	store := &fakeHistory{err: errors.New("down")}
	svc := NewService(store, nil, nil, nil, zap.NewNop())

	// Must not panic or surface the error.
	svc.Record(context.Background(), "s1", "hi", "hello", map[string]any{"mode": "companion"})
	if store.appends != 1 {
		t.Fatalf("appends = %d, want 1", store.appends)
	}
}

func TestEmotionalIndicators(t *testing.T) {
	got := emotionalIndicators("I feel calm but also a little angry and SAD")
	want := []string{"sadness", "anger", "calm"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("indicator[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
