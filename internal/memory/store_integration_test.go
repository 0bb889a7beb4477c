package memory

import (
	"context"
	"testing"
	"time"

	tcpg "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"go.uber.org/zap"
)

func startTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	container, err := tcpg.Run(ctx, "postgres:16-alpine",
		tcpg.WithDatabase("solace_test"),
		tcpg.WithUsername("test"),
		tcpg.WithPassword("test"),
		tcpg.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() { container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("pg connection string: %v", err)
	}

	store, err := NewStore(dsn, zap.NewNop())
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(store.Close)

	if err := store.Migrate(ctx, "../../migrations"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func TestStoreSessionLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	store := startTestStore(t)
	ctx := context.Background()

	sessionID, err := store.CreateSession(ctx, "user-1")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	owner, err := store.SessionUser(ctx, sessionID)
	if err != nil {
		t.Fatalf("session user: %v", err)
	}
	if owner != "user-1" {
		t.Errorf("owner = %q, want user-1", owner)
	}

	if _, err := store.CreateSession(ctx, "user-1"); err != nil {
		t.Fatalf("create second session: %v", err)
	}
	n, err := store.SessionCount(ctx, "user-1")
	if err != nil {
		t.Fatalf("session count: %v", err)
	}
	if n != 2 {
		t.Errorf("session count = %d, want 2", n)
	}
}

func TestStoreSessionUserNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	store := startTestStore(t)

	_, err := store.SessionUser(context.Background(), "00000000-0000-0000-0000-000000000000")
	if err != ErrSessionNotFound {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestStoreExchangeHistoryOrder(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	store := startTestStore(t)
	ctx := context.Background()

	sessionID, err := store.CreateSession(ctx, "user-1")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	meta := map[string]any{"mode": "companion"}
	for i, pair := range [][2]string{
		{"first question", "first answer"},
		{"second question", "second answer"},
	} {
		if err := store.AppendExchange(ctx, sessionID, pair[0], pair[1], meta); err != nil {
			t.Fatalf("append exchange %d: %v", i, err)
		}
		time.Sleep(10 * time.Millisecond) // distinct created_at per exchange
	}

	entries, err := store.History(ctx, sessionID, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("got %d entries, want 4", len(entries))
	}
	last := entries[len(entries)-1]
	if last.Role != "assistant" || last.Content != "second answer" {
		t.Errorf("last entry = %+v, want most recent assistant message", last)
	}
	if entries[0].Metadata["mode"] != "companion" {
		t.Errorf("metadata = %v, want mode preserved", entries[0].Metadata)
	}
}

func TestStoreProfileRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	store := startTestStore(t)
	ctx := context.Background()

	p, a, err := store.LoadProfile(ctx, "user-1")
	if err != nil {
		t.Fatalf("load absent profile: %v", err)
	}
	if p != nil || a != nil {
		t.Error("expected nil payloads for unknown user")
	}

	if err := store.SaveProfile(ctx, "user-1", []byte(`{"confidence_score":0.5}`), []byte(`{"mood_score":6.0}`)); err != nil {
		t.Fatalf("save profile: %v", err)
	}
	if err := store.SaveProfile(ctx, "user-1", []byte(`{"confidence_score":0.6}`), []byte(`{"mood_score":6.5}`)); err != nil {
		t.Fatalf("upsert profile: %v", err)
	}

	p, _, err = store.LoadProfile(ctx, "user-1")
	if err != nil {
		t.Fatalf("load profile: %v", err)
	}
	if string(p) != `{"confidence_score": 0.6}` && string(p) != `{"confidence_score":0.6}` {
		t.Errorf("profile = %s, want latest upsert", p)
	}
}

func TestCacheHistoryWindow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("start redis: %v", err)
	}
	t.Cleanup(func() { container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("redis endpoint: %v", err)
	}

	cache, err := NewCache("redis://"+endpoint, zap.NewNop())
	if err != nil {
		t.Fatalf("create cache: %v", err)
	}
	t.Cleanup(func() { cache.Close() })

	cache.Push(ctx, "sess-1",
		Entry{Role: "user", Content: "hello"},
		Entry{Role: "assistant", Content: "hi there"},
	)

	entries := cache.Recent(ctx, "sess-1", 10)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[1].Content != "hi there" {
		t.Errorf("last entry = %q, want most recent", entries[1].Content)
	}

	if got := cache.Recent(ctx, "sess-unknown", 10); got != nil {
		t.Errorf("unknown session = %v, want nil", got)
	}
}
