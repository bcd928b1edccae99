package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rag-komite-audit/server/internal/agent/model"
)

// fakeRedis implements the handful of list commands the cache uses over an
// in-memory map. The embedded Cmdable panics on anything else, which is the
// point: new commands should show up here explicitly.
type fakeRedis struct {
	redis.Cmdable
	lists map[string][]string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{lists: map[string][]string{}}
}

func (f *fakeRedis) bounds(key string, start, stop int64) (int, int) {
	n := int64(len(f.lists[key]))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || n == 0 {
		return 0, 0
	}
	return int(start), int(stop + 1)
}

func (f *fakeRedis) RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	for _, v := range values {
		switch val := v.(type) {
		case []byte:
			f.lists[key] = append(f.lists[key], string(val))
		case string:
			f.lists[key] = append(f.lists[key], val)
		default:
			f.lists[key] = append(f.lists[key], fmt.Sprint(val))
		}
	}
	return redis.NewIntResult(int64(len(f.lists[key])), nil)
}

func (f *fakeRedis) LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd {
	lo, hi := f.bounds(key, start, stop)
	f.lists[key] = f.lists[key][lo:hi]
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd {
	lo, hi := f.bounds(key, start, stop)
	out := make([]string, hi-lo)
	copy(out, f.lists[key][lo:hi])
	return redis.NewStringSliceResult(out, nil)
}

func (f *fakeRedis) Expire(ctx context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	_, ok := f.lists[key]
	return redis.NewBoolResult(ok, nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, key := range keys {
		if _, ok := f.lists[key]; ok {
			delete(f.lists, key)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) LLen(ctx context.Context, key string) *redis.IntCmd {
	return redis.NewIntResult(int64(len(f.lists[key])), nil)
}

type fakeSource struct {
	turns []model.ConversationTurn
	calls int
}

func (f *fakeSource) GetConversationHistory(ctx context.Context, sessionID string, limit int) ([]model.ConversationTurn, error) {
	f.calls++
	if limit < len(f.turns) {
		return f.turns[:limit], nil
	}
	return f.turns, nil
}

func turn(i int) model.ConversationTurn {
	return model.ConversationTurn{
		ID:            fmt.Sprintf("conv-%d", i),
		SessionID:     "sess-1",
		UserQuery:     fmt.Sprintf("pertanyaan %d", i),
		AgentResponse: fmt.Sprintf("jawaban %d", i),
	}
}

func TestAppendAndRecentTurns(t *testing.T) {
	ctx := context.Background()
	cache := NewCache(newFakeRedis(), &fakeSource{}, time.Minute, 5)

	for i := 1; i <= 3; i++ {
		if err := cache.AppendTurn(ctx, turn(i)); err != nil {
			t.Fatal(err)
		}
	}

	turns, err := cache.RecentTurns(ctx, "sess-1", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 3 {
		t.Fatalf("got %d turns", len(turns))
	}
	for i, tr := range turns {
		if tr.ID != fmt.Sprintf("conv-%d", i+1) {
			t.Errorf("turn %d: got %q, want chronological order", i, tr.ID)
		}
	}
}

func TestAppendTrimsToRetentionWindow(t *testing.T) {
	ctx := context.Background()
	cache := NewCache(newFakeRedis(), &fakeSource{}, time.Minute, 3)

	for i := 1; i <= 5; i++ {
		if err := cache.AppendTurn(ctx, turn(i)); err != nil {
			t.Fatal(err)
		}
	}

	n, err := cache.TurnCount(ctx, "sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("turn count: got %d, want 3", n)
	}

	turns, err := cache.RecentTurns(ctx, "sess-1", 3)
	if err != nil {
		t.Fatal(err)
	}
	if turns[0].ID != "conv-3" || turns[2].ID != "conv-5" {
		t.Errorf("retained turns: got %q..%q, want conv-3..conv-5", turns[0].ID, turns[2].ID)
	}
}

func TestRecentTurnsLimitsResult(t *testing.T) {
	ctx := context.Background()
	cache := NewCache(newFakeRedis(), &fakeSource{}, time.Minute, 5)

	for i := 1; i <= 5; i++ {
		if err := cache.AppendTurn(ctx, turn(i)); err != nil {
			t.Fatal(err)
		}
	}

	turns, err := cache.RecentTurns(ctx, "sess-1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 2 {
		t.Fatalf("got %d turns, want 2", len(turns))
	}
	if turns[0].ID != "conv-4" || turns[1].ID != "conv-5" {
		t.Errorf("got %q, %q", turns[0].ID, turns[1].ID)
	}
}

func TestRecentTurnsBackfillsFromSource(t *testing.T) {
	ctx := context.Background()
	// Source returns newest first, the way the conversations table is read.
	source := &fakeSource{turns: []model.ConversationTurn{turn(3), turn(2), turn(1)}}
	cache := NewCache(newFakeRedis(), source, time.Minute, 5)

	turns, err := cache.RecentTurns(ctx, "sess-1", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 3 {
		t.Fatalf("got %d turns", len(turns))
	}
	if turns[0].ID != "conv-1" || turns[2].ID != "conv-3" {
		t.Errorf("backfill order: got %q..%q, want chronological", turns[0].ID, turns[2].ID)
	}

	// The second read should be served from the cache.
	if _, err := cache.RecentTurns(ctx, "sess-1", 5); err != nil {
		t.Fatal(err)
	}
	if source.calls != 1 {
		t.Errorf("source calls: got %d, want 1", source.calls)
	}
}

func TestRecentTurnsEmptySession(t *testing.T) {
	ctx := context.Background()
	cache := NewCache(newFakeRedis(), &fakeSource{}, time.Minute, 5)

	turns, err := cache.RecentTurns(ctx, "sess-unknown", 5)
	if err != nil {
		t.Fatal(err)
	}
	if turns == nil || len(turns) != 0 {
		t.Errorf("got %v, want empty slice", turns)
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	cache := NewCache(newFakeRedis(), &fakeSource{}, time.Minute, 5)

	if err := cache.AppendTurn(ctx, turn(1)); err != nil {
		t.Fatal(err)
	}
	if err := cache.Clear(ctx, "sess-1"); err != nil {
		t.Fatal(err)
	}
	n, err := cache.TurnCount(ctx, "sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("turn count after clear: got %d", n)
	}
}
