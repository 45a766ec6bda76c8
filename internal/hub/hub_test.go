package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/abhikumar45444/movie-night-decider/internal/consensus"
	"github.com/abhikumar45444/movie-night-decider/internal/domain"
)

// fakeStore is a single-room in-memory Store with fault injection.
type fakeStore struct {
	mu     sync.Mutex
	parts  []domain.Participant
	movies []domain.Movie
	votes  map[string]domain.Vote

	nextID   int
	failures map[string]int // op -> remaining injected failures
	calls    map[string]int
}

func newFakeStore(movieIDs ...int64) *fakeStore {
	f := &fakeStore{
		votes:    make(map[string]domain.Vote),
		failures: make(map[string]int),
		calls:    make(map[string]int),
	}
	for _, id := range movieIDs {
		f.movies = append(f.movies, domain.Movie{ID: id, Title: fmt.Sprintf("movie-%d", id)})
	}
	return f
}

func (f *fakeStore) step(op string) error {
	f.calls[op]++
	if f.failures[op] > 0 {
		f.failures[op]--
		return errors.New(op + ": injected failure")
	}
	return nil
}

func (f *fakeStore) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeStore) Admit(_ context.Context, roomCode, username string) (*domain.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.step("admit"); err != nil {
		return nil, err
	}
	f.nextID++
	p := domain.Participant{
		UserID:   fmt.Sprintf("u%d", f.nextID),
		Username: username,
		RoomCode: roomCode,
	}
	f.parts = append(f.parts, p)
	return &p, nil
}

func (f *fakeStore) Remove(_ context.Context, _, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.step("remove"); err != nil {
		return false, err
	}
	for i, p := range f.parts {
		if p.UserID == userID {
			f.parts = append(f.parts[:i], f.parts[i+1:]...)
			for key := range f.votes {
				if strings.HasPrefix(key, userID+"/") {
					delete(f.votes, key)
				}
			}
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) Participants(_ context.Context, _ string) ([]domain.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.step("participants"); err != nil {
		return nil, err
	}
	return append([]domain.Participant(nil), f.parts...), nil
}

func (f *fakeStore) RecordVote(_ context.Context, roomCode, userID string, movieID int64, yes bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.step("record"); err != nil {
		return err
	}
	inRoom := false
	for _, p := range f.parts {
		if p.UserID == userID {
			inRoom = true
		}
	}
	if !inRoom {
		return domain.ErrNotInRoom
	}
	known := false
	for _, m := range f.movies {
		if m.ID == movieID {
			known = true
		}
	}
	if !known {
		return domain.ErrMovieNotInRoom
	}
	f.votes[fmt.Sprintf("%s/%d", userID, movieID)] = domain.Vote{
		RoomCode: roomCode, UserID: userID, MovieID: movieID, Yes: yes,
	}
	return nil
}

func (f *fakeStore) Progress(_ context.Context, _ string) (domain.Progress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.step("progress"); err != nil {
		return domain.Progress{}, err
	}
	votes := make([]domain.Vote, 0, len(f.votes))
	for _, v := range f.votes {
		votes = append(votes, v)
	}
	return consensus.Compute(f.parts, f.movies, votes).Progress, nil
}

func (f *fakeStore) voteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.votes)
}

func (h *Hub) roomCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}

func testOptions() Options {
	return Options{
		SendBuffer:    32,
		IdleAfter:     time.Minute,
		RetryAttempts: 2,
		RetryDelay:    time.Millisecond,
	}
}

func nextEvent(t *testing.T, sub *Subscriber) map[string]any {
	t.Helper()
	select {
	case payload, ok := <-sub.Events():
		if !ok {
			t.Fatal("subscriber channel closed while waiting for an event")
		}
		var m map[string]any
		if err := json.Unmarshal(payload, &m); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for an event")
	}
	return nil
}

func expectNoEvent(t *testing.T, sub *Subscriber) {
	t.Helper()
	select {
	case payload, ok := <-sub.Events():
		if ok {
			t.Fatalf("unexpected event: %s", payload)
		}
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSubscribeDeliversConnectedSnapshot(t *testing.T) {
	store := newFakeStore(1, 2)
	h := New(store, testOptions())
	ctx := context.Background()

	p, err := h.Join(ctx, "ABC123", "alice")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}

	sub, err := h.Subscribe(ctx, "ABC123", p.UserID)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer h.Unsubscribe(sub)

	evt := nextEvent(t, sub)
	if evt["type"] != TypeConnected {
		t.Fatalf("first event type = %v, want connected", evt["type"])
	}
	if evt["message"] != "Connected to room ABC123" {
		t.Errorf("message = %v", evt["message"])
	}
	parts, _ := evt["participants"].([]any)
	if len(parts) != 1 {
		t.Fatalf("participants = %v, want one entry", evt["participants"])
	}
	progress, _ := evt["progress"].(map[string]any)
	if progress["total_movies"] != float64(2) || progress["participants"] != float64(1) {
		t.Errorf("progress = %v", progress)
	}
}

func TestEventOrderFollowsCommandOrder(t *testing.T) {
	store := newFakeStore(1)
	h := New(store, testOptions())
	ctx := context.Background()

	watcher, err := h.Join(ctx, "ABC123", "watcher")
	if err != nil {
		t.Fatalf("Join watcher: %v", err)
	}
	sub, err := h.Subscribe(ctx, "ABC123", watcher.UserID)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer h.Unsubscribe(sub)
	nextEvent(t, sub) // connected

	p, err := h.Join(ctx, "ABC123", "bob")
	if err != nil {
		t.Fatalf("Join bob: %v", err)
	}
	if _, err := h.Vote(ctx, "ABC123", p.UserID, 1, true); err != nil {
		t.Fatalf("Vote: %v", err)
	}
	if err := h.Leave(ctx, "ABC123", p.UserID); err != nil {
		t.Fatalf("Leave: %v", err)
	}

	want := []string{TypeUserJoined, TypeVoteUpdate, TypeUserLeft}
	for _, wantType := range want {
		evt := nextEvent(t, sub)
		if evt["type"] != wantType {
			t.Fatalf("event type = %v, want %v", evt["type"], wantType)
		}
	}
}

func TestAllSubscribersSeeTheSameOrder(t *testing.T) {
	store := newFakeStore(1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
	h := New(store, testOptions())
	ctx := context.Background()

	a, err := h.Join(ctx, "ABC123", "alice")
	if err != nil {
		t.Fatalf("Join alice: %v", err)
	}
	b, err := h.Join(ctx, "ABC123", "bob")
	if err != nil {
		t.Fatalf("Join bob: %v", err)
	}

	subA, err := h.Subscribe(ctx, "ABC123", a.UserID)
	if err != nil {
		t.Fatalf("Subscribe alice: %v", err)
	}
	defer h.Unsubscribe(subA)
	subB, err := h.Subscribe(ctx, "ABC123", b.UserID)
	if err != nil {
		t.Fatalf("Subscribe bob: %v", err)
	}
	defer h.Unsubscribe(subB)
	nextEvent(t, subA)
	nextEvent(t, subB)

	const votesEach = 10
	var wg sync.WaitGroup
	for _, voter := range []string{a.UserID, b.UserID} {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			for i := 1; i <= votesEach; i++ {
				if _, err := h.Vote(ctx, "ABC123", userID, int64(i), true); err != nil {
					t.Errorf("Vote(%s, %d): %v", userID, i, err)
				}
			}
		}(voter)
	}
	wg.Wait()

	seqOf := func(sub *Subscriber) []string {
		seq := make([]string, 0, 2*votesEach)
		for i := 0; i < 2*votesEach; i++ {
			evt := nextEvent(t, sub)
			seq = append(seq, fmt.Sprintf("%v/%v", evt["movie_id"], evt["progress"]))
		}
		return seq
	}
	seqA := seqOf(subA)
	seqB := seqOf(subB)

	for i := range seqA {
		if seqA[i] != seqB[i] {
			t.Fatalf("subscribers diverged at event %d: %q vs %q", i, seqA[i], seqB[i])
		}
	}
}

func TestLeaveIsIdempotent(t *testing.T) {
	store := newFakeStore(1)
	h := New(store, testOptions())
	ctx := context.Background()

	watcher, _ := h.Join(ctx, "ABC123", "watcher")
	sub, err := h.Subscribe(ctx, "ABC123", watcher.UserID)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer h.Unsubscribe(sub)
	nextEvent(t, sub)

	p, _ := h.Join(ctx, "ABC123", "bob")
	nextEvent(t, sub) // user_joined

	if err := h.Leave(ctx, "ABC123", p.UserID); err != nil {
		t.Fatalf("first Leave: %v", err)
	}
	evt := nextEvent(t, sub)
	if evt["type"] != TypeUserLeft || evt["user_id"] != p.UserID {
		t.Fatalf("event = %v, want user_left for %s", evt, p.UserID)
	}

	if err := h.Leave(ctx, "ABC123", p.UserID); err != nil {
		t.Fatalf("repeated Leave: %v", err)
	}
	expectNoEvent(t, sub)
}

func TestVoteValidationFailsWithoutBroadcast(t *testing.T) {
	store := newFakeStore(1)
	h := New(store, testOptions())
	ctx := context.Background()

	watcher, _ := h.Join(ctx, "ABC123", "watcher")
	sub, err := h.Subscribe(ctx, "ABC123", watcher.UserID)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer h.Unsubscribe(sub)
	nextEvent(t, sub)

	if _, err := h.Vote(ctx, "ABC123", "stranger", 1, true); !errors.Is(err, domain.ErrNotInRoom) {
		t.Fatalf("err = %v, want ErrNotInRoom", err)
	}
	if got := store.callCount("record"); got != 1 {
		t.Errorf("record called %d times, want 1 (no retry on validation errors)", got)
	}
	if store.voteCount() != 0 {
		t.Error("ledger changed on a rejected vote")
	}
	expectNoEvent(t, sub)

	if _, err := h.Vote(ctx, "ABC123", watcher.UserID, 999, true); !errors.Is(err, domain.ErrMovieNotInRoom) {
		t.Fatalf("err = %v, want ErrMovieNotInRoom", err)
	}
}

func TestTransientStoreFailureIsRetried(t *testing.T) {
	store := newFakeStore(1)
	h := New(store, testOptions())
	ctx := context.Background()

	p, _ := h.Join(ctx, "ABC123", "alice")

	store.mu.Lock()
	store.failures["record"] = 2
	store.mu.Unlock()

	if _, err := h.Vote(ctx, "ABC123", p.UserID, 1, true); err != nil {
		t.Fatalf("Vote should survive two transient failures: %v", err)
	}
	if got := store.callCount("record"); got != 3 {
		t.Errorf("record called %d times, want 3", got)
	}
}

func TestStoreOutageSurfacesAsUnavailable(t *testing.T) {
	store := newFakeStore(1)
	h := New(store, testOptions())
	ctx := context.Background()

	store.mu.Lock()
	store.failures["admit"] = 10
	store.mu.Unlock()

	_, err := h.Join(ctx, "ABC123", "alice")
	if !errors.Is(err, domain.ErrStoreUnavail) {
		t.Fatalf("err = %v, want ErrStoreUnavail", err)
	}
}

// A command that fails must not take the room down; the actor keeps
// serving the next command.
func TestActorSurvivesFailedCommand(t *testing.T) {
	store := newFakeStore(1)
	h := New(store, testOptions())
	ctx := context.Background()

	store.mu.Lock()
	store.failures["admit"] = 10
	store.mu.Unlock()
	if _, err := h.Join(ctx, "ABC123", "alice"); err == nil {
		t.Fatal("expected Join to fail")
	}

	store.mu.Lock()
	store.failures["admit"] = 0
	store.mu.Unlock()
	if _, err := h.Join(ctx, "ABC123", "alice"); err != nil {
		t.Fatalf("Join after recovery: %v", err)
	}
}

func TestSlowSubscriberIsEvicted(t *testing.T) {
	store := newFakeStore(1)
	opts := testOptions()
	opts.SendBuffer = 1
	h := New(store, opts)
	ctx := context.Background()

	watcher, _ := h.Join(ctx, "ABC123", "watcher")
	sub, err := h.Subscribe(ctx, "ABC123", watcher.UserID)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	// Buffer holds only the connected snapshot; the next broadcast
	// overflows it and must evict rather than block the actor.
	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := h.Join(ctx, "ABC123", "bob"); err != nil {
			t.Errorf("Join bob: %v", err)
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("actor blocked on a slow subscriber")
	}

	if _, ok := <-sub.Events(); !ok {
		t.Fatal("connected snapshot lost")
	}
	if _, ok := <-sub.Events(); ok {
		t.Fatal("subscriber channel should be closed after eviction")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	store := newFakeStore(1)
	h := New(store, testOptions())
	ctx := context.Background()

	watcher, _ := h.Join(ctx, "ABC123", "watcher")
	sub, err := h.Subscribe(ctx, "ABC123", watcher.UserID)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	nextEvent(t, sub)

	h.Unsubscribe(sub)
	if _, err := h.Join(ctx, "ABC123", "bob"); err != nil {
		t.Fatalf("Join: %v", err)
	}

	for payload := range sub.Events() {
		t.Fatalf("event after unsubscribe: %s", payload)
	}
}

func TestIdleRoomIsReapedAndRevived(t *testing.T) {
	store := newFakeStore(1)
	opts := testOptions()
	opts.IdleAfter = 20 * time.Millisecond
	h := New(store, opts)
	ctx := context.Background()

	if _, err := h.Join(ctx, "ABC123", "alice"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if got := h.roomCount(); got != 1 {
		t.Fatalf("roomCount = %d, want 1", got)
	}

	deadline := time.Now().Add(2 * time.Second)
	for h.roomCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("idle actor was never reaped")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// the code is still valid; the next command revives the actor
	if _, err := h.Join(ctx, "ABC123", "bob"); err != nil {
		t.Fatalf("Join after reap: %v", err)
	}
	if got := h.roomCount(); got != 1 {
		t.Fatalf("roomCount after revive = %d, want 1", got)
	}
}

func TestSubscriberKeptAliveByActivity(t *testing.T) {
	store := newFakeStore(1)
	opts := testOptions()
	opts.IdleAfter = 40 * time.Millisecond
	h := New(store, opts)
	ctx := context.Background()

	watcher, _ := h.Join(ctx, "ABC123", "watcher")
	sub, err := h.Subscribe(ctx, "ABC123", watcher.UserID)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer h.Unsubscribe(sub)
	nextEvent(t, sub)

	// Idle fires with a live subscriber; the actor must stay up.
	time.Sleep(100 * time.Millisecond)
	if got := h.roomCount(); got != 1 {
		t.Fatalf("roomCount = %d, want 1 while subscribed", got)
	}

	if _, err := h.Vote(ctx, "ABC123", watcher.UserID, 1, true); err != nil {
		t.Fatalf("Vote: %v", err)
	}
	evt := nextEvent(t, sub)
	if evt["type"] != TypeVoteUpdate {
		t.Fatalf("event type = %v, want vote_update", evt["type"])
	}
}

func TestShutdownClosesSubscribers(t *testing.T) {
	store := newFakeStore(1)
	h := New(store, testOptions())
	ctx := context.Background()

	watcher, _ := h.Join(ctx, "ABC123", "watcher")
	sub, err := h.Subscribe(ctx, "ABC123", watcher.UserID)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	nextEvent(t, sub)

	h.Shutdown()

	select {
	case _, ok := <-sub.Events():
		if ok {
			t.Fatal("expected channel close, got event")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber channel not closed on shutdown")
	}
}
