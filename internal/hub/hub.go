// Package hub runs one goroutine per active room. That goroutine is the
// only writer of room state: every join, vote and leave is queued as a
// command, applied to the store, recomputed and fanned out to subscribers
// in command order. Rooms with no subscribers are reaped after an idle
// period and revived by the next command.
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/abhikumar45444/movie-night-decider/internal/domain"
)

// Store is the persistence surface a room actor mutates through.
type Store interface {
	Admit(ctx context.Context, roomCode, username string) (*domain.Participant, error)
	Remove(ctx context.Context, roomCode, userID string) (bool, error)
	Participants(ctx context.Context, roomCode string) ([]domain.Participant, error)
	RecordVote(ctx context.Context, roomCode, userID string, movieID int64, yes bool) error
	Progress(ctx context.Context, roomCode string) (domain.Progress, error)
}

type Options struct {
	SendBuffer    int           // queued events per subscriber before eviction
	IdleAfter     time.Duration // actor lifetime with no subscribers
	RetryAttempts int           // extra tries for transient store failures
	RetryDelay    time.Duration
}

func (o *Options) defaults() {
	if o.SendBuffer <= 0 {
		o.SendBuffer = 32
	}
	if o.IdleAfter <= 0 {
		o.IdleAfter = time.Minute
	}
	if o.RetryAttempts <= 0 {
		o.RetryAttempts = 2
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 100 * time.Millisecond
	}
}

type Hub struct {
	store Store
	opts  Options

	mu    sync.Mutex
	rooms map[string]*room
}

func New(store Store, opts Options) *Hub {
	opts.defaults()
	return &Hub{
		store: store,
		opts:  opts,
		rooms: make(map[string]*room),
	}
}

// Subscriber receives one room's events in mutation order. Its channel is
// closed on unsubscribe, on eviction and on hub shutdown.
type Subscriber struct {
	roomCode string
	userID   string
	ch       chan []byte
	closed   bool // owned by the room actor
}

func (s *Subscriber) Events() <-chan []byte { return s.ch }
func (s *Subscriber) UserID() string        { return s.userID }
func (s *Subscriber) RoomCode() string      { return s.roomCode }

type room struct {
	code string
	hub  *Hub

	cmds chan func(*room)
	done chan struct{}

	// actor-owned
	subs     map[*Subscriber]struct{}
	stopping bool
}

func (h *Hub) getOrCreate(code string) *room {
	h.mu.Lock()
	defer h.mu.Unlock()

	if rm, ok := h.rooms[code]; ok {
		return rm
	}
	rm := &room{
		code: code,
		hub:  h,
		cmds: make(chan func(*room)),
		done: make(chan struct{}),
		subs: make(map[*Subscriber]struct{}),
	}
	h.rooms[code] = rm
	go rm.loop()
	return rm
}

func (h *Hub) drop(rm *room) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[rm.code] == rm {
		delete(h.rooms, rm.code)
	}
}

// do hands fn to the room's actor and returns once it is accepted. The
// cmds channel is unbuffered, so a stopped actor can never swallow a
// command: the send fails over to done and the loop retries against a
// fresh actor.
func (h *Hub) do(code string, fn func(*room)) {
	for {
		rm := h.getOrCreate(code)
		select {
		case rm.cmds <- fn:
			return
		case <-rm.done:
		}
	}
}

func (rm *room) loop() {
	idle := time.NewTimer(rm.hub.opts.IdleAfter)
	defer idle.Stop()

	for {
		select {
		case fn := <-rm.cmds:
			fn(rm)
			if rm.stopping {
				rm.hub.drop(rm)
				close(rm.done)
				return
			}
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(rm.hub.opts.IdleAfter)
		case <-idle.C:
			if len(rm.subs) == 0 {
				rm.hub.drop(rm)
				close(rm.done)
				return
			}
			idle.Reset(rm.hub.opts.IdleAfter)
		}
	}
}

// Subscribe registers a listener and queues the connected snapshot ahead of
// any later event, so a fresh bind always starts from complete state.
func (h *Hub) Subscribe(ctx context.Context, roomCode, userID string) (*Subscriber, error) {
	type reply struct {
		sub *Subscriber
		err error
	}
	ch := make(chan reply, 1)
	h.do(roomCode, func(rm *room) {
		var (
			list     []domain.Participant
			progress domain.Progress
		)
		err := rm.withRetry(ctx, func() error {
			var err error
			if list, err = rm.hub.store.Participants(ctx, rm.code); err != nil {
				return err
			}
			progress, err = rm.hub.store.Progress(ctx, rm.code)
			return err
		})
		if err != nil {
			ch <- reply{err: err}
			return
		}

		payload, err := json.Marshal(connectedEvent(rm.code, list, progress))
		if err != nil {
			ch <- reply{err: err}
			return
		}

		sub := &Subscriber{
			roomCode: rm.code,
			userID:   userID,
			ch:       make(chan []byte, rm.hub.opts.SendBuffer),
		}
		rm.subs[sub] = struct{}{}
		rm.send(sub, payload)
		ch <- reply{sub: sub}
	})

	select {
	case r := <-ch:
		return r.sub, r.err
	case <-ctx.Done():
		// The command may still register the subscriber; reap it so the
		// actor is not pinned by a listener nobody reads.
		go func() {
			if r := <-ch; r.sub != nil {
				h.Unsubscribe(r.sub)
			}
		}()
		return nil, ctx.Err()
	}
}

// Unsubscribe drops the listener and closes its channel. Safe to repeat
// and safe after eviction.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}
	h.do(sub.roomCode, func(rm *room) {
		rm.evict(sub)
	})
}

// Join admits a user and announces the updated participant list.
func (h *Hub) Join(ctx context.Context, roomCode, username string) (*domain.Participant, error) {
	type reply struct {
		participant *domain.Participant
		err         error
	}
	ch := make(chan reply, 1)
	h.do(roomCode, func(rm *room) {
		var p *domain.Participant
		err := rm.withRetry(ctx, func() error {
			var err error
			p, err = rm.hub.store.Admit(ctx, rm.code, username)
			return err
		})
		if err != nil {
			ch <- reply{err: err}
			return
		}
		rm.announce(ctx, func(list []domain.Participant) any {
			return UserJoinedEvent{
				Type:         TypeUserJoined,
				Username:     username,
				Participants: participantInfos(list),
			}
		})
		ch <- reply{participant: p}
	})

	select {
	case r := <-ch:
		return r.participant, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Vote records the ballot and broadcasts the recomputed progress.
func (h *Hub) Vote(ctx context.Context, roomCode, userID string, movieID int64, yes bool) (domain.Progress, error) {
	type reply struct {
		progress domain.Progress
		err      error
	}
	ch := make(chan reply, 1)
	h.do(roomCode, func(rm *room) {
		err := rm.withRetry(ctx, func() error {
			return rm.hub.store.RecordVote(ctx, rm.code, userID, movieID, yes)
		})
		if err != nil {
			ch <- reply{err: err}
			return
		}

		var progress domain.Progress
		err = rm.withRetry(ctx, func() error {
			var err error
			progress, err = rm.hub.store.Progress(ctx, rm.code)
			return err
		})
		if err != nil {
			ch <- reply{err: err}
			return
		}

		rm.broadcast(VoteUpdateEvent{
			Type:     TypeVoteUpdate,
			MovieID:  movieID,
			Progress: progress,
		})
		ch <- reply{progress: progress}
	})

	select {
	case r := <-ch:
		return r.progress, r.err
	case <-ctx.Done():
		return domain.Progress{}, ctx.Err()
	}
}

// Leave removes the participant and their votes. Removing an absent user
// changes nothing and broadcasts nothing.
func (h *Hub) Leave(ctx context.Context, roomCode, userID string) error {
	ch := make(chan error, 1)
	h.do(roomCode, func(rm *room) {
		var removed bool
		err := rm.withRetry(ctx, func() error {
			var err error
			removed, err = rm.hub.store.Remove(ctx, rm.code, userID)
			return err
		})
		if err != nil {
			ch <- err
			return
		}
		if removed {
			rm.announce(ctx, func(list []domain.Participant) any {
				return UserLeftEvent{
					Type:         TypeUserLeft,
					UserID:       userID,
					Participants: participantInfos(list),
				}
			})
		}
		ch <- nil
	})

	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops every actor and closes all subscriber channels.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	rooms := make([]*room, 0, len(h.rooms))
	for _, rm := range h.rooms {
		rooms = append(rooms, rm)
	}
	h.mu.Unlock()

	for _, rm := range rooms {
		select {
		case rm.cmds <- func(rm *room) {
			for sub := range rm.subs {
				rm.evict(sub)
			}
			rm.stopping = true
		}:
		case <-rm.done:
		}
	}
}

// announce rereads the participant list and broadcasts the event built
// from it. A read failure here skips the broadcast but never fails the
// already-applied command.
func (rm *room) announce(ctx context.Context, build func([]domain.Participant) any) {
	list, err := rm.hub.store.Participants(ctx, rm.code)
	if err != nil {
		slog.Warn("hub: participants read for broadcast failed", "room", rm.code, "err", err)
		return
	}
	rm.broadcast(build(list))
}

func (rm *room) broadcast(evt any) {
	payload, err := json.Marshal(evt)
	if err != nil {
		slog.Error("hub: marshal event failed", "room", rm.code, "err", err)
		return
	}
	for sub := range rm.subs {
		rm.send(sub, payload)
	}
}

func (rm *room) send(sub *Subscriber, payload []byte) {
	if sub.closed {
		return
	}
	select {
	case sub.ch <- payload:
	default:
		// a stalled reader must not hold the whole room back
		slog.Warn("hub: evicting slow subscriber", "room", rm.code, "user", sub.userID)
		rm.evict(sub)
	}
}

func (rm *room) evict(sub *Subscriber) {
	if sub.closed {
		return
	}
	sub.closed = true
	delete(rm.subs, sub)
	close(sub.ch)
}

// withRetry reruns transient store failures with a short delay. Domain
// sentinels are final and pass through unchanged; whatever still fails
// after the attempts is reported as a store outage.
func (rm *room) withRetry(ctx context.Context, fn func() error) error {
	attempts := rm.hub.opts.RetryAttempts + 1
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-time.After(rm.hub.opts.RetryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err = fn(); err == nil {
			return nil
		}
		if isFinal(err) {
			return err
		}
	}
	slog.Error("hub: store operation failed", "room", rm.code, "attempts", attempts, "err", err)
	return domain.ErrStoreUnavail
}

func isFinal(err error) bool {
	for _, sentinel := range []error{
		domain.ErrRoomNotFound,
		domain.ErrRoomClosed,
		domain.ErrNotInRoom,
		domain.ErrMovieNotInRoom,
		context.Canceled,
		context.DeadlineExceeded,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
