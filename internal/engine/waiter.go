package engine

import (
	"sync"

	"github.com/nightpath/werewolf-server/internal/game"
)

// WaitKind names what kind of human input the orchestrator is blocked on.
type WaitKind string

const (
	WaitNightAction WaitKind = "night_action"
	WaitSpeech      WaitKind = "speech"
	WaitVote        WaitKind = "vote"
	WaitLastWords   WaitKind = "last_words"
	WaitHunterShoot WaitKind = "hunter_shoot"
)

// HumanAction is a human seat's submitted input.
type HumanAction struct {
	Kind         WaitKind
	Target       int
	Save         bool
	PoisonTarget int
	Text         string
}

type actionDelivery struct {
	action HumanAction
	reply  chan error
}

type waitKey struct {
	room string
	seat int
}

type humanWait struct {
	kind       WaitKind
	deliveries chan actionDelivery
	closed     chan struct{}
}

// waitBoard is the per-(room, seat) rendezvous between inbound human
// action requests and the room's blocked game loop. It is the only
// engine structure touched by multiple goroutines besides the control
// flags, so access is mutex-guarded.
type waitBoard struct {
	mu    sync.Mutex
	waits map[waitKey]*humanWait
}

func newWaitBoard() *waitBoard {
	return &waitBoard{waits: make(map[waitKey]*humanWait)}
}

// open registers a wait for (room, seat). The loop goroutine receives
// from the returned wait's deliveries channel.
func (b *waitBoard) open(room string, seat int, kind WaitKind) *humanWait {
	w := &humanWait{
		kind:       kind,
		deliveries: make(chan actionDelivery, 1),
		closed:     make(chan struct{}),
	}
	b.mu.Lock()
	b.waits[waitKey{room, seat}] = w
	b.mu.Unlock()
	return w
}

// close unregisters the wait and fails any delivery that slipped in
// after the loop stopped receiving, so no caller blocks forever.
func (b *waitBoard) close(room string, seat int) {
	b.mu.Lock()
	w, ok := b.waits[waitKey{room, seat}]
	if ok {
		delete(b.waits, waitKey{room, seat})
	}
	b.mu.Unlock()
	if !ok {
		return
	}
	close(w.closed)
	for {
		select {
		case d := <-w.deliveries:
			d.reply <- game.ErrNotYourTurn
		default:
			return
		}
	}
}

// deliver hands a human action to the waiting loop and returns the
// loop's validation verdict. Callers get a synchronous error when the
// seat is not being waited on or the action kind does not match.
func (b *waitBoard) deliver(room string, seat int, action HumanAction) error {
	b.mu.Lock()
	w, ok := b.waits[waitKey{room, seat}]
	b.mu.Unlock()
	if !ok {
		return game.ErrNotYourTurn
	}
	if w.kind != action.Kind {
		return game.ErrActionTypeMismatch
	}

	d := actionDelivery{action: action, reply: make(chan error, 1)}
	select {
	case w.deliveries <- d:
	default:
		// Another request already occupies the slot.
		return game.ErrNotYourTurn
	}

	select {
	case err := <-d.reply:
		return err
	case <-w.closed:
		// The loop went away; close drained anything it could reach.
		select {
		case err := <-d.reply:
			return err
		default:
			return game.ErrNotYourTurn
		}
	}
}

// waiting reports the kind being waited on for (room, seat), if any.
func (b *waitBoard) waiting(room string, seat int) (WaitKind, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.waits[waitKey{room, seat}]
	if !ok {
		return "", false
	}
	return w.kind, true
}
