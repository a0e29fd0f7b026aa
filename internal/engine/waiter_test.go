package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nightpath/werewolf-server/internal/game"
)

func TestWaitBoardDeliverWithoutWait(t *testing.T) {
	b := newWaitBoard()
	err := b.deliver("R1", 3, HumanAction{Kind: WaitVote, Target: 2})
	assert.ErrorIs(t, err, game.ErrNotYourTurn)
}

func TestWaitBoardKindMismatch(t *testing.T) {
	b := newWaitBoard()
	b.open("R1", 3, WaitVote)
	defer b.close("R1", 3)

	err := b.deliver("R1", 3, HumanAction{Kind: WaitSpeech, Text: "hi"})
	assert.ErrorIs(t, err, game.ErrActionTypeMismatch)
}

func TestWaitBoardRoundTrip(t *testing.T) {
	b := newWaitBoard()
	w := b.open("R1", 3, WaitVote)
	defer b.close("R1", 3)

	// Loop side: receive and accept.
	go func() {
		d := <-w.deliveries
		d.reply <- nil
	}()

	err := b.deliver("R1", 3, HumanAction{Kind: WaitVote, Target: 7})
	require.NoError(t, err)
}

func TestWaitBoardValidationErrorPropagates(t *testing.T) {
	b := newWaitBoard()
	w := b.open("R1", 3, WaitVote)
	defer b.close("R1", 3)

	go func() {
		d := <-w.deliveries
		d.reply <- game.ErrInvalidTarget
	}()

	err := b.deliver("R1", 3, HumanAction{Kind: WaitVote, Target: 99})
	assert.ErrorIs(t, err, game.ErrInvalidTarget)
}

func TestWaitBoardCloseUnblocksPendingDelivery(t *testing.T) {
	b := newWaitBoard()
	b.open("R1", 3, WaitVote)

	done := make(chan error, 1)
	go func() {
		done <- b.deliver("R1", 3, HumanAction{Kind: WaitVote, Target: 2})
	}()

	// Give the delivery time to enqueue, then tear the wait down as a
	// stopping loop would.
	time.Sleep(10 * time.Millisecond)
	b.close("R1", 3)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, game.ErrNotYourTurn)
	case <-time.After(2 * time.Second):
		t.Fatal("deliver blocked forever after close")
	}
}

func TestWaitBoardWaiting(t *testing.T) {
	b := newWaitBoard()
	if _, ok := b.waiting("R1", 3); ok {
		t.Fatal("no wait should be registered yet")
	}

	b.open("R1", 3, WaitHunterShoot)
	kind, ok := b.waiting("R1", 3)
	require.True(t, ok)
	assert.Equal(t, WaitHunterShoot, kind)

	b.close("R1", 3)
	if _, ok := b.waiting("R1", 3); ok {
		t.Fatal("wait should be gone after close")
	}
}
