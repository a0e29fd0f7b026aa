package game

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// SeatCount is the fixed table size. The rules in this package are
// written for the classic ten-seat layout and no other.
const SeatCount = 10

// Phase represents the broad phases of a werewolf game.
type Phase int

const (
	PhaseWaiting Phase = iota
	PhaseNight
	PhaseDayDiscussion
	PhaseDayVote
	PhaseLastWords
	PhaseHunterShoot
	PhaseGameOver
)

var phaseNames = map[Phase]string{
	PhaseWaiting:       "WAITING",
	PhaseNight:         "NIGHT",
	PhaseDayDiscussion: "DAY_DISCUSSION",
	PhaseDayVote:       "DAY_VOTE",
	PhaseLastWords:     "LAST_WORDS",
	PhaseHunterShoot:   "HUNTER_SHOOT",
	PhaseGameOver:      "GAME_OVER",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "UNKNOWN"
}

// SubPhase identifies the acting role within the NIGHT phase.
type SubPhase int

const (
	SubPhaseNone SubPhase = iota
	SubPhaseWerewolf
	SubPhaseSeer
	SubPhaseWitch
)

var subPhaseNames = map[SubPhase]string{
	SubPhaseNone:     "",
	SubPhaseWerewolf: "WEREWOLF",
	SubPhaseSeer:     "SEER",
	SubPhaseWitch:    "WITCH",
}

func (s SubPhase) String() string {
	if name, ok := subPhaseNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// DeathReason records how a seat died.
type DeathReason string

const (
	DeathReasonNone     DeathReason = ""
	DeathReasonKilled   DeathReason = "killed"
	DeathReasonPoisoned DeathReason = "poisoned"
	DeathReasonVoted    DeathReason = "voted"
	DeathReasonShot     DeathReason = "shot"
)

// Seat is one of the ten fixed player slots.
type Seat struct {
	Number      int
	PlayerID    string
	DisplayName string
	Role        Role
	IsAlive     bool
	IsAutomated bool
	DeathReason DeathReason // DeathReasonNone while alive
	DeathDay    int         // meaningful only once dead
}

// NightActions holds the pending actions of the current night. Reset
// by ResolveNight once the night is applied.
type NightActions struct {
	WerewolfKillTarget int // 0 = no kill chosen
	SeerCheckTarget    int // 0 = not checked yet
	WitchUsedAntidote  bool
	WitchPoisonTarget  int // 0 = no poison
}

// Ballot maps voter seat to target seat; a missing entry is an abstain.
type Ballot map[int]int

// DeathEvent describes one seat dying.
type DeathEvent struct {
	Seat   int
	Role   Role
	Reason DeathReason
	Day    int
}

// Instance is the full in-memory state of one room's game. All fields
// except the control flags are mutated exclusively by the single
// goroutine driving the room's loop; the control flags are atomics
// because admin calls flip them from other goroutines.
type Instance struct {
	RoomCode  string
	GameID    string
	DayNumber int
	Phase     Phase
	SubPhase  SubPhase
	Winner    Team // empty until decided

	Seats map[int]*Seat
	Night NightActions

	// Single-use witch resources; survive across nights.
	WitchHasAntidote bool
	WitchHasPoison   bool

	Ballot Ballot
	Logs   []*LogEntry

	started atomic.Bool
	paused  atomic.Bool
	stopped atomic.Bool
}

// NewInstance creates a fresh game instance for a room. Seats start
// empty; SetupSeats fills them.
func NewInstance(roomCode string) *Instance {
	return &Instance{
		RoomCode:         roomCode,
		GameID:           uuid.New().String(),
		Phase:            PhaseWaiting,
		Seats:            make(map[int]*Seat, SeatCount),
		WitchHasAntidote: true,
		WitchHasPoison:   true,
		Ballot:           make(Ballot),
	}
}

// IsStarted reports whether RunGame has claimed this instance.
func (in *Instance) IsStarted() bool { return in.started.Load() }

// MarkStarted claims the instance for a game loop. Returns false if it
// was already claimed.
func (in *Instance) MarkStarted() bool { return in.started.CompareAndSwap(false, true) }

// IsPaused reports the pause flag.
func (in *Instance) IsPaused() bool { return in.paused.Load() }

// SetPaused flips the pause flag; the loop observes it at its next
// checkpoint.
func (in *Instance) SetPaused(v bool) { in.paused.Store(v) }

// IsStopped reports the stop flag.
func (in *Instance) IsStopped() bool { return in.stopped.Load() }

// Stop flips the stop flag. Irreversible for this instance.
func (in *Instance) Stop() { in.stopped.Store(true) }

// SeatAt returns the seat with the given number, or nil.
func (in *Instance) SeatAt(number int) *Seat {
	return in.Seats[number]
}

// SeatByPlayerID finds the seat occupied by a player.
func (in *Instance) SeatByPlayerID(playerID string) *Seat {
	for n := 1; n <= SeatCount; n++ {
		if seat := in.Seats[n]; seat != nil && seat.PlayerID == playerID {
			return seat
		}
	}
	return nil
}

// HumanSeat returns the single non-automated seat, or nil in
// spectator games.
func (in *Instance) HumanSeat() *Seat {
	for n := 1; n <= SeatCount; n++ {
		if seat := in.Seats[n]; seat != nil && !seat.IsAutomated {
			return seat
		}
	}
	return nil
}

// LivingSeats returns living seats in ascending seat order.
func (in *Instance) LivingSeats() []*Seat {
	seats := make([]*Seat, 0, SeatCount)
	for n := 1; n <= SeatCount; n++ {
		if seat := in.Seats[n]; seat != nil && seat.IsAlive {
			seats = append(seats, seat)
		}
	}
	return seats
}

// LivingSeatsWithRole returns living seats holding the given role, in
// ascending seat order.
func (in *Instance) LivingSeatsWithRole(role Role) []*Seat {
	seats := make([]*Seat, 0, 3)
	for n := 1; n <= SeatCount; n++ {
		if seat := in.Seats[n]; seat != nil && seat.IsAlive && seat.Role == role {
			seats = append(seats, seat)
		}
	}
	return seats
}

// FirstLivingSeatWithRole returns the lowest-numbered living seat with
// the role, or nil.
func (in *Instance) FirstLivingSeatWithRole(role Role) *Seat {
	for n := 1; n <= SeatCount; n++ {
		if seat := in.Seats[n]; seat != nil && seat.IsAlive && seat.Role == role {
			return seat
		}
	}
	return nil
}

// CountLiving returns the number of living seats on a team.
func (in *Instance) CountLiving(team Team) int {
	count := 0
	for _, seat := range in.Seats {
		if seat.IsAlive && seat.Role.Team() == team {
			count++
		}
	}
	return count
}
