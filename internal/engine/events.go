package engine

import (
	"time"

	"github.com/nightpath/werewolf-server/internal/game"
)

// EventType identifies an outbound room event.
type EventType string

const (
	EventPhaseChange      EventType = "PHASE_CHANGE"
	EventStateSnapshot    EventType = "STATE_SNAPSHOT"
	EventTurnNotify       EventType = "TURN_NOTIFY"
	EventSpeechStart      EventType = "SPEECH_START"
	EventSpeechChunk      EventType = "SPEECH_CHUNK"
	EventSpeechEnd        EventType = "SPEECH_END"
	EventAnnouncement     EventType = "ANNOUNCEMENT"
	EventVoteUpdate       EventType = "VOTE_UPDATE"
	EventVoteResult       EventType = "VOTE_RESULT"
	EventDeath            EventType = "DEATH"
	EventLastWordsRequest EventType = "LAST_WORDS_REQUEST"
	EventReminder         EventType = "REMINDER"
	EventGameOver         EventType = "GAME_OVER"
)

// Event is one structured outbound message. The transport layer is
// responsible for delivery; the engine only orders and emits them.
type Event struct {
	Type      EventType      `json:"type"`
	RoomCode  string         `json:"roomCode"`
	Day       int            `json:"day"`
	Phase     string         `json:"phase"`
	Seat      int            `json:"seat,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// Sink receives the engine's outbound events. Broadcast goes to every
// connection in the room; Notify targets a single player.
type Sink interface {
	Broadcast(roomCode string, ev Event)
	Notify(roomCode, playerID string, ev Event)
}

// nopSink drops everything. Used when no transport is attached, e.g.
// in tests that only assert on state.
type nopSink struct{}

func (nopSink) Broadcast(string, Event)      {}
func (nopSink) Notify(string, string, Event) {}

// SeatSnapshot is the per-seat slice of a state snapshot. Role is
// filled only when the receiving viewer is entitled to it.
type SeatSnapshot struct {
	Number      int    `json:"number"`
	Name        string `json:"name"`
	IsAlive     bool   `json:"isAlive"`
	IsAutomated bool   `json:"isAutomated"`
	Role        string `json:"role,omitempty"`
	Team        string `json:"team,omitempty"`
	DeathReason string `json:"deathReason,omitempty"`
	DeathDay    int    `json:"deathDay,omitempty"`
}

// Snapshot is the sanitized public view of a game for one viewer seat
// (or for spectators when viewer is nil).
func Snapshot(in *game.Instance, viewer *game.Seat) []SeatSnapshot {
	seats := make([]SeatSnapshot, 0, game.SeatCount)
	for n := 1; n <= game.SeatCount; n++ {
		seat := in.SeatAt(n)
		if seat == nil {
			continue
		}
		snap := SeatSnapshot{
			Number:      seat.Number,
			Name:        seat.DisplayName,
			IsAlive:     seat.IsAlive,
			IsAutomated: seat.IsAutomated,
		}
		if revealRole(in, viewer, seat) {
			snap.Role = seat.Role.Name()
			snap.Team = string(seat.Role.Team())
		}
		if !seat.IsAlive {
			snap.DeathReason = string(seat.DeathReason)
			snap.DeathDay = seat.DeathDay
		}
		seats = append(seats, snap)
	}
	return seats
}

// revealRole decides whether viewer may see seat's role: the game is
// over, the seat is dead, it is the viewer's own seat, or both sit on
// the werewolf team.
func revealRole(in *game.Instance, viewer, seat *game.Seat) bool {
	if in.Phase == game.PhaseGameOver || !seat.IsAlive {
		return true
	}
	if viewer == nil {
		// Spectator games run with open roles.
		return in.HumanSeat() == nil
	}
	if viewer.Number == seat.Number {
		return true
	}
	return viewer.Role.Team() == game.TeamWerewolf && seat.Role.Team() == game.TeamWerewolf
}
