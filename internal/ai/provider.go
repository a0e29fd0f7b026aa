// Package ai defines the decision-making boundary for automated seats:
// a Provider chooses night actions, speeches, votes and shots, and an
// Announcer produces narrator lines. The orchestrator treats both as
// slow, fallible external calls and substitutes deterministic
// fallbacks when they fail.
package ai

import "context"

// SeatView is the sanitized view of one seat given to a provider.
// Role and Team are populated only where the viewing actor is entitled
// to know them (its own seat, dead seats, werewolf teammates).
type SeatView struct {
	Number  int    `json:"number"`
	Name    string `json:"name"`
	IsAlive bool   `json:"isAlive"`
	Role    string `json:"role,omitempty"`
	Team    string `json:"team,omitempty"`
}

// View is the sanitized game state handed to a provider for one
// decision. It never leaks hidden information beyond what the acting
// seat legitimately knows.
type View struct {
	RoomCode string     `json:"roomCode"`
	Day      int        `json:"day"`
	Phase    string     `json:"phase"`
	Self     SeatView   `json:"self"`
	Seats    []SeatView `json:"seats"`
	History  []string   `json:"history"`

	// Werewolf-only: teammate seat numbers and opinions collected so far.
	Allies   []int    `json:"allies,omitempty"`
	Opinions []string `json:"opinions,omitempty"`

	// Witch-only: the night's kill target and remaining potions.
	KillTarget  int  `json:"killTarget,omitempty"`
	HasAntidote bool `json:"hasAntidote,omitempty"`
	HasPoison   bool `json:"hasPoison,omitempty"`
}

// NightAction is a provider's decision for a night sub-phase. Target
// semantics depend on the role: kill target for werewolves, check
// target for the seer. Witch decisions use Save and PoisonTarget; a
// zero value everywhere means "no action".
type NightAction struct {
	Target       int
	Save         bool
	PoisonTarget int
	Reason       string
}

// SpeechChunk delivers one increment of streamed speech.
type SpeechChunk func(text string)

// Provider supplies an automated seat's choices. Implementations may
// take as long as they need; the orchestrator imposes no timeout and
// recovers from errors with deterministic fallbacks.
type Provider interface {
	// DecideNightAction picks the seat's night action from legal targets.
	DecideNightAction(ctx context.Context, view View, targets []int) (NightAction, error)
	// GenerateSpeech produces the seat's discussion or last-words text.
	// onChunk, when non-nil, receives increments as they are produced;
	// the returned string is always the complete text.
	GenerateSpeech(ctx context.Context, view View, onChunk SpeechChunk) (string, error)
	// DecideVote picks a target from candidates, or 0 to abstain.
	DecideVote(ctx context.Context, view View, candidates []int) (int, error)
	// DecideShoot picks the hunter's revenge target from targets, or 0
	// to hold fire. deathReason tells the provider how the hunter died.
	DecideShoot(ctx context.Context, view View, deathReason string, targets []int) (int, error)
}
