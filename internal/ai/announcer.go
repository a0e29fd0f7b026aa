package ai

import (
	"context"
	"fmt"
)

// AnnounceKind identifies a narrator moment.
type AnnounceKind string

const (
	AnnounceGameStart   AnnounceKind = "game_start"
	AnnounceNightFalls  AnnounceKind = "night_falls"
	AnnounceDayBreaks   AnnounceKind = "day_breaks"
	AnnounceDeath       AnnounceKind = "death"
	AnnouncePeaceful    AnnounceKind = "peaceful_night"
	AnnounceVoteStart   AnnounceKind = "vote_start"
	AnnounceVoteResult  AnnounceKind = "vote_result"
	AnnounceVoteTie     AnnounceKind = "vote_tie"
	AnnounceLastWords   AnnounceKind = "last_words"
	AnnounceHunterShoot AnnounceKind = "hunter_shoot"
	AnnounceGameOver    AnnounceKind = "game_over"
)

// AnnounceContext carries the facts a narrator line may mention.
type AnnounceContext struct {
	Day        int
	SeatNames  []string
	TargetName string
	Winner     string
}

// Announcer produces narrator text for a moment in the game.
type Announcer interface {
	Announce(ctx context.Context, kind AnnounceKind, info AnnounceContext) (string, error)
}

// FallbackLine is the deterministic narrator line for a kind. The
// orchestrator substitutes it whenever the configured Announcer fails.
func FallbackLine(kind AnnounceKind, info AnnounceContext) string {
	switch kind {
	case AnnounceGameStart:
		return "The village gathers. Ten players take their seats. The game begins."
	case AnnounceNightFalls:
		return fmt.Sprintf("Night %d falls. Everyone, close your eyes.", info.Day)
	case AnnounceDayBreaks:
		return fmt.Sprintf("Day %d breaks over the village.", info.Day)
	case AnnounceDeath:
		if info.TargetName != "" {
			return fmt.Sprintf("When dawn came, %s was found dead.", info.TargetName)
		}
		return "When dawn came, a villager was found dead."
	case AnnouncePeaceful:
		return "The night passed peacefully. Nobody died."
	case AnnounceVoteStart:
		return "Discussion is over. The village will now vote."
	case AnnounceVoteResult:
		if info.TargetName != "" {
			return fmt.Sprintf("The village has spoken. %s is eliminated.", info.TargetName)
		}
		return "The village has spoken."
	case AnnounceVoteTie:
		return "The vote is tied. Nobody is eliminated today."
	case AnnounceLastWords:
		if info.TargetName != "" {
			return fmt.Sprintf("%s may now speak their last words.", info.TargetName)
		}
		return "The fallen may now speak their last words."
	case AnnounceHunterShoot:
		if info.TargetName != "" {
			return fmt.Sprintf("%s was the hunter, and may fire one final shot.", info.TargetName)
		}
		return "The hunter may fire one final shot."
	case AnnounceGameOver:
		if info.Winner != "" {
			return fmt.Sprintf("The game is over. The %s team wins.", info.Winner)
		}
		return "The game is over."
	default:
		return "The game continues."
	}
}

// StaticAnnouncer always returns the deterministic fallback line. Used
// when no language model is configured.
type StaticAnnouncer struct{}

// NewStaticAnnouncer returns the fallback-only announcer.
func NewStaticAnnouncer() *StaticAnnouncer { return &StaticAnnouncer{} }

// Announce returns the deterministic line for the kind.
func (a *StaticAnnouncer) Announce(_ context.Context, kind AnnounceKind, info AnnounceContext) (string, error) {
	return FallbackLine(kind, info), nil
}
