package game

import (
	"fmt"
	"math/rand"
)

// AssignRoles builds the fixed ten-role multiset, shuffles it, and if
// humanRole is non-nil swaps that role into humanSeat's slot. The swap
// keeps the other nine slots an unbiased draw from the complementary
// multiset. humanSeat is 1-based; pass 0 with a nil humanRole for
// spectator games.
func AssignRoles(humanSeat int, humanRole Role) ([SeatCount]Role, error) {
	var assigned [SeatCount]Role

	if humanRole != nil && (humanSeat < 1 || humanSeat > SeatCount) {
		return assigned, fmt.Errorf("%w: human seat %d out of range", ErrInvalidConfiguration, humanSeat)
	}

	roles := roleMultiset()
	rand.Shuffle(len(roles), func(i, j int) {
		roles[i], roles[j] = roles[j], roles[i]
	})

	if humanRole != nil {
		idx := -1
		for i, r := range roles {
			if r == humanRole {
				idx = i
				break
			}
		}
		if idx == -1 {
			return assigned, fmt.Errorf("%w: requested role %q not in distribution", ErrInvalidConfiguration, humanRole.Name())
		}
		roles[idx], roles[humanSeat-1] = roles[humanSeat-1], roles[idx]
	}

	copy(assigned[:], roles)
	return assigned, nil
}

// SetupSeats fills the instance's seats with the given assignment. A
// seat is automated unless its number equals humanSeat.
func SetupSeats(in *Instance, assignment [SeatCount]Role, humanSeat int, humanPlayerID, humanName string) error {
	if in.Phase != PhaseWaiting {
		return ErrGameAlreadyStarted
	}
	for n := 1; n <= SeatCount; n++ {
		seat := &Seat{
			Number:      n,
			Role:        assignment[n-1],
			IsAlive:     true,
			IsAutomated: true,
			DisplayName: fmt.Sprintf("Player %d", n),
			PlayerID:    fmt.Sprintf("bot-%s-%d", in.RoomCode, n),
		}
		if n == humanSeat {
			seat.IsAutomated = false
			seat.PlayerID = humanPlayerID
			if humanName != "" {
				seat.DisplayName = humanName
			}
		}
		in.Seats[n] = seat
	}
	return nil
}

// ResolveNight applies the pending night actions: the werewolf kill
// unless the antidote was used on that exact seat, then the witch
// poison unconditionally. A seat saved from the kill still dies to
// poison. Night actions are reset afterwards, so a second call with no
// intervening action-setting returns no deaths.
func ResolveNight(in *Instance) []DeathEvent {
	var deaths []DeathEvent

	// The antidote is only ever applied to the night's kill target, so
	// a used antidote always cancels the kill and nothing else.
	kill := in.Night.WerewolfKillTarget
	if kill != 0 && !in.Night.WitchUsedAntidote {
		if ev := Eliminate(in, kill, DeathReasonKilled); ev != nil {
			deaths = append(deaths, *ev)
		}
	}

	if poison := in.Night.WitchPoisonTarget; poison != 0 {
		if ev := Eliminate(in, poison, DeathReasonPoisoned); ev != nil {
			deaths = append(deaths, *ev)
		}
	}

	in.Night = NightActions{}
	return deaths
}

// SeerCheck records the seer's check for this night and reports
// whether the target is a werewolf. Repeat checks across nights are
// allowed; a repeat within the same night is not.
func SeerCheck(in *Instance, target int) (bool, error) {
	seer := in.FirstLivingSeatWithRole(RoleSeer)
	if seer == nil {
		return false, fmt.Errorf("%w: no living seer", ErrInvalidTarget)
	}
	if target == seer.Number {
		return false, fmt.Errorf("%w: cannot check own seat", ErrInvalidTarget)
	}
	seat := in.SeatAt(target)
	if seat == nil || !seat.IsAlive {
		return false, fmt.Errorf("%w: seat %d not alive", ErrInvalidTarget, target)
	}
	if in.Night.SeerCheckTarget != 0 {
		return false, fmt.Errorf("%w: already checked this night", ErrInvalidTarget)
	}
	in.Night.SeerCheckTarget = target
	return seat.Role == RoleWerewolf, nil
}

// AppliedActions reports what a WitchAct call actually did.
type AppliedActions struct {
	SavedSeat    int // 0 if the antidote was not used
	PoisonedSeat int // 0 if the poison was not used
}

// WitchAct applies the witch's choices for this night. Each potion is
// single-use for the whole game. A self-save is only legal on the
// first night. Both halves of a compound request are validated before
// either is applied; a rejection leaves the instance untouched.
func WitchAct(in *Instance, save bool, poisonTarget int) (AppliedActions, error) {
	var applied AppliedActions

	if save {
		if !in.WitchHasAntidote {
			return applied, fmt.Errorf("%w: antidote spent", ErrWitchResourceExhausted)
		}
		kill := in.Night.WerewolfKillTarget
		if kill == 0 {
			return applied, fmt.Errorf("%w: nobody to save", ErrInvalidTarget)
		}
		if witch := in.FirstLivingSeatWithRole(RoleWitch); witch != nil && kill == witch.Number && in.DayNumber != 0 {
			return applied, ErrSelfSaveNotAllowed
		}
	}

	if poisonTarget != 0 {
		if !in.WitchHasPoison {
			return applied, fmt.Errorf("%w: poison spent", ErrWitchResourceExhausted)
		}
		seat := in.SeatAt(poisonTarget)
		if seat == nil || !seat.IsAlive {
			return applied, fmt.Errorf("%w: seat %d not alive", ErrInvalidTarget, poisonTarget)
		}
	}

	if save {
		in.Night.WitchUsedAntidote = true
		in.WitchHasAntidote = false
		applied.SavedSeat = in.Night.WerewolfKillTarget
	}
	if poisonTarget != 0 {
		in.Night.WitchPoisonTarget = poisonTarget
		in.WitchHasPoison = false
		applied.PoisonedSeat = poisonTarget
	}

	return applied, nil
}

// TallyVotes counts a day's ballots. A tie between top targets, or an
// empty ballot, eliminates nobody; there is no random tie-break.
func TallyVotes(ballot Ballot) (counts map[int]int, eliminated int, isTie bool) {
	counts = make(map[int]int, len(ballot))
	for _, target := range ballot {
		counts[target]++
	}
	if len(counts) == 0 {
		return counts, 0, true
	}

	max := 0
	for _, c := range counts {
		if c > max {
			max = c
		}
	}
	top := 0
	for seat, c := range counts {
		if c == max {
			if top != 0 {
				return counts, 0, true
			}
			top = seat
		}
	}
	return counts, top, false
}

// Eliminate marks a seat dead, stamping the reason and day. Returns
// nil when the seat is missing or already dead.
func Eliminate(in *Instance, seatNumber int, reason DeathReason) *DeathEvent {
	seat := in.SeatAt(seatNumber)
	if seat == nil || !seat.IsAlive {
		return nil
	}
	seat.IsAlive = false
	seat.DeathReason = reason
	seat.DeathDay = in.DayNumber
	return &DeathEvent{
		Seat:   seat.Number,
		Role:   seat.Role,
		Reason: reason,
		Day:    in.DayNumber,
	}
}

// CheckWinner returns the winning team, or empty while the game is
// undecided. Werewolves win when they reach parity with the villager
// team, not only a strict majority.
func CheckWinner(in *Instance) Team {
	wolves := in.CountLiving(TeamWerewolf)
	villagers := in.CountLiving(TeamVillager)

	if wolves == 0 {
		return TeamVillager
	}
	if wolves >= villagers {
		return TeamWerewolf
	}
	return ""
}

// CanHunterShoot reports whether a dying hunter may fire. Poison
// suppresses the shot.
func CanHunterShoot(seat *Seat, reason DeathReason) bool {
	if seat == nil || seat.Role != RoleHunter {
		return false
	}
	return reason != DeathReasonPoisoned
}
