package game

import "fmt"

// Team represents the alignment a role fights for.
type Team string

const (
	TeamWerewolf Team = "werewolf"
	TeamVillager Team = "villager"
)

// NightActionKind identifies what a role does during the night phase.
type NightActionKind string

const (
	NightActionNone   NightActionKind = "none"
	NightActionKill   NightActionKind = "kill"
	NightActionCheck  NightActionKind = "check"
	NightActionPotion NightActionKind = "potion"
)

// Role is the closed set of playable roles. Implementations are
// stateless; per-seat state (alive, potions) lives on the Instance.
type Role interface {
	Name() string
	Team() Team
	CanActAtNight() bool
	NightActionKind() NightActionKind

	sealedRole()
}

type werewolfRole struct{}
type seerRole struct{}
type witchRole struct{}
type hunterRole struct{}
type villagerRole struct{}

// The five role singletons.
var (
	RoleWerewolf Role = werewolfRole{}
	RoleSeer     Role = seerRole{}
	RoleWitch    Role = witchRole{}
	RoleHunter   Role = hunterRole{}
	RoleVillager Role = villagerRole{}
)

func (werewolfRole) Name() string                     { return "werewolf" }
func (werewolfRole) Team() Team                       { return TeamWerewolf }
func (werewolfRole) CanActAtNight() bool              { return true }
func (werewolfRole) NightActionKind() NightActionKind { return NightActionKill }
func (werewolfRole) sealedRole()                      {}

func (seerRole) Name() string                     { return "seer" }
func (seerRole) Team() Team                       { return TeamVillager }
func (seerRole) CanActAtNight() bool              { return true }
func (seerRole) NightActionKind() NightActionKind { return NightActionCheck }
func (seerRole) sealedRole()                      {}

func (witchRole) Name() string                     { return "witch" }
func (witchRole) Team() Team                       { return TeamVillager }
func (witchRole) CanActAtNight() bool              { return true }
func (witchRole) NightActionKind() NightActionKind { return NightActionPotion }
func (witchRole) sealedRole()                      {}

func (hunterRole) Name() string                     { return "hunter" }
func (hunterRole) Team() Team                       { return TeamVillager }
func (hunterRole) CanActAtNight() bool              { return false }
func (hunterRole) NightActionKind() NightActionKind { return NightActionNone }
func (hunterRole) sealedRole()                      {}

func (villagerRole) Name() string                     { return "villager" }
func (villagerRole) Team() Team                       { return TeamVillager }
func (villagerRole) CanActAtNight() bool              { return false }
func (villagerRole) NightActionKind() NightActionKind { return NightActionNone }
func (villagerRole) sealedRole()                      {}

// ParseRole maps a role name to its singleton.
func ParseRole(name string) (Role, error) {
	switch name {
	case "werewolf":
		return RoleWerewolf, nil
	case "seer":
		return RoleSeer, nil
	case "witch":
		return RoleWitch, nil
	case "hunter":
		return RoleHunter, nil
	case "villager":
		return RoleVillager, nil
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidConfiguration, name)
	}
}

// roleMultiset is the fixed ten-seat role distribution.
func roleMultiset() []Role {
	return []Role{
		RoleWerewolf, RoleWerewolf, RoleWerewolf,
		RoleSeer,
		RoleWitch,
		RoleHunter,
		RoleVillager, RoleVillager, RoleVillager, RoleVillager,
	}
}
