package game

import "testing"

func newTestInstance(t *testing.T, humanSeat int, humanRole Role) *Instance {
	t.Helper()
	in := NewInstance("TEST01")
	assignment, err := AssignRoles(humanSeat, humanRole)
	if err != nil {
		t.Fatalf("AssignRoles failed: %v", err)
	}
	if err := SetupSeats(in, assignment, humanSeat, "human-1", "Human"); err != nil {
		t.Fatalf("SetupSeats failed: %v", err)
	}
	return in
}

// fixedInstance builds an instance with a deterministic layout:
// seats 1-3 werewolf, 4 seer, 5 witch, 6 hunter, 7-10 villager.
func fixedInstance(t *testing.T) *Instance {
	t.Helper()
	in := NewInstance("TEST01")
	var assignment [SeatCount]Role
	layout := []Role{
		RoleWerewolf, RoleWerewolf, RoleWerewolf,
		RoleSeer, RoleWitch, RoleHunter,
		RoleVillager, RoleVillager, RoleVillager, RoleVillager,
	}
	copy(assignment[:], layout)
	if err := SetupSeats(in, assignment, 0, "", ""); err != nil {
		t.Fatalf("SetupSeats failed: %v", err)
	}
	return in
}

func countRoles(roles [SeatCount]Role) map[string]int {
	counts := make(map[string]int)
	for _, r := range roles {
		counts[r.Name()]++
	}
	return counts
}

func TestAssignRolesMultiset(t *testing.T) {
	for i := 0; i < 50; i++ {
		assignment, err := AssignRoles(0, nil)
		if err != nil {
			t.Fatalf("AssignRoles failed: %v", err)
		}
		counts := countRoles(assignment)
		if counts["werewolf"] != 3 || counts["seer"] != 1 || counts["witch"] != 1 ||
			counts["hunter"] != 1 || counts["villager"] != 4 {
			t.Fatalf("wrong role distribution: %v", counts)
		}
	}
}

func TestAssignRolesHumanRequest(t *testing.T) {
	for _, role := range []Role{RoleWerewolf, RoleSeer, RoleWitch, RoleHunter, RoleVillager} {
		for i := 0; i < 20; i++ {
			assignment, err := AssignRoles(3, role)
			if err != nil {
				t.Fatalf("AssignRoles(%s) failed: %v", role.Name(), err)
			}
			if assignment[2] != role {
				t.Fatalf("expected seat 3 to hold %s, got %s", role.Name(), assignment[2].Name())
			}
			counts := countRoles(assignment)
			if counts["werewolf"] != 3 || counts["seer"] != 1 || counts["witch"] != 1 ||
				counts["hunter"] != 1 || counts["villager"] != 4 {
				t.Fatalf("distribution broken by swap: %v", counts)
			}
		}
	}
}

func TestAssignRolesBadSeat(t *testing.T) {
	if _, err := AssignRoles(0, RoleSeer); err == nil {
		t.Fatal("expected error for human role without a valid seat")
	}
	if _, err := AssignRoles(11, RoleSeer); err == nil {
		t.Fatal("expected error for out-of-range human seat")
	}
}

func TestParseRoleUnknown(t *testing.T) {
	if _, err := ParseRole("jester"); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestTeamDerivedFromRole(t *testing.T) {
	if RoleWerewolf.Team() != TeamWerewolf {
		t.Fatal("werewolf must be on the werewolf team")
	}
	for _, r := range []Role{RoleSeer, RoleWitch, RoleHunter, RoleVillager} {
		if r.Team() != TeamVillager {
			t.Fatalf("%s must be on the villager team", r.Name())
		}
	}
}

func TestRoleNightCapabilities(t *testing.T) {
	tests := []struct {
		role   Role
		canAct bool
		action NightActionKind
	}{
		{RoleWerewolf, true, NightActionKill},
		{RoleSeer, true, NightActionCheck},
		{RoleWitch, true, NightActionPotion},
		{RoleHunter, false, NightActionNone},
		{RoleVillager, false, NightActionNone},
	}
	for _, tt := range tests {
		if got := tt.role.CanActAtNight(); got != tt.canAct {
			t.Errorf("%s: CanActAtNight = %v, want %v", tt.role.Name(), got, tt.canAct)
		}
		if got := tt.role.NightActionKind(); got != tt.action {
			t.Errorf("%s: NightActionKind = %q, want %q", tt.role.Name(), got, tt.action)
		}
		if tt.role.CanActAtNight() != (tt.role.NightActionKind() != NightActionNone) {
			t.Errorf("%s: CanActAtNight disagrees with NightActionKind", tt.role.Name())
		}
	}
}

func TestResolveNightKill(t *testing.T) {
	in := fixedInstance(t)
	in.Night.WerewolfKillTarget = 7

	deaths := ResolveNight(in)
	if len(deaths) != 1 {
		t.Fatalf("expected 1 death, got %d", len(deaths))
	}
	if deaths[0].Seat != 7 || deaths[0].Reason != DeathReasonKilled {
		t.Fatalf("unexpected death event: %+v", deaths[0])
	}
	if in.SeatAt(7).IsAlive {
		t.Fatal("seat 7 should be dead")
	}
	if in.SeatAt(7).DeathDay != in.DayNumber {
		t.Fatalf("death day not stamped, got %d", in.SeatAt(7).DeathDay)
	}
}

func TestResolveNightIdempotent(t *testing.T) {
	in := fixedInstance(t)
	in.Night.WerewolfKillTarget = 7

	first := ResolveNight(in)
	if len(first) != 1 {
		t.Fatalf("expected 1 death on first resolve, got %d", len(first))
	}
	second := ResolveNight(in)
	if len(second) != 0 {
		t.Fatalf("expected no deaths on second resolve, got %d", len(second))
	}
}

func TestResolveNightAntidoteSavesKill(t *testing.T) {
	in := fixedInstance(t)
	in.Night.WerewolfKillTarget = 7

	applied, err := WitchAct(in, true, 0)
	if err != nil {
		t.Fatalf("WitchAct failed: %v", err)
	}
	if applied.SavedSeat != 7 {
		t.Fatalf("expected save on seat 7, got %d", applied.SavedSeat)
	}

	deaths := ResolveNight(in)
	if len(deaths) != 0 {
		t.Fatalf("expected no deaths, got %+v", deaths)
	}
	if !in.SeatAt(7).IsAlive {
		t.Fatal("saved seat must stay alive")
	}
}

func TestResolveNightPoisonBeatsSave(t *testing.T) {
	in := fixedInstance(t)
	in.Night.WerewolfKillTarget = 7

	if _, err := WitchAct(in, true, 7); err != nil {
		t.Fatalf("WitchAct failed: %v", err)
	}

	deaths := ResolveNight(in)
	if len(deaths) != 1 {
		t.Fatalf("expected 1 death, got %d", len(deaths))
	}
	if deaths[0].Seat != 7 || deaths[0].Reason != DeathReasonPoisoned {
		t.Fatalf("expected seat 7 poisoned, got %+v", deaths[0])
	}
}

func TestResolveNightKillThenPoisonOrder(t *testing.T) {
	in := fixedInstance(t)
	in.Night.WerewolfKillTarget = 7
	if _, err := WitchAct(in, false, 8); err != nil {
		t.Fatalf("WitchAct failed: %v", err)
	}

	deaths := ResolveNight(in)
	if len(deaths) != 2 {
		t.Fatalf("expected 2 deaths, got %d", len(deaths))
	}
	if deaths[0].Seat != 7 || deaths[0].Reason != DeathReasonKilled {
		t.Fatalf("kill must resolve first, got %+v", deaths[0])
	}
	if deaths[1].Seat != 8 || deaths[1].Reason != DeathReasonPoisoned {
		t.Fatalf("poison must resolve second, got %+v", deaths[1])
	}
}

func TestSeerCheck(t *testing.T) {
	in := fixedInstance(t)

	isWolf, err := SeerCheck(in, 1)
	if err != nil {
		t.Fatalf("SeerCheck failed: %v", err)
	}
	if !isWolf {
		t.Fatal("seat 1 is a werewolf")
	}

	// Second check within the same night is rejected.
	if _, err := SeerCheck(in, 2); err == nil {
		t.Fatal("expected rejection of repeat check")
	}

	// Reset clears the restriction for the next night.
	in.Night = NightActions{}
	isWolf, err = SeerCheck(in, 7)
	if err != nil {
		t.Fatalf("SeerCheck failed after reset: %v", err)
	}
	if isWolf {
		t.Fatal("seat 7 is a villager")
	}
}

func TestSeerCheckInvalidTargets(t *testing.T) {
	in := fixedInstance(t)
	Eliminate(in, 8, DeathReasonKilled)

	if _, err := SeerCheck(in, 4); err == nil {
		t.Fatal("expected rejection of self-check")
	}
	if _, err := SeerCheck(in, 8); err == nil {
		t.Fatal("expected rejection of dead target")
	}
	if _, err := SeerCheck(in, 99); err == nil {
		t.Fatal("expected rejection of missing seat")
	}
}

func TestWitchResourcesExhaust(t *testing.T) {
	in := fixedInstance(t)
	in.Night.WerewolfKillTarget = 7
	if _, err := WitchAct(in, true, 8); err != nil {
		t.Fatalf("WitchAct failed: %v", err)
	}
	ResolveNight(in)

	in.Night.WerewolfKillTarget = 9
	if _, err := WitchAct(in, true, 0); err == nil {
		t.Fatal("expected antidote exhaustion")
	}
	if _, err := WitchAct(in, false, 10); err == nil {
		t.Fatal("expected poison exhaustion")
	}
}

func TestWitchSelfSave(t *testing.T) {
	in := fixedInstance(t)

	// First night: self-save allowed. Witch is seat 5.
	in.Night.WerewolfKillTarget = 5
	if _, err := WitchAct(in, true, 0); err != nil {
		t.Fatalf("first-night self-save rejected: %v", err)
	}
	ResolveNight(in)
	if !in.SeatAt(5).IsAlive {
		t.Fatal("witch should survive the first night")
	}

	// Later nights: self-save rejected.
	in.WitchHasAntidote = true
	in.DayNumber = 1
	in.Night.WerewolfKillTarget = 5
	if _, err := WitchAct(in, true, 0); err == nil {
		t.Fatal("expected self-save rejection after first night")
	}
}

func TestWitchCompoundRejectionLeavesStateUntouched(t *testing.T) {
	in := fixedInstance(t)
	in.Night.WerewolfKillTarget = 7
	Eliminate(in, 8, DeathReasonVoted)

	// Save is legal but the poison target is dead; the whole request
	// must fail without consuming the antidote.
	if _, err := WitchAct(in, true, 8); err == nil {
		t.Fatal("expected rejection for dead poison target")
	}
	if !in.WitchHasAntidote {
		t.Fatal("antidote consumed by a rejected compound action")
	}
	if in.Night.WitchUsedAntidote {
		t.Fatal("antidote marked used by a rejected compound action")
	}
	if in.Night.WitchPoisonTarget != 0 {
		t.Fatal("poison target recorded by a rejected compound action")
	}

	// The same save retried alone must still succeed.
	applied, err := WitchAct(in, true, 0)
	if err != nil {
		t.Fatalf("retried save rejected: %v", err)
	}
	if applied.SavedSeat != 7 {
		t.Fatalf("expected save of seat 7, got %d", applied.SavedSeat)
	}
}

func TestTallyVotes(t *testing.T) {
	tests := []struct {
		name       string
		ballot     Ballot
		eliminated int
		isTie      bool
	}{
		{"clear majority", Ballot{1: 3, 2: 3, 3: 5}, 3, false},
		{"two-way tie", Ballot{1: 3, 2: 5}, 0, true},
		{"no ballots", Ballot{}, 0, true},
		{"unanimous", Ballot{1: 4, 2: 4, 3: 4}, 4, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counts, eliminated, isTie := TallyVotes(tt.ballot)
			if eliminated != tt.eliminated {
				t.Fatalf("expected eliminated=%d, got %d", tt.eliminated, eliminated)
			}
			if isTie != tt.isTie {
				t.Fatalf("expected isTie=%v, got %v", tt.isTie, isTie)
			}
			if tt.name == "clear majority" {
				if counts[3] != 2 || counts[5] != 1 {
					t.Fatalf("unexpected counts: %v", counts)
				}
			}
		})
	}
}

func TestEliminateDeadSeatIsNoop(t *testing.T) {
	in := fixedInstance(t)
	if ev := Eliminate(in, 7, DeathReasonVoted); ev == nil {
		t.Fatal("first elimination should produce an event")
	}
	if ev := Eliminate(in, 7, DeathReasonShot); ev != nil {
		t.Fatalf("second elimination should be a no-op, got %+v", ev)
	}
	if in.SeatAt(7).DeathReason != DeathReasonVoted {
		t.Fatal("death reason must not be overwritten")
	}
}

func TestCheckWinner(t *testing.T) {
	in := fixedInstance(t)
	if w := CheckWinner(in); w != "" {
		t.Fatalf("fresh game should have no winner, got %s", w)
	}

	// Kill villagers until parity: 3 wolves vs 3 villagers.
	for _, seat := range []int{7, 8, 9, 10} {
		Eliminate(in, seat, DeathReasonKilled)
	}
	if w := CheckWinner(in); w != TeamWerewolf {
		t.Fatalf("werewolves should win at parity, got %q", w)
	}
}

func TestCheckWinnerVillagers(t *testing.T) {
	in := fixedInstance(t)
	for _, seat := range []int{1, 2} {
		Eliminate(in, seat, DeathReasonVoted)
	}
	if w := CheckWinner(in); w != "" {
		t.Fatalf("game should continue with a wolf alive, got %q", w)
	}
	Eliminate(in, 3, DeathReasonVoted)
	if w := CheckWinner(in); w != TeamVillager {
		t.Fatalf("villagers should win with zero wolves, got %q", w)
	}
}

func TestCanHunterShoot(t *testing.T) {
	in := fixedInstance(t)
	hunter := in.SeatAt(6)

	for _, reason := range []DeathReason{DeathReasonKilled, DeathReasonVoted, DeathReasonShot} {
		if !CanHunterShoot(hunter, reason) {
			t.Fatalf("hunter should shoot when dying from %s", reason)
		}
	}
	if CanHunterShoot(hunter, DeathReasonPoisoned) {
		t.Fatal("poisoned hunter must not shoot")
	}
	if CanHunterShoot(in.SeatAt(7), DeathReasonKilled) {
		t.Fatal("non-hunter seat must not shoot")
	}
}

func TestSetupSeatsHuman(t *testing.T) {
	in := newTestInstance(t, 4, RoleSeer)

	human := in.HumanSeat()
	if human == nil || human.Number != 4 {
		t.Fatal("expected human at seat 4")
	}
	if human.Role != RoleSeer {
		t.Fatalf("expected human seer, got %s", human.Role.Name())
	}
	if human.PlayerID != "human-1" || human.DisplayName != "Human" {
		t.Fatalf("human identity not applied: %+v", human)
	}

	automated := 0
	for n := 1; n <= SeatCount; n++ {
		if in.SeatAt(n).IsAutomated {
			automated++
		}
	}
	if automated != 9 {
		t.Fatalf("expected 9 automated seats, got %d", automated)
	}
}
