package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nightpath/werewolf-server/internal/ai"
	"github.com/nightpath/werewolf-server/internal/game"
)

// Config carries the orchestrator's pacing knobs.
type Config struct {
	// PausePoll is how often a checkpoint re-checks the pause flag.
	PausePoll time.Duration
	// AnnounceDelay is the UX pause after narrator announcements.
	AnnounceDelay time.Duration
	// ReminderInterval is how often a waiting human seat is reminded.
	ReminderInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.PausePoll <= 0 {
		c.PausePoll = 200 * time.Millisecond
	}
	if c.AnnounceDelay <= 0 {
		c.AnnounceDelay = 600 * time.Millisecond
	}
	if c.ReminderInterval <= 0 {
		c.ReminderInterval = 30 * time.Second
	}
	return c
}

// runner drives exactly one instance's loop from WAITING to GAME_OVER.
// All instance mutation happens on the runner's goroutine; admin calls
// only flip the instance's atomic control flags.
type runner struct {
	inst      *game.Instance
	svc       *Service
	providers map[int]ai.Provider
	announcer ai.Announcer
	sink      Sink
	board     *waitBoard
	cfg       Config
	logger    *zap.Logger
	done      chan struct{}
}

// Run is the game loop entry point.
func (r *runner) Run() {
	defer close(r.done)
	defer r.svc.finish(r)

	if !r.inst.MarkStarted() {
		r.logger.Warn("game loop started twice, aborting second loop")
		return
	}

	r.logger.Info("game starting",
		zap.String("room", r.inst.RoomCode),
		zap.String("game_id", r.inst.GameID),
	)

	r.announceStart()

	for {
		if !r.runNightWerewolf() {
			return
		}
		if !r.runNightSeer() {
			return
		}
		if !r.runNightWitch() {
			return
		}
		if !r.dawn() {
			return
		}
		if !r.runDiscussion() {
			return
		}
		if !r.runVoting() {
			return
		}
	}
}

// checkpoint is the shared phase-step preamble: block while paused,
// abort when stopped, abort silently when this loop has been orphaned
// by a newer game for the same room.
func (r *runner) checkpoint() bool {
	for r.inst.IsPaused() && !r.inst.IsStopped() {
		time.Sleep(r.cfg.PausePoll)
	}
	if r.inst.IsStopped() {
		r.logger.Info("game loop observed stop flag", zap.String("room", r.inst.RoomCode))
		return false
	}
	if !r.svc.isCurrent(r.inst) {
		r.logger.Info("stale game loop aborting",
			zap.String("room", r.inst.RoomCode),
			zap.String("game_id", r.inst.GameID),
		)
		return false
	}
	return true
}

// pace inserts the UX delay between sub-steps. It is itself a
// cancellable checkpoint.
func (r *runner) pace() bool {
	deadline := time.Now().Add(r.cfg.AnnounceDelay)
	for time.Now().Before(deadline) {
		if r.inst.IsStopped() {
			return false
		}
		time.Sleep(r.cfg.PausePoll)
	}
	return r.checkpoint()
}

func (r *runner) emit(ev Event) {
	ev.RoomCode = r.inst.RoomCode
	ev.Day = r.inst.DayNumber
	ev.Phase = r.inst.Phase.String()
	ev.Timestamp = time.Now()
	r.sink.Broadcast(r.inst.RoomCode, ev)
}

func (r *runner) notify(seat *game.Seat, ev Event) {
	ev.RoomCode = r.inst.RoomCode
	ev.Day = r.inst.DayNumber
	ev.Phase = r.inst.Phase.String()
	ev.Seat = seat.Number
	ev.Timestamp = time.Now()
	r.sink.Notify(r.inst.RoomCode, seat.PlayerID, ev)
}

func (r *runner) setPhase(phase game.Phase, sub game.SubPhase) {
	r.inst.Phase = phase
	r.inst.SubPhase = sub
	data := map[string]any{"subPhase": sub.String()}
	r.emit(Event{Type: EventPhaseChange, Data: data})
	r.emit(Event{Type: EventStateSnapshot, Data: map[string]any{
		"seats": Snapshot(r.inst, r.inst.HumanSeat()),
	}})
}

// announce runs the Announcer with the deterministic fallback policy:
// failures are logged and replaced, never surfaced.
func (r *runner) announce(kind ai.AnnounceKind, info ai.AnnounceContext) {
	if info.Day == 0 {
		info.Day = r.inst.DayNumber
	}
	text, err := r.announcer.Announce(context.Background(), kind, info)
	if err != nil || text == "" {
		if err != nil {
			r.logger.Warn("announcer failed, using fallback",
				zap.String("kind", string(kind)),
				zap.Error(err),
			)
		}
		text = ai.FallbackLine(kind, info)
	}
	r.inst.AppendLog(game.LogEntry{Kind: game.LogKindAnnouncement, Content: text})
	r.emit(Event{Type: EventAnnouncement, Data: map[string]any{"kind": string(kind), "text": text}})
}

func (r *runner) announceStart() {
	r.announce(ai.AnnounceGameStart, ai.AnnounceContext{})
	if r.inst.HumanSeat() == nil {
		// Spectator game: open roles from the first announcement.
		reveal := make(map[string]any, game.SeatCount)
		for n := 1; n <= game.SeatCount; n++ {
			reveal[fmt.Sprintf("%d", n)] = r.inst.SeatAt(n).Role.Name()
		}
		r.emit(Event{Type: EventAnnouncement, Data: map[string]any{"kind": "role_reveal", "roles": reveal}})
	}
}

// provider returns the decision provider for a seat, falling back to
// the scripted provider if none was registered.
func (r *runner) provider(seat *game.Seat) ai.Provider {
	if p, ok := r.providers[seat.Number]; ok && p != nil {
		return p
	}
	return ai.NewScriptedProvider()
}

// buildView assembles the sanitized state a provider (or human client)
// may see for the acting seat.
func (r *runner) buildView(actor *game.Seat) ai.View {
	view := ai.View{
		RoomCode: r.inst.RoomCode,
		Day:      r.inst.DayNumber,
		Phase:    r.inst.Phase.String(),
		Self: ai.SeatView{
			Number:  actor.Number,
			Name:    actor.DisplayName,
			IsAlive: actor.IsAlive,
			Role:    actor.Role.Name(),
			Team:    string(actor.Role.Team()),
		},
	}
	for n := 1; n <= game.SeatCount; n++ {
		seat := r.inst.SeatAt(n)
		sv := ai.SeatView{Number: seat.Number, Name: seat.DisplayName, IsAlive: seat.IsAlive}
		if revealRole(r.inst, actor, seat) {
			sv.Role = seat.Role.Name()
			sv.Team = string(seat.Role.Team())
		}
		view.Seats = append(view.Seats, sv)
	}
	if actor.Role.Team() == game.TeamWerewolf {
		for _, wolf := range r.inst.LivingSeatsWithRole(game.RoleWerewolf) {
			if wolf.Number != actor.Number {
				view.Allies = append(view.Allies, wolf.Number)
			}
		}
	}
	for _, entry := range r.inst.VisibleLogs(actor) {
		view.History = append(view.History, fmt.Sprintf("[day %d %s] %s", entry.Day, entry.Kind, entry.Content))
	}
	return view
}

// awaitHuman suspends the loop until the human seat submits an action
// that passes validate, the room is stopped, or the loop is orphaned.
// There is no timeout; a reminder ticker nags the player while the
// wait holds. Returns ok=false when the loop must abort.
func (r *runner) awaitHuman(seat *game.Seat, kind WaitKind, prompt map[string]any, validate func(HumanAction) error) (HumanAction, bool) {
	w := r.board.open(r.inst.RoomCode, seat.Number, kind)
	defer r.board.close(r.inst.RoomCode, seat.Number)

	if prompt == nil {
		prompt = map[string]any{}
	}
	prompt["kind"] = string(kind)
	r.notify(seat, Event{Type: EventTurnNotify, Data: prompt})

	reminder := time.NewTicker(r.cfg.ReminderInterval)
	defer reminder.Stop()
	stopPoll := time.NewTicker(r.cfg.PausePoll)
	defer stopPoll.Stop()

	waitStart := time.Now()
	for {
		select {
		case d := <-w.deliveries:
			if err := validate(d.action); err != nil {
				d.reply <- err
				continue
			}
			d.reply <- nil
			return d.action, true
		case <-reminder.C:
			r.notify(seat, Event{Type: EventReminder, Data: map[string]any{
				"kind":           string(kind),
				"waitingSeconds": int(time.Since(waitStart).Seconds()),
			}})
		case <-stopPoll.C:
			if r.inst.IsStopped() || !r.svc.isCurrent(r.inst) {
				return HumanAction{}, false
			}
		}
	}
}

// runNightWerewolf collects each automated werewolf's non-binding
// opinion, then takes a binding decision: from the human werewolf if
// one is alive, otherwise from the first living werewolf's provider.
// Provider failure falls back to a majority vote over opinions; no
// opinions means no kill tonight.
func (r *runner) runNightWerewolf() bool {
	if !r.checkpoint() {
		return false
	}
	if r.inst.Phase != game.PhaseNight {
		r.setPhase(game.PhaseNight, game.SubPhaseWerewolf)
		// The night belongs to the day about to break.
		r.announce(ai.AnnounceNightFalls, ai.AnnounceContext{Day: r.inst.DayNumber + 1})
		if !r.pace() {
			return false
		}
	} else {
		r.inst.SubPhase = game.SubPhaseWerewolf
	}

	wolves := r.inst.LivingSeatsWithRole(game.RoleWerewolf)
	if len(wolves) == 0 {
		return true
	}

	targets := r.killTargets()
	var opinions []int
	var opinionLines []string

	for _, wolf := range wolves {
		if !wolf.IsAutomated {
			continue
		}
		if !r.checkpoint() {
			return false
		}
		view := r.buildView(wolf)
		view.Opinions = opinionLines
		action, err := r.provider(wolf).DecideNightAction(context.Background(), view, targets)
		if err != nil {
			r.logger.Warn("werewolf opinion failed",
				zap.Int("seat", wolf.Number),
				zap.Error(err),
			)
			continue
		}
		if action.Target == 0 {
			continue
		}
		opinions = append(opinions, action.Target)
		line := fmt.Sprintf("%s suggests killing seat %d", wolf.DisplayName, action.Target)
		opinionLines = append(opinionLines, line)
		r.inst.AppendLog(game.LogEntry{
			Kind:    game.LogKindSkill,
			Content: line,
			Seat:    wolf.Number,
			Channel: game.ChannelWerewolf,
		})
	}

	kill := 0
	if human := r.humanWolf(wolves); human != nil {
		action, ok := r.awaitHuman(human, WaitNightAction,
			map[string]any{"targets": targets, "opinions": opinionLines},
			func(a HumanAction) error {
				if a.Target == 0 {
					return nil // explicit no-kill
				}
				return r.validTarget(a.Target, targets)
			})
		if !ok {
			return false
		}
		kill = action.Target
	} else {
		decider := wolves[0]
		view := r.buildView(decider)
		view.Opinions = opinionLines
		action, err := r.provider(decider).DecideNightAction(context.Background(), view, targets)
		switch {
		case err == nil && action.Target != 0:
			kill = action.Target
		default:
			if err != nil {
				r.logger.Warn("werewolf decision failed, falling back to opinion majority",
					zap.Int("seat", decider.Number),
					zap.Error(err),
				)
			}
			kill = majority(opinions)
		}
	}

	if kill != 0 {
		r.inst.Night.WerewolfKillTarget = kill
		r.inst.AppendLog(game.LogEntry{
			Kind:    game.LogKindSkill,
			Content: fmt.Sprintf("the pack settles on seat %d", kill),
			Channel: game.ChannelWerewolf,
		})
	}
	return r.pace()
}

// killTargets lists the seats a werewolf may kill: any living seat.
func (r *runner) killTargets() []int {
	var targets []int
	for _, seat := range r.inst.LivingSeats() {
		targets = append(targets, seat.Number)
	}
	return targets
}

func (r *runner) humanWolf(wolves []*game.Seat) *game.Seat {
	for _, wolf := range wolves {
		if !wolf.IsAutomated {
			return wolf
		}
	}
	return nil
}

func (r *runner) validTarget(target int, legal []int) error {
	for _, t := range legal {
		if t == target {
			return nil
		}
	}
	return fmt.Errorf("%w: seat %d", game.ErrInvalidTarget, target)
}

// majority returns the most frequent value, lowest seat winning ties,
// or 0 for an empty slice.
func majority(values []int) int {
	if len(values) == 0 {
		return 0
	}
	counts := make(map[int]int, len(values))
	for _, v := range values {
		counts[v]++
	}
	best, bestCount := 0, 0
	for v, c := range counts {
		if c > bestCount || (c == bestCount && (best == 0 || v < best)) {
			best, bestCount = v, c
		}
	}
	return best
}

// runNightSeer lets the seer check one seat and privately learn
// whether it is a werewolf.
func (r *runner) runNightSeer() bool {
	if !r.checkpoint() {
		return false
	}
	r.inst.SubPhase = game.SubPhaseSeer

	seer := r.inst.FirstLivingSeatWithRole(game.RoleSeer)
	if seer == nil {
		return true
	}

	var targets []int
	for _, seat := range r.inst.LivingSeats() {
		if seat.Number != seer.Number {
			targets = append(targets, seat.Number)
		}
	}

	var isWolf bool
	var checked int
	if seer.IsAutomated {
		action, err := r.provider(seer).DecideNightAction(context.Background(), r.buildView(seer), targets)
		if err != nil || action.Target == 0 {
			if err != nil {
				r.logger.Warn("seer decision failed, checking lowest seat",
					zap.Int("seat", seer.Number),
					zap.Error(err),
				)
			}
			if len(targets) == 0 {
				return true
			}
			action.Target = targets[0]
		}
		result, err := game.SeerCheck(r.inst, action.Target)
		if err != nil {
			r.logger.Warn("seer check rejected", zap.Int("target", action.Target), zap.Error(err))
			return true
		}
		checked, isWolf = action.Target, result
	} else {
		action, ok := r.awaitHuman(seer, WaitNightAction,
			map[string]any{"targets": targets},
			func(a HumanAction) error {
				result, err := game.SeerCheck(r.inst, a.Target)
				if err != nil {
					return err
				}
				isWolf = result
				return nil
			})
		if !ok {
			return false
		}
		checked = action.Target
		r.notify(seer, Event{Type: EventAnnouncement, Data: map[string]any{
			"kind":       "seer_result",
			"target":     checked,
			"isWerewolf": isWolf,
		}})
	}

	r.inst.AppendLog(game.LogEntry{
		Kind:    game.LogKindSkill,
		Content: fmt.Sprintf("the seer checked seat %d: werewolf=%v", checked, isWolf),
		Seat:    seer.Number,
		Channel: game.ChannelPrivate,
	})
	return r.pace()
}

// runNightWitch offers the witch her antidote and poison.
func (r *runner) runNightWitch() bool {
	if !r.checkpoint() {
		return false
	}
	r.inst.SubPhase = game.SubPhaseWitch

	witch := r.inst.FirstLivingSeatWithRole(game.RoleWitch)
	if witch == nil {
		return true
	}

	view := r.buildView(witch)
	view.KillTarget = r.inst.Night.WerewolfKillTarget
	view.HasAntidote = r.inst.WitchHasAntidote
	view.HasPoison = r.inst.WitchHasPoison

	var poisonTargets []int
	for _, seat := range r.inst.LivingSeats() {
		poisonTargets = append(poisonTargets, seat.Number)
	}

	if witch.IsAutomated {
		action, err := r.provider(witch).DecideNightAction(context.Background(), view, poisonTargets)
		if err != nil {
			r.logger.Warn("witch decision failed, holding potions",
				zap.Int("seat", witch.Number),
				zap.Error(err),
			)
			return r.pace()
		}
		if applied, err := game.WitchAct(r.inst, action.Save, action.PoisonTarget); err != nil {
			r.logger.Warn("witch action rejected", zap.Error(err))
		} else {
			r.logWitchActions(witch, applied)
		}
	} else {
		_, ok := r.awaitHuman(witch, WaitNightAction,
			map[string]any{
				"killTarget":  view.KillTarget,
				"hasAntidote": view.HasAntidote,
				"hasPoison":   view.HasPoison,
				"targets":     poisonTargets,
			},
			func(a HumanAction) error {
				applied, err := game.WitchAct(r.inst, a.Save, a.PoisonTarget)
				if err != nil {
					return err
				}
				r.logWitchActions(witch, applied)
				return nil
			})
		if !ok {
			return false
		}
	}
	return r.pace()
}

func (r *runner) logWitchActions(witch *game.Seat, applied game.AppliedActions) {
	if applied.SavedSeat != 0 {
		r.inst.AppendLog(game.LogEntry{
			Kind:    game.LogKindSkill,
			Content: fmt.Sprintf("the witch used the antidote on seat %d", applied.SavedSeat),
			Seat:    witch.Number,
			Channel: game.ChannelPrivate,
		})
	}
	if applied.PoisonedSeat != 0 {
		r.inst.AppendLog(game.LogEntry{
			Kind:    game.LogKindSkill,
			Content: fmt.Sprintf("the witch poisoned seat %d", applied.PoisonedSeat),
			Seat:    witch.Number,
			Channel: game.ChannelPrivate,
		})
	}
}

// dawn resolves the night, advances the day counter, announces the
// outcome, and handles death interrupts. Returns false when the loop
// must stop (stop flag, orphaned, or game over).
func (r *runner) dawn() bool {
	if !r.checkpoint() {
		return false
	}

	deaths := game.ResolveNight(r.inst)
	r.inst.DayNumber++
	r.inst.SubPhase = game.SubPhaseNone

	r.announce(ai.AnnounceDayBreaks, ai.AnnounceContext{})
	if len(deaths) == 0 {
		r.announce(ai.AnnouncePeaceful, ai.AnnounceContext{})
	}
	for _, ev := range deaths {
		r.emitDeath(ev)
	}
	if !r.pace() {
		return false
	}

	if winner := game.CheckWinner(r.inst); winner != "" {
		return r.gameOver(winner)
	}
	for _, ev := range deaths {
		if !r.deathInterrupts(ev) {
			return false
		}
	}
	if winner := game.CheckWinner(r.inst); winner != "" {
		return r.gameOver(winner)
	}
	return true
}

func (r *runner) emitDeath(ev game.DeathEvent) {
	seat := r.inst.SeatAt(ev.Seat)
	r.announce(ai.AnnounceDeath, ai.AnnounceContext{TargetName: seat.DisplayName})
	r.inst.AppendLog(game.LogEntry{
		Kind:       game.LogKindDeath,
		Content:    fmt.Sprintf("%s died (%s)", seat.DisplayName, ev.Reason),
		Seat:       ev.Seat,
		PlayerName: seat.DisplayName,
	})
	r.emit(Event{Type: EventDeath, Data: map[string]any{
		"seat":   ev.Seat,
		"reason": string(ev.Reason),
	}})
}

// deathInterrupts runs the LAST_WORDS and HUNTER_SHOOT sub-flows for
// one death before the scheduled flow continues.
func (r *runner) deathInterrupts(ev game.DeathEvent) bool {
	if !r.runLastWords(ev.Seat) {
		return false
	}
	seat := r.inst.SeatAt(ev.Seat)
	if game.CanHunterShoot(seat, ev.Reason) {
		return r.runHunterShoot(seat, ev.Reason)
	}
	return true
}

// runLastWords gives a freshly dead seat its final statement.
func (r *runner) runLastWords(seatNumber int) bool {
	if !r.checkpoint() {
		return false
	}
	seat := r.inst.SeatAt(seatNumber)
	prevPhase, prevSub := r.inst.Phase, r.inst.SubPhase
	r.setPhase(game.PhaseLastWords, game.SubPhaseNone)
	r.announce(ai.AnnounceLastWords, ai.AnnounceContext{TargetName: seat.DisplayName})
	r.emit(Event{Type: EventLastWordsRequest, Data: map[string]any{"seat": seat.Number}})

	ok := r.runSpeech(seat, WaitLastWords)
	if !ok {
		return false
	}

	r.inst.Phase, r.inst.SubPhase = prevPhase, prevSub
	return r.pace()
}

// runHunterShoot lets a dying hunter take one seat along.
func (r *runner) runHunterShoot(hunter *game.Seat, reason game.DeathReason) bool {
	if !r.checkpoint() {
		return false
	}
	prevPhase, prevSub := r.inst.Phase, r.inst.SubPhase
	r.setPhase(game.PhaseHunterShoot, game.SubPhaseNone)
	r.announce(ai.AnnounceHunterShoot, ai.AnnounceContext{TargetName: hunter.DisplayName})

	var targets []int
	for _, seat := range r.inst.LivingSeats() {
		targets = append(targets, seat.Number)
	}

	target := 0
	if hunter.IsAutomated {
		shot, err := r.provider(hunter).DecideShoot(context.Background(), r.buildView(hunter), string(reason), targets)
		if err != nil {
			r.logger.Warn("hunter decision failed, holding fire",
				zap.Int("seat", hunter.Number),
				zap.Error(err),
			)
		} else {
			target = shot
		}
	} else {
		action, ok := r.awaitHuman(hunter, WaitHunterShoot,
			map[string]any{"targets": targets, "reason": string(reason)},
			func(a HumanAction) error {
				if a.Target == 0 {
					return nil // hold fire
				}
				return r.validTarget(a.Target, targets)
			})
		if !ok {
			return false
		}
		target = action.Target
	}

	if target != 0 {
		if ev := game.Eliminate(r.inst, target, game.DeathReasonShot); ev != nil {
			r.inst.AppendLog(game.LogEntry{
				Kind:    game.LogKindSkill,
				Content: fmt.Sprintf("%s shot seat %d", hunter.DisplayName, target),
				Seat:    hunter.Number,
			})
			r.emitDeath(*ev)
			r.inst.Phase, r.inst.SubPhase = prevPhase, prevSub
			if winner := game.CheckWinner(r.inst); winner != "" {
				return r.gameOver(winner)
			}
			// The shot victim gets last words too. It can never be
			// another hunter, so this does not recurse further.
			return r.deathInterrupts(*ev)
		}
	}

	r.inst.Phase, r.inst.SubPhase = prevPhase, prevSub
	return r.pace()
}

// runSpeech drives one seat's speech, streaming chunks as events.
func (r *runner) runSpeech(seat *game.Seat, kind WaitKind) bool {
	r.notify(seat, Event{Type: EventTurnNotify, Data: map[string]any{"kind": string(kind)}})
	r.emit(Event{Type: EventSpeechStart, Seat: seat.Number})

	var text string
	if seat.IsAutomated {
		spoken, err := r.provider(seat).GenerateSpeech(context.Background(), r.buildView(seat), func(chunk string) {
			r.emit(Event{Type: EventSpeechChunk, Seat: seat.Number, Data: map[string]any{"text": chunk}})
		})
		if err != nil {
			r.logger.Warn("speech generation failed, using fallback",
				zap.Int("seat", seat.Number),
				zap.Error(err),
			)
			spoken = "I'll pass my turn."
			r.emit(Event{Type: EventSpeechChunk, Seat: seat.Number, Data: map[string]any{"text": spoken}})
		}
		text = spoken
	} else {
		action, ok := r.awaitHuman(seat, kind, nil, func(a HumanAction) error { return nil })
		if !ok {
			return false
		}
		text = action.Text
		r.emit(Event{Type: EventSpeechChunk, Seat: seat.Number, Data: map[string]any{"text": text}})
	}

	r.inst.AppendLog(game.LogEntry{
		Kind:       game.LogKindSpeech,
		Content:    text,
		Seat:       seat.Number,
		PlayerName: seat.DisplayName,
	})
	r.emit(Event{Type: EventSpeechEnd, Seat: seat.Number, Data: map[string]any{"text": text}})
	return true
}

// runDiscussion walks living seats in ascending order, each speaking
// to completion before the next seat begins.
func (r *runner) runDiscussion() bool {
	if !r.checkpoint() {
		return false
	}
	r.setPhase(game.PhaseDayDiscussion, game.SubPhaseNone)

	for _, seat := range r.inst.LivingSeats() {
		if !r.checkpoint() {
			return false
		}
		if !seat.IsAlive {
			continue
		}
		if !r.runSpeech(seat, WaitSpeech) {
			return false
		}
		if !r.pace() {
			return false
		}
	}
	return true
}

// runVoting collects one ballot per living seat, tallies, and applies
// the elimination with its death interrupts.
func (r *runner) runVoting() bool {
	if !r.checkpoint() {
		return false
	}
	r.setPhase(game.PhaseDayVote, game.SubPhaseNone)
	r.announce(ai.AnnounceVoteStart, ai.AnnounceContext{})
	r.inst.Ballot = make(game.Ballot)

	for _, voter := range r.inst.LivingSeats() {
		if !r.checkpoint() {
			return false
		}
		if !voter.IsAlive {
			continue
		}

		var candidates []int
		for _, seat := range r.inst.LivingSeats() {
			if seat.Number != voter.Number {
				candidates = append(candidates, seat.Number)
			}
		}

		target := 0
		if voter.IsAutomated {
			vote, err := r.provider(voter).DecideVote(context.Background(), r.buildView(voter), candidates)
			if err != nil {
				r.logger.Warn("vote decision failed, abstaining",
					zap.Int("seat", voter.Number),
					zap.Error(err),
				)
			} else {
				target = vote
			}
		} else {
			action, ok := r.awaitHuman(voter, WaitVote,
				map[string]any{"candidates": candidates},
				func(a HumanAction) error {
					if a.Target == 0 {
						return nil // abstain
					}
					return r.validTarget(a.Target, candidates)
				})
			if !ok {
				return false
			}
			target = action.Target
		}

		if target != 0 {
			r.inst.Ballot[voter.Number] = target
			r.inst.AppendLog(game.LogEntry{
				Kind:       game.LogKindVote,
				Content:    fmt.Sprintf("%s voted for seat %d", voter.DisplayName, target),
				Seat:       voter.Number,
				PlayerName: voter.DisplayName,
			})
		}
		r.emit(Event{Type: EventVoteUpdate, Data: map[string]any{
			"voter":  voter.Number,
			"target": target,
		}})
	}

	counts, eliminated, isTie := game.TallyVotes(r.inst.Ballot)
	r.emit(Event{Type: EventVoteResult, Data: map[string]any{
		"counts":     counts,
		"eliminated": eliminated,
		"isTie":      isTie,
	}})

	if isTie {
		r.announce(ai.AnnounceVoteTie, ai.AnnounceContext{})
		return r.pace()
	}

	seat := r.inst.SeatAt(eliminated)
	r.announce(ai.AnnounceVoteResult, ai.AnnounceContext{TargetName: seat.DisplayName})
	ev := game.Eliminate(r.inst, eliminated, game.DeathReasonVoted)
	if ev == nil {
		return r.pace()
	}
	r.emitDeath(*ev)

	if winner := game.CheckWinner(r.inst); winner != "" {
		return r.gameOver(winner)
	}
	if !r.deathInterrupts(*ev) {
		return false
	}
	if winner := game.CheckWinner(r.inst); winner != "" {
		return r.gameOver(winner)
	}
	return r.pace()
}

// gameOver enters the terminal phase: record the winner, open the
// werewolf channel, announce, archive, and emit the final event.
// Always returns false so callers unwind the loop.
func (r *runner) gameOver(winner game.Team) bool {
	r.inst.Winner = winner
	r.setPhase(game.PhaseGameOver, game.SubPhaseNone)
	promoted := r.inst.PromoteWerewolfLogs()
	r.announce(ai.AnnounceGameOver, ai.AnnounceContext{Winner: string(winner)})
	r.emit(Event{Type: EventGameOver, Data: map[string]any{
		"winner":       string(winner),
		"days":         r.inst.DayNumber,
		"seats":        Snapshot(r.inst, nil),
		"promotedLogs": promoted,
	}})

	if r.svc.archiver != nil {
		if err := r.svc.archiver.ArchiveGame(context.Background(), r.inst); err != nil {
			r.logger.Warn("failed to archive finished game",
				zap.String("game_id", r.inst.GameID),
				zap.Error(err),
			)
		}
	}

	r.logger.Info("game over",
		zap.String("room", r.inst.RoomCode),
		zap.String("winner", string(winner)),
		zap.Int("days", r.inst.DayNumber),
	)
	return false
}
