package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nightpath/werewolf-server/internal/ai"
	"github.com/nightpath/werewolf-server/internal/game"
)

// Archiver persists finished games. The engine calls it once per game
// at GAME_OVER and tolerates failure.
type Archiver interface {
	ArchiveGame(ctx context.Context, in *game.Instance) error
}

// ProviderFactory builds the decision provider for one automated seat.
type ProviderFactory func(seat *game.Seat) ai.Provider

// Service owns the process-wide registry of running games: one runner
// goroutine per room, plus the wait board that inbound human actions
// rendezvous on. It is the only cross-room structure and the only one
// accessed from multiple goroutines.
type Service struct {
	mu      sync.RWMutex
	runners map[string]*runner

	board     *waitBoard
	cfg       Config
	sink      Sink
	announcer ai.Announcer
	factory   ProviderFactory
	archiver  Archiver
	logger    *zap.Logger
}

// NewService creates the game service. sink, announcer, factory and
// archiver may be nil; deterministic defaults are substituted.
func NewService(cfg Config, sink Sink, announcer ai.Announcer, factory ProviderFactory, archiver Archiver, logger *zap.Logger) *Service {
	if sink == nil {
		sink = nopSink{}
	}
	if announcer == nil {
		announcer = ai.NewStaticAnnouncer()
	}
	if factory == nil {
		scripted := ai.NewScriptedProvider()
		factory = func(*game.Seat) ai.Provider { return scripted }
	}
	return &Service{
		runners:   make(map[string]*runner),
		board:     newWaitBoard(),
		cfg:       cfg.withDefaults(),
		sink:      sink,
		announcer: announcer,
		factory:   factory,
		archiver:  archiver,
		logger:    logger,
	}
}

// StartOptions configures one game start.
type StartOptions struct {
	// HumanPlayerID identifies the human participant; empty runs a
	// fully automated spectator game.
	HumanPlayerID string
	HumanName     string
	// HumanSeat places the human (1..10); 0 with a player ID means
	// seat 1.
	HumanSeat int
	// HumanRole optionally requests a specific role for the human seat.
	HumanRole string
}

// StartGame creates a fresh instance for the room and launches its
// loop. A still-running game for the same room is signalled to stop
// first; StartGame waits briefly for the old loop to observe the flag.
func (s *Service) StartGame(roomCode string, opts StartOptions) (*game.Instance, error) {
	s.mu.Lock()
	old := s.runners[roomCode]
	s.mu.Unlock()

	if old != nil {
		old.inst.Stop()
		select {
		case <-old.done:
		case <-time.After(2 * time.Second):
			s.logger.Warn("old game loop slow to stop, proceeding",
				zap.String("room", roomCode),
				zap.String("game_id", old.inst.GameID),
			)
		}
	}

	humanSeat := opts.HumanSeat
	if opts.HumanPlayerID != "" && humanSeat == 0 {
		humanSeat = 1
	}
	if opts.HumanPlayerID == "" {
		humanSeat = 0
	}

	var humanRole game.Role
	if opts.HumanRole != "" {
		role, err := game.ParseRole(opts.HumanRole)
		if err != nil {
			return nil, err
		}
		if humanSeat == 0 {
			return nil, fmt.Errorf("%w: role request without a human seat", game.ErrInvalidConfiguration)
		}
		humanRole = role
	}

	inst := game.NewInstance(roomCode)
	assignment, err := game.AssignRoles(humanSeat, humanRole)
	if err != nil {
		return nil, err
	}
	if err := game.SetupSeats(inst, assignment, humanSeat, opts.HumanPlayerID, opts.HumanName); err != nil {
		return nil, err
	}

	r := &runner{
		inst:      inst,
		svc:       s,
		providers: make(map[int]ai.Provider, game.SeatCount),
		announcer: s.announcer,
		sink:      s.sink,
		board:     s.board,
		cfg:       s.cfg,
		logger:    s.logger.With(zap.String("room", roomCode), zap.String("game_id", inst.GameID)),
		done:      make(chan struct{}),
	}
	for n := 1; n <= game.SeatCount; n++ {
		if seat := inst.SeatAt(n); seat.IsAutomated {
			r.providers[n] = s.factory(seat)
		}
	}

	s.mu.Lock()
	if cur, ok := s.runners[roomCode]; ok && cur != old && !cur.inst.IsStopped() {
		s.mu.Unlock()
		return nil, game.ErrGameAlreadyStarted
	}
	s.runners[roomCode] = r
	s.mu.Unlock()

	go r.Run()

	s.logger.Info("game registered",
		zap.String("room", roomCode),
		zap.String("game_id", inst.GameID),
		zap.Int("human_seat", humanSeat),
		zap.String("human_role", opts.HumanRole),
	)
	return inst, nil
}

// finish removes a runner from the registry once its loop returns,
// unless a newer game already replaced it.
func (s *Service) finish(r *runner) {
	s.mu.Lock()
	if cur, ok := s.runners[r.inst.RoomCode]; ok && cur == r {
		delete(s.runners, r.inst.RoomCode)
	}
	s.mu.Unlock()
}

// isCurrent reports whether the instance is still the registered game
// for its room. A false result means the loop is an orphan and must
// abort silently.
func (s *Service) isCurrent(in *game.Instance) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cur, ok := s.runners[in.RoomCode]
	return ok && cur.inst.GameID == in.GameID
}

func (s *Service) runner(roomCode string) (*runner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runners[roomCode]
	if !ok || r.inst.IsStopped() {
		return nil, game.ErrGameNotFound
	}
	return r, nil
}

// PauseGame flags the room's loop to block at its next checkpoint.
func (s *Service) PauseGame(roomCode string) error {
	r, err := s.runner(roomCode)
	if err != nil {
		return err
	}
	r.inst.SetPaused(true)
	s.logger.Info("game paused", zap.String("room", roomCode))
	return nil
}

// ResumeGame clears the pause flag.
func (s *Service) ResumeGame(roomCode string) error {
	r, err := s.runner(roomCode)
	if err != nil {
		return err
	}
	if !r.inst.IsPaused() {
		return game.ErrNotPaused
	}
	r.inst.SetPaused(false)
	s.logger.Info("game resumed", zap.String("room", roomCode))
	return nil
}

// StopGame irreversibly stops the room's loop. The instance is
// discarded once the loop observes the flag.
func (s *Service) StopGame(roomCode string) error {
	r, err := s.runner(roomCode)
	if err != nil {
		return err
	}
	r.inst.Stop()
	s.logger.Info("game stopped", zap.String("room", roomCode))
	return nil
}

// HasGame reports whether the room has a live game.
func (s *Service) HasGame(roomCode string) bool {
	_, err := s.runner(roomCode)
	return err == nil
}

// Waiting reports what input kind, if any, the room's loop is blocked
// on for the given player.
func (s *Service) Waiting(roomCode, playerID string) (WaitKind, bool) {
	r, err := s.runner(roomCode)
	if err != nil {
		return "", false
	}
	seat := r.inst.SeatByPlayerID(playerID)
	if seat == nil {
		return "", false
	}
	return s.board.waiting(roomCode, seat.Number)
}

// ProcessHumanAction is the single entry point for all human input.
// It validates seat identity and hands the action to the waiting loop,
// which validates legality through the rules engine and replies
// synchronously. Rejections come back as errors; the game continues
// unaffected.
func (s *Service) ProcessHumanAction(roomCode, playerID string, action HumanAction) error {
	r, err := s.runner(roomCode)
	if err != nil {
		return err
	}
	seat := r.inst.SeatByPlayerID(playerID)
	if seat == nil || seat.IsAutomated {
		return game.ErrNotYourTurn
	}
	return s.board.deliver(roomCode, seat.Number, action)
}
