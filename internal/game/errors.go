package game

import "errors"

// Errors fatal to game start.
var (
	// ErrInvalidConfiguration indicates a bad role or seat setup.
	ErrInvalidConfiguration = errors.New("invalid game configuration")
)

// Errors returned to a human-action caller. The game itself continues
// unaffected when any of these is returned.
var (
	// ErrInvalidTarget indicates the chosen target is not legal for the action.
	ErrInvalidTarget = errors.New("invalid target")
	// ErrActionTypeMismatch indicates the action kind does not match what
	// the game is currently waiting for.
	ErrActionTypeMismatch = errors.New("action type mismatch")
	// ErrNotYourTurn indicates the acting seat is not the seat being waited on.
	ErrNotYourTurn = errors.New("not your turn")
	// ErrWitchResourceExhausted indicates the antidote or poison was already spent.
	ErrWitchResourceExhausted = errors.New("witch resource exhausted")
	// ErrSelfSaveNotAllowed indicates a self-save outside the first night.
	ErrSelfSaveNotAllowed = errors.New("witch self-save not allowed")
)

// Administrative misuse errors.
var (
	// ErrGameNotFound indicates no running game for the room.
	ErrGameNotFound = errors.New("game not found")
	// ErrGameAlreadyStarted indicates a start request for a started game.
	ErrGameAlreadyStarted = errors.New("game already started")
	// ErrNotPaused indicates a resume request while the game is not paused.
	ErrNotPaused = errors.New("game not paused")
)
