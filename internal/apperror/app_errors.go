package apperror

import "errors"

var (
	ErrInvalidSize      = errors.New("invalid board size")
	ErrInvalidMode      = errors.New("invalid game mode")
	ErrGameFinished     = errors.New("game is already finished")
	ErrInvalidCell      = errors.New("invalid cell index")
	ErrCellOccupied     = errors.New("cell is already occupied")
	ErrAwaitingComputer = errors.New("waiting for the computer to move")
	ErrNotSoloMode      = errors.New("computer moves are only allowed in solo mode")
	ErrNotComputerTurn  = errors.New("it's not the computer's turn")
	ErrNotYourTurn      = errors.New("it's not your turn")

	// ErrInvariantViolation marks programming errors: the caller broke a contract the engine trusts.
	ErrInvariantViolation = errors.New("invariant violation")
)

// IsRejection reports whether err is an expected, user-recoverable move rejection.
func IsRejection(err error) bool {
	if errors.Is(err, ErrInvariantViolation) {
		return false
	}

	return errors.Is(err, ErrGameFinished) ||
		errors.Is(err, ErrInvalidCell) ||
		errors.Is(err, ErrCellOccupied) ||
		errors.Is(err, ErrAwaitingComputer) ||
		errors.Is(err, ErrNotSoloMode) ||
		errors.Is(err, ErrNotComputerTurn)
}
