package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/rocketscienceinc/tictactoe-board/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-board/internal/entity"
	"github.com/rocketscienceinc/tictactoe-board/internal/usecase"
)

var errMissingCell = errors.New("cell is required")

type gameManager interface {
	State() usecase.Snapshot
	Play(ctx context.Context, cell int) (usecase.Report, error)
	Reset() (usecase.Snapshot, error)
	HoldReset() bool
	ChangeSize(size int) (usecase.Snapshot, error)
	ToggleMode() (usecase.Snapshot, error)
	ResetScores(ctx context.Context) usecase.Snapshot
	Rename(ctx context.Context, player1, player2 string) (usecase.Snapshot, error)
}

type moveRequest struct {
	Cell *int `json:"cell"`
}

type sizeRequest struct {
	Size int `json:"size"`
}

type renameRequest struct {
	Player1 string `json:"player1"`
	Player2 string `json:"player2"`
}

type playResponse struct {
	usecase.Report
	Error string `json:"error,omitempty"`
}

type scoresResponse struct {
	Players entity.Players `json:"players"`
	Scores  entity.Scores  `json:"scores"`
}

type holdResponse struct {
	Held  bool             `json:"held"`
	State usecase.Snapshot `json:"state"`
}

type Handlers struct {
	logger *slog.Logger

	game gameManager
}

func NewHandlers(logger *slog.Logger, game gameManager) *Handlers {
	return &Handlers{
		logger: logger.With("component", "rest"),
		game:   game,
	}
}

func (that *Handlers) Ping(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		that.logger.Warn("failed to write pong", "error", err)
	}
}

// GetGame handles GET /api/game
func (that *Handlers) GetGame(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, that.game.State())
}

// Play handles POST /api/game/moves
func (that *Handlers) Play(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Cell == nil {
		writeError(w, http.StatusBadRequest, errMissingCell.Error())
		return
	}

	report, err := that.game.Play(r.Context(), *req.Cell)
	if err != nil {
		that.logFailure(r, "Play", err)
		writeJSON(w, statusOf(err), playResponse{Report: report, Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, playResponse{Report: report})
}

// Reset handles POST /api/game/reset
func (that *Handlers) Reset(w http.ResponseWriter, r *http.Request) {
	state, err := that.game.Reset()
	if err != nil {
		that.logFailure(r, "Reset", err)
		writeError(w, statusOf(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// HoldReset handles DELETE /api/game/reset
func (that *Handlers) HoldReset(w http.ResponseWriter, _ *http.Request) {
	held := that.game.HoldReset()
	writeJSON(w, http.StatusOK, holdResponse{Held: held, State: that.game.State()})
}

// ChangeSize handles PUT /api/game/size
func (that *Handlers) ChangeSize(w http.ResponseWriter, r *http.Request) {
	var req sizeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	state, err := that.game.ChangeSize(req.Size)
	if err != nil {
		that.logFailure(r, "ChangeSize", err)
		writeError(w, statusOf(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// ToggleMode handles POST /api/game/mode
func (that *Handlers) ToggleMode(w http.ResponseWriter, r *http.Request) {
	state, err := that.game.ToggleMode()
	if err != nil {
		that.logFailure(r, "ToggleMode", err)
		writeError(w, statusOf(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// GetScores handles GET /api/scores
func (that *Handlers) GetScores(w http.ResponseWriter, _ *http.Request) {
	state := that.game.State()
	writeJSON(w, http.StatusOK, scoresResponse{Players: state.Players, Scores: state.Scores})
}

// ResetScores handles DELETE /api/scores
func (that *Handlers) ResetScores(w http.ResponseWriter, r *http.Request) {
	state := that.game.ResetScores(r.Context())
	writeJSON(w, http.StatusOK, scoresResponse{Players: state.Players, Scores: state.Scores})
}

// Rename handles PUT /api/players
func (that *Handlers) Rename(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	state, err := that.game.Rename(r.Context(), req.Player1, req.Player2)
	if err != nil {
		that.logFailure(r, "Rename", err)
		writeError(w, statusOf(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, state)
}

func (that *Handlers) logFailure(r *http.Request, method string, err error) {
	log := that.logger.With("method", method, "request_id", GetRequestID(r))

	if statusOf(err) == http.StatusInternalServerError {
		log.Error("request failed", "error", err)
		return
	}
	log.Debug("request rejected", "error", err)
}

// statusOf maps rejections to 422, bad input to 400 and everything else to 500.
func statusOf(err error) int {
	switch {
	case apperror.IsRejection(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperror.ErrInvariantViolation):
		return http.StatusInternalServerError
	case errors.Is(err, apperror.ErrInvalidSize), errors.Is(err, apperror.ErrInvalidMode):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("failed to decode json: %w", err)
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
