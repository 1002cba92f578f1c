package websocket

import (
	"log/slog"
	"net/http"
	"time"

	ws "github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-board/internal/usecase"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

type gameManager interface {
	State() usecase.Snapshot
	Subscribe() (<-chan usecase.Snapshot, func())
}

// Server streams game snapshots to connected clients. Clients only listen; moves go through the REST API.
type Server struct {
	logger *slog.Logger

	game     gameManager
	upgrader ws.Upgrader
}

func New(logger *slog.Logger, game gameManager) *Server {
	return &Server{
		logger: logger.With("component", "websocket"),
		game:   game,
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
	}
}

func (that *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "ServeHTTP", "remote", r.RemoteAddr)

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}
	defer conn.Close()

	// subscribe before reading the state so no change falls in between
	updates, unsubscribe := that.game.Subscribe()
	defer unsubscribe()

	log.Info("client connected")

	if err = that.send(conn, that.game.State()); err != nil {
		log.Warn("failed to send snapshot", "error", err)
		return
	}

	done := that.readLoop(conn)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case snapshot, ok := <-updates:
			if !ok {
				_ = conn.WriteControl(ws.CloseMessage, ws.FormatCloseMessage(ws.CloseGoingAway, "server shutting down"), time.Now().Add(writeWait))
				return
			}

			if err = that.send(conn, snapshot); err != nil {
				log.Warn("failed to send snapshot", "error", err)
				return
			}
		case <-ticker.C:
			if err = conn.WriteControl(ws.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Warn("failed to send ping, assuming disconnect", "error", err)
				return
			}
		case <-done:
			log.Info("client disconnected")
			return
		}
	}
}

// readLoop drains incoming frames so control messages are processed. The returned channel
// closes when the client goes away.
func (that *Server) readLoop(conn *ws.Conn) <-chan struct{} {
	done := make(chan struct{})

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go func() {
		defer close(done)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if ws.IsUnexpectedCloseError(err, ws.CloseGoingAway, ws.CloseNormalClosure) {
					that.logger.Debug("unexpected close", "error", err)
				}
				return
			}
		}
	}()

	return done
}

func (that *Server) send(conn *ws.Conn, snapshot usecase.Snapshot) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}

	return conn.WriteJSON(snapshot)
}
