package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-practice/internal/exam"
	"github.com/stemsi/exstem-practice/internal/middleware"
	"github.com/stemsi/exstem-practice/internal/model"
	"github.com/stemsi/exstem-practice/internal/response"
	"github.com/stemsi/exstem-practice/internal/service"
	ws "github.com/stemsi/exstem-practice/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams a practice session over WebSocket.
type WSHandler struct {
	practice *service.PracticeService
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(practice *service.PracticeService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		practice: practice,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// PracticeStream godoc
// WS /ws/v1/practice/stream?token=...
// Pushes a state snapshot on every change (including each timer tick) and accepts
// actions from the client.
func (h *WSHandler) PracticeStream(c *gin.Context) {
	owner := middleware.OwnerID(c)
	if owner == "" {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	states, cancel, err := h.practice.Watch(c.Request.Context(), owner)
	if err != nil {
		if errors.Is(err, service.ErrNoSession) {
			response.Fail(c, http.StatusNotFound, response.ErrNoSession)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Str("owner", owner).Logger()
	wsLog.Info().Msg("Practice stream connected")

	out := make(chan any, 8)
	done := make(chan struct{})
	go h.writeLoop(conn, states, out, done, wsLog)

	if current, err := h.practice.Current(c.Request.Context(), owner); err == nil {
		send(out, done, ws.StateEvent{Event: ws.EventState, State: service.NewStateView(current)})
	}

	ws.KeepAlive(conn)
	for {
		var msg ws.Request
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		select {
		case <-done:
			return
		default:
		}

		switch msg.Action {
		case ws.ActionPing:
			send(out, done, ws.PongResponse{Event: ws.EventPong})
		case ws.ActionResult:
			result, _, err := h.practice.Result(c.Request.Context(), owner)
			if err != nil {
				send(out, done, ws.ErrorResponse{Event: ws.EventError, Error: err.Error()})
				continue
			}
			send(out, done, ws.ResultEvent{Event: ws.EventResult, Result: result})
		case ws.ActionDispatch:
			h.handleDispatch(c, owner, msg, out, done)
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			send(out, done, ws.ErrorResponse{Event: ws.EventError, Error: "unknown action: " + string(msg.Action)})
		}
	}
	close(out)
	<-done
}

// handleDispatch applies an action. The resulting state reaches the client through
// the watch channel; completion additionally sends the result.
func (h *WSHandler) handleDispatch(c *gin.Context, owner string, msg ws.Request, out chan<- any, done <-chan struct{}) {
	req := msg.PracticeAction()
	st, err := h.practice.Dispatch(c.Request.Context(), owner, req)
	if err != nil {
		send(out, done, ws.ErrorResponse{Event: ws.EventError, Error: err.Error()})
		return
	}
	if st.Session.Status == model.PracticeStatusCompleted && req.Type == string(exam.ActionCompleteExam) {
		result := exam.CalculateResult(st.Session, st.Questions)
		send(out, done, ws.ResultEvent{Event: ws.EventCompleted, Result: result})
	}
}

// writeLoop is the only writer of conn. It ends when the reader closes out or the
// session's watch channel closes.
func (h *WSHandler) writeLoop(conn *websocket.Conn, states <-chan exam.State, out <-chan any, done chan<- struct{}, log zerolog.Logger) {
	defer close(done)
	ticker := time.NewTicker(ws.PingPeriod)
	defer ticker.Stop()

	for {
		var err error
		select {
		case st, ok := <-states:
			if !ok {
				_ = ws.WriteError(conn, "practice session closed")
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
					time.Now().Add(ws.WriteWait))
				// Unblock the reader.
				_ = conn.Close()
				return
			}
			err = ws.WriteTyped(conn, ws.StateEvent{Event: ws.EventState, State: service.NewStateView(st)})
		case msg, ok := <-out:
			if !ok {
				return
			}
			err = ws.WriteTyped(conn, msg)
		case <-ticker.C:
			err = ws.WritePing(conn)
		}
		if err != nil {
			log.Debug().Err(err).Msg("Write failed")
			_ = conn.Close()
			return
		}
	}
}

func send(out chan<- any, done <-chan struct{}, v any) {
	select {
	case out <- v:
	case <-done:
	}
}
