package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/paperdrill/paperdrill-backend/internal/middleware"
	"github.com/paperdrill/paperdrill-backend/internal/session"
	ws "github.com/paperdrill/paperdrill-backend/internal/websocket"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
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

// WSHandler streams the session clock over a WebSocket: the client sends one
// tick per second while visible, the server replies with authoritative
// remaining time so a reloaded tab never drifts.
type WSHandler struct {
	store    *session.Store
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(store *session.Store, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		store:    store,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// SessionStream godoc
// WS /ws/session/:session_id/stream
// Upgrades to WebSocket for per-second time tracking and timer control.
func (h *WSHandler) SessionStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return
	}

	snap, err := h.store.Get(sessionID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	if snap.UserID != claims.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("user_id", claims.UserID).
		Str("session_id", sessionID.String()).
		Logger()

	wsLog.Info().Msg("Client connected")

	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		switch msg.Action {
		case ws.ActionTick:
			h.handleTick(conn, sessionID, msg.Index)
		case ws.ActionNavigate:
			_, err = h.store.NavigateTo(sessionID, msg.Index)
			h.respondState(conn, sessionID, err)
		case ws.ActionPause:
			_, err = h.store.Pause(sessionID)
			h.respondState(conn, sessionID, err)
		case ws.ActionResume:
			_, err = h.store.Resume(sessionID)
			h.respondState(conn, sessionID, err)
		case ws.ActionSection:
			_, err = h.store.SetCurrentSection(sessionID, msg.Index)
			h.respondState(conn, sessionID, err)
		case ws.ActionPing:
			ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			ws.WriteError(conn, "unknown action: "+string(msg.Action))
		}
	}
}

// handleTick adds a second to the current slot's counter. Ticks on a paused
// or ended session are ignored rather than errored; the client's interval may
// race the state change by a beat.
func (h *WSHandler) handleTick(conn *websocket.Conn, sessionID uuid.UUID, index int) {
	snap, err := h.store.Get(sessionID)
	if err != nil {
		ws.WriteError(conn, "session not found")
		return
	}
	if snap.Paused || snap.EndedAt != nil {
		h.respondState(conn, sessionID, nil)
		return
	}

	_, err = h.store.IncrementTime(sessionID, index)
	h.respondState(conn, sessionID, err)
}

func (h *WSHandler) respondState(conn *websocket.Conn, sessionID uuid.UUID, err error) {
	if err != nil {
		ws.WriteError(conn, "update failed")
		return
	}

	snap, err := h.store.Get(sessionID)
	if err != nil {
		ws.WriteError(conn, "session not found")
		return
	}

	remaining, _ := h.store.RemainingTime(sessionID)
	sectionRemaining, _ := h.store.SectionRemainingTime(sessionID, snap.CurrentSectionIndex)

	ws.WriteTyped(conn, ws.StateResponse{
		Event:               ws.EventState,
		RemainingSec:        remaining,
		SectionRemainingSec: sectionRemaining,
		CurrentIndex:        snap.CurrentIndex,
		CurrentSectionIndex: snap.CurrentSectionIndex,
		Paused:              snap.Paused,
	})
}
