// Package gateway implements the Connection Gateway (spec §4.6, §6.1): the
// WebSocket transport admitting clients, demultiplexing their commands to
// the Matchmaker/Relay/Abuse Controller, and pumping outbound events back
// out. Grounded on the teacher's internal/handler/ws/delivery.go pump loop
// and internal/handler/marshaller/ws package, generalized from a user-id
// subscribe/unsubscribe model to this system's connection-id admit/release
// model.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/webitel/signal-matchmaker/config"
	"github.com/webitel/signal-matchmaker/internal/abuse"
	"github.com/webitel/signal-matchmaker/internal/conntable"
	"github.com/webitel/signal-matchmaker/internal/domain/event"
	"github.com/webitel/signal-matchmaker/internal/domain/model"
	"github.com/webitel/signal-matchmaker/internal/domain/registry"
	"github.com/webitel/signal-matchmaker/internal/matchmaker"
	"github.com/webitel/signal-matchmaker/internal/pair"
	"github.com/webitel/signal-matchmaker/internal/presence"
	"github.com/webitel/signal-matchmaker/internal/relay"
)

const writeWait = 10 * time.Second

// Handler is the http.Handler admitting and serving one WebSocket
// connection per client (spec §6.1's "persistent bidirectional channel").
type Handler struct {
	logger     *slog.Logger
	hub        registry.Hubber
	table      *conntable.Table
	pair       *pair.Manager
	presence   *presence.Tracker
	matchmaker *matchmaker.Matchmaker
	relay      *relay.Relay
	abuse      *abuse.Controller
	upgrader   websocket.Upgrader
	instance   string
}

func NewHandler(logger *slog.Logger, hub registry.Hubber, table *conntable.Table, p *pair.Manager, pr *presence.Tracker, mm *matchmaker.Matchmaker, rl *relay.Relay, ac *abuse.Controller, cfg *config.Config) *Handler {
	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		allowed[o] = true
	}
	return &Handler{
		logger:     logger,
		hub:        hub,
		table:      table,
		pair:       p,
		presence:   pr,
		matchmaker: mm,
		relay:      rl,
		abuse:      ac,
		instance:   instanceHost(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				return allowed[r.Header.Get("Origin")]
			},
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	remoteIP := clientIP(r)

	if !h.abuse.Admission(r.Context(), remoteIP) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("gateway: upgrade failed", "err", err)
		return
	}
	defer ws.Close()

	connID := uuid.NewString()
	conn := model.NewConnection(connID, h.instance, remoteIP)
	h.table.Put(conn)
	session := h.hub.Register(connID)
	if err := h.presence.Mark(r.Context(), connID); err != nil {
		h.logger.Error("gateway: presence mark failed", "conn_id", connID, "err", err)
	}

	h.logger.Info("gateway: connection admitted", "conn_id", connID, "remote_ip", remoteIP)

	defer h.teardown(connID)

	done := make(chan struct{})
	go h.readPump(ws, connID, done)
	h.writePump(ws, session, done)
}

func (h *Handler) teardown(connID string) {
	ctx := context.Background()
	h.matchmaker.OnDisconnect(ctx, connID)
	if err := h.presence.Unmark(ctx, connID); err != nil {
		h.logger.Error("gateway: presence unmark failed", "conn_id", connID, "err", err)
	}
	h.table.Delete(connID)
	h.hub.Unregister(connID)
	h.logger.Info("gateway: connection released", "conn_id", connID)
}

// readPump demultiplexes inbound client commands (spec §6.2) until the
// socket closes, then signals writePump to stop via done.
func (h *Handler) readPump(ws *websocket.Conn, connID string, done chan struct{}) {
	defer close(done)
	ctx := context.Background()
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.deliverError(connID, fmt.Errorf("gateway: malformed message"))
			continue
		}

		switch msg.Type {
		case msgJoin:
			if err := h.matchmaker.Join(ctx, connID); err != nil {
				h.deliverError(connID, err)
			}
		case msgNext:
			if err := h.matchmaker.Next(ctx, connID); err != nil {
				h.deliverError(connID, err)
			}
		case msgLeave:
			if err := h.matchmaker.Leave(ctx, connID); err != nil {
				h.deliverError(connID, err)
			}
		case msgSignal:
			if err := h.relay.Forward(ctx, connID, msg.Peer, msg.Signal); err != nil {
				h.deliverError(connID, err)
			}
		case msgReport:
			h.handleReport(ctx, connID, msg)
		default:
			h.deliverError(connID, fmt.Errorf("gateway: unknown message type %q", msg.Type))
		}
	}
}

func (h *Handler) handleReport(ctx context.Context, connID string, msg inboundMessage) {
	err := h.abuse.Report(ctx, connID, msg.Peer, msg.Reason, func(id string) (string, bool) {
		return h.pair.Partner(ctx, id)
	})
	if err != nil {
		h.deliverError(connID, err)
		return
	}
	h.hub.DeliverLocal(connID, event.NewReportSubmitted(connID))
}

func (h *Handler) deliverError(connID string, err error) {
	h.hub.DeliverLocal(connID, event.NewError(connID, err.Error()))
}

// writePump drains session's mailbox to the socket until done fires or a
// write fails (spec §5: each connection serialized through its own pump).
func (h *Handler) writePump(ws *websocket.Conn, session registry.Session, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case ev, ok := <-session.Recv():
			if !ok {
				return
			}
			data, err := marshalOutbound(ev)
			if err != nil {
				h.logger.Error("gateway: marshal failed", "err", err)
				continue
			}
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.Warn("gateway: write failed", "err", err)
				return
			}
		}
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func instanceHost() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "signal-matchmaker"
	}
	return host
}
