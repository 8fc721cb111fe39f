// Package wsserver is an optional websocket front end for submitting
// request and subscription messages and receiving validated, classified
// results. It runs an errgroup-driven, context-cancellable accept loop that
// dispatches each inbound connection to its own per-message request/response
// handler.
package wsserver

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/ctbto-nms/ims2parser/internal/dictionary"
	"github.com/ctbto-nms/ims2parser/internal/parser"
	"github.com/ctbto-nms/ims2parser/internal/render"
	"github.com/ctbto-nms/ims2parser/internal/semantic"
	"github.com/ctbto-nms/ims2parser/internal/subscriptions"
)

// Request is the inbound envelope: a raw message, tagged with a
// caller-supplied (or server-assigned) correlation id.
type Request struct {
	CorrelationID string `json:"correlationId,omitempty"`
	Message       string `json:"message"`
}

// Response is the outbound envelope.
type Response struct {
	CorrelationID string `json:"correlationId"`
	OK            bool   `json:"ok"`
	Rendered      string `json:"rendered,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Server accepts websocket connections, parses and validates each
// submitted message, and streams back the canonical rendering.
type Server struct {
	addr    string
	reg     *subscriptions.Registry
	mu      sync.Mutex
	conns   map[string]*websocket.Conn
}

func New(addr string, reg *subscriptions.Registry) *Server {
	return &Server{
		addr:  addr,
		reg:   reg,
		conns: make(map[string]*websocket.Conn),
	}
}

// Run serves until ctx is cancelled, using an errgroup plus a
// cancellable-context shutdown.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebsocket(ctx))

	httpServer := &http.Server{Addr: s.addr, Handler: mux}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", s.addr).Msg("starting websocket server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Info().Msg("shutting down websocket server")
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (s *Server) handleWebsocket(ctx context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			log.Error().Err(err).Msg("websocket accept failed")
			return
		}
		connID := uuid.NewString()

		s.mu.Lock()
		s.conns[connID] = conn
		s.mu.Unlock()
		defer func() {
			s.mu.Lock()
			delete(s.conns, connID)
			s.mu.Unlock()
			conn.Close(websocket.StatusNormalClosure, "closing")
		}()

		log.Info().Str("conn_id", connID).Msg("websocket connection accepted")

		connCtx := ctx
		for {
			var req Request
			if err := wsjson.Read(connCtx, conn, &req); err != nil {
				log.Info().Str("conn_id", connID).Err(err).Msg("websocket connection closed")
				return
			}
			resp := s.handleRequest(req)
			if err := wsjson.Write(connCtx, conn, resp); err != nil {
				log.Error().Err(err).Str("conn_id", connID).Msg("failed to write websocket response")
				return
			}
		}
	}
}

func (s *Server) handleRequest(req Request) Response {
	correlationID := req.CorrelationID
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	msg, err := parser.Parse([]byte(req.Message))
	if err != nil {
		return Response{CorrelationID: correlationID, OK: false, Error: err.Error()}
	}

	validated, err := validate(msg)
	if err != nil {
		return Response{CorrelationID: correlationID, OK: false, Error: err.Error()}
	}

	if msg.MsgInfo.Type == "subscription" && s.reg != nil {
		if err := s.reg.ApplyMessage(validated); err != nil {
			log.Error().Err(err).Msg("failed to apply subscription message")
		}
	}

	return Response{CorrelationID: correlationID, OK: true, Rendered: render.Text(validated)}
}

func validate(msg *dictionary.Message) (*dictionary.Message, error) {
	if msg.MsgInfo.Type == "subscription" {
		return semantic.ValidateSubscription(msg, nil)
	}
	return semantic.Validate(msg, nil)
}

// Broadcast sends payload to every currently connected client; used by a
// delivery pipeline feeding validated products to subscribers.
func (s *Server) Broadcast(ctx context.Context, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal broadcast payload")
		return
	}
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		if err := c.Write(ctx, websocket.MessageText, data); err != nil {
			log.Warn().Err(err).Msg("broadcast write failed")
		}
	}
}
