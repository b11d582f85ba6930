// Package server exposes problem play over WebSocket. Each connection plays
// one session at a time; sessions of the same problem share its coverage
// tracker, so "play again" always explores a new defensive branch.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/thraizz/squeeze-server-go/internal/config"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Server is the WebSocket play server.
type Server struct {
	cfg     config.ServerConfig
	hub     *Hub
	library *Library
	logger  *zap.Logger
}

// New creates a server over library.
func New(cfg config.ServerConfig, library *Library, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:     cfg,
		hub:     NewHub(library, logger),
		library: library,
		logger:  logger,
	}
}

// Handler routes /ws, /problems and /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	mux.HandleFunc("/problems", s.serveProblems)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func (s *Server) serveProblems(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.library.Problems()); err != nil {
		s.logger.Error("failed to encode problems", zap.Error(err))
	}
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	if s.hub.ClientCount() >= s.cfg.MaxSessions {
		http.Error(w, `{"error":"too many sessions"}`, http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		id:     uuid.NewString(),
		hub:    s.hub,
		conn:   conn,
		send:   make(chan []byte, sendBufSize),
		done:   make(chan struct{}),
		remote: r.RemoteAddr,
		cfg:    s.cfg.WebSocket,
		logger: s.logger,
	}
	if !s.hub.Register(client) {
		conn.Close()
		return
	}

	client.enqueue(WSEvent{Type: EventConnected, Data: ConnectedData{ClientID: client.id}})

	go client.writePump()
	go client.readPump()

	s.logger.Info("websocket client connected",
		zap.String("client_id", client.id),
		zap.String("remote", client.remote),
		zap.Int("total", s.hub.ClientCount()),
	)
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.cfg.WebSocket.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go s.hub.Run(hubCtx)

	httpServer := &http.Server{Handler: s.Handler()}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting WebSocket server", zap.String("address", lis.Addr().String()))
		errCh <- httpServer.Serve(lis)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.WebSocket.ShutdownTimeout)
	defer cancel()
	stopHub()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("WebSocket server stopped")
	return nil
}
