package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/thraizz/squeeze-server-go/internal/game/cards"
)

// Message types sent by clients.
const (
	MsgListProblems = "list_problems"
	MsgStart        = "start"
	MsgPlay         = "play"
	MsgUndo         = "undo"
	MsgPlayAgain    = "play_again"
	MsgLegal        = "legal"
)

// Message types sent by the server.
const (
	EventConnected = "connected"
	EventProblems  = "problems"
	EventState     = "state"
	EventLegal     = "legal"
	EventError     = "error"
)

// ClientMessage is the envelope for messages sent from the client.
type ClientMessage struct {
	Type      string      `json:"type"`
	ProblemID string      `json:"problem_id,omitempty"`
	Card      *cards.Card `json:"card,omitempty"`
}

// WSEvent is the envelope for all messages sent to the client.
type WSEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	Data      any    `json:"data,omitempty"`
}

// ConnectedData is the payload of the connected event.
type ConnectedData struct {
	ClientID string `json:"client_id"`
}

// ErrorData is the payload of an error event.
type ErrorData struct {
	Message string `json:"message"`
}

// Hub tracks connected clients and routes their messages to sessions.
type Hub struct {
	library *Library
	logger  *zap.Logger

	mu      sync.RWMutex
	clients map[*Client]bool
	stopped bool
}

// NewHub creates a hub serving library.
func NewHub(library *Library, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		library: library,
		logger:  logger,
		clients: make(map[*Client]bool),
	}
}

// Run blocks until ctx is cancelled, then disconnects every client and
// refuses new ones.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped = true
	for client := range h.clients {
		delete(h.clients, client)
		close(client.done)
	}
	h.logger.Info("hub stopped")
}

// Register adds client. It reports false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return false
	}
	h.clients[client] = true
	h.logger.Info("client registered", zap.String("client_id", client.id))
	return true
}

// Unregister removes client and stops its writer.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.done)
		h.logger.Info("client unregistered", zap.String("client_id", client.id))
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// handleMessage runs one client request and returns the reply.
func (h *Hub) handleMessage(ctx context.Context, client *Client, msg ClientMessage) WSEvent {
	h.logger.Debug("received message",
		zap.String("type", msg.Type),
		zap.String("client_id", client.id),
	)

	if msg.Type == MsgListProblems {
		return WSEvent{Type: EventProblems, Data: h.library.Problems()}
	}
	if msg.Type == MsgStart {
		session, err := h.library.NewSession(ctx, msg.ProblemID)
		if err != nil {
			return errorEvent(err)
		}
		client.session = session
		snap, err := session.Start(ctx)
		if err != nil {
			return errorEvent(err)
		}
		return h.stateEvent(snap)
	}

	session := client.session
	if session == nil {
		return errorEvent(ErrNotStarted)
	}
	switch msg.Type {
	case MsgPlay:
		if msg.Card == nil {
			return errorEvent(errors.New("play requires a card"))
		}
		return h.reply(session.Play(ctx, *msg.Card))
	case MsgUndo:
		return h.reply(session.Undo())
	case MsgPlayAgain:
		return h.reply(session.PlayAgain(ctx))
	case MsgLegal:
		legal, err := session.Legal()
		if err != nil {
			return errorEvent(err)
		}
		return WSEvent{Type: EventLegal, SessionID: session.ID, Data: legal}
	default:
		return errorEvent(errors.New("unknown message type " + msg.Type))
	}
}

func (h *Hub) reply(snap Snapshot, err error) WSEvent {
	if err != nil {
		return errorEvent(err)
	}
	return h.stateEvent(snap)
}

func (h *Hub) stateEvent(snap Snapshot) WSEvent {
	return WSEvent{Type: EventState, SessionID: snap.SessionID, Data: snap}
}

func errorEvent(err error) WSEvent {
	return WSEvent{Type: EventError, Data: ErrorData{Message: err.Error()}}
}

func encode(ev WSEvent) ([]byte, error) {
	return json.Marshal(ev)
}
