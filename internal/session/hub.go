package session

import (
	"log"
	"sync"

	"github.com/pdtechteam/quiz-generator/internal/domain/entity"
	"github.com/pdtechteam/quiz-generator/internal/domain/repository"
	apperrors "github.com/pdtechteam/quiz-generator/internal/pkg/errors"
)

// ReactionLimiter enforces the per-player reaction rate limit of §4.7.
type ReactionLimiter interface {
	Allow(sessionCode string, playerID uint) (bool, error)
}

// Deps bundles the collaborators every Runtime needs.
type Deps struct {
	SessionRepo repository.SessionRepository
	QuizRepo    repository.QuizRepository
	Limiter     ReactionLimiter
	Config      Config
}

// Hub is Component F: a registry of live sessions, keyed by code, each
// owning its own broadcast fan-out. Entries are inserted on session
// creation and removed only on explicit cleanup (§5).
type Hub struct {
	mu       sync.RWMutex
	runtimes map[string]*Runtime
	deps     Deps
}

func NewHub(deps Deps) *Hub {
	return &Hub{
		runtimes: make(map[string]*Runtime),
		deps:     deps,
	}
}

// StartSession creates and starts a Runtime for a freshly created session,
// registering it in the hub.
func (h *Hub) StartSession(gs *entity.GameSession, quiz *entity.Quiz) *Runtime {
	rt := newRuntime(gs, quiz, h.deps)
	h.mu.Lock()
	h.runtimes[gs.Code] = rt
	h.mu.Unlock()
	go rt.run()
	return rt
}

// Get returns the live Runtime for a code, if any.
func (h *Hub) Get(code string) (*Runtime, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	rt, ok := h.runtimes[code]
	return rt, ok
}

// Attach adds a client to the session's broadcast group.
func (h *Hub) Attach(code string, client ClientHandle) error {
	rt, ok := h.Get(code)
	if !ok {
		return apperrors.ErrNoSuchSession
	}
	rt.attachClient(client)
	return nil
}

// Detach removes a client from the group and notifies the runtime so it
// can run disconnect logic (mark player disconnected, auto-pause if
// host). Idempotent.
func (h *Hub) Detach(code string, client ClientHandle) {
	rt, ok := h.Get(code)
	if !ok {
		return
	}
	rt.detachClient(client)
	rt.enqueue(Command{Type: cmdClientGone, Client: client})
}

// Dispatch routes a decoded inbound command to the named session's
// runtime. The caller (the websocket layer) is responsible for replying
// with no_such_session if this returns false.
func (h *Hub) Dispatch(code string, cmd Command) bool {
	rt, ok := h.Get(code)
	if !ok {
		return false
	}
	rt.enqueue(cmd)
	return true
}

// Remove stops and removes a runtime from the registry; used only on
// process shutdown or explicit cleanup (§5).
func (h *Hub) Remove(code string) {
	h.mu.Lock()
	rt, ok := h.runtimes[code]
	delete(h.runtimes, code)
	h.mu.Unlock()
	if ok {
		rt.stop()
	}
}

// Broadcast is used internally by a Runtime to deliver an event to every
// attached client, best-effort, without blocking on a slow client.
func (rt *Runtime) Broadcast(event Event) {
	rt.clientsMu.RLock()
	defer rt.clientsMu.RUnlock()
	for client := range rt.clients {
		sendOrDrop(client, event, rt.code)
	}
}

func sendOrDrop(client ClientHandle, event Event, code string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Hub] recovered while broadcasting to a client in session %s: %v", code, r)
		}
	}()
	client.Send(event)
}
