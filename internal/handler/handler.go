// Package handler exposes the till purchase flow over HTTP. Each till id gets
// its own cashier controller; requests for one till are serialised.
package handler

import (
	"net/http"
	"sync"

	"github.com/xenking/cashier/internal/cashier"
	"github.com/xenking/cashier/internal/domain/order"
	"github.com/xenking/cashier/internal/domain/stock"
)

// Placeholder is shown in place of the order summary between customers.
const Placeholder = "Customer's order"

// HandlerConfig holds non-dependency configuration for the Handler.
type HandlerConfig struct {
	// TillOptions are applied to every till model the handler creates.
	TillOptions []cashier.TillOption
	// Metrics records controller intents. Nil disables recording.
	Metrics *cashier.Metrics
}

// session is one till: its controller and the lock serialising its intents.
type session struct {
	mu   sync.Mutex
	till *cashier.Till
	ctrl *cashier.Controller
	// closed is set under mu once the session is evicted.
	closed bool
}

// idle reports whether the till holds nothing worth keeping: no open basket
// and no checked product.
func (s *session) idle() bool {
	_, checked := s.till.Checked()
	return !checked && s.till.Basket() == nil && s.till.State() == cashier.StateIdle
}

// Handler routes till requests to per-till controllers.
type Handler struct {
	stock  stock.Repository
	orders order.Processor
	cfg    HandlerConfig

	mu       sync.Mutex
	sessions map[string]*session
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(cfg HandlerConfig, st stock.Repository, orders order.Processor) *Handler {
	return &Handler{
		stock:    st,
		orders:   orders,
		cfg:      cfg,
		sessions: make(map[string]*session),
	}
}

// Routes returns the API mux.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/tills/{till}", h.refresh)
	mux.HandleFunc("POST /api/tills/{till}/check", h.check)
	mux.HandleFunc("POST /api/tills/{till}/buy", h.buy)
	mux.HandleFunc("POST /api/tills/{till}/bought", h.bought)
	mux.HandleFunc("POST /api/tills/{till}/discount", h.discount)
	mux.HandleFunc("POST /api/tills/{till}/remove", h.remove)
	return mux
}

// acquire returns the locked session of till, creating an idle one on first
// use.
func (h *Handler) acquire(till string) *session {
	for {
		h.mu.Lock()
		s, ok := h.sessions[till]
		if !ok {
			model := cashier.NewTill(h.stock, h.orders, h.cfg.TillOptions...)
			s = &session{till: model, ctrl: cashier.NewController(model, h.cfg.Metrics)}
			h.sessions[till] = s
		}
		h.mu.Unlock()

		s.mu.Lock()
		if !s.closed {
			return s
		}
		// Evicted while waiting for the lock.
		s.mu.Unlock()
	}
}

// release unlocks s, evicting it first when the till is idle. An idle till
// is indistinguishable from a new one.
func (h *Handler) release(till string, s *session) {
	if s.idle() {
		h.mu.Lock()
		if h.sessions[till] == s {
			delete(h.sessions, till)
		}
		h.mu.Unlock()
		s.closed = true
	}
	s.mu.Unlock()
}

func (h *Handler) tills() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}
