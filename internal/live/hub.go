package live

import (
	"sync"

	"go.uber.org/zap"
)

// EventTasksUpdated es la única señal que viaja por el canal en vivo.
// No lleva payload: el cliente debe volver a pedir su lista autoritativa.
const EventTasksUpdated = "tasks_updated"

// Hub es el registro de conexiones vivas por usuario. Reemplaza al
// registro global mutable: lo crea main y lo cierra en el shutdown.
type Hub struct {
	logger *zap.Logger

	mu     sync.Mutex
	subs   map[string]map[chan []byte]struct{}
	closed bool
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger: logger,
		subs:   make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe registra una conexión del usuario y devuelve el canal de
// eventos junto con la función de baja. La baja es idempotente.
func (h *Hub) Subscribe(userID string) (<-chan []byte, func()) {
	ch := make(chan []byte, 8)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(ch)
		return ch, func() {}
	}

	conns, ok := h.subs[userID]
	if !ok {
		conns = make(map[chan []byte]struct{})
		h.subs[userID] = conns
	}
	conns[ch] = struct{}{}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if h.closed {
				return
			}
			if conns, ok := h.subs[userID]; ok {
				if _, ok := conns[ch]; ok {
					delete(conns, ch)
					close(ch)
				}
				if len(conns) == 0 {
					delete(h.subs, userID)
				}
			}
		})
	}
	return ch, cancel
}

// NotifyUser envía la señal a todas las conexiones del usuario.
// Entrega best-effort: una conexión con buffer lleno pierde la señal.
func (h *Hub) NotifyUser(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	for ch := range h.subs[userID] {
		select {
		case ch <- []byte(EventTasksUpdated):
		default:
			if h.logger != nil {
				h.logger.Warn("live event dropped, slow connection", zap.String("user_id", userID))
			}
		}
	}
}

// Close cierra todos los canales y deja el hub inutilizable.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for _, conns := range h.subs {
		for ch := range conns {
			close(ch)
		}
	}
	h.subs = nil
}
