package notify

import (
	"sync"
	"time"
)

const (
	KindCart    = "cart"
	KindSession = "session"
	KindOrder   = "order"
	KindCatalog = "catalog"
)

// Notice is a state-change message for the UI layer to render.
type Notice struct {
	Seq      uint64    `json:"seq"`
	Kind     string    `json:"kind"`
	Message  string    `json:"message"`
	Redirect string    `json:"redirect,omitempty"`
	At       time.Time `json:"at"`
}

// Publisher is what the managers need from the UI bridge.
type Publisher interface {
	Publish(kind, message, redirect string)
}

// Hub keeps the most recent notices in a bounded ring for polling clients.
type Hub struct {
	mu   sync.Mutex
	seq  uint64
	ring []Notice
	max  int
}

func NewHub(max int) *Hub {
	if max <= 0 {
		max = 64
	}
	return &Hub{max: max}
}

func (h *Hub) Publish(kind, message, redirect string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	h.ring = append(h.ring, Notice{Seq: h.seq, Kind: kind, Message: message, Redirect: redirect, At: time.Now().UTC()})
	if len(h.ring) > h.max {
		h.ring = append([]Notice(nil), h.ring[len(h.ring)-h.max:]...)
	}
}

// Since returns retained notices with Seq > seq, oldest first.
func (h *Hub) Since(seq uint64) []Notice {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := []Notice{}
	for _, n := range h.ring {
		if n.Seq > seq {
			out = append(out, n)
		}
	}
	return out
}

// Last returns the newest sequence number.
func (h *Hub) Last() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.seq
}

// Discard drops every notice; used where no UI is attached.
type Discard struct{}

func (Discard) Publish(string, string, string) {}
