package enginehttp

import (
	"io"
	"sync"

	"github.com/gin-gonic/gin"

	"shipdesk/internal/memory"
)

type streamEvent struct {
	Kind   memory.Kind   `json:"kind"`
	Record memory.Record `json:"record"`
}

// streamHub fans stored records out to SSE subscribers. A slow
// subscriber drops events instead of blocking the store's write path.
type streamHub struct {
	mu   sync.Mutex
	subs map[chan streamEvent]struct{}
}

func newStreamHub() *streamHub {
	return &streamHub{subs: make(map[chan streamEvent]struct{})}
}

func (h *streamHub) subscribe() chan streamEvent {
	ch := make(chan streamEvent, 16)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *streamHub) unsubscribe(ch chan streamEvent) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}

// RecordStored implements memory.Observer.
func (h *streamHub) RecordStored(kind memory.Kind, rec memory.Record) {
	ev := streamEvent{Kind: kind, Record: rec}
	h.mu.Lock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	h.mu.Unlock()
}

func (r *Router) handleStream(c *gin.Context) {
	ch := r.stream.subscribe()
	defer r.stream.unsubscribe(ch)

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("record", ev)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
