package gateway

import (
	"encoding/json"
	"log"
	"strconv"
	"time"

	"reconviewer/internal/viewer"
)

// Broadcaster builds view envelopes and fans them out to every client.
type Broadcaster struct {
	hub *Hub
}

// NewBroadcaster creates a Broadcaster backed by the given Hub.
func NewBroadcaster(hub *Hub) *Broadcaster {
	return &Broadcaster{hub: hub}
}

// Broadcast pushes v to all clients. Each client keeps only the newest
// unsent view, so a slow browser skips intermediate states instead of
// stalling the hub.
func (b *Broadcaster) Broadcast(v *viewer.View) {
	env, err := viewEnvelope(v, time.Now().UTC())
	if err != nil {
		log.Printf("[api_gateway] view marshal error: %v", err)
		return
	}

	b.hub.mu.RLock()
	for client := range b.hub.clients {
		client.offerView(env)
	}
	b.hub.mu.RUnlock()
	b.hub.obs.ViewPushed()
}

// viewEnvelope wraps the marshalled view as
// {"type":"view","seq":N,"ts":"...","view":{...}}.
func viewEnvelope(v *viewer.View, now time.Time) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 0, len(data)+96)
	buf = append(buf, `{"type":"view","seq":`...)
	buf = strconv.AppendUint(buf, v.Seq, 10)
	buf = append(buf, `,"ts":"`...)
	buf = now.AppendFormat(buf, time.RFC3339Nano)
	buf = append(buf, `","view":`...)
	buf = append(buf, data...)
	buf = append(buf, '}')
	return buf, nil
}
