package websocket

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"rtchat/server/internal/metrics"
)

// Hub is the session registry and broadcast dispatcher: a concurrency-safe
// multimap from group name to live sessions. Groups are usernames by
// convention, with one member per open device or tab. It implements
// chat.Broadcaster.
type Hub struct {
	mu      sync.RWMutex
	groups  map[string]map[*Client]struct{}
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewHub(log *zap.Logger, m *metrics.Metrics) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		groups:  make(map[string]map[*Client]struct{}),
		log:     log,
		metrics: m,
	}
}

// Join adds the client to the group.
func (h *Hub) Join(group string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.groups[group]
	if !ok {
		members = make(map[*Client]struct{})
		h.groups[group] = members
	}
	members[c] = struct{}{}

	h.metrics.SessionOpened()
	h.log.Info("session joined",
		zap.String("group", group), zap.Int("members", len(members)))
}

// Leave removes the client from the group and closes its send channel. It
// is idempotent and safe to call for a client that never joined.
func (h *Hub) Leave(group string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.groups[group]
	if !ok {
		return
	}
	if _, joined := members[c]; !joined {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.groups, group)
	}

	// Closed under the write lock so Publish, which sends under the read
	// lock, can never hit a closed channel.
	c.closeSend()

	h.metrics.SessionClosed()
	h.log.Info("session left",
		zap.String("group", group), zap.Int("members", len(members)))
}

// Publish delivers the event to every session joined to the group at call
// time, at most once each. A full send buffer on one session drops that
// delivery only; nothing here blocks on a slow client.
func (h *Hub) Publish(group, event string, payload any) {
	frame, err := json.Marshal(Outbound{Source: event, Data: payload})
	if err != nil {
		h.log.Error("marshal broadcast",
			zap.String("event", event), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.groups[group] {
		select {
		case c.Send <- frame:
			h.metrics.RecordBroadcast(event)
		default:
			h.metrics.RecordDrop()
			h.log.Warn("send buffer full, dropping frame",
				zap.String("group", group), zap.String("event", event))
		}
	}
}

// GroupSize returns the number of live sessions in a group.
func (h *Hub) GroupSize(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[group])
}

// SessionCount returns the total number of live sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, members := range h.groups {
		n += len(members)
	}
	return n
}
