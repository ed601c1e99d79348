package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"rtchat/server/internal/models"
)

// Memory is an in-process Store used by tests and local development. All
// operations run under one mutex, which also makes GetOrCreateConnection
// atomic with respect to the unordered-pair invariant.
type Memory struct {
	mu          sync.Mutex
	users       map[string]*models.User       // by id
	usernames   map[string]string             // username -> id
	connections map[string]*models.Connection // by id
	messages    map[string][]models.Message   // by connection id, append order
	last        time.Time
}

func NewMemory() *Memory {
	return &Memory{
		users:       make(map[string]*models.User),
		usernames:   make(map[string]string),
		connections: make(map[string]*models.Connection),
		messages:    make(map[string][]models.Message),
	}
}

// now returns a strictly increasing timestamp so ordering is deterministic
// even when calls land within the clock resolution. Callers hold mu.
func (m *Memory) now() time.Time {
	t := time.Now().UTC()
	if !t.After(m.last) {
		t = m.last.Add(time.Microsecond)
	}
	m.last = t
	return t
}

func (m *Memory) CreateUser(_ context.Context, params NewUser) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.usernames[params.Username]; taken {
		return nil, ErrUsernameTaken
	}

	now := m.now()
	u := &models.User{
		ID:        uuid.New().String(),
		Username:  params.Username,
		FirstName: params.FirstName,
		LastName:  params.LastName,
		Password:  params.PasswordHash,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.users[u.ID] = u
	m.usernames[u.Username] = u.ID

	public := *u
	public.Password = ""
	return &public, nil
}

func (m *Memory) UserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.usernames[username]
	if !ok {
		return nil, ErrNotFound
	}
	u := *m.users[id]
	u.Password = ""
	return &u, nil
}

func (m *Memory) CredentialsByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.usernames[username]
	if !ok {
		return nil, ErrNotFound
	}
	u := *m.users[id]
	return &u, nil
}

func (m *Memory) UserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	cp.Password = ""
	return &cp, nil
}

func (m *Memory) SearchUsers(_ context.Context, viewerID, prefix string) ([]SearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lower := strings.ToLower(prefix)
	var results []SearchResult
	for _, u := range m.users {
		if u.ID == viewerID {
			continue
		}
		if !strings.HasPrefix(strings.ToLower(u.Username), lower) &&
			!strings.HasPrefix(strings.ToLower(u.FirstName), lower) &&
			!strings.HasPrefix(strings.ToLower(u.LastName), lower) {
			continue
		}
		r := SearchResult{User: *u}
		r.User.Password = ""
		for _, c := range m.connections {
			switch {
			case c.Sender.ID == viewerID && c.Receiver.ID == u.ID:
				if c.Accepted {
					r.Connected = true
				} else {
					r.SentPending = true
				}
			case c.Sender.ID == u.ID && c.Receiver.ID == viewerID:
				if c.Accepted {
					r.Connected = true
				} else {
					r.ReceivedPending = true
				}
			}
		}
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].User.Username < results[j].User.Username
	})
	return results, nil
}

func (m *Memory) SetThumbnail(_ context.Context, userID, thumbnail string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	u.Thumbnail = &thumbnail
	u.UpdatedAt = m.now()
	m.refreshConnectionParties(u)
	cp := *u
	cp.Password = ""
	return &cp, nil
}

// refreshConnectionParties keeps the user snapshots embedded in connections
// in sync after a profile change. Callers hold mu.
func (m *Memory) refreshConnectionParties(u *models.User) {
	for _, c := range m.connections {
		if c.Sender.ID == u.ID {
			c.Sender = *u
			c.Sender.Password = ""
		}
		if c.Receiver.ID == u.ID {
			c.Receiver = *u
			c.Receiver.Password = ""
		}
	}
}

func (m *Memory) GetOrCreateConnection(_ context.Context, senderID, receiverID string) (*models.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.connections {
		if (c.Sender.ID == senderID && c.Receiver.ID == receiverID) ||
			(c.Sender.ID == receiverID && c.Receiver.ID == senderID) {
			cp := *c
			return &cp, nil
		}
	}

	sender, ok := m.users[senderID]
	if !ok {
		return nil, ErrNotFound
	}
	receiver, ok := m.users[receiverID]
	if !ok {
		return nil, ErrNotFound
	}

	now := m.now()
	c := &models.Connection{
		ID:        uuid.New().String(),
		Sender:    *sender,
		Receiver:  *receiver,
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.Sender.Password = ""
	c.Receiver.Password = ""
	m.connections[c.ID] = c

	cp := *c
	return &cp, nil
}

func (m *Memory) ConnectionByID(_ context.Context, id string) (*models.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.connections[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *Memory) PendingFor(_ context.Context, receiverID string) ([]models.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var pending []models.Connection
	for _, c := range m.connections {
		if c.Receiver.ID == receiverID && !c.Accepted {
			pending = append(pending, *c)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.After(pending[j].CreatedAt)
	})
	return pending, nil
}

func (m *Memory) AcceptConnection(_ context.Context, senderID, receiverID string) (*models.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.connections {
		if c.Sender.ID == senderID && c.Receiver.ID == receiverID {
			c.Accepted = true
			c.UpdatedAt = m.now()
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) FriendsOf(_ context.Context, userID string) ([]FriendEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var entries []FriendEntry
	for _, c := range m.connections {
		if !c.Accepted || !c.Involves(userID) {
			continue
		}
		e := FriendEntry{Connection: *c}
		if msgs := m.messages[c.ID]; len(msgs) > 0 {
			last := msgs[len(msgs)-1]
			e.LastMessage = &last
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return activityTime(entries[i]).After(activityTime(entries[j]))
	})
	return entries, nil
}

func activityTime(e FriendEntry) time.Time {
	if e.LastMessage != nil {
		return e.LastMessage.CreatedAt
	}
	return e.Connection.UpdatedAt
}

func (m *Memory) CreateMessage(_ context.Context, connectionID, authorID, text string) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.connections[connectionID]; !ok {
		return nil, ErrNotFound
	}

	msg := models.Message{
		ID:           uuid.New().String(),
		ConnectionID: connectionID,
		UserID:       authorID,
		Text:         text,
		CreatedAt:    m.now(),
	}
	m.messages[connectionID] = append(m.messages[connectionID], msg)

	cp := msg
	return &cp, nil
}

func (m *Memory) MessagesPage(_ context.Context, connectionID string, page, size int) ([]models.Message, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := m.messages[connectionID]
	// Newest first.
	desc := make([]models.Message, len(all))
	for i, msg := range all {
		desc[len(all)-1-i] = msg
	}

	start := page * size
	if start >= len(desc) {
		return nil, false, nil
	}
	end := start + size
	more := end < len(desc)
	if end > len(desc) {
		end = len(desc)
	}

	pageSlice := make([]models.Message, end-start)
	copy(pageSlice, desc[start:end])
	return pageSlice, more, nil
}
