package models

import "time"

// Connection is a directed friend request from Sender to Receiver. It
// becomes a bidirectional friendship once Accepted. At most one row exists
// per unordered user pair.
type Connection struct {
	ID        string    `json:"id" db:"id"`
	Sender    User      `json:"-"`
	Receiver  User      `json:"-"`
	Accepted  bool      `json:"accepted" db:"accepted"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Counterpart returns the party of the connection that is not userID.
func (c *Connection) Counterpart(userID string) *User {
	if c.Sender.ID == userID {
		return &c.Receiver
	}
	return &c.Sender
}

// Involves reports whether userID is one of the two parties.
func (c *Connection) Involves(userID string) bool {
	return c.Sender.ID == userID || c.Receiver.ID == userID
}

// RequestView is the client-facing shape of a friend request.
type RequestView struct {
	ID       string    `json:"id"`
	Sender   Profile   `json:"sender"`
	Receiver Profile   `json:"receiver"`
	Accepted bool      `json:"accepted"`
	Created  time.Time `json:"created"`
}

// ToRequestView serializes the connection with both parties' profiles.
func (c *Connection) ToRequestView() RequestView {
	return RequestView{
		ID:       c.ID,
		Sender:   c.Sender.ToProfile(),
		Receiver: c.Receiver.ToProfile(),
		Accepted: c.Accepted,
		Created:  c.CreatedAt,
	}
}

// FriendView is one entry of the friend list as seen by a particular
// viewer: the counterpart's profile, the conversation preview and the
// most-recent-activity timestamp used for ordering.
type FriendView struct {
	ID      string    `json:"id"`
	Friend  Profile   `json:"friend"`
	Preview string    `json:"preview"`
	Updated time.Time `json:"updated"`
}
