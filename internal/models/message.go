package models

import "time"

// Message is one immutable text message inside a connection. UserID is the
// author and must be one of the connection's two parties.
type Message struct {
	ID           string    `json:"id" db:"id"`
	ConnectionID string    `json:"connectionId" db:"connection_id"`
	UserID       string    `json:"userId" db:"user_id"`
	Text         string    `json:"text" db:"text"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// MessageView is the viewer-relative shape of a message. IsMe is computed
// per recipient, never stored.
type MessageView struct {
	ID      string    `json:"id"`
	IsMe    bool      `json:"isMe"`
	Text    string    `json:"text"`
	Created time.Time `json:"created"`
}

// ToView serializes the message for viewerID.
func (m *Message) ToView(viewerID string) MessageView {
	return MessageView{
		ID:      m.ID,
		IsMe:    m.UserID == viewerID,
		Text:    m.Text,
		Created: m.CreatedAt,
	}
}
