// Package chat implements the services behind the realtime event surface:
// the friend-request lifecycle, messaging, directory search and avatar
// updates. Every operation takes the acting viewer explicitly and pushes
// its results through the Broadcaster; nothing here writes to a transport
// directly.
package chat

import (
	"go.uber.org/zap"

	"rtchat/server/internal/store"
)

// Event names carried in the outbound envelope's source field. Responses
// reuse the name of the request that produced them; EventFriendNew is
// server-originated on accept.
const (
	EventFriendList     = "friend.list"
	EventFriendNew      = "friend.new"
	EventMessageList    = "message.list"
	EventMessageSend    = "message.send"
	EventMessageType    = "message.type"
	EventRequestAccept  = "request.accept"
	EventRequestConnect = "request.connect"
	EventRequestList    = "request.list"
	EventUserSearch     = "user.search"
	EventUserThumbnail  = "user.thumbnail"
)

// PageSize is the fixed slice size for message history.
const PageSize = 20

// newConnectionPreview is the friend-list placeholder for a conversation
// with no messages yet.
const newConnectionPreview = "New connection"

// Broadcaster delivers an event to every live session of a group. Group
// names are usernames by convention.
type Broadcaster interface {
	Publish(group, event string, payload any)
}

// MediaStore persists decoded avatar bytes and returns the stored
// resource reference.
type MediaStore interface {
	SaveAvatar(filename string, data []byte) (string, error)
}

// Viewer identifies the authenticated user an operation runs as.
type Viewer struct {
	ID       string
	Username string
}

// Service wires the chat operations to their collaborators.
type Service struct {
	store store.Store
	media MediaStore
	cast  Broadcaster
	log   *zap.Logger
}

func NewService(st store.Store, media MediaStore, cast Broadcaster, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: st, media: media, cast: cast, log: log}
}
