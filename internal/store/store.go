package store

import (
	"context"
	"errors"

	"rtchat/server/internal/models"
)

var (
	// ErrNotFound is returned when a referenced user or connection does
	// not exist.
	ErrNotFound = errors.New("not found")

	// ErrUsernameTaken is returned by CreateUser on a duplicate username.
	ErrUsernameTaken = errors.New("username already taken")
)

// NewUser carries the fields required to create an identity. Names are
// expected to be lowercased by the caller.
type NewUser struct {
	Username     string
	FirstName    string
	LastName     string
	PasswordHash string
}

// SearchResult is one directory match annotated with the existence checks
// against the connection table relative to the searching user.
type SearchResult struct {
	User            models.User
	SentPending     bool // viewer proposed, not yet accepted
	ReceivedPending bool // match proposed to viewer, not yet accepted
	Connected       bool // accepted either direction
}

// FriendEntry is one accepted connection of a user together with the most
// recent message of the conversation, if any.
type FriendEntry struct {
	Connection  models.Connection
	LastMessage *models.Message
}

// Store is the persistence boundary of the realtime core. Implementations
// provide their own transactional discipline; in particular
// GetOrCreateConnection must be atomic with respect to the unordered-pair
// uniqueness invariant under concurrent calls from both sides.
type Store interface {
	CreateUser(ctx context.Context, params NewUser) (*models.User, error)
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	// CredentialsByUsername also loads the password hash; it backs sign-in.
	CredentialsByUsername(ctx context.Context, username string) (*models.User, error)
	UserByID(ctx context.Context, id string) (*models.User, error)
	SearchUsers(ctx context.Context, viewerID, prefix string) ([]SearchResult, error)
	SetThumbnail(ctx context.Context, userID, thumbnail string) (*models.User, error)

	// GetOrCreateConnection returns the existing connection for the
	// unordered pair if one exists, in either direction and regardless of
	// acceptance, otherwise creates a pending one from sender to receiver.
	GetOrCreateConnection(ctx context.Context, senderID, receiverID string) (*models.Connection, error)
	ConnectionByID(ctx context.Context, id string) (*models.Connection, error)
	PendingFor(ctx context.Context, receiverID string) ([]models.Connection, error)
	// AcceptConnection marks the connection from senderID to receiverID as
	// accepted. It never clears the flag once set.
	AcceptConnection(ctx context.Context, senderID, receiverID string) (*models.Connection, error)
	// FriendsOf returns the accepted connections involving userID, ordered
	// by most recent activity (latest message time, falling back to the
	// connection's own updated time) descending.
	FriendsOf(ctx context.Context, userID string) ([]FriendEntry, error)

	CreateMessage(ctx context.Context, connectionID, authorID, text string) (*models.Message, error)
	// MessagesPage returns the page-th slice of size messages for the
	// connection ordered by creation time descending, and whether more
	// rows remain beyond the slice.
	MessagesPage(ctx context.Context, connectionID string, page, size int) ([]models.Message, bool, error)
}
