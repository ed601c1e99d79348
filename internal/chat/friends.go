package chat

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"rtchat/server/internal/models"
)

// Propose creates a pending connection from the viewer to targetUsername,
// or returns the existing connection for the pair unchanged. Both parties'
// groups receive the resulting connection under request.connect.
func (s *Service) Propose(ctx context.Context, viewer Viewer, targetUsername string) error {
	target, err := s.store.UserByUsername(ctx, targetUsername)
	if err != nil {
		s.log.Warn("propose: target not found",
			zap.String("viewer", viewer.Username),
			zap.String("target", targetUsername))
		return fmt.Errorf("propose: %w", err)
	}
	if target.ID == viewer.ID {
		s.log.Warn("propose: self proposal ignored", zap.String("viewer", viewer.Username))
		return nil
	}

	conn, err := s.store.GetOrCreateConnection(ctx, viewer.ID, target.ID)
	if err != nil {
		s.log.Error("propose: get or create connection", zap.Error(err))
		return fmt.Errorf("propose: %w", err)
	}

	// The stored row may have the pair in either direction when the other
	// side proposed first; both parties hear about it regardless.
	view := conn.ToRequestView()
	s.cast.Publish(conn.Sender.Username, EventRequestConnect, view)
	s.cast.Publish(conn.Receiver.Username, EventRequestConnect, view)
	return nil
}

// ListRequests sends the viewer the pending connections addressed to them.
func (s *Service) ListRequests(ctx context.Context, viewer Viewer) error {
	pending, err := s.store.PendingFor(ctx, viewer.ID)
	if err != nil {
		s.log.Error("list requests", zap.Error(err))
		return fmt.Errorf("list requests: %w", err)
	}

	views := make([]models.RequestView, 0, len(pending))
	for i := range pending {
		views = append(views, pending[i].ToRequestView())
	}
	s.cast.Publish(viewer.Username, EventRequestList, views)
	return nil
}

// Accept marks the pending connection from senderUsername to the viewer as
// accepted. A viewer cannot accept a request addressed to someone else:
// the lookup is keyed on (sender, viewer) and simply finds nothing. Both
// parties receive the updated connection under request.accept and a
// per-viewer friend entry under friend.new.
func (s *Service) Accept(ctx context.Context, viewer Viewer, senderUsername string) error {
	sender, err := s.store.UserByUsername(ctx, senderUsername)
	if err != nil {
		s.log.Warn("accept: sender not found",
			zap.String("viewer", viewer.Username),
			zap.String("sender", senderUsername))
		return fmt.Errorf("accept: %w", err)
	}

	conn, err := s.store.AcceptConnection(ctx, sender.ID, viewer.ID)
	if err != nil {
		s.log.Warn("accept: no matching request",
			zap.String("viewer", viewer.Username),
			zap.String("sender", senderUsername))
		return fmt.Errorf("accept: %w", err)
	}

	view := conn.ToRequestView()
	s.cast.Publish(conn.Sender.Username, EventRequestAccept, view)
	s.cast.Publish(conn.Receiver.Username, EventRequestAccept, view)

	// Each side gets the new conversation entry shaped for them, so the
	// client can insert it without re-querying the full friend list.
	for _, party := range []*models.User{&conn.Sender, &conn.Receiver} {
		other := conn.Counterpart(party.ID)
		s.cast.Publish(party.Username, EventFriendNew, models.FriendView{
			ID:      conn.ID,
			Friend:  other.ToProfile(),
			Preview: newConnectionPreview,
			Updated: conn.UpdatedAt,
		})
	}
	return nil
}

// ListFriends sends the viewer their accepted connections ordered by most
// recent activity, each with a conversation preview.
func (s *Service) ListFriends(ctx context.Context, viewer Viewer) error {
	entries, err := s.store.FriendsOf(ctx, viewer.ID)
	if err != nil {
		s.log.Error("list friends", zap.Error(err))
		return fmt.Errorf("list friends: %w", err)
	}

	views := make([]models.FriendView, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		view := models.FriendView{
			ID:      e.Connection.ID,
			Friend:  e.Connection.Counterpart(viewer.ID).ToProfile(),
			Preview: newConnectionPreview,
			Updated: e.Connection.UpdatedAt,
		}
		if e.LastMessage != nil {
			view.Preview = e.LastMessage.Text
			view.Updated = e.LastMessage.CreatedAt
		}
		views = append(views, view)
	}
	s.cast.Publish(viewer.Username, EventFriendList, views)
	return nil
}
