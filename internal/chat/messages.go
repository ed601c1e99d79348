package chat

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"rtchat/server/internal/models"
)

// MessagePayload pairs a viewer-relative message view with the profile of
// the conversation counterpart.
type MessagePayload struct {
	Message models.MessageView `json:"message"`
	Friend  models.Profile     `json:"friend"`
}

// MessageListPayload is one page of history, newest first. Next is the
// following page index, absent when no more rows remain.
type MessageListPayload struct {
	Messages []models.MessageView `json:"messages"`
	Next     *int                 `json:"next"`
	Friend   models.Profile       `json:"friend"`
}

// TypingPayload names the user currently typing.
type TypingPayload struct {
	Username string `json:"username"`
}

// SendMessage persists one message on the connection and broadcasts two
// viewer-relative payloads: isMe=true with the counterpart's profile to the
// author's group, isMe=false with the author's profile to the counterpart's.
func (s *Service) SendMessage(ctx context.Context, viewer Viewer, connectionID, text string) error {
	conn, err := s.store.ConnectionByID(ctx, connectionID)
	if err != nil {
		s.log.Warn("send message: connection not found",
			zap.String("viewer", viewer.Username),
			zap.String("connectionId", connectionID))
		return fmt.Errorf("send message: %w", err)
	}
	if !conn.Involves(viewer.ID) {
		s.log.Warn("send message: viewer not a party",
			zap.String("viewer", viewer.Username),
			zap.String("connectionId", connectionID))
		return fmt.Errorf("send message: viewer is not a party of the connection")
	}

	msg, err := s.store.CreateMessage(ctx, connectionID, viewer.ID, text)
	if err != nil {
		s.log.Error("send message: create", zap.Error(err))
		return fmt.Errorf("send message: %w", err)
	}

	author, counterpart := &conn.Sender, &conn.Receiver
	if conn.Receiver.ID == viewer.ID {
		author, counterpart = &conn.Receiver, &conn.Sender
	}

	s.cast.Publish(author.Username, EventMessageSend, MessagePayload{
		Message: msg.ToView(author.ID),
		Friend:  counterpart.ToProfile(),
	})
	s.cast.Publish(counterpart.Username, EventMessageSend, MessagePayload{
		Message: msg.ToView(counterpart.ID),
		Friend:  author.ToProfile(),
	})
	return nil
}

// ListMessages sends the viewer the requested history page for the
// connection, ordered newest first.
func (s *Service) ListMessages(ctx context.Context, viewer Viewer, connectionID string, page int) error {
	conn, err := s.store.ConnectionByID(ctx, connectionID)
	if err != nil {
		s.log.Warn("list messages: connection not found",
			zap.String("viewer", viewer.Username),
			zap.String("connectionId", connectionID))
		return fmt.Errorf("list messages: %w", err)
	}
	if !conn.Involves(viewer.ID) {
		s.log.Warn("list messages: viewer not a party",
			zap.String("viewer", viewer.Username),
			zap.String("connectionId", connectionID))
		return fmt.Errorf("list messages: viewer is not a party of the connection")
	}
	if page < 0 {
		page = 0
	}

	messages, more, err := s.store.MessagesPage(ctx, connectionID, page, PageSize)
	if err != nil {
		s.log.Error("list messages: page", zap.Error(err))
		return fmt.Errorf("list messages: %w", err)
	}

	payload := MessageListPayload{
		Messages: make([]models.MessageView, 0, len(messages)),
		Friend:   conn.Counterpart(viewer.ID).ToProfile(),
	}
	for i := range messages {
		payload.Messages = append(payload.Messages, messages[i].ToView(viewer.ID))
	}
	if more {
		next := page + 1
		payload.Next = &next
	}

	s.cast.Publish(viewer.Username, EventMessageList, payload)
	return nil
}

// NotifyTyping is a stateless fire-and-forget broadcast to the recipient's
// group. Nothing is persisted and no existence check is made; publishing to
// an empty group is a no-op.
func (s *Service) NotifyTyping(_ context.Context, viewer Viewer, recipientUsername string) error {
	s.cast.Publish(recipientUsername, EventMessageType, TypingPayload{Username: viewer.Username})
	return nil
}
