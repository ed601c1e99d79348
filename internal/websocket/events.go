package websocket

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"rtchat/server/internal/chat"
	"rtchat/server/internal/metrics"
)

// Inbound is the client-to-server envelope: a mandatory source tag plus
// handler-specific fields at the top level.
type Inbound struct {
	Source       string `json:"source"`
	ConnectionID string `json:"connectionId"`
	Page         int    `json:"page"`
	Message      string `json:"message"`
	Username     string `json:"username"`
	Query        string `json:"query"`
	Base64       string `json:"base64"`
	Filename     string `json:"filename"`
}

// Outbound is the server-to-client envelope. The internal routing type
// never appears on the wire.
type Outbound struct {
	Source string `json:"source"`
	Data   any    `json:"data"`
}

// HandlerFunc processes one inbound envelope on behalf of a viewer.
type HandlerFunc func(ctx context.Context, viewer chat.Viewer, in Inbound) error

// knownSources is the closed set of recognized inbound source tags.
var knownSources = []string{
	chat.EventFriendList,
	chat.EventMessageList,
	chat.EventMessageSend,
	chat.EventMessageType,
	chat.EventRequestAccept,
	chat.EventRequestConnect,
	chat.EventRequestList,
	chat.EventUserSearch,
	chat.EventUserThumbnail,
}

// Router maps inbound source tags to chat service handlers. Unrecognized
// tags are dropped without closing the connection, and handler errors are
// absorbed: failures never produce a client-visible error envelope.
type Router struct {
	handlers map[string]HandlerFunc
	log      *zap.Logger
	metrics  *metrics.Metrics
}

func NewRouter(svc *chat.Service, log *zap.Logger, m *metrics.Metrics) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{
		log:     log,
		metrics: m,
		handlers: map[string]HandlerFunc{
			chat.EventFriendList: func(ctx context.Context, v chat.Viewer, _ Inbound) error {
				return svc.ListFriends(ctx, v)
			},
			chat.EventMessageList: func(ctx context.Context, v chat.Viewer, in Inbound) error {
				return svc.ListMessages(ctx, v, in.ConnectionID, in.Page)
			},
			chat.EventMessageSend: func(ctx context.Context, v chat.Viewer, in Inbound) error {
				return svc.SendMessage(ctx, v, in.ConnectionID, in.Message)
			},
			chat.EventMessageType: func(ctx context.Context, v chat.Viewer, in Inbound) error {
				return svc.NotifyTyping(ctx, v, in.Username)
			},
			chat.EventRequestAccept: func(ctx context.Context, v chat.Viewer, in Inbound) error {
				return svc.Accept(ctx, v, in.Username)
			},
			chat.EventRequestConnect: func(ctx context.Context, v chat.Viewer, in Inbound) error {
				return svc.Propose(ctx, v, in.Username)
			},
			chat.EventRequestList: func(ctx context.Context, v chat.Viewer, _ Inbound) error {
				return svc.ListRequests(ctx, v)
			},
			chat.EventUserSearch: func(ctx context.Context, v chat.Viewer, in Inbound) error {
				return svc.Search(ctx, v, in.Query)
			},
			chat.EventUserThumbnail: func(ctx context.Context, v chat.Viewer, in Inbound) error {
				return svc.UpdateThumbnail(ctx, v, in.Filename, in.Base64)
			},
		},
	}
}

// Validate checks at startup that every recognized source tag is bound to
// exactly one handler, so a typo cannot silently route to nothing.
func (r *Router) Validate() error {
	for _, source := range knownSources {
		if _, ok := r.handlers[source]; !ok {
			return fmt.Errorf("no handler bound for source %q", source)
		}
	}
	if len(r.handlers) != len(knownSources) {
		return fmt.Errorf("router has %d handlers for %d known sources",
			len(r.handlers), len(knownSources))
	}
	return nil
}

// Dispatch routes one envelope. A missing or unknown source is dropped;
// handler errors have already been logged by the service and fail only
// this receive cycle.
func (r *Router) Dispatch(ctx context.Context, viewer chat.Viewer, in Inbound) {
	if in.Source == "" {
		r.log.Debug("envelope missing source", zap.String("user", viewer.Username))
		return
	}
	handler, ok := r.handlers[in.Source]
	if !ok {
		r.log.Debug("unknown source ignored",
			zap.String("source", in.Source), zap.String("user", viewer.Username))
		return
	}

	r.metrics.RecordEvent(in.Source)
	_ = handler(ctx, viewer, in)
}
