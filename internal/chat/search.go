package chat

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"rtchat/server/internal/models"
	"rtchat/server/internal/store"
)

// Connection status of a search result relative to the searching user.
const (
	StatusPendingThem  = "pending-them" // viewer proposed, unaccepted
	StatusPendingMe    = "pending-me"   // match proposed to viewer, unaccepted
	StatusConnected    = "connected"
	StatusNoConnection = "no-connection"
)

// SearchEntry is one directory match with its derived connection status.
type SearchEntry struct {
	models.Profile
	Status string `json:"status"`
}

// Search sends the viewer all users whose username, first or last name
// starts with query (case-insensitive), excluding the viewer, each
// annotated with the connection status relative to the viewer.
func (s *Service) Search(ctx context.Context, viewer Viewer, query string) error {
	results, err := s.store.SearchUsers(ctx, viewer.ID, query)
	if err != nil {
		s.log.Error("search", zap.Error(err))
		return fmt.Errorf("search: %w", err)
	}

	entries := make([]SearchEntry, 0, len(results))
	for i := range results {
		entries = append(entries, SearchEntry{
			Profile: results[i].User.ToProfile(),
			Status:  deriveStatus(&results[i]),
		})
	}
	s.cast.Publish(viewer.Username, EventUserSearch, entries)
	return nil
}

// deriveStatus applies the precedence contract: at most one flag should be
// set under the pair-uniqueness invariant, but if the store is ever
// inconsistent the pending-them > pending-me > connected order decides.
func deriveStatus(r *store.SearchResult) string {
	switch {
	case r.SentPending:
		return StatusPendingThem
	case r.ReceivedPending:
		return StatusPendingMe
	case r.Connected:
		return StatusConnected
	default:
		return StatusNoConnection
	}
}
