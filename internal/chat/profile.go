package chat

import (
	"context"
	"encoding/base64"
	"fmt"

	"go.uber.org/zap"
)

// UpdateThumbnail decodes the transmitted image, stores it through the
// media store, persists the reference on the user and broadcasts the
// updated profile to the viewer's own group.
func (s *Service) UpdateThumbnail(ctx context.Context, viewer Viewer, filename, encoded string) error {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		s.log.Warn("thumbnail: bad base64 payload",
			zap.String("viewer", viewer.Username), zap.Error(err))
		return fmt.Errorf("thumbnail: decode: %w", err)
	}

	ref, err := s.media.SaveAvatar(filename, data)
	if err != nil {
		s.log.Error("thumbnail: save", zap.Error(err))
		return fmt.Errorf("thumbnail: save: %w", err)
	}

	user, err := s.store.SetThumbnail(ctx, viewer.ID, ref)
	if err != nil {
		s.log.Error("thumbnail: persist", zap.Error(err))
		return fmt.Errorf("thumbnail: persist: %w", err)
	}

	s.cast.Publish(viewer.Username, EventUserThumbnail, user.ToProfile())
	return nil
}
