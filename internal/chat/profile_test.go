package chat

import (
	"context"
	"encoding/base64"
	"testing"

	"rtchat/server/internal/models"
	"rtchat/server/internal/store"
)

func TestUpdateThumbnailStoresAndBroadcasts(t *testing.T) {
	st := store.NewMemory()
	cast := &fakeBroadcaster{}
	media := &fakeMedia{ref: "/uploads/avatars/abc.png"}
	svc := NewService(st, media, cast, nil)
	ctx := context.Background()

	viewer := mustUser(t, st, "ann", "ann", "ames")

	raw := []byte{0x89, 'P', 'N', 'G'}
	encoded := base64.StdEncoding.EncodeToString(raw)
	if err := svc.UpdateThumbnail(ctx, viewer, "me.png", encoded); err != nil {
		t.Fatalf("update thumbnail: %v", err)
	}

	if string(media.saved["me.png"]) != string(raw) {
		t.Fatalf("decoded bytes not handed to media store: %v", media.saved)
	}

	user, err := st.UserByID(ctx, viewer.ID)
	if err != nil {
		t.Fatalf("user: %v", err)
	}
	if user.Thumbnail == nil || *user.Thumbnail != media.ref {
		t.Fatalf("thumbnail reference not persisted: %v", user.Thumbnail)
	}

	got := cast.forGroup("ann", EventUserThumbnail)
	if len(got) != 1 {
		t.Fatalf("expected 1 user.thumbnail broadcast, got %d", len(got))
	}
	profile := got[0].Payload.(models.Profile)
	if profile.Thumbnail == nil || *profile.Thumbnail != media.ref {
		t.Fatalf("broadcast profile missing thumbnail: %+v", profile)
	}
	if others := len(cast.all()); others != 1 {
		t.Fatalf("thumbnail update broadcast beyond the owner's group: %d events", others)
	}
}

func TestUpdateThumbnailRejectsBadBase64(t *testing.T) {
	svc, st, cast := newTestService(t)
	viewer := mustUser(t, st, "ann", "ann", "ames")

	if err := svc.UpdateThumbnail(context.Background(), viewer, "me.png", "not-base64!!"); err == nil {
		t.Fatalf("expected error for invalid base64")
	}
	if got := len(cast.all()); got != 0 {
		t.Fatalf("expected no broadcasts on failed update, got %d", got)
	}
}
