package store

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func seedUsers(t *testing.T, m *Memory, usernames ...string) map[string]string {
	t.Helper()
	ids := make(map[string]string, len(usernames))
	for _, name := range usernames {
		u, err := m.CreateUser(context.Background(), NewUser{
			Username:     name,
			FirstName:    name,
			LastName:     "tester",
			PasswordHash: "x",
		})
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		ids[name] = u.ID
	}
	return ids
}

func TestCreateUserRejectsDuplicateUsername(t *testing.T) {
	m := NewMemory()
	seedUsers(t, m, "ann")

	_, err := m.CreateUser(context.Background(), NewUser{Username: "ann"})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestGetOrCreateConnectionIsAtomicUnderConcurrency(t *testing.T) {
	m := NewMemory()
	ids := seedUsers(t, m, "ann", "ben")
	ctx := context.Background()

	// Both sides propose simultaneously, repeatedly, in both directions.
	const workers = 16
	connIDs := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sender, receiver := ids["ann"], ids["ben"]
			if i%2 == 1 {
				sender, receiver = receiver, sender
			}
			c, err := m.GetOrCreateConnection(ctx, sender, receiver)
			if err != nil {
				t.Errorf("get or create: %v", err)
				return
			}
			connIDs[i] = c.ID
		}(i)
	}
	wg.Wait()

	for _, id := range connIDs[1:] {
		if id != connIDs[0] {
			t.Fatalf("concurrent proposals produced distinct connections: %s vs %s", id, connIDs[0])
		}
	}
}

func TestAcceptConnectionRequiresExactDirection(t *testing.T) {
	m := NewMemory()
	ids := seedUsers(t, m, "ann", "ben")
	ctx := context.Background()

	if _, err := m.GetOrCreateConnection(ctx, ids["ann"], ids["ben"]); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := m.AcceptConnection(ctx, ids["ben"], ids["ann"]); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for reversed direction, got %v", err)
	}

	conn, err := m.AcceptConnection(ctx, ids["ann"], ids["ben"])
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if !conn.Accepted {
		t.Fatalf("accepted flag not set")
	}
	if !conn.UpdatedAt.After(conn.CreatedAt) {
		t.Fatalf("accept did not advance updated_at")
	}
}

func TestMessagesPageBounds(t *testing.T) {
	m := NewMemory()
	ids := seedUsers(t, m, "ann", "ben")
	ctx := context.Background()

	conn, err := m.GetOrCreateConnection(ctx, ids["ann"], ids["ben"])
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for i := 0; i < 5; i++ {
		if _, err := m.CreateMessage(ctx, conn.ID, ids["ann"], "x"); err != nil {
			t.Fatalf("message %d: %v", i, err)
		}
	}

	page, more, err := m.MessagesPage(ctx, conn.ID, 0, 3)
	if err != nil || len(page) != 3 || !more {
		t.Fatalf("page 0: len=%d more=%v err=%v", len(page), more, err)
	}
	if !page[0].CreatedAt.After(page[2].CreatedAt) {
		t.Fatalf("page not ordered newest first")
	}

	page, more, err = m.MessagesPage(ctx, conn.ID, 1, 3)
	if err != nil || len(page) != 2 || more {
		t.Fatalf("page 1: len=%d more=%v err=%v", len(page), more, err)
	}

	page, more, err = m.MessagesPage(ctx, conn.ID, 2, 3)
	if err != nil || len(page) != 0 || more {
		t.Fatalf("page beyond end: len=%d more=%v err=%v", len(page), more, err)
	}
}

func TestCreateMessageUnknownConnection(t *testing.T) {
	m := NewMemory()
	ids := seedUsers(t, m, "ann")

	_, err := m.CreateMessage(context.Background(), "nope", ids["ann"], "x")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetThumbnailRefreshesConnectionSnapshots(t *testing.T) {
	m := NewMemory()
	ids := seedUsers(t, m, "ann", "ben")
	ctx := context.Background()

	conn, err := m.GetOrCreateConnection(ctx, ids["ann"], ids["ben"])
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := m.SetThumbnail(ctx, ids["ann"], "/uploads/avatars/a.png"); err != nil {
		t.Fatalf("set thumbnail: %v", err)
	}

	got, err := m.ConnectionByID(ctx, conn.ID)
	if err != nil {
		t.Fatalf("connection: %v", err)
	}
	if got.Sender.Thumbnail == nil || *got.Sender.Thumbnail != "/uploads/avatars/a.png" {
		t.Fatalf("connection party snapshot not refreshed: %+v", got.Sender.Thumbnail)
	}
}
