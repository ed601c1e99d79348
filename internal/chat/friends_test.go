package chat

import (
	"context"
	"testing"

	"rtchat/server/internal/models"
)

func TestProposeIsIdempotentForUnorderedPair(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	a := mustUser(t, st, "ann", "ann", "ames")
	b := mustUser(t, st, "ben", "ben", "baker")

	// Same direction twice, then the reverse direction.
	if err := svc.Propose(ctx, a, "ben"); err != nil {
		t.Fatalf("propose: %v", err)
	}
	if err := svc.Propose(ctx, a, "ben"); err != nil {
		t.Fatalf("repeat propose: %v", err)
	}
	if err := svc.Propose(ctx, b, "ann"); err != nil {
		t.Fatalf("reverse propose: %v", err)
	}

	pending, err := st.PendingFor(ctx, b.ID)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected exactly 1 pending connection, got %d", len(pending))
	}
	if pending[0].Sender.Username != "ann" {
		t.Fatalf("expected original direction preserved, sender = %s", pending[0].Sender.Username)
	}

	// The reverse proposal must not have created a request addressed to ann.
	reverse, err := st.PendingFor(ctx, a.ID)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(reverse) != 0 {
		t.Fatalf("expected no pending connection for the original sender, got %d", len(reverse))
	}
}

func TestProposeUnknownTargetIsReportedNotBroadcast(t *testing.T) {
	svc, st, cast := newTestService(t)
	a := mustUser(t, st, "ann", "ann", "ames")

	if err := svc.Propose(context.Background(), a, "nobody"); err == nil {
		t.Fatalf("expected error for unknown target")
	}
	if got := len(cast.all()); got != 0 {
		t.Fatalf("expected no broadcasts on failed propose, got %d", got)
	}
}

func TestAcceptIsScopedToTheAddressee(t *testing.T) {
	svc, st, cast := newTestService(t)
	ctx := context.Background()

	a := mustUser(t, st, "ann", "ann", "ames")
	b := mustUser(t, st, "ben", "ben", "baker")
	c := mustUser(t, st, "cal", "cal", "cole")

	if err := svc.Propose(ctx, a, "ben"); err != nil {
		t.Fatalf("propose: %v", err)
	}
	cast.reset()

	// cal cannot accept a request addressed to ben.
	if err := svc.Accept(ctx, c, "ann"); err == nil {
		t.Fatalf("expected accept by a non-addressee to fail")
	}
	if got := len(cast.all()); got != 0 {
		t.Fatalf("expected no broadcasts on failed accept, got %d", got)
	}

	// Neither can the original sender accept their own proposal.
	if err := svc.Accept(ctx, a, "ben"); err == nil {
		t.Fatalf("expected accept in the wrong direction to fail")
	}

	if err := svc.Accept(ctx, b, "ann"); err != nil {
		t.Fatalf("accept by addressee: %v", err)
	}
}

func TestAcceptIsMonotonic(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	a := mustUser(t, st, "ann", "ann", "ames")
	b := mustUser(t, st, "ben", "ben", "baker")
	connID := befriend(t, svc, st, a, b)

	// No operation in the core flips accepted back; re-running the whole
	// surface against the pair must leave the friendship intact.
	if err := svc.Propose(ctx, a, "ben"); err != nil {
		t.Fatalf("propose after accept: %v", err)
	}
	if err := svc.Accept(ctx, b, "ann"); err != nil {
		t.Fatalf("repeat accept: %v", err)
	}

	conn, err := st.ConnectionByID(ctx, connID)
	if err != nil {
		t.Fatalf("connection: %v", err)
	}
	if !conn.Accepted {
		t.Fatalf("accepted flag was cleared")
	}
}

func TestListRequestsOnlyForReceiver(t *testing.T) {
	svc, st, cast := newTestService(t)
	ctx := context.Background()

	a := mustUser(t, st, "ann", "ann", "ames")
	b := mustUser(t, st, "ben", "ben", "baker")

	if err := svc.Propose(ctx, a, "ben"); err != nil {
		t.Fatalf("propose: %v", err)
	}
	cast.reset()

	if err := svc.ListRequests(ctx, b); err != nil {
		t.Fatalf("list requests: %v", err)
	}

	got := cast.forGroup("ben", EventRequestList)
	if len(got) != 1 {
		t.Fatalf("expected 1 request.list for ben, got %d", len(got))
	}
	views := got[0].Payload.([]models.RequestView)
	if len(views) != 1 || views[0].Sender.Username != "ann" {
		t.Fatalf("unexpected pending list: %+v", views)
	}
	if others := cast.forGroup("ann", EventRequestList); len(others) != 0 {
		t.Fatalf("request.list leaked to another group")
	}
}

func TestListFriendsOrderingAndPreview(t *testing.T) {
	svc, st, cast := newTestService(t)
	ctx := context.Background()

	a := mustUser(t, st, "ann", "ann", "ames")
	b := mustUser(t, st, "ben", "ben", "baker")
	c := mustUser(t, st, "cal", "cal", "cole")

	// ann befriends ben first, then cal: with no messages, cal's newer
	// connection sorts first on its own updated time.
	connBen := befriend(t, svc, st, a, b)
	befriend(t, svc, st, a, c)

	cast.reset()
	if err := svc.ListFriends(ctx, a); err != nil {
		t.Fatalf("list friends: %v", err)
	}
	views := cast.forGroup("ann", EventFriendList)[0].Payload.([]models.FriendView)
	if len(views) != 2 {
		t.Fatalf("expected 2 friends, got %d", len(views))
	}
	if views[0].Friend.Username != "cal" || views[1].Friend.Username != "ben" {
		t.Fatalf("expected [cal ben] with no messages, got [%s %s]",
			views[0].Friend.Username, views[1].Friend.Username)
	}
	for _, v := range views {
		if v.Preview != "New connection" {
			t.Fatalf("expected placeholder preview, got %q", v.Preview)
		}
	}

	// A message on the ben conversation moves it to the front and becomes
	// its preview, sorted on the message time.
	if err := svc.SendMessage(ctx, a, connBen, "lunch?"); err != nil {
		t.Fatalf("send: %v", err)
	}
	cast.reset()
	if err := svc.ListFriends(ctx, a); err != nil {
		t.Fatalf("list friends: %v", err)
	}
	views = cast.forGroup("ann", EventFriendList)[0].Payload.([]models.FriendView)
	if views[0].Friend.Username != "ben" {
		t.Fatalf("expected ben first after message, got %s", views[0].Friend.Username)
	}
	if views[0].Preview != "lunch?" {
		t.Fatalf("expected latest message as preview, got %q", views[0].Preview)
	}
	if !views[0].Updated.After(views[1].Updated) {
		t.Fatalf("expected message time to order ahead of connection updated time")
	}
}
