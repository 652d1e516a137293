package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"snipbin/pkg/domain"

	"github.com/pkg/errors"
)

func newTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testPaste(id string, creator *string) *domain.Paste {
	return domain.NewPaste(id, creator, 3600, time.Now(), domain.CreatePasteParams{
		Name: id + ".txt", Content: "content",
	})
}

func TestProfileUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetProfile(ctx, "alice"); !errors.Is(err, domain.ErrProfileNotFound) {
		t.Fatalf("want ErrProfileNotFound, got %v", err)
	}

	pr := domain.NewProfile("alice", domain.CreateProfileParams{Name: "Alice"})
	if err := s.PutProfile(ctx, pr); err != nil {
		t.Fatalf("put: %v", err)
	}
	pr.Bio = "updated"
	if err := s.PutProfile(ctx, pr); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := s.GetProfile(ctx, "alice")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Bio != "updated" {
		t.Fatalf("got bio %q", got.Bio)
	}
}

func TestCreatePasteTransactionAtomicity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := domain.NewProfile("alice", domain.CreateProfileParams{Name: "Alice"})
	if err := s.PutProfile(ctx, owner); err != nil {
		t.Fatalf("put profile: %v", err)
	}

	code := "taken"
	first := testPaste("p1", &owner.ID)
	owner.AddPaste(first.ID)
	if err := s.CreatePaste(ctx, first, &code, owner); err != nil {
		t.Fatalf("first create: %v", err)
	}

	// Second insert with the same code must fail and roll everything back:
	// no paste row, no owner index growth.
	second := testPaste("p2", &owner.ID)
	ownerCopy := *owner
	ownerCopy.AddPaste(second.ID)
	if err := s.CreatePaste(ctx, second, &code, &ownerCopy); err == nil {
		t.Fatal("expected duplicate short code to fail")
	}
	if _, err := s.GetPaste(ctx, "p2"); !errors.Is(err, domain.ErrPasteNotFound) {
		t.Fatalf("paste row leaked past rollback: %v", err)
	}
	got, err := s.GetProfile(ctx, "alice")
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if len(got.PasteIDs) != 1 {
		t.Fatalf("owner index has %d entries after rollback", len(got.PasteIDs))
	}
}

func TestShortLinkResolution(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.ResolveShortLink(ctx, "nope"); !errors.Is(err, domain.ErrPasteNotFound) {
		t.Fatalf("want ErrPasteNotFound, got %v", err)
	}

	code := "mine"
	p := testPaste("p1", nil)
	if err := s.CreatePaste(ctx, p, &code, nil); err != nil {
		t.Fatalf("create: %v", err)
	}
	id, err := s.ResolveShortLink(ctx, code)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id != "p1" {
		t.Fatalf("resolved %s", id)
	}
	bound, err := s.ShortLinkExists(ctx, code)
	if err != nil || !bound {
		t.Fatalf("exists: %v %v", bound, err)
	}
}

func TestRecentPastesOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if err := s.CreatePaste(ctx, testPaste(id, nil), nil, nil); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	recent, err := s.RecentPastes(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != "c" || recent[1].ID != "b" {
		t.Fatalf("unexpected order: %+v", recent)
	}
}

func TestUpdateMissingPaste(t *testing.T) {
	s := newTestStore(t)
	if err := s.UpdatePaste(context.Background(), testPaste("ghost", nil)); !errors.Is(err, domain.ErrPasteNotFound) {
		t.Fatalf("want ErrPasteNotFound, got %v", err)
	}
}

func TestScanPastesPredicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"x", "y"} {
		if err := s.CreatePaste(ctx, testPaste(id, nil), nil, nil); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	got, err := s.ScanPastes(ctx, func(p *domain.Paste) bool { return p.ID == "y" })
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(got) != 1 || got[0].ID != "y" {
		t.Fatalf("unexpected scan result: %+v", got)
	}
}
