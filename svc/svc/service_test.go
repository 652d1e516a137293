package svc

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"snipbin/cfg"
	"snipbin/pkg/domain"
	"snipbin/svc/cache"
	"snipbin/svc/db"

	"github.com/stretchr/testify/require"
)

func testCfg() *cfg.Cfg {
	return &cfg.Cfg{
		MinExpireSeconds:  30,
		MaxExpireSeconds:  31536000,
		AnonExpireSeconds: 14400,
		ShortCodeMinLen:   4,
		ShortCodeMaxLen:   10,
		ContextTimeout:    5 * time.Second,
		LRUCacheSize:      128,
	}
}

func newTestService(t *testing.T, c *cfg.Cfg) *Service {
	t.Helper()
	sqlDB, err := db.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	lru, err := cache.NewLRU(c.LRUCacheSize)
	require.NoError(t, err)
	s := New(sqlDB, lru, nil, c)
	t.Cleanup(s.Shutdown)
	return s
}

func mustProfile(t *testing.T, s *Service, identity string) *domain.Profile {
	t.Helper()
	pr, err := s.CreateProfile(context.Background(), identity, domain.CreateProfileParams{
		Name: identity, Gravatar: "https://example.com/a.png", Bio: "bio",
	})
	require.NoError(t, err)
	return pr
}

func TestCreateProfileOncePerIdentity(t *testing.T) {
	s := newTestService(t, testCfg())
	ctx := context.Background()

	pr := mustProfile(t, s, "alice")
	require.Equal(t, "alice", pr.ID)
	require.Empty(t, pr.PasteIDs)

	_, err := s.CreateProfile(ctx, "alice", domain.CreateProfileParams{Name: "again"})
	require.ErrorIs(t, err, domain.ErrProfileAlreadyExists)

	got, err := s.GetProfile(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "alice", got.Name)
}

func TestUpdateProfilePartial(t *testing.T) {
	s := newTestService(t, testCfg())
	ctx := context.Background()
	mustProfile(t, s, "alice")

	bio := "new bio"
	got, err := s.UpdateProfile(ctx, "alice", domain.UpdateProfileParams{Bio: &bio})
	require.NoError(t, err)
	require.Equal(t, "new bio", got.Bio)
	require.Equal(t, "alice", got.Name)

	_, err = s.UpdateProfile(ctx, "nobody", domain.UpdateProfileParams{Bio: &bio})
	require.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestCreatePasteVersionAndTags(t *testing.T) {
	s := newTestService(t, testCfg())
	ctx := context.Background()
	mustProfile(t, s, "alice")

	p, err := s.CreatePaste(ctx, "alice", domain.CreatePasteParams{
		Name:          "notes.txt",
		Content:       "hello",
		ExpireSeconds: 3600,
		Tags:          "  go \t web  go\n",
	})
	require.NoError(t, err)
	require.Equal(t, 1, p.Version)
	require.Equal(t, []string{"go", "web"}, p.Tags)
	require.NotNil(t, p.Creator)
	require.Equal(t, "alice", *p.Creator)

	got, err := s.GetPaste(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, p.ID, got.ID)
	require.Equal(t, 1, got.Version)

	pr, err := s.GetProfile(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, []string{p.ID}, pr.PasteIDs)
}

func TestCreatePasteExpireWindow(t *testing.T) {
	s := newTestService(t, testCfg())
	ctx := context.Background()
	mustProfile(t, s, "alice")

	for _, ttl := range []uint32{29, 31536001} {
		_, err := s.CreatePaste(ctx, "alice", domain.CreatePasteParams{
			Name: "x", Content: "x", ExpireSeconds: ttl,
		})
		require.ErrorIs(t, err, domain.ErrInvalidExpireDate, "ttl=%d", ttl)
	}
	for _, ttl := range []uint32{30, 31536000} {
		_, err := s.CreatePaste(ctx, "alice", domain.CreatePasteParams{
			Name: "x", Content: "x", ExpireSeconds: ttl,
		})
		require.NoError(t, err, "ttl=%d", ttl)
	}
}

func TestCreatePasteAnonymousForcedTTL(t *testing.T) {
	s := newTestService(t, testCfg())
	ctx := context.Background()

	// A one-year request from an anonymous caller is silently forced to
	// the short anonymous window, never rejected.
	p, err := s.CreatePaste(ctx, "", domain.CreatePasteParams{
		Name: "anon.txt", Content: "x", ExpireSeconds: 31536000,
	})
	require.NoError(t, err)
	require.Equal(t, uint32(14400), p.ExpireSeconds)
	require.Nil(t, p.Creator)

	// Same for a caller with an identity but no profile.
	p2, err := s.CreatePaste(ctx, "stranger", domain.CreatePasteParams{
		Name: "anon2.txt", Content: "x", ExpireSeconds: 5,
	})
	require.NoError(t, err)
	require.Equal(t, uint32(14400), p2.ExpireSeconds)
	require.Nil(t, p2.Creator)
}

func TestShortCodeValidation(t *testing.T) {
	s := newTestService(t, testCfg())
	ctx := context.Background()
	mustProfile(t, s, "alice")

	for _, code := range []string{"abc", "elevenchars"} {
		c := code
		_, err := s.CreatePaste(ctx, "alice", domain.CreatePasteParams{
			Name: "x", Content: "x", ExpireSeconds: 3600, ShortCode: &c,
		})
		require.ErrorIs(t, err, domain.ErrShortURLOutOfRange, "code=%q", code)
	}

	code := "mylink"
	first, err := s.CreatePaste(ctx, "alice", domain.CreatePasteParams{
		Name: "first.txt", Content: "x", ExpireSeconds: 3600, ShortCode: &code,
	})
	require.NoError(t, err)

	_, err = s.CreatePaste(ctx, "alice", domain.CreatePasteParams{
		Name: "second.txt", Content: "y", ExpireSeconds: 3600, ShortCode: &code,
	})
	require.ErrorIs(t, err, domain.ErrShortURLExists)

	// The losing request must not have disturbed the original binding.
	got, err := s.ResolveShortURL(ctx, code)
	require.NoError(t, err)
	require.Equal(t, first.ID, got.ID)
}

func TestResolveUnboundShortCode(t *testing.T) {
	s := newTestService(t, testCfg())
	_, err := s.ResolveShortURL(context.Background(), "nosuch")
	require.ErrorIs(t, err, domain.ErrPasteNotFound)
}

func TestUpdatePasteAccessControl(t *testing.T) {
	s := newTestService(t, testCfg())
	ctx := context.Background()
	mustProfile(t, s, "alice")
	mustProfile(t, s, "bob")

	p, err := s.CreatePaste(ctx, "alice", domain.CreatePasteParams{
		Name: "mine.txt", Content: "v1", ExpireSeconds: 3600,
	})
	require.NoError(t, err)

	anon, err := s.CreatePaste(ctx, "", domain.CreatePasteParams{
		Name: "drive-by.txt", Content: "v1", ExpireSeconds: 3600,
	})
	require.NoError(t, err)

	content := "v2"
	cases := []struct {
		name     string
		identity string
		pasteID  string
		wantErr  *domain.Err
	}{
		{"anonymous caller", "", p.ID, domain.ErrPasteNotAccessible},
		{"caller without profile", "ghost", p.ID, domain.ErrPasteNotAccessible},
		{"non-owner", "bob", p.ID, domain.ErrPasteNotAccessible},
		{"missing paste", "alice", "zzzzzzzzzzz", domain.ErrPasteNotFound},
		{"ownerless paste", "alice", anon.ID, domain.ErrPasteNotAccessible},
	}
	for _, c := range cases {
		_, err := s.UpdatePaste(ctx, c.identity, c.pasteID, domain.UpdatePasteParams{Content: &content})
		require.ErrorIs(t, err, c.wantErr, c.name)
	}

	// Nothing above may have touched the stored record.
	got, err := s.GetPaste(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "v1", got.Content)
	require.Equal(t, 1, got.Version)

	updated, err := s.UpdatePaste(ctx, "alice", p.ID, domain.UpdatePasteParams{Content: &content})
	require.NoError(t, err)
	require.Equal(t, "v2", updated.Content)
	require.Equal(t, 2, updated.Version)
	require.Equal(t, "mine.txt", updated.Name)
}

func TestGetRecentPastesCapAndOrder(t *testing.T) {
	s := newTestService(t, testCfg())
	ctx := context.Background()
	mustProfile(t, s, "alice")

	ids := make([]string, 0, 12)
	for i := 0; i < 12; i++ {
		p, err := s.CreatePaste(ctx, "alice", domain.CreatePasteParams{
			Name: "n", Content: "c", ExpireSeconds: 3600,
		})
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}

	recent, err := s.GetRecentPastes(ctx, 50)
	require.NoError(t, err)
	require.Len(t, recent, 10)
	require.Equal(t, ids[11], recent[0].ID)
	require.Equal(t, ids[2], recent[9].ID)

	three, err := s.GetRecentPastes(ctx, 3)
	require.NoError(t, err)
	require.Len(t, three, 3)
	require.Equal(t, ids[11], three[0].ID)

	defaulted, err := s.GetRecentPastes(ctx, -1)
	require.NoError(t, err)
	require.Len(t, defaulted, 10)

	none, err := s.GetRecentPastes(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestGetRecentPastesEmptyStore(t *testing.T) {
	s := newTestService(t, testCfg())
	recent, err := s.GetRecentPastes(context.Background(), 5)
	require.NoError(t, err)
	require.Empty(t, recent)
}

func TestFindPredicates(t *testing.T) {
	s := newTestService(t, testCfg())
	ctx := context.Background()
	mustProfile(t, s, "alice")

	mk := func(name, tags string) *domain.Paste {
		p, err := s.CreatePaste(ctx, "alice", domain.CreatePasteParams{
			Name: name, Content: "c", ExpireSeconds: 3600, Tags: tags,
		})
		require.NoError(t, err)
		return p
	}
	txt := mk("notes.txt", "go notes")
	bak := mk("notes.txt.bak", "backup")
	mk("Makefile", "build")

	byExt, err := s.FindPastesByExtension(ctx, "txt")
	require.NoError(t, err)
	require.Len(t, byExt, 1)
	require.Equal(t, txt.ID, byExt[0].ID)

	byBak, err := s.FindPastesByExtension(ctx, "bak")
	require.NoError(t, err)
	require.Len(t, byBak, 1)
	require.Equal(t, bak.ID, byBak[0].ID)

	byTag, err := s.FindPastesByTag(ctx, "go")
	require.NoError(t, err)
	require.Len(t, byTag, 1)

	byName, err := s.FindPastesByName(ctx, "notes.txt")
	require.NoError(t, err)
	require.Len(t, byName, 1)

	none, err := s.FindPastesByTag(ctx, "missing")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestGetPastesByOwnerAllOrNothing(t *testing.T) {
	s := newTestService(t, testCfg())
	ctx := context.Background()
	mustProfile(t, s, "alice")

	p1, err := s.CreatePaste(ctx, "alice", domain.CreatePasteParams{
		Name: "a", Content: "c", ExpireSeconds: 3600,
	})
	require.NoError(t, err)
	p2, err := s.CreatePaste(ctx, "alice", domain.CreatePasteParams{
		Name: "b", Content: "c", ExpireSeconds: 3600,
	})
	require.NoError(t, err)

	got, err := s.GetPastesByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, p1.ID, got[0].ID)
	require.Equal(t, p2.ID, got[1].ID)

	_, err = s.GetPastesByOwner(ctx, "nobody")
	require.ErrorIs(t, err, domain.ErrPasteNotFound)

	// A dangling index entry fails the whole call, no partial results.
	_, err = s.db.DB().Exec(`DELETE FROM pastes WHERE id = ?`, p2.ID)
	require.NoError(t, err)
	s.lru.Delete(p2.ID)
	_, err = s.GetPastesByOwner(ctx, "alice")
	require.ErrorIs(t, err, domain.ErrPasteNotFound)
}

func TestPasteRecordSizeBound(t *testing.T) {
	s := newTestService(t, testCfg())
	ctx := context.Background()
	mustProfile(t, s, "alice")

	big := make([]byte, 17*1024)
	for i := range big {
		big[i] = 'a'
	}
	_, err := s.CreatePaste(ctx, "alice", domain.CreatePasteParams{
		Name: "big.txt", Content: string(big), ExpireSeconds: 3600,
	})
	require.ErrorIs(t, err, domain.ErrRecordTooLarge)

	recent, err := s.GetRecentPastes(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, recent, "rejected create must not leave partial writes")
}
