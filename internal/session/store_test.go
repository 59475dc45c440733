// File: internal/session/store_test.go
package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir(), zap.NewNop())
}

func sampleRecord(site string) *Record {
	return &Record{
		Site: site,
		Cookies: []*network.Cookie{
			{Name: "sid", Value: "abc123", Domain: ".example.com"},
			{Name: "pref", Value: "dark", Domain: ".example.com"},
		},
		UserAgent: "Mozilla/5.0 (test)",
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(sampleRecord("gmail")))

	rec, err := store.Load("gmail")
	require.NoError(t, err)
	assert.Equal(t, "gmail", rec.Site)
	assert.Len(t, rec.Cookies, 2)
	assert.Equal(t, "sid", rec.Cookies[0].Name)
	assert.NotZero(t, rec.Timestamp)
}

func TestLoadMissingSession(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load("twitter")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadExpiredSession(t *testing.T) {
	store := newTestStore(t)
	rec := sampleRecord("gmail")
	rec.Timestamp = time.Now().Add(-25 * time.Hour).UnixMilli()
	require.NoError(t, store.Save(rec))

	_, err := store.Load("gmail")
	assert.ErrorIs(t, err, ErrExpired)
}

func TestLoadJustUnderExpiry(t *testing.T) {
	store := newTestStore(t)
	rec := sampleRecord("gmail")
	rec.Timestamp = time.Now().Add(-23 * time.Hour).UnixMilli()
	require.NoError(t, store.Save(rec))

	_, err := store.Load("gmail")
	assert.NoError(t, err)
}

func TestListMissingDirIsEmpty(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nope"), zap.NewNop())

	listing, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, listing.Sessions)
	assert.Equal(t, 0, listing.Total)
	assert.Equal(t, 0, listing.Active)
	assert.Equal(t, 0, listing.Expired)
}

func TestListCountsActiveAndExpired(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(sampleRecord("gmail")))

	old := sampleRecord("twitter")
	old.Timestamp = time.Now().Add(-48 * time.Hour).UnixMilli()
	require.NoError(t, store.Save(old))

	listing, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, 2, listing.Total)
	assert.Equal(t, 1, listing.Active)
	assert.Equal(t, 1, listing.Expired)

	bySite := make(map[string]Info)
	for _, info := range listing.Sessions {
		bySite[info.Site] = info
	}
	assert.False(t, bySite["gmail"].Expired)
	assert.True(t, bySite["twitter"].Expired)
	assert.Equal(t, 2, bySite["gmail"].CookieCount)
	assert.Contains(t, bySite["twitter"].AgeHuman, "days")
}

func TestListSkipsCorruptFiles(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(sampleRecord("gmail")))
	require.NoError(t, os.WriteFile(filepath.Join(store.dir, "bad_session.json"), []byte("{nope"), 0o600))

	listing, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, 1, listing.Total)
}

func TestClearSingleSite(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(sampleRecord("gmail")))

	res, err := store.Clear("gmail")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Contains(t, res.Message, "gmail")

	_, err = store.Load("gmail")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClearMissingSiteIsNotAnError(t *testing.T) {
	store := newTestStore(t)

	res, err := store.Clear("gmail")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "No sessions found", res.Message)
}

func TestClearAll(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(sampleRecord("gmail")))
	require.NoError(t, store.Save(sampleRecord("twitter")))

	res, err := store.Clear("all")
	require.NoError(t, err)
	assert.True(t, res.Success)

	listing, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, 0, listing.Total)
}

func TestRejectsPathTraversal(t *testing.T) {
	store := newTestStore(t)

	err := store.Save(sampleRecord("../evil"))
	assert.ErrorIs(t, err, ErrInvalidSite)

	_, err = store.Load("a/b")
	assert.ErrorIs(t, err, ErrInvalidSite)
}

func TestHumanizeAge(t *testing.T) {
	cases := []struct {
		age  time.Duration
		want string
	}{
		{30 * time.Second, "30 seconds"},
		{5 * time.Minute, "5 minutes"},
		{3 * time.Hour, "3 hours"},
		{49 * time.Hour, "2 days"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, humanizeAge(tc.age))
	}
}
