package session

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wani "github.com/PDAC95/wani"
	"github.com/PDAC95/wani/store"
)

var errBroken = errors.New("storage broken")

// faultyStore fails the configured operations.
type faultyStore struct {
	failSave  bool
	failLoad  bool
	failClear bool
	rec       *store.Record
}

func (f *faultyStore) Save(rec store.Record) error {
	if f.failSave {
		return errBroken
	}
	f.rec = &rec
	return nil
}

func (f *faultyStore) Load() (*store.Record, error) {
	if f.failLoad {
		return nil, errBroken
	}
	return f.rec, nil
}

func (f *faultyStore) Clear() error {
	if f.failClear {
		return errBroken
	}
	f.rec = nil
	return nil
}

func testUser() wani.User {
	return wani.User{
		ID:       "u1",
		Email:    "a@b.com",
		FullName: "Ada B",
		IsActive: true,
		KYCLevel: 1,
	}
}

func testTokens() wani.Tokens {
	return wani.Tokens{
		AccessToken:  "AT1",
		RefreshToken: "RT1",
		TokenType:    "bearer",
		ExpiresIn:    86400,
	}
}

func newFileSession(t *testing.T) (*Session, *store.FileStore) {
	t.Helper()
	st, err := store.NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)
	return New(st), st
}

func TestLogin_SetsStateAndPersists(t *testing.T) {
	sess, st := newFileSession(t)

	require.NoError(t, sess.Login(testUser(), testTokens()))

	assert.True(t, sess.IsAuthenticated())
	assert.Equal(t, "AT1", sess.AccessToken())
	assert.Equal(t, "RT1", sess.RefreshToken())
	require.NotNil(t, sess.User())
	assert.Equal(t, "a@b.com", sess.User().Email)

	rec, err := st.Load()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "AT1", rec.AccessToken)
	assert.Equal(t, "u1", rec.UserID)
}

func TestLogin_PersistFailureKeepsSessionUsable(t *testing.T) {
	sess := New(&faultyStore{failSave: true})

	err := sess.Login(testUser(), testTokens())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersist)

	// Degraded mode: the session works for this process lifetime.
	assert.True(t, sess.IsAuthenticated())
	assert.Equal(t, "AT1", sess.AccessToken())
}

func TestLoginThenRestore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.json")

	st, err := store.NewFileStore(path)
	require.NoError(t, err)
	sess := New(st)
	require.NoError(t, sess.Login(testUser(), testTokens()))

	// Simulate an app relaunch: fresh store and session over the same
	// file.
	st2, err := store.NewFileStore(path)
	require.NoError(t, err)
	relaunched := New(st2)
	require.NoError(t, relaunched.Restore())

	assert.True(t, relaunched.IsAuthenticated())
	assert.False(t, relaunched.IsLoading())
	assert.Equal(t, "AT1", relaunched.AccessToken())
	assert.Equal(t, "RT1", relaunched.RefreshToken())

	user := relaunched.User()
	require.NotNil(t, user)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "a@b.com", user.Email)
	// Only id/email survive the round trip; the rest are restore
	// defaults until /auth/me refreshes the record.
	assert.Empty(t, user.FullName)
	assert.True(t, user.IsActive)

	tokens := relaunched.Snapshot().Tokens
	require.NotNil(t, tokens)
	assert.Equal(t, "bearer", tokens.TokenType)
	assert.Equal(t, int64(86400), tokens.ExpiresIn)
}

func TestRestore_EmptyStoreEndsUnauthenticated(t *testing.T) {
	sess, _ := newFileSession(t)

	require.NoError(t, sess.Restore())

	snap := sess.Snapshot()
	assert.False(t, snap.Authenticated)
	assert.False(t, snap.Loading)
	assert.Nil(t, snap.User)
	assert.Nil(t, snap.Tokens)
}

func TestRestore_LoadFaultEndsUnauthenticated(t *testing.T) {
	sess := New(&faultyStore{failLoad: true})

	require.NoError(t, sess.Restore())

	assert.False(t, sess.IsAuthenticated())
	assert.False(t, sess.IsLoading())
}

func TestRestore_RunsOnce(t *testing.T) {
	fs := &faultyStore{rec: &store.Record{
		AccessToken:  "AT1",
		RefreshToken: "RT1",
		UserID:       "u1",
		UserEmail:    "a@b.com",
	}}
	sess := New(fs)

	require.NoError(t, sess.Restore())
	require.True(t, sess.IsAuthenticated())

	// A second restore must not touch storage or state again.
	fs.rec = nil
	fs.failLoad = true
	require.NoError(t, sess.Restore())
	assert.True(t, sess.IsAuthenticated())
	assert.Equal(t, "AT1", sess.AccessToken())
}

func TestLogout_ResetsStateAndStorage(t *testing.T) {
	sess, st := newFileSession(t)
	require.NoError(t, sess.Login(testUser(), testTokens()))

	require.NoError(t, sess.Logout())

	snap := sess.Snapshot()
	assert.False(t, snap.Authenticated)
	assert.Nil(t, snap.User)
	assert.Nil(t, snap.Tokens)
	assert.Empty(t, sess.AccessToken())

	rec, err := st.Load()
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestLogout_FailOpenResetsStateAnyway(t *testing.T) {
	fs := &faultyStore{failClear: true}
	sess := New(fs)
	require.NoError(t, sess.Login(testUser(), testTokens()))
	require.True(t, sess.IsAuthenticated())

	// The clear fails, the logout still happens.
	err := sess.Logout()
	require.Error(t, err)

	snap := sess.Snapshot()
	assert.False(t, snap.Authenticated)
	assert.Nil(t, snap.Tokens)
	assert.Nil(t, snap.User)
}

func TestUpdateTokens_ReplacesPairAndRepersists(t *testing.T) {
	sess, st := newFileSession(t)
	require.NoError(t, sess.Login(testUser(), testTokens()))

	newPair := wani.Tokens{
		AccessToken:  "AT2",
		RefreshToken: "RT2",
		TokenType:    "bearer",
		ExpiresIn:    86400,
	}
	require.NoError(t, sess.UpdateTokens(newPair))

	assert.Equal(t, "AT2", sess.AccessToken())
	assert.Equal(t, "RT2", sess.RefreshToken())
	require.NotNil(t, sess.User())
	assert.Equal(t, "u1", sess.User().ID)

	rec, err := st.Load()
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "AT2", rec.AccessToken)
	assert.Equal(t, "u1", rec.UserID)
}

func TestSetUser_ReplacesIdentityOnly(t *testing.T) {
	sess, _ := newFileSession(t)
	require.NoError(t, sess.Login(testUser(), testTokens()))

	full := testUser()
	full.FullName = "Ada Byron"
	full.IsVerified = true
	sess.SetUser(full)

	assert.Equal(t, "Ada Byron", sess.User().FullName)
	assert.Equal(t, "AT1", sess.AccessToken())
}

func TestAuthenticatedImpliesTokens(t *testing.T) {
	// Invariant: authenticated == true implies tokens != nil, across
	// the whole lifecycle.
	sess, _ := newFileSession(t)

	check := func() {
		snap := sess.Snapshot()
		if snap.Authenticated {
			require.NotNil(t, snap.Tokens)
		}
	}

	check()
	require.NoError(t, sess.Restore())
	check()
	require.NoError(t, sess.Login(testUser(), testTokens()))
	check()
	require.NoError(t, sess.UpdateTokens(testTokens()))
	check()
	require.NoError(t, sess.Logout())
	check()
}

func TestSubscribe_NotifiesOnEveryMutation(t *testing.T) {
	sess, _ := newFileSession(t)

	var snaps []Snapshot
	cancel := sess.Subscribe(func(snap Snapshot) {
		snaps = append(snaps, snap)
	})

	require.NoError(t, sess.Login(testUser(), testTokens()))
	require.NoError(t, sess.Logout())

	require.Len(t, snaps, 2)
	assert.True(t, snaps[0].Authenticated)
	assert.False(t, snaps[1].Authenticated)

	cancel()
	require.NoError(t, sess.Restore())
	assert.Len(t, snaps, 2)
}
