/* api_test.go
 * Contains unit tests for api.go - testing all public API methods against the in-memory MockStore
 */

package api

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vlakddp4/publicbot/api/logic"
	"github.com/vlakddp4/publicbot/api/shared"
	"github.com/vlakddp4/publicbot/api/store"
)

var alice = shared.User{UserID: 100, Username: "alice"}

func validRegistration() shared.Registration {
	return shared.Registration{
		DiscordNickname:     "Ally",
		IngameNickname:      "Ally#KR1",
		Tier:                "Gold",
		RankPoints:          1540,
		MostPlayedChampions: "Jackie, Aya",
		StatsLink:           "https://dak.gg/er/players/Ally",
	}
}

func newTestAPI() (*API, *MockStore) {
	s := NewMockStore()
	return New(s, nil), s
}

func seed(t *testing.T, a *API, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		reg := validRegistration()
		reg.DiscordNickname = fmt.Sprintf("player%d", i)
		require.NoError(t, a.Register(context.Background(), shared.User{UserID: int64(i), Username: reg.DiscordNickname}, reg))
	}
}

// region NewAPI tests

func TestNewAPI_OpensSQLiteStore(t *testing.T) {
	a, err := NewAPI(context.Background(), store.Config{Path: filepath.Join(t.TempDir(), "p.db")}, nil)
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Register(context.Background(), alice, validRegistration()))
	registered, err := a.IsRegistered(context.Background(), alice.UserID)
	require.NoError(t, err)
	assert.True(t, registered)
}

func TestNewAPI_BadDriver(t *testing.T) {
	_, err := NewAPI(context.Background(), store.Config{Driver: "oracle"}, nil)
	assert.Error(t, err)
}

// endregion

// region Register tests

func TestRegister_Success(t *testing.T) {
	a, s := newTestAPI()

	require.NoError(t, a.Register(context.Background(), alice, validRegistration()))

	p, ok := s.Participants[alice.UserID]
	require.True(t, ok)
	assert.Equal(t, "alice", p.Username)
	assert.Equal(t, validRegistration(), p.Registration)
	assert.False(t, p.UpdatedAt.IsZero())
}

func TestRegister_NegativeRankPointsCreatesNoRow(t *testing.T) {
	a, s := newTestAPI()
	reg := validRegistration()
	reg.RankPoints = -1

	err := a.Register(context.Background(), alice, reg)

	var verr *logic.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Empty(t, s.Participants)
	assert.Zero(t, s.Calls, "validation failures never reach the store")
}

func TestRegister_ReRegistrationKeepsProfile(t *testing.T) {
	a, s := newTestAPI()
	ctx := context.Background()

	require.NoError(t, a.Register(ctx, alice, validRegistration()))
	_, err := a.UpdateProfile(ctx, alice.UserID, "hello", &shared.Attachment{URL: "https://cdn/a.png", ContentType: "image/png"})
	require.NoError(t, err)

	reg := validRegistration()
	reg.Tier = "Diamond"
	require.NoError(t, a.Register(ctx, alice, reg))

	require.Len(t, s.Participants, 1)
	p := s.Participants[alice.UserID]
	assert.Equal(t, "Diamond", p.Tier)
	assert.Equal(t, "https://cdn/a.png", p.ImageURL)
	assert.Equal(t, "hello", p.SelfIntroduction)
}

// The stored username is the one from the first registration. A renamed user keeps the old name until they cancel
// and register again.
func TestRegister_UsernameIsNotRefreshed(t *testing.T) {
	a, s := newTestAPI()
	ctx := context.Background()

	require.NoError(t, a.Register(ctx, alice, validRegistration()))
	require.NoError(t, a.Register(ctx, shared.User{UserID: alice.UserID, Username: "alice_v2"}, validRegistration()))
	assert.Equal(t, "alice", s.Participants[alice.UserID].Username)

	require.NoError(t, a.Cancel(ctx, alice.UserID))
	require.NoError(t, a.Register(ctx, shared.User{UserID: alice.UserID, Username: "alice_v2"}, validRegistration()))
	assert.Equal(t, "alice_v2", s.Participants[alice.UserID].Username)
}

func TestRegister_IdempotentOnlyTimestampMoves(t *testing.T) {
	a, s := newTestAPI()
	ctx := context.Background()
	clock := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	s.Now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	require.NoError(t, a.Register(ctx, alice, validRegistration()))
	first := s.Participants[alice.UserID]
	require.NoError(t, a.Register(ctx, alice, validRegistration()))
	second := s.Participants[alice.UserID]

	assert.Equal(t, first.Registration, second.Registration)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
}

func TestRegister_StorageError(t *testing.T) {
	a, s := newTestAPI()
	s.UpsertError = &store.StorageError{Op: "upsert participant", Err: errors.New("disk I/O error")}

	err := a.Register(context.Background(), alice, validRegistration())
	assert.True(t, store.IsStorageError(err))
}

// endregion

// region Cancel / MyInfo / IsRegistered tests

func TestCancel_ThenMyInfo(t *testing.T) {
	a, _ := newTestAPI()
	ctx := context.Background()

	require.NoError(t, a.Register(ctx, alice, validRegistration()))
	require.NoError(t, a.Cancel(ctx, alice.UserID))

	_, err := a.MyInfo(ctx, alice.UserID)
	assert.ErrorIs(t, err, ErrNotRegistered)

	registered, err := a.IsRegistered(ctx, alice.UserID)
	require.NoError(t, err)
	assert.False(t, registered)
}

func TestCancel_NotRegistered(t *testing.T) {
	a, _ := newTestAPI()
	assert.NoError(t, a.Cancel(context.Background(), alice.UserID))
}

func TestMyInfo_Success(t *testing.T) {
	a, _ := newTestAPI()
	ctx := context.Background()
	require.NoError(t, a.Register(ctx, alice, validRegistration()))

	p, err := a.MyInfo(ctx, alice.UserID)
	require.NoError(t, err)
	assert.Equal(t, "Ally", p.DiscordNickname)
}

func TestMyInfo_StorageErrorPassesThrough(t *testing.T) {
	a, s := newTestAPI()
	s.GetError = &store.StorageError{Op: "get participant", Err: errors.New("closed")}

	_, err := a.MyInfo(context.Background(), alice.UserID)
	assert.True(t, store.IsStorageError(err))
	assert.NotErrorIs(t, err, ErrNotRegistered)
}

// endregion

// region UpdateProfile tests

func TestUpdateProfile_NotRegisteredCreatesNoRow(t *testing.T) {
	a, s := newTestAPI()

	_, err := a.UpdateProfile(context.Background(), alice.UserID, "hello", nil)
	assert.ErrorIs(t, err, ErrNotRegistered)
	assert.Empty(t, s.Participants)
}

func TestUpdateProfile_KeepsRegistration(t *testing.T) {
	a, s := newTestAPI()
	ctx := context.Background()
	require.NoError(t, a.Register(ctx, alice, validRegistration()))

	profile, err := a.UpdateProfile(ctx, alice.UserID, "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, shared.Profile{SelfIntroduction: "hello"}, profile)
	assert.Equal(t, validRegistration(), s.Participants[alice.UserID].Registration)
}

func TestUpdateProfile_OmittedFieldsClear(t *testing.T) {
	a, s := newTestAPI()
	ctx := context.Background()
	require.NoError(t, a.Register(ctx, alice, validRegistration()))
	_, err := a.UpdateProfile(ctx, alice.UserID, "hello", &shared.Attachment{URL: "https://cdn/a.png", ContentType: "image/png"})
	require.NoError(t, err)

	_, err = a.UpdateProfile(ctx, alice.UserID, "", nil)
	require.NoError(t, err)

	assert.Empty(t, s.Participants[alice.UserID].ImageURL)
	assert.Empty(t, s.Participants[alice.UserID].SelfIntroduction)
}

func TestUpdateProfile_RejectsNonImage(t *testing.T) {
	a, s := newTestAPI()
	mirror := &MockMirror{}
	a.Mirror = mirror

	_, err := a.UpdateProfile(context.Background(), alice.UserID, "", &shared.Attachment{URL: "https://cdn/a.pdf", ContentType: "application/pdf"})

	var verr *logic.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Zero(t, s.Calls)
	assert.Empty(t, mirror.Mirrored)
}

func TestUpdateProfile_UsesMirroredURL(t *testing.T) {
	a, s := newTestAPI()
	a.Mirror = &MockMirror{URL: "https://img.example.com/profiles/100/x.png"}
	ctx := context.Background()
	require.NoError(t, a.Register(ctx, alice, validRegistration()))

	_, err := a.UpdateProfile(ctx, alice.UserID, "", &shared.Attachment{URL: "https://cdn/a.png", ContentType: "image/png"})
	require.NoError(t, err)
	assert.Equal(t, "https://img.example.com/profiles/100/x.png", s.Participants[alice.UserID].ImageURL)
}

func TestUpdateProfile_MirrorFailure(t *testing.T) {
	a, s := newTestAPI()
	a.Mirror = &MockMirror{Err: errors.New("status 404")}
	ctx := context.Background()
	require.NoError(t, a.Register(ctx, alice, validRegistration()))

	_, err := a.UpdateProfile(ctx, alice.UserID, "hello", &shared.Attachment{URL: "https://cdn/a.png", ContentType: "image/png"})
	assert.ErrorIs(t, err, ErrImageUnavailable)
	assert.Empty(t, s.Participants[alice.UserID].SelfIntroduction, "nothing is written when the image fails")
}

func TestUpdateProfile_CancelledMidway(t *testing.T) {
	a, s := newTestAPI()
	ctx := context.Background()
	require.NoError(t, a.Register(ctx, alice, validRegistration()))
	s.UpdateProfileError = store.ErrNotFound

	_, err := a.UpdateProfile(ctx, alice.UserID, "hello", nil)
	assert.ErrorIs(t, err, ErrNotRegistered)
}

// endregion

// region ListParticipants tests

func TestListParticipants_EmptyStore(t *testing.T) {
	a, _ := newTestAPI()

	_, err := a.ListParticipants(context.Background(), 1)

	var oor *logic.PageOutOfRangeError
	require.True(t, errors.As(err, &oor))
	assert.Equal(t, 0, oor.TotalPages)
}

func TestListParticipants_LastPageOfSeven(t *testing.T) {
	a, _ := newTestAPI()
	seed(t, a, 7)

	page, err := a.ListParticipants(context.Background(), 3)
	require.NoError(t, err)

	require.Len(t, page.Participants, 1)
	assert.Equal(t, int64(7), page.Participants[0].UserID)
	assert.NotNil(t, page.Previous)
	assert.Nil(t, page.Next)
	assert.Equal(t, 3, page.TotalPages)
}

func TestListParticipants_PagesAreStable(t *testing.T) {
	a, _ := newTestAPI()
	seed(t, a, 7)
	ctx := context.Background()

	first, err := a.ListParticipants(ctx, 2)
	require.NoError(t, err)
	again, err := a.ListParticipants(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, first.Participants, again.Participants)
	assert.Equal(t, []int64{4, 5, 6}, []int64{first.Participants[0].UserID, first.Participants[1].UserID, first.Participants[2].UserID})
}

func TestListParticipants_SeesNewRowsWithoutCaching(t *testing.T) {
	a, _ := newTestAPI()
	seed(t, a, 3)
	ctx := context.Background()

	_, err := a.ListParticipants(ctx, 2)
	require.ErrorIs(t, err, logic.ErrPageOutOfRange)

	require.NoError(t, a.Register(ctx, shared.User{UserID: 99, Username: "late"}, validRegistration()))
	page, err := a.ListParticipants(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, page.Participants, 1)
}

func TestListParticipants_CountError(t *testing.T) {
	a, s := newTestAPI()
	s.CountError = &store.StorageError{Op: "count participants", Err: errors.New("locked")}

	_, err := a.ListParticipants(context.Background(), 1)
	assert.True(t, store.IsStorageError(err))
}

// endregion

// region SearchParticipants tests

func TestSearchParticipants(t *testing.T) {
	a, _ := newTestAPI()
	seed(t, a, 12)

	matches, err := a.SearchParticipants(context.Background(), "player1", 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "player1", matches[0].DiscordNickname)
}

func TestSearchParticipants_StorageError(t *testing.T) {
	a, s := newTestAPI()
	s.PageError = &store.StorageError{Op: "list participants", Err: errors.New("gone")}

	_, err := a.SearchParticipants(context.Background(), "x", 5)
	assert.True(t, store.IsStorageError(err))
}

// endregion
