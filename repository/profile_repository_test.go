package repository

import (
	"context"
	"fmt"
	"testing"

	"mahjongbot/models"
	"mahjongbot/repository/testutil"
	"mahjongbot/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileRepository_CreateAndUpdate(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewProfileRepository(testDB.DB)
	ctx := context.Background()
	user := testutil.UserID(1)

	t.Run("profile not found", func(t *testing.T) {
		profile, err := repo.GetByExternalID(ctx, testutil.UserID(404))
		require.NoError(t, err)
		assert.Nil(t, profile)
	})

	created, err := repo.Create(ctx, user, "小明", nil)
	require.NoError(t, err)
	assert.Nil(t, created.PreferredNickname)
	assert.Zero(t, created.TotalGames)
	assert.Equal(t, "小明", created.EffectiveNickname())

	t.Run("duplicate external id conflicts", func(t *testing.T) {
		_, err := repo.Create(ctx, user, "別人", nil)
		assert.ErrorIs(t, err, service.ErrConflict)
	})

	require.NoError(t, repo.UpdateDisplayName(ctx, created.ID, "大明"))
	require.NoError(t, repo.UpdatePreferredNickname(ctx, created.ID, "明哥"))

	found, err := repo.GetByExternalID(ctx, user)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "大明", found.DisplayName)
	require.NotNil(t, found.PreferredNickname)
	assert.Equal(t, "明哥", found.EffectiveNickname())

	t.Run("update of missing profile fails", func(t *testing.T) {
		assert.Error(t, repo.UpdateDisplayName(ctx, 999999, "無"))
	})
}

func TestProfileRepository_RecordResult(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewProfileRepository(testDB.DB)
	ctx := context.Background()

	profile, err := repo.Create(ctx, testutil.UserID(1), "小明", nil)
	require.NoError(t, err)

	results := []struct{ won, lost int64 }{{300, 0}, {0, 500}, {120, 20}}
	var updated *models.Profile
	for _, r := range results {
		updated, err = repo.RecordResult(ctx, profile.ID, r.won, r.lost)
		require.NoError(t, err)
		assert.Equal(t, updated.TotalWon-updated.TotalLost, updated.Net)
	}

	assert.Equal(t, 3, updated.TotalGames)
	assert.Equal(t, int64(420), updated.TotalWon)
	assert.Equal(t, int64(520), updated.TotalLost)
	assert.Equal(t, int64(-100), updated.Net)

	_, err = repo.RecordResult(ctx, 999999, 1, 0)
	assert.Error(t, err)
}

func TestProfileRepository_TopByGroup(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewProfileRepository(testDB.DB)
	ctx := context.Background()

	here := testutil.InsertSession(t, testDB.DB, "C-here", models.SessionStatusFinished)
	elsewhere := testutil.InsertSession(t, testDB.DB, "C-elsewhere", models.SessionStatusFinished)

	type player struct {
		n        int
		group    int64
		won      int64
		lost     int64
		recorded bool
	}
	players := []player{
		{n: 1, group: here.ID, won: 100, recorded: true},
		{n: 2, group: here.ID, won: 900, recorded: true},
		{n: 3, group: here.ID, lost: 300, recorded: true},
		{n: 4, group: here.ID},
		{n: 5, group: elsewhere.ID, won: 5000, recorded: true},
	}
	for _, p := range players {
		profile, err := repo.Create(ctx, testutil.UserID(p.n), fmt.Sprintf("玩家%d", p.n), nil)
		require.NoError(t, err)
		testutil.InsertParticipant(t, testDB.DB, p.group, testutil.UserID(p.n), profile.DisplayName, 1+p.n%4)
		if p.recorded {
			_, err = repo.RecordResult(ctx, profile.ID, p.won, p.lost)
			require.NoError(t, err)
		}
	}

	top, err := repo.TopByGroup(ctx, "C-here", 10)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, testutil.UserID(2), top[0].ExternalUserID)
	assert.Equal(t, testutil.UserID(1), top[1].ExternalUserID)
	assert.Equal(t, testutil.UserID(3), top[2].ExternalUserID)

	limited, err := repo.TopByGroup(ctx, "C-here", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	empty, err := repo.TopByGroup(ctx, "C-nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
