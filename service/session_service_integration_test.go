package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"mahjongbot/events"
	"mahjongbot/models"
	"mahjongbot/repository"
	"mahjongbot/repository/testutil"
	"mahjongbot/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type services struct {
	sessions service.SessionService
	identity service.IdentityService
	stats    service.StatsService
	bus      *events.Bus
}

func setupServices(t *testing.T) *services {
	t.Helper()
	testDB := testutil.SetupTestDatabase(t)

	bus := events.NewBus()
	factory := repository.NewUnitOfWorkFactory(testDB.DB, bus)
	locks := service.NewGroupLocks()

	return &services{
		sessions: service.NewSessionService(factory, locks),
		identity: service.NewIdentityService(factory, locks),
		stats:    service.NewStatsService(factory),
		bus:      bus,
	}
}

func TestSessionLifecycle_Integration(t *testing.T) {
	t.Parallel()
	s := setupServices(t)
	ctx := context.Background()
	group := "C-lifecycle"

	var mu sync.Mutex
	var emitted []events.EventType
	s.bus.SubscribeAll(func(ctx context.Context, e events.Event) {
		mu.Lock()
		emitted = append(emitted, e.Type())
		mu.Unlock()
	})

	_, err := s.sessions.CreateSession(ctx, group, models.SessionParams{Mode: "港麻", PerPoint: 20, BaseScore: 50})
	require.NoError(t, err)

	_, err = s.sessions.CreateSession(ctx, group, models.SessionParams{Mode: "台麻", PerPoint: 10, BaseScore: 30})
	assert.ErrorIs(t, err, service.ErrDuplicateSession)

	// U2 picks a preferred nickname before joining
	_, err = s.identity.SetNickname(ctx, "U2", "麻將王", "LINE二")
	require.NoError(t, err)

	names := []string{"LINE一", "LINE二", "LINE三", "LINE四"}
	for i, name := range names {
		result, err := s.sessions.AdmitParticipant(ctx, group, fmt.Sprintf("U%d", i+1), name)
		require.NoError(t, err)
		assert.Equal(t, i+1, result.Participant.SeatNumber)
		assert.Equal(t, i == 3, result.WindsNeeded)
	}

	snapshot, err := s.sessions.Query(ctx, group)
	require.NoError(t, err)
	assert.Equal(t, "麻將王", snapshot.Participants[1].Nickname)
	assert.Equal(t, models.StageWaitingForWinds, snapshot.Stage())

	_, err = s.sessions.AdmitParticipant(ctx, group, "U5", "LINE五")
	assert.ErrorIs(t, err, service.ErrSessionFull)

	_, err = s.sessions.AssignDealer(ctx, group, "U1")
	assert.ErrorIs(t, err, service.ErrNotReady)

	for i, wind := range models.AllWinds {
		_, err := s.sessions.AssignWind(ctx, group, fmt.Sprintf("U%d", i+1), wind)
		require.NoError(t, err)
	}

	_, err = s.sessions.AssignWind(ctx, group, "U2", models.WindEast)
	assert.ErrorIs(t, err, service.ErrWindTaken)

	dealer, err := s.sessions.AssignDealer(ctx, group, "U1")
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusPlaying, dealer.Snapshot.Session.Status)

	_, err = s.sessions.Withdraw(ctx, group, "U3")
	assert.ErrorIs(t, err, service.ErrSessionInProgress)

	ended, err := s.sessions.EndSession(ctx, group, "U4")
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusFinished, ended.Status)

	_, err = s.sessions.Query(ctx, group)
	assert.ErrorIs(t, err, service.ErrNoActiveSession)

	s.bus.Wait()
	mu.Lock()
	defer mu.Unlock()
	// handlers run concurrently, so only membership is stable
	for _, eventType := range events.AllEventTypes() {
		if eventType == events.EventTypeParticipantLeft {
			continue
		}
		assert.Contains(t, emitted, eventType)
	}
	assert.NotContains(t, emitted, events.EventTypeParticipantLeft)
}

func TestWithdrawRenumbersSeats_Integration(t *testing.T) {
	t.Parallel()
	s := setupServices(t)
	ctx := context.Background()
	group := "C-withdraw"

	_, err := s.sessions.CreateSession(ctx, group, models.SessionParams{Mode: "台麻", PerPoint: 10, BaseScore: 30})
	require.NoError(t, err)
	for i := 1; i <= 4; i++ {
		_, err := s.sessions.AdmitParticipant(ctx, group, fmt.Sprintf("U%d", i), fmt.Sprintf("玩家%d", i))
		require.NoError(t, err)
	}

	result, err := s.sessions.Withdraw(ctx, group, "U2")
	require.NoError(t, err)
	require.Equal(t, 3, result.Snapshot.Count())

	var nicknames []string
	for i, p := range result.Snapshot.Participants {
		assert.Equal(t, i+1, p.SeatNumber)
		nicknames = append(nicknames, p.Nickname)
	}
	assert.Equal(t, []string{"玩家1", "玩家3", "玩家4"}, nicknames)

	rejoined, err := s.sessions.AdmitParticipant(ctx, group, "U2", "玩家2")
	require.NoError(t, err)
	assert.Equal(t, 4, rejoined.Participant.SeatNumber)
}

func TestConcurrentJoinsNeverOverfill_Integration(t *testing.T) {
	t.Parallel()
	s := setupServices(t)
	ctx := context.Background()
	group := "C-race"

	_, err := s.sessions.CreateSession(ctx, group, models.SessionParams{Mode: "台麻", PerPoint: 10, BaseScore: 30})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	joined := 0
	for i := 1; i <= 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := s.sessions.AdmitParticipant(ctx, group, fmt.Sprintf("U%d", n), fmt.Sprintf("玩家%d", n))
			if err == nil {
				mu.Lock()
				joined++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, service.ErrSessionFull)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 4, joined)
	snapshot, err := s.sessions.Query(ctx, group)
	require.NoError(t, err)
	assert.Equal(t, 4, snapshot.Count())
}

func TestStatsAndLeaderboard_Integration(t *testing.T) {
	t.Parallel()
	s := setupServices(t)
	ctx := context.Background()
	group := "C-stats"

	_, err := s.sessions.CreateSession(ctx, group, models.SessionParams{Mode: "台麻", PerPoint: 10, BaseScore: 30})
	require.NoError(t, err)
	for i := 1; i <= 3; i++ {
		_, err := s.sessions.AdmitParticipant(ctx, group, fmt.Sprintf("U%d", i), fmt.Sprintf("玩家%d", i))
		require.NoError(t, err)
	}

	_, err = s.stats.RecordResult(ctx, "U1", 500, 100)
	require.NoError(t, err)
	_, err = s.stats.RecordResult(ctx, "U2", 0, 300)
	require.NoError(t, err)

	_, err = s.stats.RecordResult(ctx, "U404", 1, 0)
	assert.ErrorIs(t, err, service.ErrProfileNotFound)

	board, err := s.stats.Leaderboard(ctx, group, 10)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, "U1", board[0].Profile.ExternalUserID)
	assert.Equal(t, int64(400), board[0].Profile.Net)
	assert.Equal(t, 2, board[1].Rank)

	stats, err := s.stats.GetUserStats(ctx, "U1")
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, 1, stats.Profile.TotalGames)
	require.Len(t, stats.Recent, 1)
	assert.Equal(t, "玩家1", stats.Recent[0].Nickname)

	missing, err := s.stats.GetUserStats(ctx, "U404")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
