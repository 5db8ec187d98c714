package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from SessionStatus
		to   SessionStatus
		want bool
	}{
		{SessionStatusCreated, SessionStatusPlaying, true},
		{SessionStatusCreated, SessionStatusFinished, true},
		{SessionStatusPlaying, SessionStatusFinished, true},
		{SessionStatusPlaying, SessionStatusCreated, false},
		{SessionStatusFinished, SessionStatusCreated, false},
		{SessionStatusFinished, SessionStatusPlaying, false},
		{SessionStatusCreated, SessionStatusCreated, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestSessionSnapshot_Stage(t *testing.T) {
	east, south, west, north := WindEast, WindSouth, WindWest, WindNorth

	snapshot := &SessionSnapshot{
		Session: &Session{Status: SessionStatusCreated},
		Participants: []*Participant{
			{ExternalUserID: "U1", Nickname: "一", SeatNumber: 1},
			{ExternalUserID: "U2", Nickname: "二", SeatNumber: 2},
			{ExternalUserID: "U3", Nickname: "三", SeatNumber: 3},
		},
	}
	assert.Equal(t, StageWaitingForPlayers, snapshot.Stage())

	snapshot.Participants = append(snapshot.Participants, &Participant{ExternalUserID: "U4", Nickname: "四", SeatNumber: 4})
	assert.Equal(t, StageWaitingForWinds, snapshot.Stage())
	assert.Len(t, snapshot.WithoutWind(), 4)

	snapshot.Participants[0].Wind = &east
	snapshot.Participants[1].Wind = &south
	snapshot.Participants[2].Wind = &west
	assert.False(t, snapshot.WindsComplete())
	assert.Equal(t, 3, snapshot.WindsAssigned())

	snapshot.Participants[3].Wind = &north
	assert.True(t, snapshot.WindsComplete())
	assert.Equal(t, StageWaitingForDealer, snapshot.Stage())
	assert.Equal(t, "三", snapshot.WindHolder(WindWest).Nickname)

	snapshot.Participants[0].IsDealer = true
	assert.Equal(t, StageReady, snapshot.Stage())
	assert.Equal(t, "U1", snapshot.Dealer().ExternalUserID)
	assert.Equal(t, "四", snapshot.Find("U4").Nickname)
	assert.Nil(t, snapshot.Find("U9"))
}

func TestSessionSnapshot_DuplicateWindsAreIncomplete(t *testing.T) {
	east := WindEast
	snapshot := &SessionSnapshot{Participants: []*Participant{
		{Wind: &east}, {Wind: &east}, {Wind: &east}, {Wind: &east},
	}}
	assert.False(t, snapshot.WindsComplete())
}

func TestProfile_EffectiveNickname(t *testing.T) {
	profile := &Profile{DisplayName: "LINE名字"}
	assert.Equal(t, "LINE名字", profile.EffectiveNickname())
	assert.False(t, profile.HasPreferredNickname())

	preferred := "阿明"
	profile.PreferredNickname = &preferred
	assert.Equal(t, "阿明", profile.EffectiveNickname())

	profile.RecordResult(300, 100)
	profile.RecordResult(0, 500)
	assert.Equal(t, 2, profile.TotalGames)
	assert.Equal(t, int64(-300), profile.Net)
}
