package models

import (
	"time"
)

// LeaderboardEntry represents a profile's position on a group leaderboard
type LeaderboardEntry struct {
	Rank    int
	Profile *Profile
}

// Participation summarizes one table a user sat at
type Participation struct {
	SessionID int64
	Mode      string
	Nickname  string
	Wind      *Wind
	IsDealer  bool
	PlayedAt  time.Time
}

// UserStats combines a profile with the user's most recent tables
type UserStats struct {
	Profile *Profile
	Recent  []*Participation
}
