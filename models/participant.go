package models

import (
	"time"
)

// Wind is the seat wind a participant plays
type Wind string

const (
	WindEast  Wind = "東"
	WindSouth Wind = "南"
	WindWest  Wind = "西"
	WindNorth Wind = "北"
)

// AllWinds lists the winds in table order
var AllWinds = []Wind{WindEast, WindSouth, WindWest, WindNorth}

// ParseWind converts a wind token into a Wind
func ParseWind(s string) (Wind, bool) {
	for _, w := range AllWinds {
		if string(w) == s {
			return w, true
		}
	}
	return "", false
}

// Participant represents a user's seat in one session
type Participant struct {
	ID             int64     `db:"id"`
	SessionID      int64     `db:"session_id"`
	ExternalUserID string    `db:"external_user_id"`
	Nickname       string    `db:"nickname"`
	SeatNumber     int       `db:"seat_number"`
	Wind           *Wind     `db:"wind"`
	IsDealer       bool      `db:"is_dealer"`
	Score          int       `db:"score"`
	CreatedAt      time.Time `db:"created_at"`
}

// HasWind reports whether the participant picked a wind
func (p *Participant) HasWind() bool {
	return p.Wind != nil
}
