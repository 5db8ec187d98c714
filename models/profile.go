package models

import (
	"time"
)

// Profile is the cross-session identity record of a chat user
type Profile struct {
	ID                int64     `db:"id"`
	ExternalUserID    string    `db:"external_user_id"`
	DisplayName       string    `db:"display_name"`
	PreferredNickname *string   `db:"preferred_nickname"`
	TotalGames        int       `db:"total_games"`
	TotalWon          int64     `db:"total_won"`
	TotalLost         int64     `db:"total_lost"`
	Net               int64     `db:"net"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

// EffectiveNickname returns the preferred nickname when set, else the display name
func (p *Profile) EffectiveNickname() string {
	if p.PreferredNickname != nil && *p.PreferredNickname != "" {
		return *p.PreferredNickname
	}
	return p.DisplayName
}

// HasPreferredNickname reports whether the user picked a nickname
func (p *Profile) HasPreferredNickname() bool {
	return p.PreferredNickname != nil && *p.PreferredNickname != ""
}

// RecordResult adds one finished game to the running totals
func (p *Profile) RecordResult(won, lost int64) {
	p.TotalGames++
	p.TotalWon += won
	p.TotalLost += lost
	p.Net = p.TotalWon - p.TotalLost
}
