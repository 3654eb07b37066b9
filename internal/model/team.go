package model

import "time"

// Team is the scoring unit. Its score is never stored: it is always
// summed live over the team's solves, so there is no denormalized
// column to drift out of sync under concurrent submissions.
type Team struct {
	BaseModel
	Name     string  `gorm:"size:128;uniqueIndex;not null" json:"name"`
	HideRank bool    `gorm:"default:false" json:"hideRank"`
	Members  []User  `gorm:"foreignKey:TeamID" json:"-"`
	Invited  []*User `gorm:"many2many:invites" json:"-"`
	Solves   []Solve `gorm:"foreignKey:TeamID" json:"-"`
}

func (Team) TableName() string {
	return "teams"
}

// RankedTeam is a leaderboard row: a team together with its live
// aggregate score. FirstSolve and HideRank feed the ranking policy
// and stay out of the JSON.
type RankedTeam struct {
	ID         uint       `json:"id"`
	Name       string     `json:"name"`
	Points     int        `json:"points"`
	FirstSolve *time.Time `json:"-"`
	HideRank   bool       `json:"-"`
}
