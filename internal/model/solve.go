package model

import (
	"time"
)

// Solve credits a team for a challenge. The composite primary key is
// the anti-replay invariant: a second insert for the same pair fails
// at the storage layer no matter how the race between two concurrent
// submissions plays out. Rows are append-only.
type Solve struct {
	TeamID      uint      `gorm:"primaryKey;autoIncrement:false" json:"teamId"`
	ChallengeID uint      `gorm:"primaryKey;autoIncrement:false" json:"challengeId"`
	EarnedOn    time.Time `gorm:"index;not null" json:"earnedOn"`
}

func (Solve) TableName() string {
	return "solves"
}
