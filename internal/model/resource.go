package model

// Resource is a downloadable artifact attached to a challenge. It is
// gated by the same prerequisite check as the challenge itself, so a
// team cannot fetch files for a challenge it cannot yet see.
type Resource struct {
	BaseModel
	ChallengeID uint   `gorm:"index;not null" json:"-"`
	Name        string `gorm:"size:255;not null" json:"name"`
	ObjectKey   string `gorm:"size:255;not null" json:"-"` // key in the storage backend
}

func (Resource) TableName() string {
	return "resources"
}
