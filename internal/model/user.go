package model

// User is a registered account. Users exist independently of teams;
// a user joins at most one team, by invitation.
type User struct {
	BaseModel
	Name     string  `gorm:"size:128;uniqueIndex;not null" json:"name"`
	Password string  `gorm:"size:100;not null" json:"-"` // bcrypt hash, never the plaintext
	TeamID   *uint   `json:"-"`
	Team     *Team   `gorm:"foreignKey:TeamID" json:"team,omitempty"`
	Invites  []*Team `gorm:"many2many:invites" json:"-"`
}

func (User) TableName() string {
	return "users"
}
