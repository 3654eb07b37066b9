package model

// Challenge holds everything about a scoring unit except the flag
// itself: only the SHA-256 of the correct flag is ever stored.
//
// Prerequisites form an explicit directed set. A team may only submit
// against a challenge once it has solved every prerequisite. Numeric
// "level ordering" within a category is expressed by chaining
// prerequisites at load time.
type Challenge struct {
	BaseModel
	Title         string       `gorm:"size:128;uniqueIndex;not null" json:"title"`
	Description   string       `gorm:"type:text" json:"description"`
	Category      string       `gorm:"size:128;index;not null" json:"category"`
	Points        int          `gorm:"not null" json:"points"`
	FlagHash      string       `gorm:"size:64;uniqueIndex;not null" json:"-"`
	Prerequisites []*Challenge `gorm:"many2many:challenge_prerequisites;joinForeignKey:ChallengeID;joinReferences:PrerequisiteID" json:"-"`
	Resources     []Resource   `gorm:"foreignKey:ChallengeID" json:"resources,omitempty"`
}

func (Challenge) TableName() string {
	return "challenges"
}

// ChallengeView is a challenge as shown to a team: public metadata
// plus whether that team has already solved it.
type ChallengeView struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Points      int    `json:"points"`
	Solved      bool   `json:"solved"`
}

func (c *Challenge) View(solved bool) ChallengeView {
	return ChallengeView{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Category:    c.Category,
		Points:      c.Points,
		Solved:      solved,
	}
}
