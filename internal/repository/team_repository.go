package repository

import (
	"github.com/CalPolySEC/wrath-ctf-framework/internal/model"
	"gorm.io/gorm"
)

type TeamRepository struct {
	DB *gorm.DB
}

func NewTeamRepository(db *gorm.DB) *TeamRepository {
	return &TeamRepository{DB: db}
}

func (r *TeamRepository) Create(team *model.Team) error {
	return r.DB.Create(team).Error
}

func (r *TeamRepository) FindByID(id uint) (*model.Team, error) {
	var team model.Team
	err := r.DB.First(&team, id).Error
	if err != nil {
		return nil, err
	}
	return &team, nil
}

// NameTaken reports whether another team already uses this name,
// compared case-insensitively. excludeID skips the team itself so a
// rename to the same spelling is not a conflict.
func (r *TeamRepository) NameTaken(name string, excludeID uint) (bool, error) {
	var count int64
	q := r.DB.Model(&model.Team{}).Where("LOWER(name) = LOWER(?)", name)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

func (r *TeamRepository) Update(team *model.Team) error {
	return r.DB.Save(team).Error
}

func (r *TeamRepository) AddInvite(team *model.Team, user *model.User) error {
	return r.DB.Model(team).Association("Invited").Append(user)
}

func (r *TeamRepository) RemoveInvite(team *model.Team, user *model.User) error {
	return r.DB.Model(team).Association("Invited").Delete(user)
}

func (r *TeamRepository) IsInvited(teamID, userID uint) (bool, error) {
	var count int64
	err := r.DB.Table("invites").
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Count(&count).Error
	return count > 0, err
}
