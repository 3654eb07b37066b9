package repository

import (
	"github.com/CalPolySEC/wrath-ctf-framework/internal/model"
	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(user *model.User) error {
	return r.DB.Create(user).Error
}

func (r *UserRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	err := r.DB.Preload("Team").First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByName matches the username case-insensitively; usernames are
// unique under LOWER(name).
func (r *UserRepository) FindByName(name string) (*model.User, error) {
	var user model.User
	err := r.DB.Preload("Team").Where("LOWER(name) = LOWER(?)", name).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) NameTaken(name string) (bool, error) {
	var count int64
	err := r.DB.Model(&model.User{}).Where("LOWER(name) = LOWER(?)", name).Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) SetTeam(userID uint, teamID *uint) error {
	return r.DB.Model(&model.User{}).Where("id = ?", userID).Update("team_id", teamID).Error
}

// Invites returns the teams that have invited this user.
func (r *UserRepository) Invites(userID uint) ([]*model.Team, error) {
	var user model.User
	err := r.DB.Preload("Invites").First(&user, userID).Error
	if err != nil {
		return nil, err
	}
	return user.Invites, nil
}
