package repository

import (
	"github.com/CalPolySEC/wrath-ctf-framework/internal/model"
	"gorm.io/gorm"
)

type ChallengeRepository struct {
	DB *gorm.DB
}

func NewChallengeRepository(db *gorm.DB) *ChallengeRepository {
	return &ChallengeRepository{DB: db}
}

// FindByFlagHash is the submission lookup: the flag itself identifies
// the challenge, teams never pick one by ID.
func (r *ChallengeRepository) FindByFlagHash(hash string) (*model.Challenge, error) {
	var chal model.Challenge
	err := r.DB.Preload("Prerequisites").Where("flag_hash = ?", hash).First(&chal).Error
	if err != nil {
		return nil, err
	}
	return &chal, nil
}

func (r *ChallengeRepository) FindByID(id uint) (*model.Challenge, error) {
	var chal model.Challenge
	err := r.DB.Preload("Prerequisites").Preload("Resources").First(&chal, id).Error
	if err != nil {
		return nil, err
	}
	return &chal, nil
}

func (r *ChallengeRepository) FindByTitle(title string) (*model.Challenge, error) {
	var chal model.Challenge
	err := r.DB.Where("title = ?", title).First(&chal).Error
	if err != nil {
		return nil, err
	}
	return &chal, nil
}

// ListOrdered returns all challenges cheapest-first, prerequisites
// preloaded for gating.
func (r *ChallengeRepository) ListOrdered() ([]model.Challenge, error) {
	var chals []model.Challenge
	err := r.DB.Preload("Prerequisites").Order("points ASC, id ASC").Find(&chals).Error
	return chals, err
}

// FindResource looks up a downloadable artifact by category and file
// name, carrying its owning challenge (with prerequisites) for the
// access check.
func (r *ChallengeRepository) FindResource(category, name string) (*model.Resource, *model.Challenge, error) {
	var res model.Resource
	err := r.DB.
		Joins("JOIN challenges ON challenges.id = resources.challenge_id").
		Where("resources.name = ? AND challenges.category = ?", name, category).
		First(&res).Error
	if err != nil {
		return nil, nil, err
	}
	chal, err := r.FindByID(res.ChallengeID)
	if err != nil {
		return nil, nil, err
	}
	return &res, chal, nil
}

// Save upserts a challenge by title; the loader reseeds with it.
func (r *ChallengeRepository) Save(chal *model.Challenge) error {
	return r.DB.Save(chal).Error
}

func (r *ChallengeRepository) ReplacePrerequisites(chal *model.Challenge, prereqs []*model.Challenge) error {
	return r.DB.Model(chal).Association("Prerequisites").Replace(prereqs)
}

func (r *ChallengeRepository) ReplaceResources(chal *model.Challenge, resources []model.Resource) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("challenge_id = ?", chal.ID).Delete(&model.Resource{}).Error; err != nil {
			return err
		}
		for i := range resources {
			resources[i].ChallengeID = chal.ID
			if err := tx.Create(&resources[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
