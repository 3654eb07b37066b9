package repository

import (
	"errors"
	"time"

	"github.com/CalPolySEC/wrath-ctf-framework/internal/model"
	"github.com/CalPolySEC/wrath-ctf-framework/internal/util"
	"gorm.io/gorm"
)

type SolveRepository struct {
	DB *gorm.DB
}

func NewSolveRepository(db *gorm.DB) *SolveRepository {
	return &SolveRepository{DB: db}
}

// Create inserts the solve record. The composite primary key on
// (team_id, challenge_id) makes this the authoritative at-most-once
// step: when two submissions race, exactly one insert survives and
// the loser comes back as ErrAlreadySolved.
func (r *SolveRepository) Create(teamID, challengeID uint) error {
	solve := model.Solve{
		TeamID:      teamID,
		ChallengeID: challengeID,
		EarnedOn:    time.Now().UTC(),
	}
	err := r.DB.Create(&solve).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return util.ErrAlreadySolved
	}
	return err
}

func (r *SolveRepository) Has(teamID, challengeID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.Solve{}).
		Where("team_id = ? AND challenge_id = ?", teamID, challengeID).
		Count(&count).Error
	return count > 0, err
}

// SolvedIDs returns the set of challenge IDs the team has credit for.
func (r *SolveRepository) SolvedIDs(teamID uint) (map[uint]bool, error) {
	var ids []uint
	err := r.DB.Model(&model.Solve{}).
		Where("team_id = ?", teamID).
		Pluck("challenge_id", &ids).Error
	if err != nil {
		return nil, err
	}
	solved := make(map[uint]bool, len(ids))
	for _, id := range ids {
		solved[id] = true
	}
	return solved, nil
}

// TeamPoints sums the team's score live over its solves. There is no
// denormalized score column to keep consistent.
func (r *SolveRepository) TeamPoints(teamID uint) (int, error) {
	var points int
	err := r.DB.Model(&model.Solve{}).
		Select("IFNULL(SUM(challenges.points), 0)").
		Joins("JOIN challenges ON challenges.id = solves.challenge_id").
		Where("solves.team_id = ?", teamID).
		Scan(&points).Error
	return points, err
}

// Leaderboard aggregates every team's score and earliest solve in
// one query. Ordering and hidden-team filtering are the ranking
// policy's business, which lives in the service.
func (r *SolveRepository) Leaderboard() ([]model.RankedTeam, error) {
	var rows []model.RankedTeam
	err := r.DB.Table("teams").
		Select("teams.id, teams.name, teams.hide_rank, IFNULL(SUM(challenges.points), 0) AS points, MIN(solves.earned_on) AS first_solve").
		Joins("LEFT JOIN solves ON solves.team_id = teams.id").
		Joins("LEFT JOIN challenges ON challenges.id = solves.challenge_id").
		Group("teams.id, teams.name, teams.hide_rank").
		Scan(&rows).Error
	return rows, err
}
