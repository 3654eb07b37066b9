package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/CalPolySEC/wrath-ctf-framework/internal/model"
	"github.com/CalPolySEC/wrath-ctf-framework/internal/util"
	"gorm.io/gorm"
)

const (
	// Reserved honeypot flag. Compared literally before hashing; it
	// is a joke, not a security control.
	DecoyFlag = "V375BrzPaT"
	// Where decoy submissions (and /passwords.zip snoopers) end up.
	DecoyURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
)

// ChallengeStore is the slice of the challenge repository the scoring
// engine needs.
type ChallengeStore interface {
	FindByFlagHash(hash string) (*model.Challenge, error)
	FindByID(id uint) (*model.Challenge, error)
	ListOrdered() ([]model.Challenge, error)
	FindResource(category, name string) (*model.Resource, *model.Challenge, error)
}

// SolveStore is the scoring engine's view of solve records and
// derived scores.
type SolveStore interface {
	Create(teamID, challengeID uint) error
	Has(teamID, challengeID uint) (bool, error)
	SolvedIDs(teamID uint) (map[uint]bool, error)
	TeamPoints(teamID uint) (int, error)
	Leaderboard() ([]model.RankedTeam, error)
}

// CTFService validates and applies exactly-once credit for flag
// submissions, and answers the prerequisite-gated read queries.
type CTFService struct {
	challenges ChallengeStore
	solves     SolveStore
	storage    *StorageService
	now        func() time.Time

	mu     sync.RWMutex
	endsAt time.Time // zero = competition never ends
}

func NewCTFService(challenges ChallengeStore, solves SolveStore, storage *StorageService, endsAt time.Time) *CTFService {
	return &CTFService{
		challenges: challenges,
		solves:     solves,
		storage:    storage,
		now:        time.Now,
		endsAt:     endsAt,
	}
}

// HashFlag is how flags are compared, stored and looked up. Plaintext
// flags are never compared directly.
func HashFlag(flag string) string {
	sum := sha256.Sum256([]byte(flag))
	return hex.EncodeToString(sum[:])
}

// SetEndsAt swaps the competition deadline at runtime (config reload).
func (s *CTFService) SetEndsAt(t time.Time) {
	s.mu.Lock()
	s.endsAt = t
	s.mu.Unlock()
}

func (s *CTFService) ended() bool {
	s.mu.RLock()
	end := s.endsAt
	s.mu.RUnlock()
	return !end.IsZero() && s.now().After(end)
}

// prereqsSatisfied reports whether the team has solved every
// prerequisite of the challenge. solved is the team's solved-ID set.
func prereqsSatisfied(chal *model.Challenge, solved map[uint]bool) bool {
	for _, pre := range chal.Prerequisites {
		if !solved[pre.ID] {
			return false
		}
	}
	return true
}

// SubmitFlag applies exactly-once credit for a raw flag.
//
// The early Has check is a fast path for a friendly error; the insert
// in SolveStore.Create is what actually guarantees at-most-once when
// two submissions race.
func (s *CTFService) SubmitFlag(ctx context.Context, team *model.Team, flag string) (*model.Challenge, error) {
	if flag == DecoyFlag {
		return nil, util.ErrDecoyFlag
	}

	if s.ended() {
		return nil, util.ErrCompetitionEnded
	}

	chal, err := s.challenges.FindByFlagHash(HashFlag(flag))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrIncorrectFlag
	}
	if err != nil {
		return nil, err
	}

	solved, err := s.solves.SolvedIDs(team.ID)
	if err != nil {
		return nil, err
	}
	if solved[chal.ID] {
		return nil, util.ErrAlreadySolved
	}
	if !prereqsSatisfied(chal, solved) {
		return nil, util.ErrPrereqsNotMet
	}

	if err := s.solves.Create(team.ID, chal.ID); err != nil {
		return nil, err
	}
	return chal, nil
}

// ChallengesFor lists the challenges whose prerequisites the team has
// met, cheapest first, each flagged solved or not.
func (s *CTFService) ChallengesFor(ctx context.Context, team *model.Team) ([]model.ChallengeView, error) {
	chals, err := s.challenges.ListOrdered()
	if err != nil {
		return nil, err
	}
	solved, err := s.solves.SolvedIDs(team.ID)
	if err != nil {
		return nil, err
	}

	views := make([]model.ChallengeView, 0, len(chals))
	for i := range chals {
		if !prereqsSatisfied(&chals[i], solved) {
			continue
		}
		views = append(views, chals[i].View(solved[chals[i].ID]))
	}
	return views, nil
}

// GetChallenge returns one challenge detail, or ErrNotFound when it
// does not exist or its prerequisites are unmet; the two cases are
// deliberately indistinguishable.
func (s *CTFService) GetChallenge(ctx context.Context, team *model.Team, id uint) (*model.ChallengeView, error) {
	chal, err := s.challenges.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	solved, err := s.solves.SolvedIDs(team.ID)
	if err != nil {
		return nil, err
	}
	if !prereqsSatisfied(chal, solved) {
		return nil, util.ErrNotFound
	}
	view := chal.View(solved[chal.ID])
	return &view, nil
}

// GetResourceURL resolves a downloadable artifact, applying the same
// prerequisite gate as its challenge.
func (s *CTFService) GetResourceURL(ctx context.Context, team *model.Team, category, name string) (string, error) {
	res, chal, err := s.challenges.FindResource(category, name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", util.ErrNotFound
	}
	if err != nil {
		return "", err
	}

	solved, err := s.solves.SolvedIDs(team.ID)
	if err != nil {
		return "", err
	}
	if !prereqsSatisfied(chal, solved) {
		return "", util.ErrNotFound
	}
	return s.storage.GetURL(ctx, res.ObjectKey)
}

// Leaderboard is the public ranking. The policy: score descending,
// then the team whose *first* solve came earlier ranks higher, then
// team id for a stable total order. Hidden teams are excluded but
// keep scoring.
func (s *CTFService) Leaderboard(ctx context.Context) ([]model.RankedTeam, error) {
	rows, err := s.solves.Leaderboard()
	if err != nil {
		return nil, err
	}

	ranked := make([]model.RankedTeam, 0, len(rows))
	for _, row := range rows {
		if row.HideRank {
			continue
		}
		ranked = append(ranked, row)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		// Teams that have never solved anything sort last among ties.
		switch {
		case a.FirstSolve == nil && b.FirstSolve == nil:
		case a.FirstSolve == nil:
			return false
		case b.FirstSolve == nil:
			return true
		case !a.FirstSolve.Equal(*b.FirstSolve):
			return a.FirstSolve.Before(*b.FirstSolve)
		}
		return a.ID < b.ID
	})
	return ranked, nil
}

// TeamPoints is the live aggregate score for one team, used by direct
// team lookups (which include hidden teams).
func (s *CTFService) TeamPoints(ctx context.Context, teamID uint) (int, error) {
	return s.solves.TeamPoints(teamID)
}
