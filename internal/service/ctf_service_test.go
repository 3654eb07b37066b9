package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/CalPolySEC/wrath-ctf-framework/internal/model"
	"github.com/CalPolySEC/wrath-ctf-framework/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeChallengeStore struct {
	byID map[uint]*model.Challenge
}

func newFakeChallengeStore(chals ...*model.Challenge) *fakeChallengeStore {
	f := &fakeChallengeStore{byID: make(map[uint]*model.Challenge)}
	for _, c := range chals {
		f.byID[c.ID] = c
	}
	return f
}

func (f *fakeChallengeStore) FindByFlagHash(hash string) (*model.Challenge, error) {
	for _, c := range f.byID {
		if c.FlagHash == hash {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeChallengeStore) FindByID(id uint) (*model.Challenge, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (f *fakeChallengeStore) ListOrdered() ([]model.Challenge, error) {
	var out []model.Challenge
	for id := uint(1); len(out) < len(f.byID); id++ {
		if c, ok := f.byID[id]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeChallengeStore) FindResource(category, name string) (*model.Resource, *model.Challenge, error) {
	for _, c := range f.byID {
		if c.Category != category {
			continue
		}
		for i := range c.Resources {
			if c.Resources[i].Name == name {
				return &c.Resources[i], c, nil
			}
		}
	}
	return nil, nil, gorm.ErrRecordNotFound
}

type solveKey struct {
	teamID, chalID uint
}

// fakeSolveStore mirrors the repository contract: a duplicate Create
// comes back as ErrAlreadySolved, the same way the composite primary
// key reports it.
type fakeSolveStore struct {
	mu           sync.Mutex
	solves       map[solveKey]time.Time
	pointsByChal map[uint]int
	board        []model.RankedTeam
}

func newFakeSolveStore() *fakeSolveStore {
	return &fakeSolveStore{
		solves:       make(map[solveKey]time.Time),
		pointsByChal: make(map[uint]int),
	}
}

func (f *fakeSolveStore) Create(teamID, challengeID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := solveKey{teamID, challengeID}
	if _, ok := f.solves[k]; ok {
		return util.ErrAlreadySolved
	}
	f.solves[k] = time.Now().UTC()
	return nil
}

func (f *fakeSolveStore) Has(teamID, challengeID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.solves[solveKey{teamID, challengeID}]
	return ok, nil
}

func (f *fakeSolveStore) SolvedIDs(teamID uint) (map[uint]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	solved := make(map[uint]bool)
	for k := range f.solves {
		if k.teamID == teamID {
			solved[k.chalID] = true
		}
	}
	return solved, nil
}

func (f *fakeSolveStore) TeamPoints(teamID uint) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total int
	for k := range f.solves {
		if k.teamID == teamID {
			total += f.pointsByChal[k.chalID]
		}
	}
	return total, nil
}

func (f *fakeSolveStore) Leaderboard() ([]model.RankedTeam, error) {
	return f.board, nil
}

func chal(id uint, title string, points int, flag string, prereqs ...*model.Challenge) *model.Challenge {
	return &model.Challenge{
		BaseModel:     model.BaseModel{ID: id},
		Title:         title,
		Category:      "example",
		Points:        points,
		FlagHash:      HashFlag(flag),
		Prerequisites: prereqs,
	}
}

func TestSubmitFlagOutcomes(t *testing.T) {
	first := chal(1, "Sanity Check", 10, "wrath{first}")
	second := chal(2, "Warm Up", 20, "wrath{second}", first)
	solves := newFakeSolveStore()
	svc := NewCTFService(newFakeChallengeStore(first, second), solves, nil, time.Time{})
	team := &model.Team{BaseModel: model.BaseModel{ID: 7}, Name: "wrath"}
	ctx := context.Background()

	// Wrong flag.
	_, err := svc.SubmitFlag(ctx, team, "wrath{nope}")
	assert.ErrorIs(t, err, util.ErrIncorrectFlag)

	// Gated challenge before its prerequisite.
	_, err = svc.SubmitFlag(ctx, team, "wrath{second}")
	assert.ErrorIs(t, err, util.ErrPrereqsNotMet)

	// Correct flag credits the team once.
	got, err := svc.SubmitFlag(ctx, team, "wrath{first}")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	// Resubmission of the same flag.
	_, err = svc.SubmitFlag(ctx, team, "wrath{first}")
	assert.ErrorIs(t, err, util.ErrAlreadySolved)

	// Prerequisite met now.
	got, err = svc.SubmitFlag(ctx, team, "wrath{second}")
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)

	// Decoy short-circuits everything else.
	_, err = svc.SubmitFlag(ctx, team, DecoyFlag)
	assert.ErrorIs(t, err, util.ErrDecoyFlag)
}

func TestScoresAccumulateOncePerChallenge(t *testing.T) {
	first := chal(1, "Ten", 10, "wrath{ten}")
	second := chal(2, "Twenty", 20, "wrath{twenty}")
	solves := newFakeSolveStore()
	solves.pointsByChal = map[uint]int{1: 10, 2: 20}
	svc := NewCTFService(newFakeChallengeStore(first, second), solves, nil, time.Time{})
	team := &model.Team{BaseModel: model.BaseModel{ID: 2}}
	ctx := context.Background()

	_, err := svc.SubmitFlag(ctx, team, "wrath{ten}")
	require.NoError(t, err)
	points, err := svc.TeamPoints(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, points)

	_, err = svc.SubmitFlag(ctx, team, "wrath{twenty}")
	require.NoError(t, err)
	points, err = svc.TeamPoints(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, points)

	// A resubmission never double-credits.
	_, err = svc.SubmitFlag(ctx, team, "wrath{twenty}")
	assert.ErrorIs(t, err, util.ErrAlreadySolved)
	points, err = svc.TeamPoints(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, points)
}

func TestSubmitFlagRaceCreditsOnce(t *testing.T) {
	c := chal(1, "Racy", 10, "wrath{race}")
	solves := newFakeSolveStore()
	svc := NewCTFService(newFakeChallengeStore(c), solves, nil, time.Time{})
	team := &model.Team{BaseModel: model.BaseModel{ID: 3}}
	ctx := context.Background()

	const workers = 8
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.SubmitFlag(ctx, team, "wrath{race}")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var wins int
	for err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, util.ErrAlreadySolved)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Len(t, solves.solves, 1)
}

func TestSubmitFlagAfterDeadline(t *testing.T) {
	c := chal(1, "Late", 10, "wrath{late}")
	svc := NewCTFService(newFakeChallengeStore(c), newFakeSolveStore(), nil, time.Time{})
	team := &model.Team{BaseModel: model.BaseModel{ID: 1}}
	ctx := context.Background()

	svc.SetEndsAt(time.Now().Add(-time.Minute))
	_, err := svc.SubmitFlag(ctx, team, "wrath{late}")
	assert.ErrorIs(t, err, util.ErrCompetitionEnded)

	// Even wrong flags report the shutdown, not their wrongness.
	_, err = svc.SubmitFlag(ctx, team, "wrath{wrong}")
	assert.ErrorIs(t, err, util.ErrCompetitionEnded)

	// Reopening via config reload works.
	svc.SetEndsAt(time.Now().Add(time.Hour))
	_, err = svc.SubmitFlag(ctx, team, "wrath{late}")
	assert.NoError(t, err)
}

func TestChallengesForGating(t *testing.T) {
	first := chal(1, "One", 10, "wrath{one}")
	second := chal(2, "Two", 20, "wrath{two}", first)
	svc := NewCTFService(newFakeChallengeStore(first, second), newFakeSolveStore(), nil, time.Time{})
	team := &model.Team{BaseModel: model.BaseModel{ID: 5}}
	ctx := context.Background()

	views, err := svc.ChallengesFor(ctx, team)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "One", views[0].Title)
	assert.False(t, views[0].Solved)

	_, err = svc.SubmitFlag(ctx, team, "wrath{one}")
	require.NoError(t, err)

	views, err = svc.ChallengesFor(ctx, team)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.True(t, views[0].Solved)
	assert.False(t, views[1].Solved)
}

func TestGetChallengeHidesGated(t *testing.T) {
	first := chal(1, "One", 10, "wrath{one}")
	second := chal(2, "Two", 20, "wrath{two}", first)
	svc := NewCTFService(newFakeChallengeStore(first, second), newFakeSolveStore(), nil, time.Time{})
	team := &model.Team{BaseModel: model.BaseModel{ID: 5}}
	ctx := context.Background()

	// Unmet prerequisites and a missing id look the same.
	_, err := svc.GetChallenge(ctx, team, second.ID)
	assert.ErrorIs(t, err, util.ErrNotFound)
	_, err = svc.GetChallenge(ctx, team, 999)
	assert.ErrorIs(t, err, util.ErrNotFound)

	view, err := svc.GetChallenge(ctx, team, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "One", view.Title)
}

func ts(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestLeaderboardRanking(t *testing.T) {
	solves := newFakeSolveStore()
	solves.board = []model.RankedTeam{
		{ID: 1, Name: "slow and high", Points: 30, FirstSolve: ts("2026-08-01T12:00:00Z")},
		{ID: 2, Name: "fast and high", Points: 30, FirstSolve: ts("2026-08-01T09:00:00Z")},
		{ID: 3, Name: "hidden", Points: 100, FirstSolve: ts("2026-08-01T08:00:00Z"), HideRank: true},
		{ID: 4, Name: "scoreless", Points: 0},
		{ID: 5, Name: "also scoreless", Points: 0},
		{ID: 6, Name: "low", Points: 5, FirstSolve: ts("2026-08-01T10:00:00Z")},
	}
	svc := NewCTFService(newFakeChallengeStore(), solves, nil, time.Time{})

	ranked, err := svc.Leaderboard(context.Background())
	require.NoError(t, err)

	var names []string
	for _, r := range ranked {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"fast and high", "slow and high", "low", "scoreless", "also scoreless"}, names)
}

func TestHashFlagIsStable(t *testing.T) {
	assert.Equal(t, HashFlag("wrath{x}"), HashFlag("wrath{x}"))
	assert.NotEqual(t, HashFlag("wrath{x}"), HashFlag("wrath{y}"))
	assert.Len(t, HashFlag("anything"), 64)
}
