package service

import (
	"context"
	"strings"
	"testing"

	"github.com/CalPolySEC/wrath-ctf-framework/internal/model"
	"github.com/CalPolySEC/wrath-ctf-framework/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type inviteKey struct {
	teamID, userID uint
}

type fakeTeamStore struct {
	nextID  uint
	byID    map[uint]*model.Team
	invites map[inviteKey]bool
}

func newFakeTeamStore() *fakeTeamStore {
	return &fakeTeamStore{
		nextID:  1,
		byID:    make(map[uint]*model.Team),
		invites: make(map[inviteKey]bool),
	}
}

func (f *fakeTeamStore) Create(team *model.Team) error {
	team.ID = f.nextID
	f.nextID++
	f.byID[team.ID] = team
	return nil
}

func (f *fakeTeamStore) FindByID(id uint) (*model.Team, error) {
	t, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return t, nil
}

func (f *fakeTeamStore) NameTaken(name string, excludeID uint) (bool, error) {
	for _, t := range f.byID {
		if t.ID != excludeID && strings.EqualFold(t.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTeamStore) Update(team *model.Team) error {
	f.byID[team.ID] = team
	return nil
}

func (f *fakeTeamStore) AddInvite(team *model.Team, user *model.User) error {
	f.invites[inviteKey{team.ID, user.ID}] = true
	return nil
}

func (f *fakeTeamStore) RemoveInvite(team *model.Team, user *model.User) error {
	delete(f.invites, inviteKey{team.ID, user.ID})
	return nil
}

func (f *fakeTeamStore) IsInvited(teamID, userID uint) (bool, error) {
	return f.invites[inviteKey{teamID, userID}], nil
}

// fakeTeamUsers reuses fakeUserStore's users and tracks memberships.
type fakeTeamUsers struct {
	*fakeUserStore
	teams *fakeTeamStore
}

func (f *fakeTeamUsers) SetTeam(userID uint, teamID *uint) error {
	u, ok := f.byID[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.TeamID = teamID
	return nil
}

func (f *fakeTeamUsers) Invites(userID uint) ([]*model.Team, error) {
	var out []*model.Team
	for k := range f.teams.invites {
		if k.userID == userID {
			out = append(out, f.teams.byID[k.teamID])
		}
	}
	return out, nil
}

func newTeamFixture(t *testing.T) (*TeamService, *model.User, *model.User) {
	users := newFakeUserStore()
	teams := newFakeTeamStore()
	svc := NewTeamService(teams, &fakeTeamUsers{fakeUserStore: users, teams: teams})

	alice := &model.User{Name: "alice"}
	bob := &model.User{Name: "bob"}
	require.NoError(t, users.Create(alice))
	require.NoError(t, users.Create(bob))
	return svc, alice, bob
}

func TestCreateTeam(t *testing.T) {
	svc, alice, _ := newTeamFixture(t)
	ctx := context.Background()

	team, err := svc.CreateTeam(ctx, alice, "hufflepuff")
	require.NoError(t, err)
	assert.Equal(t, team.ID, *alice.TeamID)

	// A user already on a team cannot found another.
	_, err = svc.CreateTeam(ctx, alice, "ravenclaw")
	assert.ErrorIs(t, err, util.ErrAlreadyOnTeam)
}

func TestCreateTeamNameCollision(t *testing.T) {
	svc, alice, bob := newTeamFixture(t)
	ctx := context.Background()

	_, err := svc.CreateTeam(ctx, alice, "Hufflepuff")
	require.NoError(t, err)

	_, err = svc.CreateTeam(ctx, bob, "hufflepuff")
	assert.ErrorIs(t, err, util.ErrTeamNameTaken)
}

func TestUpdateTeam(t *testing.T) {
	svc, alice, bob := newTeamFixture(t)
	ctx := context.Background()

	team, err := svc.CreateTeam(ctx, alice, "hufflepuff")
	require.NoError(t, err)
	other, err := svc.CreateTeam(ctx, bob, "ravenclaw")
	require.NoError(t, err)

	// Renaming to your own current name is fine.
	name := "hufflepuff"
	require.NoError(t, svc.UpdateTeam(ctx, team, &name, nil))

	// Renaming onto another team is not.
	clash := "Ravenclaw"
	assert.ErrorIs(t, svc.UpdateTeam(ctx, team, &clash, nil), util.ErrTeamNameTaken)

	hide := true
	require.NoError(t, svc.UpdateTeam(ctx, other, nil, &hide))
	assert.True(t, other.HideRank)
}

func TestInviteAndJoin(t *testing.T) {
	svc, alice, bob := newTeamFixture(t)
	ctx := context.Background()

	team, err := svc.CreateTeam(ctx, alice, "hufflepuff")
	require.NoError(t, err)

	// Bob cannot join uninvited.
	assert.ErrorIs(t, svc.JoinTeam(ctx, bob, team.ID), util.ErrNotInvited)

	require.NoError(t, svc.Invite(ctx, team, "bob"))
	assert.ErrorIs(t, svc.Invite(ctx, team, "bob"), util.ErrAlreadyInvited)
	assert.ErrorIs(t, svc.Invite(ctx, team, "nobody"), util.ErrNoSuchUser)

	invited, err := svc.InvitedTeams(ctx, bob)
	require.NoError(t, err)
	require.Len(t, invited, 1)
	assert.Equal(t, team.ID, invited[0].ID)

	require.NoError(t, svc.JoinTeam(ctx, bob, team.ID))
	assert.Equal(t, team.ID, *bob.TeamID)

	// The invitation was consumed.
	invited, err = svc.InvitedTeams(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, invited)

	// Members cannot be re-invited.
	assert.ErrorIs(t, svc.Invite(ctx, team, "bob"), util.ErrAlreadyMember)
}

func TestJoinUnknownTeam(t *testing.T) {
	svc, _, bob := newTeamFixture(t)
	assert.ErrorIs(t, svc.JoinTeam(context.Background(), bob, 404), util.ErrNotInvited)
}

func TestLeaveTeam(t *testing.T) {
	svc, alice, _ := newTeamFixture(t)
	ctx := context.Background()

	_, err := svc.CreateTeam(ctx, alice, "hufflepuff")
	require.NoError(t, err)

	require.NoError(t, svc.LeaveTeam(ctx, alice))
	assert.Nil(t, alice.TeamID)
	assert.Nil(t, alice.Team)
}

func TestGetTeam(t *testing.T) {
	svc, alice, _ := newTeamFixture(t)
	ctx := context.Background()

	team, err := svc.CreateTeam(ctx, alice, "hufflepuff")
	require.NoError(t, err)

	got, err := svc.GetTeam(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, "hufflepuff", got.Name)

	_, err = svc.GetTeam(ctx, 404)
	assert.ErrorIs(t, err, util.ErrNotFound)
}
