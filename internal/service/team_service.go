package service

import (
	"context"
	"errors"

	"github.com/CalPolySEC/wrath-ctf-framework/internal/model"
	"github.com/CalPolySEC/wrath-ctf-framework/internal/util"
	"gorm.io/gorm"
)

// TeamStore is the slice of the team repository the service needs.
type TeamStore interface {
	Create(team *model.Team) error
	FindByID(id uint) (*model.Team, error)
	NameTaken(name string, excludeID uint) (bool, error)
	Update(team *model.Team) error
	AddInvite(team *model.Team, user *model.User) error
	RemoveInvite(team *model.Team, user *model.User) error
	IsInvited(teamID, userID uint) (bool, error)
}

// TeamUserStore is the slice of the user repository the service needs.
type TeamUserStore interface {
	FindByName(name string) (*model.User, error)
	SetTeam(userID uint, teamID *uint) error
	Invites(userID uint) ([]*model.Team, error)
}

type TeamService struct {
	teams TeamStore
	users TeamUserStore
}

func NewTeamService(teams TeamStore, users TeamUserStore) *TeamService {
	return &TeamService{teams: teams, users: users}
}

// CreateTeam makes a new team with the user as its first member.
func (s *TeamService) CreateTeam(ctx context.Context, user *model.User, name string) (*model.Team, error) {
	if user.Team != nil {
		return nil, util.ErrAlreadyOnTeam
	}

	taken, err := s.teams.NameTaken(name, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, util.ErrTeamNameTaken
	}

	team := &model.Team{Name: name}
	if err := s.teams.Create(team); err != nil {
		return nil, err
	}
	if err := s.users.SetTeam(user.ID, &team.ID); err != nil {
		return nil, err
	}
	user.Team = team
	user.TeamID = &team.ID
	return team, nil
}

// UpdateTeam renames the team and/or toggles leaderboard visibility.
// Nil fields are left untouched.
func (s *TeamService) UpdateTeam(ctx context.Context, team *model.Team, name *string, hideRank *bool) error {
	if name == nil && hideRank == nil {
		return nil
	}

	if name != nil {
		taken, err := s.teams.NameTaken(*name, team.ID)
		if err != nil {
			return err
		}
		if taken {
			return util.ErrTeamNameTaken
		}
		team.Name = *name
	}

	if hideRank != nil {
		team.HideRank = *hideRank
	}

	return s.teams.Update(team)
}

// Invite asks a user, by name, to join the team.
func (s *TeamService) Invite(ctx context.Context, team *model.Team, username string) error {
	user, err := s.users.FindByName(username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrNoSuchUser
	}
	if err != nil {
		return err
	}

	if user.TeamID != nil && *user.TeamID == team.ID {
		return util.ErrAlreadyMember
	}

	invited, err := s.teams.IsInvited(team.ID, user.ID)
	if err != nil {
		return err
	}
	if invited {
		return util.ErrAlreadyInvited
	}

	return s.teams.AddInvite(team, user)
}

// JoinTeam accepts an invitation, consuming it.
func (s *TeamService) JoinTeam(ctx context.Context, user *model.User, teamID uint) error {
	team, err := s.teams.FindByID(teamID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrNotInvited
	}
	if err != nil {
		return err
	}

	invited, err := s.teams.IsInvited(team.ID, user.ID)
	if err != nil {
		return err
	}
	if !invited {
		return util.ErrNotInvited
	}

	if err := s.users.SetTeam(user.ID, &team.ID); err != nil {
		return err
	}
	if err := s.teams.RemoveInvite(team, user); err != nil {
		return err
	}
	user.Team = team
	user.TeamID = &team.ID
	return nil
}

// LeaveTeam drops the user's membership. Solves stay with the team.
func (s *TeamService) LeaveTeam(ctx context.Context, user *model.User) error {
	if err := s.users.SetTeam(user.ID, nil); err != nil {
		return err
	}
	user.Team = nil
	user.TeamID = nil
	return nil
}

// GetTeam looks a team up directly. Hidden teams resolve here even
// though the leaderboard skips them.
func (s *TeamService) GetTeam(ctx context.Context, id uint) (*model.Team, error) {
	team, err := s.teams.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrNotFound
	}
	return team, err
}

// InvitedTeams lists the open invitations for a user.
func (s *TeamService) InvitedTeams(ctx context.Context, user *model.User) ([]*model.Team, error) {
	return s.users.Invites(user.ID)
}
