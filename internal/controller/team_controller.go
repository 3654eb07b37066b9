package controller

import (
	"errors"
	"strconv"

	"github.com/CalPolySEC/wrath-ctf-framework/internal/service"
	"github.com/CalPolySEC/wrath-ctf-framework/internal/util"
	"github.com/gin-gonic/gin"
)

type TeamController struct {
	TeamService *service.TeamService
	CTFService  *service.CTFService
}

func NewTeamController(teamService *service.TeamService, ctfService *service.CTFService) *TeamController {
	return &TeamController{
		TeamService: teamService,
		CTFService:  ctfService,
	}
}

// Leaderboard is public: visible teams ranked by live score.
func (c *TeamController) Leaderboard(ctx *gin.Context) {
	teams, err := c.CTFService.Leaderboard(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"teams": teams})
}

type CreateTeamRequest struct {
	Name string `json:"name" binding:"required"`
}

func (c *TeamController) CreateTeam(ctx *gin.Context) {
	user, ok := util.RequireUser(ctx)
	if !ok {
		return
	}

	var req CreateTeamRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "You must supply a team name.")
		return
	}

	team, err := c.TeamService.CreateTeam(ctx.Request.Context(), user, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrAlreadyOnTeam), errors.Is(err, util.ErrTeamNameTaken):
			util.Conflict(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, gin.H{"id": team.ID, "name": team.Name})
}

// GetTeam is a direct lookup; hidden teams resolve here too.
func (c *TeamController) GetTeam(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "Invalid team id.")
		return
	}

	team, err := c.TeamService.GetTeam(ctx.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	points, err := c.CTFService.TeamPoints(ctx.Request.Context(), team.ID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"id": team.ID, "name": team.Name, "points": points})
}

// MyTeam reports the caller's own team.
func (c *TeamController) MyTeam(ctx *gin.Context) {
	_, team, ok := util.RequireTeam(ctx)
	if !ok {
		return
	}

	points, err := c.CTFService.TeamPoints(ctx.Request.Context(), team.ID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": team.ID, "name": team.Name, "points": points})
}

type UpdateTeamRequest struct {
	Name     *string `json:"name"`
	HideRank *bool   `json:"hideRank"`
}

// UpdateTeam renames the team and/or toggles rank hiding.
func (c *TeamController) UpdateTeam(ctx *gin.Context) {
	_, team, ok := util.RequireTeam(ctx)
	if !ok {
		return
	}

	var req UpdateTeamRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if req.Name != nil && *req.Name == "" {
		util.BadRequest(ctx, "You must supply a team name.")
		return
	}

	err := c.TeamService.UpdateTeam(ctx.Request.Context(), team, req.Name, req.HideRank)
	if err != nil {
		if errors.Is(err, util.ErrTeamNameTaken) {
			util.Conflict(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.NoContent(ctx)
}

type InviteRequest struct {
	Username string `json:"username" binding:"required"`
}

func (c *TeamController) InviteUser(ctx *gin.Context) {
	_, team, ok := util.RequireTeam(ctx)
	if !ok {
		return
	}

	var req InviteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "You must supply a username.")
		return
	}

	err := c.TeamService.Invite(ctx.Request.Context(), team, req.Username)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrNoSuchUser),
			errors.Is(err, util.ErrAlreadyMember),
			errors.Is(err, util.ErrAlreadyInvited):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.NoContent(ctx)
}

type JoinTeamRequest struct {
	Team uint `json:"team" binding:"required"`
}

// JoinTeam accepts a pending invitation.
func (c *TeamController) JoinTeam(ctx *gin.Context) {
	user, ok := util.RequireUser(ctx)
	if !ok {
		return
	}

	var req JoinTeamRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "You must supply a team id.")
		return
	}

	err := c.TeamService.JoinTeam(ctx.Request.Context(), user, req.Team)
	if err != nil {
		if errors.Is(err, util.ErrNotInvited) {
			util.BadRequest(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.NoContent(ctx)
}

func (c *TeamController) LeaveTeam(ctx *gin.Context) {
	user, _, ok := util.RequireTeam(ctx)
	if !ok {
		return
	}

	if err := c.TeamService.LeaveTeam(ctx.Request.Context(), user); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.NoContent(ctx)
}

// InvitedTeams lists the caller's open invitations.
func (c *TeamController) InvitedTeams(ctx *gin.Context) {
	user, ok := util.RequireUser(ctx)
	if !ok {
		return
	}

	teams, err := c.TeamService.InvitedTeams(ctx.Request.Context(), user)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	list := make([]gin.H, 0, len(teams))
	for _, t := range teams {
		list = append(list, gin.H{"id": t.ID, "name": t.Name})
	}
	util.Success(ctx, gin.H{"teams": list})
}
