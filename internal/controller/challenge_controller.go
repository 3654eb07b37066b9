package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/CalPolySEC/wrath-ctf-framework/internal/service"
	"github.com/CalPolySEC/wrath-ctf-framework/internal/util"
	"github.com/CalPolySEC/wrath-ctf-framework/pkg/monitoring"
	"github.com/gin-gonic/gin"
)

func submissionOutcome(err error) string {
	switch {
	case errors.Is(err, util.ErrDecoyFlag):
		return "decoy"
	case errors.Is(err, util.ErrIncorrectFlag):
		return "incorrect"
	case errors.Is(err, util.ErrAlreadySolved):
		return "already_solved"
	case errors.Is(err, util.ErrPrereqsNotMet):
		return "prereqs_not_met"
	case errors.Is(err, util.ErrCompetitionEnded):
		return "ended"
	default:
		return "error"
	}
}

type ChallengeController struct {
	CTFService *service.CTFService
}

func NewChallengeController(ctfService *service.CTFService) *ChallengeController {
	return &ChallengeController{CTFService: ctfService}
}

// ListChallenges shows the challenges whose prerequisites the
// caller's team has met, each with a solved flag.
func (c *ChallengeController) ListChallenges(ctx *gin.Context) {
	_, team, ok := util.RequireTeam(ctx)
	if !ok {
		return
	}

	views, err := c.CTFService.ChallengesFor(ctx.Request.Context(), team)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"challenges": views})
}

func (c *ChallengeController) GetChallenge(ctx *gin.Context) {
	_, team, ok := util.RequireTeam(ctx)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "Invalid challenge id.")
		return
	}

	view, err := c.CTFService.GetChallenge(ctx.Request.Context(), team, uint(id))
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, view)
}

type SubmitFlagRequest struct {
	Flag string `json:"flag" binding:"required"`
}

// SubmitFlag runs the scoring engine for one raw flag.
func (c *ChallengeController) SubmitFlag(ctx *gin.Context) {
	_, team, ok := util.RequireTeam(ctx)
	if !ok {
		return
	}

	var req SubmitFlagRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "You must supply a flag.")
		return
	}

	chal, err := c.CTFService.SubmitFlag(ctx.Request.Context(), team, req.Flag)
	if err != nil {
		monitoring.FlagSubmissions.WithLabelValues(submissionOutcome(err)).Inc()
		switch {
		case errors.Is(err, util.ErrDecoyFlag):
			// Deliver swift justice.
			ctx.Redirect(http.StatusSeeOther, service.DecoyURL)
		case errors.Is(err, util.ErrIncorrectFlag),
			errors.Is(err, util.ErrAlreadySolved),
			errors.Is(err, util.ErrPrereqsNotMet),
			errors.Is(err, util.ErrCompetitionEnded):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	monitoring.FlagSubmissions.WithLabelValues("correct").Inc()
	util.Created(ctx, gin.H{"points_earned": chal.Points})
}

// DownloadResource hands out a challenge artifact, prerequisite-gated
// like the challenge itself.
func (c *ChallengeController) DownloadResource(ctx *gin.Context) {
	_, team, ok := util.RequireTeam(ctx)
	if !ok {
		return
	}

	category := ctx.Param("category")
	name := ctx.Param("name")

	url, err := c.CTFService.GetResourceURL(ctx.Request.Context(), team, category, name)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	ctx.Redirect(http.StatusSeeOther, url)
}

// Snoopin trolls anyone fishing for a password dump.
func (c *ChallengeController) Snoopin(ctx *gin.Context) {
	ctx.Redirect(http.StatusSeeOther, service.DecoyURL)
}
