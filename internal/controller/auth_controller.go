package controller

import (
	"errors"
	"strings"

	"github.com/CalPolySEC/wrath-ctf-framework/internal/service"
	"github.com/CalPolySEC/wrath-ctf-framework/internal/util"
	"github.com/gin-gonic/gin"
)

type AuthController struct {
	AuthService    *service.AuthService
	SessionService *service.SessionService
}

func NewAuthController(authService *service.AuthService, sessionService *service.SessionService) *AuthController {
	return &AuthController{
		AuthService:    authService,
		SessionService: sessionService,
	}
}

type CredentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register creates a user and returns a signed session key.
func (c *AuthController) Register(ctx *gin.Context) {
	var req CredentialsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "You must supply a username and password.")
		return
	}

	key, _, err := c.AuthService.Register(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrUsernameTaken):
			util.Conflict(ctx, err.Error())
		case errors.Is(err, util.ErrBadCredentials):
			util.BadRequest(ctx, "You must supply a username and password.")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, gin.H{"key": key})
}

// Login checks the password and returns a fresh session key. Unknown
// usernames and wrong passwords get the identical response.
func (c *AuthController) Login(ctx *gin.Context) {
	var req CredentialsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "You must supply a username and password.")
		return
	}

	key, _, err := c.AuthService.Login(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, util.ErrBadCredentials) {
			util.Forbidden(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, gin.H{"key": key})
}

// Logout revokes the presented session key.
func (c *AuthController) Logout(ctx *gin.Context) {
	if _, ok := util.RequireUser(ctx); !ok {
		return
	}

	key := ctx.GetHeader("X-Session-Key")
	if key == "" {
		key = strings.TrimPrefix(ctx.GetHeader("Authorization"), "Bearer ")
	}
	if err := c.SessionService.Revoke(ctx.Request.Context(), key); err != nil && !errors.Is(err, util.ErrAuthRequired) {
		util.LogInternalError(ctx, err)
		return
	}
	util.NoContent(ctx)
}

// Me reports the current user and their team, if any.
func (c *AuthController) Me(ctx *gin.Context) {
	user, ok := util.RequireUser(ctx)
	if !ok {
		return
	}

	var team gin.H
	if user.Team != nil {
		team = gin.H{"id": user.Team.ID, "name": user.Team.Name}
	}
	util.Success(ctx, gin.H{
		"username": user.Name,
		"team":     team,
	})
}
