package app

import (
	"github.com/CalPolySEC/wrath-ctf-framework/pkg/monitoring"
	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	router.GET("/health", c.health.Health)
	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/passwords.zip", c.challenge.Snoopin)

	api := router.Group("/api")
	{
		// Accounts and sessions
		api.POST("/users/", c.auth.Register)
		api.POST("/sessions/", c.auth.Login)
		api.DELETE("/sessions/", c.auth.Logout)
		api.GET("/user", c.auth.Me)
		api.PATCH("/user", c.team.JoinTeam)

		// Teams
		api.GET("/teams/", c.team.Leaderboard)
		api.POST("/teams/", c.team.CreateTeam)
		api.GET("/teams/invited/", c.team.InvitedTeams)
		api.GET("/teams/:id", c.team.GetTeam)
		api.GET("/team", c.team.MyTeam)
		api.PATCH("/team", c.team.UpdateTeam)
		api.DELETE("/team", c.team.LeaveTeam)
		api.POST("/team/members", c.team.InviteUser)

		// Challenges and scoring
		api.GET("/challenges", c.challenge.ListChallenges)
		api.GET("/challenges/:id", c.challenge.GetChallenge)
		api.GET("/resources/:category/:name", c.challenge.DownloadResource)
		api.POST("/flags/", c.challenge.SubmitFlag)
	}
}
