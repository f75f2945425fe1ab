package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mlodi/backend/internal/handlers"
	"github.com/mlodi/backend/internal/middleware"
)

// SetupEngagementRoutes sets up all engagement engine routes
func SetupEngagementRoutes(
	router *gin.Engine,
	engagementHandler *handlers.EngagementHandler,
	challengeHandler *handlers.ChallengeHandler,
	milestoneHandler *handlers.MilestoneHandler,
	walletHandler *handlers.WalletHandler,
	adminPointsHandler *handlers.AdminPointsHandler,
	rateLimiter *middleware.RateLimiter,
) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API routes (authenticated)
	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware())
	api.Use(rateLimiter.Middleware())
	{
		// Activity ingestion
		api.POST("/engagement/activity", engagementHandler.RecordActivity)
		api.POST("/engagement/activity/async", engagementHandler.RecordActivityAsync)
		api.GET("/engagement/points/total", engagementHandler.GetTotalPoints)

		// Per-artist engagement state
		artist := api.Group("/engagement/artists/:artistId")
		{
			artist.GET("/tier", engagementHandler.GetFanTier)
			artist.GET("/tier/progress", engagementHandler.GetTierProgress)
			artist.GET("/stats", engagementHandler.GetStats)
			artist.GET("/transactions", engagementHandler.GetTransactions)
			artist.GET("/achievements", engagementHandler.GetUserAchievements)

			artist.GET("/challenges", challengeHandler.GetUserProgress)
			artist.POST("/challenges/:challengeId/start", challengeHandler.StartChallenge)
			artist.POST("/challenges/:challengeId/advance", challengeHandler.AdvanceChallenge)

			artist.GET("/milestones", milestoneHandler.GetUserProgress)
			artist.POST("/milestones/:milestoneId/claim", milestoneHandler.ClaimMilestone)
		}

		// Catalog definitions
		api.GET("/achievements", engagementHandler.GetAchievements)
		api.GET("/challenges", challengeHandler.GetAvailableChallenges)
		api.GET("/milestones", milestoneHandler.GetMilestones)

		// Wallet
		walletGroup := api.Group("/wallet")
		{
			walletGroup.GET("", walletHandler.GetWallet)
			walletGroup.GET("/transactions", walletHandler.GetTransactionHistory)
			walletGroup.GET("/stats", walletHandler.GetPointStats)
			walletGroup.POST("/deduct", walletHandler.Deduct)
		}
	}

	// Admin routes
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(middleware.AdminMiddleware())
	{
		admin.POST("/points/adjust", adminPointsHandler.AdjustPoints)
	}
}
