package http

import (
	"log/slog"

	"github.com/gdugdh24/introductions-backend/internal/delivery/http/handler"
	"github.com/gdugdh24/introductions-backend/internal/delivery/http/middleware"
	"github.com/gdugdh24/introductions-backend/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type Router struct {
	profileHandler *handler.ProfileHandler
	searchHandler  *handler.SearchHandler
	requestHandler *handler.RequestHandler
	authMiddleware *middleware.AuthMiddleware
	logger         *slog.Logger
}

func NewRouter(
	profileHandler *handler.ProfileHandler,
	searchHandler *handler.SearchHandler,
	requestHandler *handler.RequestHandler,
	authMiddleware *middleware.AuthMiddleware,
	logger *slog.Logger,
) *Router {
	return &Router{
		profileHandler: profileHandler,
		searchHandler:  searchHandler,
		requestHandler: requestHandler,
		authMiddleware: authMiddleware,
		logger:         logger,
	}
}

func (r *Router) Setup() *gin.Engine {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		usecase.Configure(v)
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(r.logger))

	// Health check (supports both GET and HEAD)
	healthHandler := func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	v1 := router.Group("/api/v1")
	v1.Use(r.authMiddleware.RequireAuth())
	{
		profile := v1.Group("/profile")
		{
			profile.POST("", r.profileHandler.CreateProfile)
			profile.GET("/me", r.profileHandler.GetMyProfile)
			profile.PUT("/me", r.profileHandler.UpdateMyProfile)
			profile.DELETE("/me", r.profileHandler.DeleteMyProfile)
			profile.POST("/blocks/:user_id", r.profileHandler.BlockUser)
			profile.DELETE("/blocks/:user_id", r.profileHandler.UnblockUser)
			profile.GET("/:profile_id", r.profileHandler.GetProfile)
		}

		search := v1.Group("/search")
		{
			search.GET("", r.searchHandler.Search)
			search.GET("/quick", r.searchHandler.QuickSearch)
		}

		requests := v1.Group("/requests")
		{
			requests.POST("", r.requestHandler.SendRequest)
			requests.GET("/sent", r.requestHandler.ListSent)
			requests.GET("/received", r.requestHandler.ListReceived)
			requests.GET("/:id", r.requestHandler.GetRequest)
			requests.DELETE("/:id", r.requestHandler.HideRequest)
			requests.POST("/:id/accept", r.requestHandler.AcceptRequest)
			requests.POST("/:id/reject", r.requestHandler.RejectRequest)
			requests.POST("/:id/cancel", r.requestHandler.CancelRequest)
			requests.POST("/:id/read", r.requestHandler.MarkRead)
			requests.POST("/:id/meeting", r.requestHandler.ArrangeMeeting)
			requests.POST("/:id/meeting/respond", r.requestHandler.RespondToMeeting)
			requests.POST("/:id/guardian-approval", r.requestHandler.RecordGuardianApproval)
		}
	}

	return router
}
