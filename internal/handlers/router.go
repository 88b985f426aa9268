package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exercise-engine/internal/services"
	"github.com/SAP-F-2025/exercise-engine/internal/utils"
)

type HandlerManager struct {
	exerciseHandler *ExerciseHandler
	exerciseService services.ExerciseService
	logger          utils.Logger
}

func NewHandlerManager(serviceManager services.ServiceManager, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		exerciseHandler: NewExerciseHandler(serviceManager, logger),
		exerciseService: serviceManager.Exercise(),
		logger:          logger,
	}
}

// NewRouter builds a gin engine with the engine middleware and routes
func (hm *HandlerManager) NewRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ContextLogger(hm.logger))
	router.Use(utils.LoggerMiddleware(hm.logger))
	hm.SetupRoutes(router)
	return router
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		instances := v1.Group("/instances")
		{
			instances.POST("", hm.exerciseHandler.StartInstance)
			instances.GET("/:id", hm.exerciseHandler.GetInstance)
			instances.DELETE("/:id", hm.exerciseHandler.DisposeInstance)

			// Answer operations
			instances.POST("/:id/choice", hm.exerciseHandler.SelectAlternative)
			instances.POST("/:id/selection", hm.exerciseHandler.ToggleSelection)
			instances.POST("/:id/text", hm.exerciseHandler.SetText)
			instances.POST("/:id/blanks", hm.exerciseHandler.SetBlank)
			instances.POST("/:id/matches", hm.exerciseHandler.SetMatch)
			instances.POST("/:id/cells", hm.exerciseHandler.SetCell)

			// Word bank
			bank := instances.Group("/:id/bank")
			{
				bank.POST("/assign", hm.exerciseHandler.AssignWordToSlot)
				bank.POST("/clear", hm.exerciseHandler.ClearSlot)
				bank.POST("/move", hm.exerciseHandler.MoveBetweenSlots)
				bank.POST("/tap", hm.exerciseHandler.TapToken)
			}

			instances.POST("/:id/submit", hm.exerciseHandler.Submit)
			instances.GET("/:id/slots", hm.exerciseHandler.GetSlots)
			instances.GET("/:id/export", hm.exerciseHandler.ExportInstance)
		}

		questions := v1.Group("/questions")
		{
			questions.GET("/:id/analytics", hm.exerciseHandler.GetQuestionAnalytics)
			questions.GET("/:id/snapshots/export", hm.exerciseHandler.ExportQuestionSnapshots)
		}
		v1.POST("/grid/analyze", hm.exerciseHandler.AnalyzeGrid)
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":           "healthy",
			"service":          "exercise-engine",
			"active_instances": hm.exerciseService.ActiveInstances(),
		})
	})
}
