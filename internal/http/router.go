// README: HTTP router registration.
package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wondura/internal/http/handlers"
	"wondura/internal/http/middleware"
	"wondura/internal/logger"
	"wondura/internal/service"
	"wondura/internal/validation"
)

type RouterDeps struct {
	Validator     *validation.Validator
	Classifier    service.Classifier
	Options       service.OptionsGenerator
	Planner       handlers.Planner
	Logger        logger.Logger
	CORSOrigin    string
	SearchEnabled bool
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(deps.Logger),
		middleware.Recovery(deps.Logger),
		middleware.CORS(deps.CORSOrigin),
		middleware.Logging(deps.Logger),
	)

	api := r.Group("/api")

	classifyHandler := handlers.NewClassifyHandler(deps.Validator, deps.Classifier)
	api.POST("/classify", classifyHandler.Classify)

	streamHandler := handlers.NewStreamHandler(deps.Validator, deps.Planner)
	api.POST("/agent", streamHandler.Agent)
	api.POST("/experience", streamHandler.Experience)

	optionsHandler := handlers.NewOptionsHandler(deps.Validator, deps.Options)
	api.POST("/options/destinations", optionsHandler.Destinations)
	api.POST("/options/activities", optionsHandler.Activities)
	api.POST("/options/both", optionsHandler.Both)

	r.GET("/health", handlers.Health(deps.SearchEnabled))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
