package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskboard/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	clientURL string,
	tokenSvc *service.TokenService,
	authH *AuthHandler,
	userH *UserHandler,
	taskH *TaskHandler,
	wsH *WSHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y CORS acotado al cliente.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), cors.New(corsConfig(clientURL)))

	api := r.Group("/api")
	api.Use(jsonContentTypeMiddleware())

	auth := api.Group("/auth")
	auth.POST("/register", authH.Register)
	auth.POST("/login", authH.Login)
	auth.GET("/google", authH.GoogleLogin)
	auth.GET("/google/callback", authH.GoogleCallback)

	user := api.Group("/user", BearerAuthMiddleware(tokenSvc))
	user.GET("/me", userH.Me)

	tasks := api.Group("/tasks", BearerAuthMiddleware(tokenSvc))
	tasks.GET("", taskH.List)
	tasks.POST("", taskH.Create)
	tasks.PUT("/:id", taskH.Update)
	tasks.DELETE("/:id", taskH.Delete)

	r.GET("/ws", wsH.Serve)

	return r
}

func corsConfig(clientURL string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowOrigins = []string{clientURL}
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	cfg.MaxAge = 12 * time.Hour
	return cfg
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
