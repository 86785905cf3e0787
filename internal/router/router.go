package router

import (
	"net/http"
	"time"

	"github.com/CkBcDD/NexBack/internal/config"
	"github.com/CkBcDD/NexBack/internal/handlers"
	"github.com/CkBcDD/NexBack/internal/session"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func errorHandler(c *gin.Context, info ratelimit.Info) {
	c.String(http.StatusTooManyRequests, "Too many requests. Try again later.")
}

func Setup(log *zap.Logger, mgr *session.Manager) *gin.Engine {
	// Set up a new Gin router, add recovery middleware and request logging.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))

	store := cookie.NewStore([]byte(config.Conf.Server.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   false, // Set to true in production
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400 * 7,
	})
	router.Use(sessions.Sessions("nexback", store))

	sessionHandler := handlers.NewSessionHandler(log, mgr)

	// Session creation is the only expensive endpoint; key presses and
	// polling must stay unthrottled or the trainee's inputs get lost.
	rateLimitStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: 30,
	})
	limiter := ratelimit.RateLimiter(rateLimitStore, &ratelimit.Options{
		ErrorHandler: errorHandler,
		KeyFunc:      keyFunc,
	})

	api := router.Group("/api")
	{
		api.POST("/sessions", limiter, sessionHandler.Start)
		api.GET("/sessions/:id", sessionHandler.State)
		api.POST("/sessions/:id/responses", sessionHandler.Respond)
		api.DELETE("/sessions/:id", sessionHandler.Abort)
		api.GET("/sessions/:id/result", sessionHandler.Result)

		api.GET("/history", sessionHandler.History)
		api.GET("/history/:id", sessionHandler.HistoryDetail)
	}

	return router
}
