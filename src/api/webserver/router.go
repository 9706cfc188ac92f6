package webserver

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/grantdesk/grantdesk/src/api/config"
	"github.com/grantdesk/grantdesk/src/api/notify"
)

func attachRoutes(r *gin.Engine, cfg config.Config, db *gorm.DB, rdb *redis.Client) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	secret := []byte(cfg.JWTSecret)
	notifier := notify.New(db, rdb)

	authH := NewAuth(db, rdb, secret)
	userH := NewUsers(db)
	callH := NewCalls(db)
	propH := NewProposals(db, notifier)
	docH := NewDocuments(cfg.UploadDir)
	adminH := NewAdmin(db)

	authLimiter := NewRateLimiter(10, time.Minute)

	v1 := r.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.Use(RateLimitMiddleware(authLimiter))
		{
			auth.POST("/register", authH.Register)
			auth.POST("/verify", authH.Verify)
			auth.POST("/login", authH.Login)
			auth.POST("/forgot-password", authH.ForgotPassword)
			auth.POST("/reset-password", authH.ResetPassword)
		}

		secured := v1.Group("")
		secured.Use(JWTMiddleware(secret))
		{
			secured.GET("/users/me", userH.Me)
			secured.PUT("/users/me", userH.UpdateMe)
			secured.GET("/users/me/notifications", userH.Notifications)
			secured.PUT("/users/me/notifications/:id", userH.MarkNotificationRead)

			secured.GET("/calls", callH.List)
			secured.GET("/calls/:id", callH.Get)

			secured.POST("/proposals", propH.Create)
			secured.GET("/proposals", propH.List)
			secured.GET("/proposals/:id", propH.Get)
			secured.PUT("/proposals/:id", propH.Update)
			secured.DELETE("/proposals/:id", propH.Delete)
			secured.POST("/proposals/:id/transition", propH.Transition)
			secured.POST("/proposals/:id/revisions", propH.SubmitRevision)
			secured.GET("/proposals/:id/revisions", propH.ListRevisions)

			secured.POST("/documents", docH.Upload)
			secured.GET("/documents/:name", docH.Serve)
		}

		admin := v1.Group("/admin")
		admin.Use(JWTMiddleware(secret), AdminMiddleware(db))
		{
			admin.GET("/stats", adminH.Stats)
			admin.GET("/proposals", adminH.Proposals)
			admin.GET("/users", adminH.Users)
			admin.PUT("/users/:id/role", adminH.UpdateUserRole)
		}
	}
}
