package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/campusgate/attendance-backend/attendance"
	"github.com/campusgate/attendance-backend/config"
	"github.com/campusgate/attendance-backend/controllers"
	"github.com/campusgate/attendance-backend/middleware"
	"github.com/campusgate/attendance-backend/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, proc *attendance.Processor, over *attendance.Overrider, sched attendance.Schedule) *gin.Engine {
	// Load config and set Gin mode from configuration
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	scanController := controllers.NewScanController(db, proc)
	attendanceController := controllers.NewAttendanceController(db, sched)
	announcementController := controllers.NewAnnouncementController(db, over)
	notificationController := controllers.NewNotificationController(db)
	badgeController := controllers.NewBadgeController(db)

	api := r.Group("/api/v1")

	// Kiosks retry aggressively on flaky Wi-Fi; rate-limit them per IP.
	scanGroup := api.Group("/attendance")
	scanGroup.Use(middleware.RateLimitMiddleware())
	scanGroup.POST("/scan", scanController.RecordScan)

	api.GET("/attendance/history/:userID", attendanceController.History)
	api.GET("/attendance/summary/:userID", attendanceController.Summary)
	api.GET("/attendance/today", attendanceController.Today)
	api.DELETE("/attendance/:id", attendanceController.Delete)

	api.POST("/announcements", announcementController.Create)
	api.GET("/announcements", announcementController.List)
	api.GET("/announcements/active", announcementController.Active)
	api.PUT("/announcements/:id", announcementController.Update)
	api.PATCH("/announcements/:id/status", announcementController.UpdateStatus)
	api.DELETE("/announcements/:id", announcementController.Delete)

	api.GET("/notifications/:teacherID", notificationController.ListByTeacher)
	api.PATCH("/notifications/:id/read", notificationController.MarkRead)

	api.GET("/students/:userID/badge.png", badgeController.BadgePNG)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		ctx.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	})

	return r
}
