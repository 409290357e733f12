package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/campusgate/attendance-backend/attendance"
	"github.com/campusgate/attendance-backend/models"
	"github.com/campusgate/attendance-backend/utils"
)

// scanService is the slice of the scan processor this controller needs.
type scanService interface {
	ProcessScan(ctx context.Context, userID uint, username string, now time.Time) (attendance.ScanResult, error)
}

// ScanController handles inbound QR badge scans from the scanner kiosks.
type ScanController struct {
	db   *gorm.DB
	proc scanService
}

func NewScanController(db *gorm.DB, proc scanService) *ScanController {
	return &ScanController{db: db, proc: proc}
}

type scanRequest struct {
	UserID     uint   `json:"user_id"`
	BadgeToken string `json:"badge_token"`
	Username   string `json:"username"`
}

// RecordScan processes one badge read. Kiosks send either the decoded badge
// token or, for legacy badges, the raw user id plus display name.
func (s *ScanController) RecordScan(ctx *gin.Context) {
	var req scanRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid payload")
		return
	}

	userID := req.UserID
	username := strings.TrimSpace(req.Username)

	if token := strings.TrimSpace(req.BadgeToken); token != "" {
		var user models.User
		err := s.db.Where("badge_token = ?", token).First(&user).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.Error(ctx, http.StatusNotFound, 40410, "unknown badge")
				return
			}
			utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to resolve badge")
			return
		}
		if !user.IsStudent() {
			utils.Error(ctx, http.StatusBadRequest, 40011, "badge does not belong to a student")
			return
		}
		userID = user.ID
		if username == "" {
			username = user.Name
		}
	}

	if userID == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40012, "User ID is required")
		return
	}

	result, err := s.proc.ProcessScan(ctx.Request.Context(), userID, username, time.Now())
	if err != nil {
		if errors.Is(err, attendance.ErrMissingUser) {
			utils.Error(ctx, http.StatusBadRequest, 40012, err.Error())
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50011, "failed to record scan")
		return
	}

	utils.Success(ctx, result)
}
