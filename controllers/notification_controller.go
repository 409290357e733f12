package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/campusgate/attendance-backend/models"
	"github.com/campusgate/attendance-backend/utils"
)

// NotificationController serves the teacher notification feed. Rows are
// produced by the scan processor; this controller only reads and acknowledges
// them.
type NotificationController struct {
	db *gorm.DB
}

func NewNotificationController(db *gorm.DB) *NotificationController {
	return &NotificationController{db: db}
}

type notificationRow struct {
	ID          uint      `json:"notification_id"`
	Kind        string    `json:"type"`
	Message     string    `json:"message"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"date_created"`
	StudentName string    `json:"student_name"`
}

// ListByTeacher returns a teacher's notifications, newest first, with the
// student's display name joined in.
func (n *NotificationController) ListByTeacher(ctx *gin.Context) {
	teacherID, ok := paramUint(ctx, "teacherID")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid teacher id")
		return
	}

	var rows []notificationRow
	err := n.db.Model(&models.Notification{}).
		Select("notifications.id, notifications.kind, notifications.message, notifications.is_read, notifications.created_at, users.name AS student_name").
		Joins("LEFT JOIN users ON users.id = notifications.student_id").
		Where("notifications.teacher_id = ?", teacherID).
		Order("notifications.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to fetch notifications")
		return
	}
	utils.Success(ctx, rows)
}

// MarkRead acknowledges a single notification.
func (n *NotificationController) MarkRead(ctx *gin.Context) {
	id, ok := paramUint(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40041, "invalid notification id")
		return
	}

	res := n.db.Model(&models.Notification{}).Where("id = ?", id).Update("is_read", true)
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to update notification")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(ctx, http.StatusNotFound, 40440, "notification not found")
		return
	}
	utils.Success(ctx, gin.H{"message": "notification marked as read"})
}
