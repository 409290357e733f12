package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/campusgate/attendance-backend/attendance"
	"github.com/campusgate/attendance-backend/models"
	"github.com/campusgate/attendance-backend/utils"
)

const activeAnnouncementCacheKey = "announcement:active"

// AnnouncementController manages school-wide announcements. Creating or
// re-activating a Suspension/Holiday announcement triggers the attendance
// override for the announced day.
type AnnouncementController struct {
	db   *gorm.DB
	over *attendance.Overrider
}

func NewAnnouncementController(db *gorm.DB, over *attendance.Overrider) *AnnouncementController {
	return &AnnouncementController{db: db, over: over}
}

type announcementRequest struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// Create inserts an announcement and, for Suspension/Holiday types, applies
// the attendance override. The override is best-effort: the announcement
// stands even if the bulk write partially fails, and the daily sweep
// re-checks it.
func (a *AnnouncementController) Create(ctx *gin.Context) {
	var req announcementRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid payload")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		utils.Error(ctx, http.StatusBadRequest, 40031, "message is required")
		return
	}

	annType := req.Type
	if annType == "" {
		annType = models.AnnouncementGeneral
	}
	if !validAnnouncementType(annType) {
		utils.Error(ctx, http.StatusBadRequest, 40032, "invalid announcement type")
		return
	}

	ann := models.Announcement{
		Message:   utils.Sanitize(req.Message),
		Type:      annType,
		Status:    models.AnnouncementActive,
		StartDate: parseDate(req.StartDate),
		EndDate:   parseDate(req.EndDate),
	}
	if err := a.db.Create(&ann).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to create announcement")
		return
	}

	utils.InvalidateByPrefix(activeAnnouncementCacheKey)
	a.applyOverride(ctx, &ann)

	utils.Success(ctx, ann)
}

// List returns all announcements, newest first.
func (a *AnnouncementController) List(ctx *gin.Context) {
	var anns []models.Announcement
	if err := a.db.Order("created_at DESC").Find(&anns).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to fetch announcements")
		return
	}
	utils.Success(ctx, anns)
}

// Active returns the single announcement the scanner page should display:
// the active one covering today, Suspension first, then Holiday, then the
// most recently updated. Served from cache since kiosks poll it.
func (a *AnnouncementController) Active(ctx *gin.Context) {
	if b, ok := utils.CacheGetBytes(activeAnnouncementCacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	today := attendance.Day(time.Now())
	var ann models.Announcement
	err := a.db.
		Where("status = ?", models.AnnouncementActive).
		Where("(start_date IS NULL AND end_date IS NULL) OR (start_date <= ? AND end_date >= ?)", today, today).
		Order("CASE WHEN type = 'Suspension' THEN 1 WHEN type = 'Holiday' THEN 2 ELSE 3 END, updated_at DESC").
		First(&ann).Error
	if err != nil {
		if errIsNotFound(err) {
			utils.Success(ctx, nil)
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to fetch announcement")
		return
	}

	resp := utils.JSONResponse{Code: 0, Message: "success", Data: ann}
	utils.CacheSetJSON(activeAnnouncementCacheKey, resp, time.Minute)
	utils.Success(ctx, ann)
}

// Update rewrites an announcement and re-activates it. A Suspension/Holiday
// announcement that now covers today gets its override re-applied.
func (a *AnnouncementController) Update(ctx *gin.Context) {
	id, ok := paramUint(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40033, "invalid announcement id")
		return
	}

	var req announcementRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid payload")
		return
	}
	if !validAnnouncementType(req.Type) {
		utils.Error(ctx, http.StatusBadRequest, 40032, "invalid announcement type")
		return
	}

	var ann models.Announcement
	if err := a.db.First(&ann, id).Error; err != nil {
		if errIsNotFound(err) {
			utils.Error(ctx, http.StatusNotFound, 40430, "announcement not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to load announcement")
		return
	}

	ann.Message = utils.Sanitize(req.Message)
	ann.Type = req.Type
	ann.Status = models.AnnouncementActive
	ann.StartDate = parseDate(req.StartDate)
	ann.EndDate = parseDate(req.EndDate)

	if err := a.db.Save(&ann).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50034, "failed to update announcement")
		return
	}

	utils.InvalidateByPrefix(activeAnnouncementCacheKey)
	a.applyOverride(ctx, &ann)

	utils.Success(ctx, ann)
}

type announcementStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus toggles a General announcement between active and inactive.
// Suspension/Holiday announcements cannot be toggled here: deactivating one
// would not undo the override it already applied, so that stays an explicit
// administrative operation.
func (a *AnnouncementController) UpdateStatus(ctx *gin.Context) {
	id, ok := paramUint(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40033, "invalid announcement id")
		return
	}

	var req announcementStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil ||
		(req.Status != models.AnnouncementActive && req.Status != models.AnnouncementInactive) {
		utils.Error(ctx, http.StatusBadRequest, 40034, "invalid status")
		return
	}

	var ann models.Announcement
	if err := a.db.First(&ann, id).Error; err != nil {
		if errIsNotFound(err) {
			utils.Error(ctx, http.StatusNotFound, 40430, "announcement not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to load announcement")
		return
	}

	if ann.IsOverride() {
		utils.Error(ctx, http.StatusBadRequest, 40035, "cannot change status for Suspension or Holiday announcements")
		return
	}

	if err := a.db.Model(&ann).Update("status", req.Status).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50035, "failed to update status")
		return
	}

	utils.InvalidateByPrefix(activeAnnouncementCacheKey)
	utils.Success(ctx, gin.H{"message": "status updated"})
}

// Delete removes an announcement. Overrides it applied are not reverted; the
// original statuses are gone once overwritten.
func (a *AnnouncementController) Delete(ctx *gin.Context) {
	id, ok := paramUint(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40033, "invalid announcement id")
		return
	}

	res := a.db.Delete(&models.Announcement{}, id)
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50036, "failed to delete announcement")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(ctx, http.StatusNotFound, 40430, "announcement not found")
		return
	}

	utils.InvalidateByPrefix(activeAnnouncementCacheKey)
	utils.Success(ctx, gin.H{"message": "announcement deleted"})
}

// applyOverride runs the bulk override for an override-type announcement,
// targeting its start date when set and today otherwise.
func (a *AnnouncementController) applyOverride(ctx *gin.Context, ann *models.Announcement) {
	if !ann.IsOverride() {
		return
	}
	day := attendance.Day(time.Now())
	if ann.StartDate != nil {
		day = attendance.Day(*ann.StartDate)
	}
	if _, err := a.over.Apply(ctx.Request.Context(), day, ann.Type); err != nil {
		utils.Sugar.Errorw("announcement override failed", "announcement_id", ann.ID, "err", err)
	}
}

func validAnnouncementType(t string) bool {
	switch t {
	case models.AnnouncementGeneral, models.AnnouncementSuspension, models.AnnouncementHoliday:
		return true
	}
	return false
}

func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}
