package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/campusgate/attendance-backend/attendance"
	"github.com/campusgate/attendance-backend/models"
	"github.com/campusgate/attendance-backend/utils"
)

// AttendanceController serves attendance rows to the staff dashboards.
// Aggregation beyond simple per-student counts happens client-side.
type AttendanceController struct {
	db    *gorm.DB
	sched attendance.Schedule
}

func NewAttendanceController(db *gorm.DB, sched attendance.Schedule) *AttendanceController {
	return &AttendanceController{db: db, sched: sched}
}

// History returns a student's attendance records, newest first.
func (a *AttendanceController) History(ctx *gin.Context) {
	userID, ok := paramUint(ctx, "userID")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid user id")
		return
	}

	var rows []models.AttendanceRecord
	if err := a.db.Where("user_id = ?", userID).Order("day DESC").Find(&rows).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to fetch history")
		return
	}
	utils.Success(ctx, rows)
}

// Summary returns Present/Late/Absent counts for a student.
func (a *AttendanceController) Summary(ctx *gin.Context) {
	userID, ok := paramUint(ctx, "userID")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40021, "invalid user id")
		return
	}

	type statusCount struct {
		Status string
		Count  int64
	}
	var counts []statusCount
	err := a.db.Model(&models.AttendanceRecord{}).
		Select("status, COUNT(*) as count").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&counts).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to fetch summary")
		return
	}

	summary := map[string]int64{
		string(attendance.StatusPresent): 0,
		string(attendance.StatusLate):    0,
		string(attendance.StatusAbsent):  0,
	}
	for _, c := range counts {
		summary[c.Status] = c.Count
	}
	utils.Success(ctx, summary)
}

type rosterRow struct {
	UserID     uint       `json:"user_id"`
	Name       string     `json:"name"`
	Username   string     `json:"username"`
	GradeLevel string     `json:"grade_level"`
	Section    string     `json:"section"`
	Strand     string     `json:"strand"`
	RecordID   *uint      `json:"attendance_id,omitempty"`
	TimeIn     *time.Time `json:"time_in,omitempty"`
	TimeOut    *time.Time `json:"time_out,omitempty"`
	Status     string     `json:"status"`
}

// Today returns a teacher's roster with each student's effective status for
// the current day. Students without a record yet show Pending before the
// cutoff and Absent after it.
func (a *AttendanceController) Today(ctx *gin.Context) {
	teacherID, err := strconv.ParseUint(ctx.Query("teacherId"), 10, 32)
	if err != nil || teacherID == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40022, "teacherId required")
		return
	}

	var students []models.User
	if err := a.db.
		Where("role = ? AND teacher_id = ?", models.RoleStudent, uint(teacherID)).
		Order("name ASC").
		Find(&students).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to fetch students")
		return
	}

	now := time.Now()
	today := attendance.Day(now)

	ids := make([]uint, 0, len(students))
	for _, st := range students {
		ids = append(ids, st.ID)
	}
	byUser := map[uint]models.AttendanceRecord{}
	if len(ids) > 0 {
		var recs []models.AttendanceRecord
		if err := a.db.Where("day = ? AND user_id IN ?", today, ids).Find(&recs).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to fetch records")
			return
		}
		for _, r := range recs {
			byUser[r.UserID] = r
		}
	}

	missing := string(a.sched.MissingStatus(now))
	rows := make([]rosterRow, 0, len(students))
	for _, st := range students {
		row := rosterRow{
			UserID:     st.ID,
			Name:       st.Name,
			Username:   st.Username,
			GradeLevel: st.GradeLevel,
			Section:    st.Section,
			Strand:     st.Strand,
			Status:     missing,
		}
		if rec, ok := byUser[st.ID]; ok {
			id := rec.ID
			row.RecordID = &id
			row.TimeIn = rec.TimeIn
			row.TimeOut = rec.TimeOut
			row.Status = rec.Status
		}
		rows = append(rows, row)
	}
	utils.Success(ctx, rows)
}

// Delete removes a record. This is the explicit administrative escape hatch;
// the engine itself never deletes records.
func (a *AttendanceController) Delete(ctx *gin.Context) {
	id, ok := paramUint(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40023, "invalid record id")
		return
	}

	res := a.db.Delete(&models.AttendanceRecord{}, id)
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to delete record")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(ctx, http.StatusNotFound, 40420, "attendance record not found")
		return
	}
	utils.Success(ctx, gin.H{"message": "attendance record deleted"})
}

func paramUint(ctx *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint(v), true
}

// errIsNotFound is a small helper for gorm lookups in this package.
func errIsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
