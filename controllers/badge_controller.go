package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"
	"gorm.io/gorm"

	"github.com/campusgate/attendance-backend/models"
	"github.com/campusgate/attendance-backend/utils"
)

// BadgeController renders printable QR badges. The QR payload is the
// student's badge token, which the scan endpoint resolves back to a user.
type BadgeController struct {
	db *gorm.DB
}

func NewBadgeController(db *gorm.DB) *BadgeController {
	return &BadgeController{db: db}
}

// BadgePNG returns the student's badge as a PNG image.
func (b *BadgeController) BadgePNG(ctx *gin.Context) {
	userID, ok := paramUint(ctx, "userID")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid user id")
		return
	}

	var user models.User
	if err := b.db.First(&user, userID).Error; err != nil {
		if errIsNotFound(err) {
			utils.Error(ctx, http.StatusNotFound, 40450, "student not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to load student")
		return
	}
	if !user.IsStudent() {
		utils.Error(ctx, http.StatusBadRequest, 40051, "badges are only issued to students")
		return
	}

	png, err := qrcode.Encode(user.BadgeToken, qrcode.Medium, 256)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to render badge")
		return
	}
	ctx.Data(http.StatusOK, "image/png", png)
}
