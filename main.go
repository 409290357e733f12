package main

import (
	"context"

	"github.com/campusgate/attendance-backend/attendance"
	"github.com/campusgate/attendance-backend/config"
	"github.com/campusgate/attendance-backend/models"
	"github.com/campusgate/attendance-backend/routes"
	"github.com/campusgate/attendance-backend/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.User{},
		&models.AttendanceRecord{},
		&models.Announcement{},
		&models.Notification{},
	)

	sched := attendance.NewSchedule(cfg)
	store := attendance.NewGormStore(db)
	dir := attendance.NewGormDirectory(db)
	announcements := attendance.NewGormAnnouncements(db)
	notifier := attendance.NewDBNotifier(db)

	proc := attendance.NewProcessor(store, dir, notifier, sched, utils.Sugar)
	over := attendance.NewOverrider(store, dir, utils.Sugar)

	// Daily reconciliation: absence backfill after the cutoff, auto-close at
	// closing time. Idempotent, so restarts around fire times are safe.
	sweeper := attendance.NewSweeper(store, dir, announcements, over, sched, utils.Sugar)
	sweeper.Start(context.Background())

	r := routes.SetupRouter(db, proc, over, sched)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
