package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgate/attendance-backend/attendance"
	"github.com/campusgate/attendance-backend/utils"
)

type fakeScanService struct {
	result attendance.ScanResult
	err    error

	gotUserID   uint
	gotUsername string
}

func (f *fakeScanService) ProcessScan(ctx context.Context, userID uint, username string, now time.Time) (attendance.ScanResult, error) {
	f.gotUserID = userID
	f.gotUsername = username
	return f.result, f.err
}

func postScan(t *testing.T, svc *fakeScanService, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	c := NewScanController(nil, svc)
	r.POST("/scan", c.RecordScan)

	req := httptest.NewRequest(http.MethodPost, "/scan", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRecordScan(t *testing.T) {
	now := time.Date(2024, 3, 5, 6, 50, 0, 0, time.UTC)
	svc := &fakeScanService{result: attendance.ScanResult{
		Kind:       attendance.KindTimeIn,
		Status:     attendance.StatusPresent,
		RecordedAt: &now,
		Message:    `Hi Ana, you are marked "Present" at 06:50:00.`,
	}}

	w := postScan(t, svc, `{"user_id": 7, "username": "Ana"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint(7), svc.gotUserID)
	assert.Equal(t, "Ana", svc.gotUsername)

	var resp utils.JSONResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Code)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, attendance.KindTimeIn, data["kind"])
	assert.Equal(t, string(attendance.StatusPresent), data["status"])
}

func TestRecordScanMissingUser(t *testing.T) {
	svc := &fakeScanService{}

	w := postScan(t, svc, `{"username": "Ana"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, svc.gotUserID, "processor must not be called without a user id")
}

func TestRecordScanInvalidPayload(t *testing.T) {
	w := postScan(t, &fakeScanService{}, `{"user_id": "seven"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecordScanProcessorFailure(t *testing.T) {
	svc := &fakeScanService{err: context.DeadlineExceeded}

	w := postScan(t, svc, `{"user_id": 7, "username": "Ana"}`)

	require.Equal(t, http.StatusInternalServerError, w.Code)
}
