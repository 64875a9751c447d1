package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/gym_go_server/internal/model"
	"github.com/qs3c/gym_go_server/internal/testutil"
)

func setupWorkoutRouter(ctx *testContext, userID int64, userType string) *gin.Engine {
	workouts := NewWorkoutHandler(ctx.Workouts)
	attendance := NewAttendanceHandler(ctx.Attendance)

	router := gin.New()
	router.Use(mockAuth(userID, userType))
	router.GET("/workouts", workouts.List)
	router.GET("/workouts/mine", workouts.Mine)
	router.GET("/workouts/:id", workouts.Get)
	router.POST("/workouts", workouts.Create)
	router.PUT("/workouts/:id", workouts.Update)
	router.DELETE("/workouts/:id", workouts.Delete)
	router.POST("/attendance/check-in", attendance.CheckIn)
	router.POST("/attendance/:id/check-out", attendance.CheckOut)
	router.GET("/attendance", attendance.List)
	router.GET("/attendance/mine", attendance.Mine)
	return router
}

func TestWorkoutHandler_CreateAndRead(t *testing.T) {
	ctx, cleanup := setupContext(t)
	defer cleanup()

	instructor := testutil.TestInstructor(t, ctx.DB)
	student := testutil.TestStudent(t, ctx.DB)
	stranger := testutil.TestStudent(t, ctx.DB)

	router := setupWorkoutRouter(ctx, instructor.UserID, model.UserTypeInstructor)
	w := performRequest(router, "POST", "/workouts", map[string]interface{}{
		"student_id": student.UserID,
		"title":      "Treino A",
		"exercises":  json.RawMessage(`[{"name":"remada","sets":3}]`),
	})
	resp := parseResponse(t, w)
	require.Equal(t, http.StatusCreated, w.Code)
	id := int64(dataMap(t, resp)["id"].(float64))
	assert.Len(t, ctx.Publisher.events, 1)

	w = performRequest(router, "POST", "/workouts", map[string]interface{}{
		"student_id": student.UserID,
		"title":      "Treino B",
		"exercises":  json.RawMessage(`{"name":"remada"}`),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	router = setupWorkoutRouter(ctx, student.UserID, model.UserTypeStudent)
	w = performRequest(router, "GET", "/workouts/mine", nil)
	resp = parseResponse(t, w)
	require.Equal(t, http.StatusOK, w.Code)
	_, total := pageItems(t, resp)
	assert.Equal(t, float64(1), total)

	w = performRequest(router, "GET", fmt.Sprintf("/workouts/%d", id), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	router = setupWorkoutRouter(ctx, stranger.UserID, model.UserTypeStudent)
	w = performRequest(router, "GET", fmt.Sprintf("/workouts/%d", id), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestWorkoutHandler_UpdateAndDelete(t *testing.T) {
	ctx, cleanup := setupContext(t)
	defer cleanup()

	owner := testutil.TestInstructor(t, ctx.DB)
	colleague := testutil.TestInstructor(t, ctx.DB)
	student := testutil.TestStudent(t, ctx.DB)

	router := setupWorkoutRouter(ctx, owner.UserID, model.UserTypeInstructor)
	w := performRequest(router, "POST", "/workouts", map[string]interface{}{"student_id": student.UserID, "title": "Treino"})
	resp := parseResponse(t, w)
	require.Equal(t, http.StatusCreated, w.Code)
	id := int64(dataMap(t, resp)["id"].(float64))

	other := setupWorkoutRouter(ctx, colleague.UserID, model.UserTypeInstructor)
	w = performRequest(other, "PUT", fmt.Sprintf("/workouts/%d", id), map[string]string{"title": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = performRequest(router, "PUT", fmt.Sprintf("/workouts/%d", id), map[string]string{"title": "Treino novo"})
	resp = parseResponse(t, w)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Treino novo", dataMap(t, resp)["title"])

	w = performRequest(router, "DELETE", fmt.Sprintf("/workouts/%d", id), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = performRequest(router, "DELETE", fmt.Sprintf("/workouts/%d", id), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAttendanceHandler_CheckInOut(t *testing.T) {
	ctx, cleanup := setupContext(t)
	defer cleanup()

	student := testutil.TestStudent(t, ctx.DB)
	router := setupWorkoutRouter(ctx, student.UserID, model.UserTypeStudent)

	// 学员本人签到可以不带请求体
	w := performRequest(router, "POST", "/attendance/check-in", nil)
	resp := parseResponse(t, w)
	require.Equal(t, http.StatusCreated, w.Code)
	id := int64(dataMap(t, resp)["id"].(float64))

	w = performRequest(router, "POST", "/attendance/check-in", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = performRequest(router, "POST", fmt.Sprintf("/attendance/%d/check-out", id), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = performRequest(router, "GET", "/attendance/mine", nil)
	resp = parseResponse(t, w)
	require.Equal(t, http.StatusOK, w.Code)
	_, total := pageItems(t, resp)
	assert.Equal(t, float64(1), total)
}

func TestAttendanceHandler_StaffCheckIn(t *testing.T) {
	ctx, cleanup := setupContext(t)
	defer cleanup()

	admin := testutil.TestAdmin(t, ctx.DB)
	student := testutil.TestStudent(t, ctx.DB)
	router := setupWorkoutRouter(ctx, admin.ID, model.UserTypeAdmin)

	w := performRequest(router, "POST", "/attendance/check-in", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(router, "POST", "/attendance/check-in", map[string]int64{"student_id": student.UserID})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = performRequest(router, "GET", fmt.Sprintf("/attendance?student_id=%d", student.UserID), nil)
	resp := parseResponse(t, w)
	require.Equal(t, http.StatusOK, w.Code)
	_, total := pageItems(t, resp)
	assert.Equal(t, float64(1), total)

	w = performRequest(router, "GET", "/attendance?from=ontem", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
