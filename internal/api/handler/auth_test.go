package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/gym_go_server/internal/model"
	"github.com/qs3c/gym_go_server/internal/model/dto"
	"github.com/qs3c/gym_go_server/internal/pkg/jwt"
	"github.com/qs3c/gym_go_server/internal/pkg/response"
	"github.com/qs3c/gym_go_server/internal/testutil"
)

func setupAuthRouter(t *testing.T) (*gin.Engine, *testContext, func()) {
	t.Helper()
	ctx, cleanup := setupContext(t)
	handler := NewAuthHandler(ctx.Auth)

	router := gin.New()
	router.POST("/register", handler.Register)
	router.POST("/login", handler.Login)
	return router, ctx, cleanup
}

func TestAuthHandler_Register_Success(t *testing.T) {
	router, ctx, cleanup := setupAuthRouter(t)
	defer cleanup()

	w := performRequest(router, "POST", "/register", dto.RegisterRequest{
		Name:     "Ana Souza",
		Email:    "ana@example.com",
		Password: "password123",
	})

	resp := parseResponse(t, w)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, response.CodeSuccess, resp.Code)
	assert.NotZero(t, dataMap(t, resp)["user_id"])

	var user model.User
	require.NoError(t, ctx.DB.Where("email = ?", "ana@example.com").First(&user).Error)
	assert.Equal(t, model.UserTypeStudent, user.UserType)

	var student model.Student
	require.NoError(t, ctx.DB.Where("user_id = ?", user.ID).First(&student).Error)
}

func TestAuthHandler_Register_DuplicateEmail(t *testing.T) {
	router, ctx, cleanup := setupAuthRouter(t)
	defer cleanup()

	existing := testutil.TestUser(t, ctx.DB)

	w := performRequest(router, "POST", "/register", dto.RegisterRequest{
		Name:     "Outra Pessoa",
		Email:    existing.Email,
		Password: "password123",
	})

	resp := parseResponse(t, w)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, response.CodeConflict, resp.Code)
}

func TestAuthHandler_Register_InvalidRequest(t *testing.T) {
	router, _, cleanup := setupAuthRouter(t)
	defer cleanup()

	w := performRequest(router, "POST", "/register", map[string]string{
		"name":  "A",
		"email": "not-an-email",
	})

	resp := parseResponse(t, w)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.CodeParamError, resp.Code)
}

func TestAuthHandler_Login_Success(t *testing.T) {
	router, ctx, cleanup := setupAuthRouter(t)
	defer cleanup()

	instructor := testutil.TestInstructor(t, ctx.DB)

	w := performRequest(router, "POST", "/login", dto.LoginRequest{
		Email:    instructor.User.Email,
		Password: testutil.DefaultPassword,
	})

	resp := parseResponse(t, w)
	require.Equal(t, http.StatusOK, w.Code)
	data := dataMap(t, resp)

	token, ok := data["token"].(string)
	require.True(t, ok)
	claims, err := jwt.ParseToken(token, ctx.Cfg.JWT.Secret)
	require.NoError(t, err)
	assert.Equal(t, instructor.UserID, claims.UserID)
	assert.Equal(t, model.UserTypeInstructor, claims.UserType)
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	router, ctx, cleanup := setupAuthRouter(t)
	defer cleanup()

	user := testutil.TestUser(t, ctx.DB)
	disabled := testutil.TestUser(t, ctx.DB, testutil.WithInactive())

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", user.Email, "wrongpassword"},
		{"unknown email", "nobody@example.com", "password123"},
		{"disabled account", disabled.Email, testutil.DefaultPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(router, "POST", "/login", dto.LoginRequest{Email: tt.email, Password: tt.password})
			resp := parseResponse(t, w)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, response.CodeAuthFailed, resp.Code)
		})
	}
}
