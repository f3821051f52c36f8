package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jaekim/medimap-backend/internal/app/repository"
	"github.com/jaekim/medimap-backend/internal/app/service"
	"github.com/jaekim/medimap-backend/internal/db"
	"github.com/jaekim/medimap-backend/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupAuthControllerTest(t *testing.T) (*gin.Engine, *gorm.DB, service.AuthService) {
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(testDB)
	authService := service.NewAuthService(
		userRepo,
		"test-secret",
		15*time.Minute,
		7*24*time.Hour,
	)

	ctrl := NewAuthController(authService)
	authMiddleware := middleware.NewAuthMiddleware("test-secret")

	router := gin.New()
	router.POST("/register", ctrl.Register)
	router.POST("/login", ctrl.Login)
	router.GET("/me", authMiddleware.Authenticate(), ctrl.GetMe)
	router.POST("/logout", authMiddleware.Authenticate(), ctrl.Logout)

	return router, testDB, authService
}

func TestAuthController_Register_Success(t *testing.T) {
	router, testDB, _ := setupAuthControllerTest(t)
	defer db.CleanupTestDB(testDB)

	reqBody := RegisterRequest{
		Email:    "test@example.com",
		Password: "password123",
		Name:     "테스트 사용자",
	}

	body, _ := json.Marshal(reqBody)
	req := httptest.NewRequest("POST", "/register", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)

	assert.Equal(t, "User registered successfully", response["message"])
	assert.NotNil(t, response["user"])
	assert.NotNil(t, response["tokens"])
}

func TestAuthController_Register_InvalidEmail(t *testing.T) {
	router, testDB, _ := setupAuthControllerTest(t)
	defer db.CleanupTestDB(testDB)

	reqBody := RegisterRequest{
		Email:    "invalid-email",
		Password: "password123",
		Name:     "테스트 사용자",
	}

	body, _ := json.Marshal(reqBody)
	req := httptest.NewRequest("POST", "/register", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthController_Register_DuplicateEmail(t *testing.T) {
	router, testDB, authService := setupAuthControllerTest(t)
	defer db.CleanupTestDB(testDB)

	_, _, err := authService.Register("test@example.com", "password123", "테스트 사용자")
	require.NoError(t, err)

	reqBody := RegisterRequest{
		Email:    "test@example.com",
		Password: "password456",
		Name:     "다른 사용자",
	}

	body, _ := json.Marshal(reqBody)
	req := httptest.NewRequest("POST", "/register", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "이미 사용 중인 이메일입니다")
}

func TestAuthController_Login_Success(t *testing.T) {
	router, testDB, authService := setupAuthControllerTest(t)
	defer db.CleanupTestDB(testDB)

	_, _, err := authService.Register("test@example.com", "password123", "테스트 사용자")
	require.NoError(t, err)

	reqBody := LoginRequest{
		Email:    "test@example.com",
		Password: "password123",
	}

	body, _ := json.Marshal(reqBody)
	req := httptest.NewRequest("POST", "/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Login successful", response["message"])
	assert.NotNil(t, response["tokens"])
}

func TestAuthController_Login_WrongPassword(t *testing.T) {
	router, testDB, authService := setupAuthControllerTest(t)
	defer db.CleanupTestDB(testDB)

	_, _, err := authService.Register("test@example.com", "password123", "테스트 사용자")
	require.NoError(t, err)

	reqBody := LoginRequest{
		Email:    "test@example.com",
		Password: "wrong-password",
	}

	body, _ := json.Marshal(reqBody)
	req := httptest.NewRequest("POST", "/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthController_GetMe(t *testing.T) {
	router, testDB, authService := setupAuthControllerTest(t)
	defer db.CleanupTestDB(testDB)

	_, tokens, err := authService.Register("test@example.com", "password123", "테스트 사용자")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test@example.com")
}

func TestAuthController_Logout(t *testing.T) {
	router, testDB, authService := setupAuthControllerTest(t)
	defer db.CleanupTestDB(testDB)

	_, tokens, err := authService.Register("test@example.com", "password123", "테스트 사용자")
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/logout", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "로그아웃되었습니다")
}

func TestAuthController_Logout_Unauthenticated(t *testing.T) {
	router, testDB, _ := setupAuthControllerTest(t)
	defer db.CleanupTestDB(testDB)

	req := httptest.NewRequest("POST", "/logout", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthController_GetMe_Unauthorized(t *testing.T) {
	router, testDB, _ := setupAuthControllerTest(t)
	defer db.CleanupTestDB(testDB)

	req := httptest.NewRequest("GET", "/me", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
