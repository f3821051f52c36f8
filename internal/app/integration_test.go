package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jaekim/medimap-backend/internal/app/controller"
	"github.com/jaekim/medimap-backend/internal/app/model"
	"github.com/jaekim/medimap-backend/internal/app/repository"
	"github.com/jaekim/medimap-backend/internal/app/service"
	"github.com/jaekim/medimap-backend/internal/db"
	"github.com/jaekim/medimap-backend/internal/middleware"
	"github.com/jaekim/medimap-backend/pkg/localdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubFetcher struct {
	rows map[string][]localdata.RawFacility
}

func (f *stubFetcher) FetchByLicenseDate(_ context.Context, facilityType, _, _ string) ([]localdata.RawFacility, error) {
	return f.rows[facilityType], nil
}

func (f *stubFetcher) FetchByLastModified(context.Context, string, string, string) ([]localdata.RawFacility, error) {
	return nil, nil
}

type TestServer struct {
	Router      *gin.Engine
	DB          *gorm.DB
	AuthService service.AuthService
}

func setupIntegrationTest(t *testing.T) *TestServer {
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(testDB)
	facilityRepo := repository.NewFacilityRepository(testDB)
	logRepo := repository.NewIngestionLogRepository(testDB)

	fetcher := &stubFetcher{
		rows: map[string][]localdata.RawFacility{
			"병원": {{
				ManagementNumber: "H-1",
				BusinessName:     "중앙병원",
				BusinessType:     "종합병원",
				LicenseDate:      "2020-01-10",
				RoadAddress:      "서울특별시 종로구 세종대로 1",
			}},
			"의원": {{
				ManagementNumber: "C-1",
				BusinessName:     "연세내과의원",
				BusinessType:     "의원",
				LicenseDate:      "2024-03-15",
				Phone:            "02-222-2222",
				RoadAddress:      "서울특별시 강남구 테헤란로 123",
			}},
			"약국": {{
				ManagementNumber: "P-1",
				BusinessName:     "온누리약국",
				BusinessType:     "약국",
				LicenseDate:      "2023-06-01",
				RoadAddress:      "부산광역시 해운대구 센텀로 45",
			}},
		},
	}

	authService := service.NewAuthService(
		userRepo,
		"test-secret",
		15*time.Minute,
		7*24*time.Hour,
	)
	facilityService := service.NewFacilityService(facilityRepo, false)
	ingestionService := service.NewIngestionService(fetcher, facilityRepo, logRepo, nil, nil)

	authController := controller.NewAuthController(authService)
	facilityController := controller.NewFacilityController(facilityService)
	ingestionController := controller.NewIngestionController(ingestionService, nil)

	authMiddleware := middleware.NewAuthMiddleware("test-secret")

	router := gin.New()

	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
		auth.GET("/me", authMiddleware.Authenticate(), authController.GetMe)
		auth.POST("/logout", authMiddleware.Authenticate(), authController.Logout)
	}

	facilities := router.Group("/api/v1/facilities")
	{
		facilities.GET("", facilityController.ListFacilities)
		facilities.GET("/regions", facilityController.ListRegions)
		facilities.GET("/:id", facilityController.GetFacilityByID)
	}

	admin := router.Group("/api/v1/admin")
	admin.Use(authMiddleware.Authenticate(), authMiddleware.RequireRole("admin"))
	{
		admin.POST("/ingestion/run", ingestionController.RunIngestion)
		admin.GET("/ingestion/logs", ingestionController.ListLogs)
		admin.GET("/ingestion/report", ingestionController.GetReportURL)
	}

	return &TestServer{
		Router:      router,
		DB:          testDB,
		AuthService: authService,
	}
}

func TestIngestAndQueryJourney(t *testing.T) {
	ts := setupIntegrationTest(t)
	defer db.CleanupTestDB(ts.DB)

	// 1. 관리자 계정 준비
	t.Log("Step 1: Register admin")
	admin, _, err := ts.AuthService.Register("admin@example.com", "password123", "관리자")
	require.NoError(t, err)
	require.NoError(t, ts.DB.Model(&model.User{}).
		Where("id = ?", admin.ID).
		Update("role", model.RoleAdmin).Error)

	_, adminTokens, err := ts.AuthService.Login("admin@example.com", "password123")
	require.NoError(t, err)

	// 2. 관리자가 수집을 수동 실행
	t.Log("Step 2: Run ingestion")
	runBody, _ := json.Marshal(map[string]string{
		"from": "2020-01-01",
		"to":   "2024-12-31",
	})
	req := httptest.NewRequest("POST", "/api/v1/admin/ingestion/run", bytes.NewBuffer(runBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+adminTokens.AccessToken)
	w := httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// 3. 일반 사용자는 인증 없이 목록을 조회한다
	t.Log("Step 3: List facilities")
	req = httptest.NewRequest("GET", "/api/v1/facilities", nil)
	w = httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var page service.FacilityPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Equal(t, int64(3), page.TotalCount)
	assert.Equal(t, "연세내과의원", page.Facilities[0].BusinessName)

	// 4. 카테고리 필터
	t.Log("Step 4: Filter by category")
	req = httptest.NewRequest("GET", "/api/v1/facilities?category=약국", nil)
	w = httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Equal(t, int64(1), page.TotalCount)
	assert.Equal(t, "온누리약국", page.Facilities[0].BusinessName)

	// 5. 상세 조회
	t.Log("Step 5: Get facility detail")
	req = httptest.NewRequest("GET", fmt.Sprintf("/api/v1/facilities/%d", page.Facilities[0].ID), nil)
	w = httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "온누리약국")

	// 6. 지역 집계
	t.Log("Step 6: Region counts")
	req = httptest.NewRequest("GET", "/api/v1/facilities/regions", nil)
	w = httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "해운대")

	// 7. 수집 로그는 관리자만 조회할 수 있다
	t.Log("Step 7: Ingestion logs")
	req = httptest.NewRequest("GET", "/api/v1/admin/ingestion/logs", nil)
	w = httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest("GET", "/api/v1/admin/ingestion/logs", nil)
	req.Header.Set("Authorization", "Bearer "+adminTokens.AccessToken)
	w = httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "수집 완료")
}

func TestAdminEndpointsForbiddenForUsers(t *testing.T) {
	ts := setupIntegrationTest(t)
	defer db.CleanupTestDB(ts.DB)

	_, tokens, err := ts.AuthService.Register("user@example.com", "password123", "일반 사용자")
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/v1/admin/ingestion/run", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	w := httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
