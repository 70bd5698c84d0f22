package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/JaredJameson/TESTHUB/internal/models"
	"github.com/JaredJameson/TESTHUB/internal/repositories"
	"github.com/JaredJameson/TESTHUB/internal/services"
	"github.com/JaredJameson/TESTHUB/internal/session"
)

type stubResultService struct {
	results   []*models.TestResult
	remaining int
	export    []byte
	filters   repositories.ResultFilters
	err       error
}

func (s *stubResultService) Record(ctx context.Context, student services.StudentInfo, sess *session.Session, record *models.ResultRecord) (*models.TestResult, error) {
	return nil, s.err
}

func (s *stubResultService) GetStudentResults(ctx context.Context, email string) ([]*models.TestResult, error) {
	return s.results, s.err
}

func (s *stubResultService) ListResults(ctx context.Context, filters repositories.ResultFilters) ([]*models.TestResult, int64, error) {
	s.filters = filters
	return s.results, int64(len(s.results)), s.err
}

func (s *stubResultService) AttemptsRemaining(ctx context.Context, email string) (int, error) {
	return s.remaining, s.err
}

func (s *stubResultService) ExportResults(ctx context.Context) ([]byte, error) {
	return s.export, s.err
}

func resultRouter(svc services.ResultService, user *models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	if user != nil {
		router.Use(injectUser(user))
	}

	h := NewResultHandler(svc, testLogger())
	router.GET("/results/me", h.GetMyResults)
	router.GET("/results", h.ListResults)
	router.GET("/results/export", h.ExportResults)
	return router
}

func TestGetMyResults(t *testing.T) {
	svc := &stubResultService{
		results:   []*models.TestResult{{Email: "anna.kowalska@example.com", Grade: "4.5"}},
		remaining: 1,
	}
	router := resultRouter(svc, testUser(models.RoleStudent))

	req := httptest.NewRequest(http.MethodGet, "/results/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data struct {
			Results           []*models.TestResult `json:"results"`
			AttemptsRemaining int                  `json:"attempts_remaining"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response does not unmarshal: %v", err)
	}
	if len(resp.Data.Results) != 1 || resp.Data.AttemptsRemaining != 1 {
		t.Errorf("response = %+v, want 1 result and 1 attempt remaining", resp.Data)
	}
}

func TestListResultsFilters(t *testing.T) {
	svc := &stubResultService{}
	router := resultRouter(svc, testUser(models.RoleTeacher))

	req := httptest.NewRequest(http.MethodGet, "/results?email=a%40b.com&passed=true&limit=10&offset=20", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}
	if svc.filters.Email != "a@b.com" || svc.filters.Passed == nil || !*svc.filters.Passed {
		t.Errorf("filters = %+v, want email and passed applied", svc.filters)
	}
	if svc.filters.Limit != 10 || svc.filters.Offset != 20 {
		t.Errorf("paging = limit %d offset %d, want 10/20", svc.filters.Limit, svc.filters.Offset)
	}
}

func TestListResultsRejectsBadPassed(t *testing.T) {
	router := resultRouter(&stubResultService{}, testUser(models.RoleTeacher))

	req := httptest.NewRequest(http.MethodGet, "/results?passed=maybe", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestExportResultsHeaders(t *testing.T) {
	svc := &stubResultService{export: []byte("PK workbook bytes")}
	router := resultRouter(svc, testUser(models.RoleTeacher))

	req := httptest.NewRequest(http.MethodGet, "/results/export", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("Content-Type = %q, want xlsx", ct)
	}
	disposition := rec.Header().Get("Content-Disposition")
	if !strings.Contains(disposition, "attachment") || !strings.Contains(disposition, ".xlsx") {
		t.Errorf("Content-Disposition = %q, want xlsx attachment", disposition)
	}
	if rec.Body.Len() == 0 {
		t.Error("export body is empty")
	}
}
