package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"civiceye/backend/internal/analysis"
	"civiceye/backend/internal/api/handler"
	"civiceye/backend/internal/auth"
	"civiceye/backend/internal/complaint"
	"civiceye/backend/internal/models"
	"civiceye/backend/internal/report"
	"civiceye/backend/internal/rewards"
	"civiceye/backend/internal/storage"
	"civiceye/backend/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

type testServer struct {
	router   *gin.Engine
	store    *testutil.MockStorage
	analyzer *testutil.MockAnalyzer
	objects  *testutil.MockObjectStore
	pub      *testutil.MockPublisher
	tokens   *auth.TokenIssuer
}

func newTestServer() *testServer {
	gin.SetMode(gin.TestMode)
	s := &testServer{
		store:    new(testutil.MockStorage),
		analyzer: new(testutil.MockAnalyzer),
		objects:  new(testutil.MockObjectStore),
		pub:      new(testutil.MockPublisher),
		tokens:   auth.NewTokenIssuer("test-secret", time.Hour),
	}
	notifier := new(testutil.MockNotifier)
	notifier.On("ComplaintSubmitted", mock.Anything, mock.Anything).Return(nil)
	notifier.On("StatusChanged", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	s.pub.On("Publish", mock.Anything, mock.Anything).Return(nil)
	s.store.On("InvalidateStats", mock.Anything).Return(nil).Maybe()

	logger := zap.NewNop()
	ledger := rewards.NewLedger(s.store, logger)
	h := &handler.Handler{
		Complaints: complaint.NewService(complaint.Deps{
			Storage:   s.store,
			Analyzer:  s.analyzer,
			Objects:   s.objects,
			Publisher: s.pub,
			Notifier:  notifier,
			Ledger:    ledger,
			Logger:    logger,
		}),
		Stats:     report.NewStatsService(s.store, logger),
		Ledger:    ledger,
		Accounts:  auth.NewAccounts(s.store, s.tokens, "key", logger),
		Storage:   s.store,
		Publisher: s.pub,
		Logger:    logger,
	}
	s.router = gin.New()
	h.RegisterRoutes(s.router)
	return s
}

func (s *testServer) token(t *testing.T, role models.Role) string {
	tok, err := s.tokens.Issue(&models.Profile{ID: "user-" + string(role), Role: role})
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func jsonRequest(method, path string, body interface{}) *http.Request {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

var draftBody = map[string]interface{}{
	"type":        "civic",
	"category":    "pothole",
	"title":       "Large pothole",
	"description": "Deep pothole near the bus stop",
	"location":    map[string]interface{}{"lat": 28.61, "lng": 77.20, "address": "Main Street"},
}

func TestHealth(t *testing.T) {
	s := newTestServer()
	w := s.do(httptest.NewRequest(http.MethodGet, "/health", nil), "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSubmitComplaint_JSON(t *testing.T) {
	s := newTestServer()
	s.store.On("ReserveTrackingID", mock.Anything, mock.Anything).Return(true, nil)
	s.analyzer.On("Analyze", mock.Anything, mock.Anything).Return(&analysis.Analysis{
		Sentiment: models.SentimentNegative, CredibilityScore: 90, UrgencyScore: 9,
		Keywords: []string{"pothole"}, SuggestedDepartment: "Roads",
	}, nil)
	s.store.On("CreateComplaint", mock.Anything, mock.Anything).Return(nil)

	w := s.do(jsonRequest(http.MethodPost, "/api/complaints", draftBody), "")

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		TrackingID string           `json:"tracking_id"`
		Complaint  models.Complaint `json:"complaint"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Regexp(t, `^CIV-[0-9A-Z]{6}$`, resp.TrackingID)
	assert.Equal(t, models.PriorityCritical, resp.Complaint.Priority)
	assert.Equal(t, models.StatusPending, resp.Complaint.Status)
}

func TestSubmitComplaint_SignedInCreditsReporter(t *testing.T) {
	s := newTestServer()
	s.store.On("ReserveTrackingID", mock.Anything, mock.Anything).Return(true, nil)
	s.analyzer.On("Analyze", mock.Anything, mock.Anything).Return(nil, analysis.ErrQuotaExhausted)
	s.store.On("CreateComplaint", mock.Anything, mock.MatchedBy(func(c *models.Complaint) bool {
		return c.ReporterID != nil && *c.ReporterID == "user-citizen"
	})).Return(nil)
	s.store.On("UpdateReward", mock.Anything, "user-citizen", mock.Anything).Return(&models.UserReward{UserID: "user-citizen"}, nil)

	w := s.do(jsonRequest(http.MethodPost, "/api/complaints", draftBody), s.token(t, models.RoleCitizen))

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), complaint.WarningAIUnavailable)
	s.store.AssertExpectations(t)
}

func TestSubmitComplaint_ValidationError(t *testing.T) {
	s := newTestServer()
	body := map[string]interface{}{"type": "civic", "category": "pothole", "title": "t", "description": "d"}

	w := s.do(jsonRequest(http.MethodPost, "/api/complaints", body), "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"location required"}`, w.Body.String())
	s.analyzer.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
}

func multipartRequest(t *testing.T, draft interface{}, files map[string][]byte, count int) *http.Request {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	raw, err := json.Marshal(draft)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("complaint", string(raw)))
	for i := 0; i < count; i++ {
		for name, data := range files {
			fw, err := mw.CreateFormFile("evidence", name)
			require.NoError(t, err)
			_, err = fw.Write(data)
			require.NoError(t, err)
		}
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/complaints", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestSubmitComplaint_MultipartEvidence(t *testing.T) {
	s := newTestServer()
	s.store.On("ReserveTrackingID", mock.Anything, mock.Anything).Return(true, nil)
	s.analyzer.On("Analyze", mock.Anything, mock.Anything).Return(nil, errors.New("offline"))
	s.objects.On("Upload", mock.Anything, mock.Anything, "image/png", mock.Anything).Return("https://cdn.test/e/1.png", nil)
	s.store.On("CreateComplaint", mock.Anything, mock.Anything).Return(nil)

	req := multipartRequest(t, draftBody, map[string][]byte{
		"photo.png": pngBytes,
		"notes.txt": []byte("plain text notes"),
	}, 1)
	w := s.do(req, "")

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		Complaint        models.Complaint      `json:"complaint"`
		RejectedEvidence []complaint.Rejection `json:"rejected_evidence"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"https://cdn.test/e/1.png"}, []string(resp.Complaint.Evidence))
	require.Len(t, resp.RejectedEvidence, 1)
	assert.Equal(t, "notes.txt", resp.RejectedEvidence[0].Name)
}

func TestSubmitComplaint_TooManyFiles(t *testing.T) {
	s := newTestServer()

	w := s.do(multipartRequest(t, draftBody, map[string][]byte{"p.png": pngBytes}, 6), "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	s.analyzer.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
}

func TestSubmitComplaint_PersistenceFailure(t *testing.T) {
	s := newTestServer()
	s.store.On("ReserveTrackingID", mock.Anything, mock.Anything).Return(true, nil)
	s.analyzer.On("Analyze", mock.Anything, mock.Anything).Return(nil, analysis.ErrRateLimited)
	s.store.On("CreateComplaint", mock.Anything, mock.Anything).Return(errors.New("pq: connection reset"))

	w := s.do(jsonRequest(http.MethodPost, "/api/complaints", draftBody), "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "pq:")
}

func TestTrackComplaint_NotFound(t *testing.T) {
	s := newTestServer()
	s.store.On("GetComplaint", mock.Anything, "CIV-NOPE00").Return(nil, storage.ErrNotFound)

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/complaints/track/civ-nope00", nil), "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminRoutes_RequireRole(t *testing.T) {
	s := newTestServer()

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/admin/complaints", nil), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/admin/complaints", nil), "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/admin/complaints", nil), s.token(t, models.RoleCitizen))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminListComplaints_FiltersAndSearch(t *testing.T) {
	s := newTestServer()
	s.store.On("ListComplaints", mock.Anything, mock.MatchedBy(func(f storage.ComplaintFilter) bool {
		return f.Status == models.StatusPending && f.From != nil && f.To != nil && f.To.Hour() == 23
	})).Return([]models.Complaint{
		{TrackingID: "CIV-AAA111", Title: "Pothole", LocationAddress: "Main Street"},
		{TrackingID: "CIV-BBB222", Title: "Streetlight", LocationAddress: "Park Road"},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/complaints?status=pending&from=2026-01-01&to=2026-01-31&q=park", nil)
	w := s.do(req, s.token(t, models.RoleAuthority))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Complaints []models.Complaint `json:"complaints"`
		Total      int                `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, "CIV-BBB222", resp.Complaints[0].TrackingID)
}

func TestAdminListComplaints_BadFilter(t *testing.T) {
	s := newTestServer()
	w := s.do(httptest.NewRequest(http.MethodGet, "/api/admin/complaints?priority=urgent", nil), s.token(t, models.RoleAdmin))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateStatus(t *testing.T) {
	s := newTestServer()
	s.store.On("GetComplaint", mock.Anything, "CIV-AAA111").Return(&models.Complaint{TrackingID: "CIV-AAA111", Status: models.StatusPending}, nil)
	s.store.On("UpdateComplaint", mock.Anything, "CIV-AAA111", map[string]interface{}{"status": models.StatusInvestigating}).
		Return(&models.Complaint{TrackingID: "CIV-AAA111", Status: models.StatusInvestigating}, nil)

	w := s.do(jsonRequest(http.MethodPatch, "/api/admin/complaints/CIV-AAA111/status", map[string]string{"status": "investigating"}),
		s.token(t, models.RoleAuthority))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"status":"investigating"`)

	w = s.do(jsonRequest(http.MethodPatch, "/api/admin/complaints/CIV-AAA111/status", map[string]string{"status": "closed"}),
		s.token(t, models.RoleAuthority))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAssignComplaint(t *testing.T) {
	s := newTestServer()
	s.store.On("UpdateComplaint", mock.Anything, "CIV-AAA111", map[string]interface{}{"assigned_worker_name": "Ravi"}).
		Return(&models.Complaint{TrackingID: "CIV-AAA111"}, nil)
	s.store.On("UpdateComplaint", mock.Anything, "CIV-AAA111", map[string]interface{}{"department": "Roads"}).
		Return(&models.Complaint{TrackingID: "CIV-AAA111"}, nil)

	w := s.do(jsonRequest(http.MethodPatch, "/api/admin/complaints/CIV-AAA111/assign",
		map[string]string{"assigned_worker_name": "Ravi", "department": "Roads"}), s.token(t, models.RoleAuthority))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	s.store.AssertExpectations(t)
}

func TestDeleteComplaint_AdminOnly(t *testing.T) {
	s := newTestServer()
	w := s.do(httptest.NewRequest(http.MethodDelete, "/api/admin/complaints/CIV-AAA111", nil), s.token(t, models.RoleAuthority))
	assert.Equal(t, http.StatusForbidden, w.Code)

	s.store.On("GetComplaint", mock.Anything, "CIV-AAA111").Return(&models.Complaint{TrackingID: "CIV-AAA111"}, nil)
	s.store.On("DeleteComplaint", mock.Anything, "CIV-AAA111").Return(nil)
	w = s.do(httptest.NewRequest(http.MethodDelete, "/api/admin/complaints/CIV-AAA111", nil), s.token(t, models.RoleAdmin))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestExportCSV(t *testing.T) {
	s := newTestServer()
	s.store.On("ListComplaints", mock.Anything, mock.Anything).Return([]models.Complaint{
		{TrackingID: "CIV-AAA111", Type: models.TypeCivic, Title: "Pothole", CreatedAt: time.Now()},
	}, nil)

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/admin/export.csv", nil), s.token(t, models.RoleAuthority))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "complaints-report-")
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	assert.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Complaint ID,Type,Category"))
}

func TestCategories(t *testing.T) {
	s := newTestServer()
	s.store.On("ListCategories", mock.Anything, models.TypeCivic, true).Return([]models.Category{{Slug: "pothole"}}, nil)
	s.store.On("SaveCategory", mock.Anything, mock.MatchedBy(func(c *models.Category) bool {
		return c.Slug == "stray-dogs" && c.IsActive
	})).Return(nil)

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/categories?type=civic", nil), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pothole")

	body := map[string]interface{}{"name": "Stray dogs", "type": "civic", "slug": " Stray-Dogs "}
	w = s.do(jsonRequest(http.MethodPost, "/api/admin/categories", body), s.token(t, models.RoleAuthority))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(jsonRequest(http.MethodPost, "/api/admin/categories", body), s.token(t, models.RoleAdmin))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	s.pub.AssertCalled(t, "Publish", mock.Anything, mock.MatchedBy(func(e models.Event) bool {
		return e.Type == models.EventCategoryChanged
	}))
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer()
	s.store.On("CreateProfile", mock.Anything, mock.Anything).Return(nil)

	w := s.do(jsonRequest(http.MethodPost, "/auth/register", map[string]string{"email": "bad", "password": "secret1"}), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(jsonRequest(http.MethodPost, "/auth/register", map[string]string{"email": "jane@example.com", "password": "secret1"}), "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"token"`)
	assert.NotContains(t, w.Body.String(), "password")

	s.store.On("GetProfileByEmail", mock.Anything, "ghost@example.com").Return(nil, storage.ErrNotFound)
	w = s.do(jsonRequest(http.MethodPost, "/auth/login", map[string]string{"email": "ghost@example.com", "password": "x"}), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(jsonRequest(http.MethodPost, "/auth/register-admin",
		map[string]string{"email": "boss@example.com", "password": "secret1", "registration_key": "wrong"}), "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMyRewards(t *testing.T) {
	s := newTestServer()
	s.store.On("GetReward", mock.Anything, "user-citizen").Return(&models.UserReward{UserID: "user-citizen", Points: 120, Level: "Contributor"}, nil)

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/me/rewards", nil), s.token(t, models.RoleCitizen))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"level":"Contributor"`)

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/me/rewards", nil), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
