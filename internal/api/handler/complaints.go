package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"civiceye/backend/internal/analysis"
	"civiceye/backend/internal/auth"
	"civiceye/backend/internal/complaint"
	"civiceye/backend/internal/config"
	"civiceye/backend/internal/models"
	"civiceye/backend/internal/report"
	"civiceye/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// multipart form field names
const (
	formDraft    = "complaint"
	formEvidence = "evidence"
)

type submitResponse struct {
	*complaint.Result
	RejectedEvidence []complaint.Rejection `json:"rejected_evidence,omitempty"`
}

// SubmitComplaint accepts either a JSON draft or a multipart form with the
// draft JSON in "complaint" and up to five "evidence" files. Files that fail
// the type or size check are reported back and left out.
func (h *Handler) SubmitComplaint(c *gin.Context) {
	var draft complaint.Draft
	var rejected []complaint.Rejection

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		form, err := c.MultipartForm()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form"})
			return
		}
		raw := form.Value[formDraft]
		if len(raw) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing complaint field"})
			return
		}
		if err := json.Unmarshal([]byte(raw[0]), &draft); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid complaint JSON"})
			return
		}
		files, sizeRejected, err := readEvidence(form.File[formEvidence])
		if err != nil {
			h.respondError(c, err)
			return
		}
		var set complaint.EvidenceSet
		rejected, err = set.Add(files...)
		if err != nil {
			h.respondError(c, err)
			return
		}
		rejected = append(sizeRejected, rejected...)
		draft.Evidence = set.Files()
	} else if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	res, err := h.Complaints.Submit(c.Request.Context(), &draft, optionalPrincipal(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, submitResponse{Result: res, RejectedEvidence: rejected})
}

// readEvidence loads the uploaded files. Oversized files are rejected from the
// header size without being read.
func readEvidence(headers []*multipart.FileHeader) ([]complaint.EvidenceFile, []complaint.Rejection, error) {
	if len(headers) > config.MaxEvidenceFiles {
		return nil, nil, &complaint.ValidationError{Reason: fmt.Sprintf("at most %d evidence files allowed", config.MaxEvidenceFiles)}
	}
	var files []complaint.EvidenceFile
	var rejected []complaint.Rejection
	for _, fh := range headers {
		if fh.Size > config.MaxEvidenceFileSize {
			rejected = append(rejected, complaint.Rejection{
				Name:   fh.Filename,
				Reason: fmt.Sprintf("file exceeds %d MB", config.MaxEvidenceFileSize>>20),
			})
			continue
		}
		f, err := fh.Open()
		if err != nil {
			return nil, nil, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(io.LimitReader(f, config.MaxEvidenceFileSize+1))
		f.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", fh.Filename, err)
		}
		files = append(files, complaint.EvidenceFile{Name: fh.Filename, Data: data})
	}
	return files, rejected, nil
}

func optionalPrincipal(c *gin.Context) *auth.Principal {
	p, ok := principal(c)
	if !ok {
		return nil
	}
	return &p
}

func (h *Handler) TrackComplaint(c *gin.Context) {
	cmp, err := h.Complaints.Track(c.Request.Context(), c.Param("trackingId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cmp)
}

// AnalyzePreview runs the analyzer on a draft without saving anything.
func (h *Handler) AnalyzePreview(c *gin.Context) {
	var req analysis.Request
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and description are required"})
		return
	}
	a, err := h.Complaints.Preview(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *Handler) MyComplaints(c *gin.Context) {
	p, _ := principal(c)
	list, err := h.Complaints.Mine(c.Request.Context(), p)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// filterFromQuery reads status, type, category, priority, from, to and search.
// Dates are RFC 3339 or YYYY-MM-DD; "to" as a bare date covers that whole day.
func filterFromQuery(c *gin.Context) (storage.ComplaintFilter, error) {
	f := storage.ComplaintFilter{
		Status:   models.Status(c.Query("status")),
		Type:     models.ComplaintType(c.Query("type")),
		Category: c.Query("category"),
		Priority: models.Priority(c.Query("priority")),
		Search:   c.Query("search"),
	}
	if f.Status != "" && !f.Status.Valid() {
		return f, &complaint.ValidationError{Reason: fmt.Sprintf("invalid status %q", f.Status)}
	}
	if f.Type != "" && !f.Type.Valid() {
		return f, &complaint.ValidationError{Reason: fmt.Sprintf("invalid complaint type %q", f.Type)}
	}
	if f.Priority != "" && !f.Priority.Valid() {
		return f, &complaint.ValidationError{Reason: fmt.Sprintf("invalid priority %q", f.Priority)}
	}
	if v := c.Query("from"); v != "" {
		t, _, err := parseDate(v)
		if err != nil {
			return f, &complaint.ValidationError{Reason: "invalid from date"}
		}
		f.From = &t
	}
	if v := c.Query("to"); v != "" {
		t, dateOnly, err := parseDate(v)
		if err != nil {
			return f, &complaint.ValidationError{Reason: "invalid to date"}
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		f.To = &t
	}
	return f, nil
}

func parseDate(v string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, false, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	return t, true, err
}

func (h *Handler) listForAdmin(c *gin.Context) ([]models.Complaint, bool) {
	f, err := filterFromQuery(c)
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	p, _ := principal(c)
	list, err := h.Complaints.List(c.Request.Context(), p, f)
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	return report.Search(list, c.Query("q")), true
}

// AdminListComplaints lists complaints with SQL filters plus the "q" quick
// search across tracking ID, title, address, category and status.
func (h *Handler) AdminListComplaints(c *gin.Context) {
	list, ok := h.listForAdmin(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"complaints": list, "total": len(list)})
}

func (h *Handler) AdminGetComplaint(c *gin.Context) {
	p, _ := principal(c)
	cmp, err := h.Complaints.Get(c.Request.Context(), p, c.Param("trackingId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cmp)
}

func (h *Handler) ExportCSV(c *gin.Context) {
	p, _ := principal(c)
	if err := auth.Require(p.Role, auth.PermExport); err != nil {
		h.respondError(c, err)
		return
	}
	list, ok := h.listForAdmin(c)
	if !ok {
		return
	}
	if len(list) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No data to export"})
		return
	}
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, report.ExportFilename(time.Now())))
	c.Status(http.StatusOK)
	if err := report.WriteCSV(c.Writer, list); err != nil {
		h.Logger.Error("CSV export failed", zap.Error(err))
	}
}

type statusRequest struct {
	Status     models.Status `json:"status" binding:"required"`
	Resolution *string       `json:"resolution"`
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}
	p, _ := principal(c)
	updated, err := h.Complaints.UpdateStatus(c.Request.Context(), p, c.Param("trackingId"), req.Status, req.Resolution)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

type assignRequest struct {
	Worker     *string `json:"assigned_worker_name"`
	Department *string `json:"department"`
}

// AssignComplaint sets the worker and/or department; omitted fields are kept.
func (h *Handler) AssignComplaint(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil || (req.Worker == nil && req.Department == nil) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "assigned_worker_name or department is required"})
		return
	}
	p, _ := principal(c)
	ctx, id := c.Request.Context(), c.Param("trackingId")

	var updated *models.Complaint
	var err error
	if req.Worker != nil {
		if updated, err = h.Complaints.Assign(ctx, p, id, *req.Worker); err != nil {
			h.respondError(c, err)
			return
		}
	}
	if req.Department != nil {
		if updated, err = h.Complaints.SetDepartment(ctx, p, id, *req.Department); err != nil {
			h.respondError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteComplaint(c *gin.Context) {
	p, _ := principal(c)
	if err := h.Complaints.Delete(c.Request.Context(), p, c.Param("trackingId")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
