package complaint

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"civiceye/backend/internal/analysis"
	"civiceye/backend/internal/auth"
	"civiceye/backend/internal/config"
	"civiceye/backend/internal/models"
	"civiceye/backend/internal/objectstore"
	"civiceye/backend/internal/rewards"
	"civiceye/backend/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrPersistence means the complaint could not be recorded. Callers show a
// generic failure; the wrapped error is for logs only.
var ErrPersistence = errors.New("complaint could not be saved")

const (
	WarningAIBusy        = "AI service busy, try again"
	WarningAIUnavailable = "AI analysis unavailable"
)

// Publisher announces data changes to readers.
type Publisher interface {
	Publish(ctx context.Context, e models.Event) error
}

// Notifier tells operators about new complaints and status changes.
type Notifier interface {
	ComplaintSubmitted(ctx context.Context, c *models.Complaint) error
	StatusChanged(ctx context.Context, c *models.Complaint, from models.Status) error
}

// Deps are the collaborators of a Service.
type Deps struct {
	Storage         storage.Storage
	Analyzer        analysis.Analyzer
	Objects         objectstore.Store
	EvidenceBaseURL string
	Publisher       Publisher
	Notifier        Notifier
	Ledger          *rewards.Ledger
	IDs             *IDGenerator
	Logger          *zap.Logger
}

// Service runs the intake and triage workflow.
type Service struct {
	storage   storage.Storage
	analyzer  analysis.Analyzer
	objects   objectstore.Store
	baseURL   string
	publisher Publisher
	notifier  Notifier
	ledger    *rewards.Ledger
	ids       *IDGenerator
	logger    *zap.Logger
	now       func() time.Time

	notifications sync.WaitGroup
}

func NewService(d Deps) *Service {
	ids := d.IDs
	if ids == nil {
		ids = defaultIDs
	}
	return &Service{
		storage:   d.Storage,
		analyzer:  d.Analyzer,
		objects:   d.Objects,
		baseURL:   d.EvidenceBaseURL,
		publisher: d.Publisher,
		notifier:  d.Notifier,
		ledger:    d.Ledger,
		ids:       ids,
		logger:    d.Logger,
		now:       time.Now,
	}
}

// Result is what a submitter sees after a successful submission.
type Result struct {
	TrackingID string             `json:"tracking_id"`
	Analysis   *analysis.Analysis `json:"analysis"`
	Warnings   []string           `json:"warnings,omitempty"`
	Complaint  *models.Complaint  `json:"complaint"`
}

// Submit validates, analyzes, uploads and persists a complaint, in that order.
// Only validation and persistence failures are returned as errors.
// submitter is nil for signed-out reporters.
func (s *Service) Submit(ctx context.Context, d *Draft, submitter *auth.Principal) (*Result, error) {
	if err := Validate(d); err != nil {
		return nil, err
	}
	res := &Result{}

	a, err := s.analyzer.Analyze(ctx, analysis.Request{
		Title:       d.Title,
		Description: d.Description,
		Category:    d.Category,
		Type:        d.Type,
	})
	if err != nil {
		s.logger.Warn("AI analysis unavailable, continuing without enrichment", zap.Error(err))
		if errors.Is(err, analysis.ErrRateLimited) {
			res.Warnings = append(res.Warnings, WarningAIBusy)
		} else {
			res.Warnings = append(res.Warnings, WarningAIUnavailable)
		}
		a = nil
	} else {
		a.Clamp()
	}
	res.Analysis = a

	trackingID, err := s.reserveTrackingID(ctx, d.Type)
	if err != nil {
		return nil, err
	}
	res.TrackingID = trackingID

	priority := models.PriorityMedium
	if a != nil {
		priority = analysis.DerivePriority(a.UrgencyScore)
	}

	urls, paths := s.uploadEvidence(ctx, trackingID, d.Evidence)

	c := s.assemble(d, submitter, trackingID, priority, a, urls)
	if err := s.storage.CreateComplaint(ctx, c); err != nil {
		s.logger.Error("Failed to persist complaint", zap.String("tracking_id", trackingID), zap.Error(err))
		s.discardEvidence(ctx, paths)
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	res.Complaint = c

	s.logger.Info("Complaint submitted",
		zap.String("tracking_id", trackingID),
		zap.String("type", string(c.Type)),
		zap.String("priority", string(c.Priority)),
		zap.Int("evidence", len(urls)))

	s.afterChange(ctx, models.EventComplaintCreated, c)
	s.notify(ctx, trackingID, func(ctx context.Context) error {
		return s.notifier.ComplaintSubmitted(ctx, c)
	})
	if c.ReporterID != nil {
		if _, err := s.ledger.CreditSubmission(ctx, *c.ReporterID); err != nil {
			s.logger.Warn("Failed to credit submission reward", zap.String("user_id", *c.ReporterID), zap.Error(err))
		}
	}
	return res, nil
}

// reserveTrackingID regenerates on conflict. A reservation error is logged and
// the candidate is used as is; the unique index still guards the insert.
func (s *Service) reserveTrackingID(ctx context.Context, t models.ComplaintType) (string, error) {
	for attempt := 1; attempt <= config.TrackingIDAttempts; attempt++ {
		id := s.ids.For(t)
		ok, err := s.storage.ReserveTrackingID(ctx, id)
		if err != nil {
			s.logger.Warn("Tracking ID reservation failed", zap.String("tracking_id", id), zap.Error(err))
			return id, nil
		}
		if ok {
			return id, nil
		}
		s.logger.Info("Tracking ID collision, regenerating", zap.String("tracking_id", id), zap.Int("attempt", attempt))
	}
	return "", fmt.Errorf("%w: no free tracking id after %d attempts", ErrPersistence, config.TrackingIDAttempts)
}

// uploadEvidence uploads files one at a time. Failed files are dropped.
func (s *Service) uploadEvidence(ctx context.Context, trackingID string, files []EvidenceFile) (urls, paths []string) {
	for _, f := range files {
		ext, reason := f.check()
		if reason != "" {
			s.logger.Warn("Skipping invalid evidence", zap.String("file", f.Name), zap.String("reason", reason))
			continue
		}
		path := objectstore.EvidencePath(trackingID, uuid.NewString(), ext)
		url, err := s.objects.Upload(ctx, path, f.ContentType(), bytes.NewReader(f.Data))
		if err != nil {
			s.logger.Warn("Evidence upload failed, dropping file",
				zap.String("tracking_id", trackingID), zap.String("file", f.Name), zap.Error(err))
			continue
		}
		urls = append(urls, url)
		paths = append(paths, path)
	}
	return urls, paths
}

func (s *Service) discardEvidence(ctx context.Context, paths []string) {
	for _, p := range paths {
		if err := s.objects.Delete(ctx, p); err != nil {
			s.logger.Warn("Failed to delete orphaned evidence", zap.String("path", p), zap.Error(err))
		}
	}
}

func (s *Service) assemble(d *Draft, submitter *auth.Principal, trackingID string, priority models.Priority, a *analysis.Analysis, evidence []string) *models.Complaint {
	c := &models.Complaint{
		TrackingID:       trackingID,
		Type:             d.Type,
		Category:         strings.TrimSpace(d.Category),
		Title:            strings.TrimSpace(d.Title),
		Description:      strings.TrimSpace(d.Description),
		LocationLat:      *d.Location.Lat,
		LocationLng:      *d.Location.Lng,
		LocationAddress:  strings.TrimSpace(d.Location.Address),
		LocationWard:     d.Location.Ward,
		Status:           models.StatusPending,
		Priority:         priority,
		CredibilityScore: config.DefaultCredibilityScore,
	}
	if len(evidence) > 0 {
		c.Evidence = evidence
	}
	if a != nil {
		sentiment := a.Sentiment
		fake, urgency := a.FakeProbability, a.UrgencyScore
		dept, summary := a.SuggestedDepartment, a.Summary
		c.CredibilityScore = a.Credibility()
		c.AISentiment = &sentiment
		c.AIFakeProbability = &fake
		c.AIUrgencyScore = &urgency
		c.AISuggestedDepartment = &dept
		c.AISummary = &summary
		c.AIKeywords = append([]string{}, a.Keywords...)
	}
	if d.Type.Anonymous() {
		id := trackingID
		c.AnonymousID = &id
		return c
	}
	c.ReporterName = d.Contact.Name
	c.ReporterEmail = d.Contact.Email
	c.ReporterPhone = d.Contact.Phone
	if submitter != nil {
		uid := submitter.UserID
		c.ReporterID = &uid
	}
	return c
}

// notify delivers an operator notification in the background, bounded by
// NotificationTimeout and detached from the caller's cancellation.
func (s *Service) notify(ctx context.Context, trackingID string, send func(context.Context) error) {
	s.notifications.Add(1)
	go func() {
		defer s.notifications.Done()
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), config.NotificationTimeout)
		defer cancel()
		if err := send(nctx); err != nil {
			s.logger.Warn("Failed to notify operators", zap.String("tracking_id", trackingID), zap.Error(err))
		}
	}()
}

// Wait blocks until background notifications have finished.
func (s *Service) Wait() {
	s.notifications.Wait()
}

// afterChange publishes the change and drops cached stats. Neither is fatal.
func (s *Service) afterChange(ctx context.Context, t models.EventType, c *models.Complaint) {
	e := models.Event{Type: t, TrackingID: c.TrackingID, Status: c.Status, Priority: c.Priority, At: s.now().UTC()}
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn("Failed to publish event", zap.String("type", string(t)), zap.String("tracking_id", c.TrackingID), zap.Error(err))
	}
	if err := s.storage.InvalidateStats(ctx); err != nil {
		s.logger.Warn("Failed to invalidate stats cache", zap.Error(err))
	}
}

// UpdateStatus moves a complaint to status. Resolution text is stored only
// with the resolved status. Moving into resolved credits the reporter.
func (s *Service) UpdateStatus(ctx context.Context, actor auth.Principal, trackingID string, status models.Status, resolution *string) (*models.Complaint, error) {
	if err := auth.Require(actor.Role, auth.PermUpdateStatus); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, invalid("invalid status %q", status)
	}
	prev, err := s.storage.GetComplaint(ctx, trackingID)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{"status": status}
	if status == models.StatusResolved && resolution != nil && strings.TrimSpace(*resolution) != "" {
		fields["resolution"] = strings.TrimSpace(*resolution)
	}
	var (
		updated      *models.Complaint
		transitioned bool
	)
	if status == models.StatusResolved {
		updated, transitioned, err = s.storage.ResolveComplaint(ctx, trackingID, fields)
	} else {
		updated, err = s.storage.UpdateComplaint(ctx, trackingID, fields)
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info("Complaint status changed",
		zap.String("tracking_id", trackingID),
		zap.String("from", string(prev.Status)),
		zap.String("to", string(status)),
		zap.String("actor", actor.UserID))

	if transitioned && updated.ReporterID != nil {
		if _, err := s.ledger.CreditResolution(ctx, *updated.ReporterID); err != nil {
			s.logger.Error("Failed to credit resolution reward",
				zap.String("tracking_id", trackingID), zap.String("user_id", *updated.ReporterID), zap.Error(err))
		}
	}

	s.afterChange(ctx, models.EventComplaintUpdated, updated)
	s.notify(ctx, trackingID, func(ctx context.Context) error {
		return s.notifier.StatusChanged(ctx, updated, prev.Status)
	})
	return updated, nil
}

// Assign sets the worker handling a complaint. An empty name clears it.
func (s *Service) Assign(ctx context.Context, actor auth.Principal, trackingID, worker string) (*models.Complaint, error) {
	return s.setAdminField(ctx, actor, trackingID, "assigned_worker_name", worker)
}

// SetDepartment routes a complaint to a department. An empty name clears it.
func (s *Service) SetDepartment(ctx context.Context, actor auth.Principal, trackingID, department string) (*models.Complaint, error) {
	return s.setAdminField(ctx, actor, trackingID, "department", department)
}

func (s *Service) setAdminField(ctx context.Context, actor auth.Principal, trackingID, column, value string) (*models.Complaint, error) {
	if err := auth.Require(actor.Role, auth.PermAssign); err != nil {
		return nil, err
	}
	var v interface{}
	if value = strings.TrimSpace(value); value != "" {
		v = value
	}
	updated, err := s.storage.UpdateComplaint(ctx, trackingID, map[string]interface{}{column: v})
	if err != nil {
		return nil, err
	}
	s.afterChange(ctx, models.EventComplaintUpdated, updated)
	return updated, nil
}

// Delete removes a complaint and, best effort, its evidence files.
func (s *Service) Delete(ctx context.Context, actor auth.Principal, trackingID string) error {
	if err := auth.Require(actor.Role, auth.PermDeleteComplaint); err != nil {
		return err
	}
	c, err := s.storage.GetComplaint(ctx, trackingID)
	if err != nil {
		return err
	}
	if err := s.storage.DeleteComplaint(ctx, trackingID); err != nil {
		return err
	}
	var paths []string
	for _, u := range c.Evidence {
		if p, ok := objectstore.PathFromURL(s.baseURL, u); ok {
			paths = append(paths, p)
		}
	}
	s.discardEvidence(ctx, paths)
	s.logger.Info("Complaint deleted", zap.String("tracking_id", trackingID), zap.String("actor", actor.UserID))
	s.afterChange(ctx, models.EventComplaintDeleted, c)
	return nil
}

// Track looks up a complaint by tracking ID for the public status page.
// Reporter identity and contact details are removed.
func (s *Service) Track(ctx context.Context, trackingID string) (*models.Complaint, error) {
	c, err := s.storage.GetComplaint(ctx, strings.ToUpper(strings.TrimSpace(trackingID)))
	if err != nil {
		return nil, err
	}
	c.ReporterID, c.ReporterName, c.ReporterEmail, c.ReporterPhone = nil, nil, nil, nil
	return c, nil
}

func (s *Service) Get(ctx context.Context, actor auth.Principal, trackingID string) (*models.Complaint, error) {
	if err := auth.Require(actor.Role, auth.PermViewAllComplaints); err != nil {
		return nil, err
	}
	return s.storage.GetComplaint(ctx, trackingID)
}

func (s *Service) List(ctx context.Context, actor auth.Principal, f storage.ComplaintFilter) ([]models.Complaint, error) {
	if err := auth.Require(actor.Role, auth.PermViewAllComplaints); err != nil {
		return nil, err
	}
	return s.storage.ListComplaints(ctx, f)
}

// Mine lists the complaints the actor filed while signed in.
func (s *Service) Mine(ctx context.Context, actor auth.Principal) ([]models.Complaint, error) {
	if err := auth.Require(actor.Role, auth.PermTrackOwn); err != nil {
		return nil, err
	}
	return s.storage.ListComplaints(ctx, storage.ComplaintFilter{ReporterID: actor.UserID})
}

// Preview runs the analyzer without storing anything.
func (s *Service) Preview(ctx context.Context, req analysis.Request) (*analysis.Analysis, error) {
	a, err := s.analyzer.Analyze(ctx, req)
	if err != nil {
		return nil, err
	}
	a.Clamp()
	return a, nil
}
