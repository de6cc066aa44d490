// Package complaint implements complaint intake and triage: validating a
// draft, enriching it with AI analysis, uploading evidence and persisting the
// record, plus the administrative status workflow that follows.
package complaint

import (
	"fmt"
	"math"
	"strings"

	"civiceye/backend/internal/config"
	"civiceye/backend/internal/models"

	"github.com/gabriel-vasile/mimetype"
)

// ValidationError is a user-correctable input defect.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func invalid(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// Location is captured explicitly by the reporter; there is no default.
type Location struct {
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
	Address string   `json:"address"`
	Ward    *string  `json:"ward"`
}

// complete reports whether both coordinates and an address were captured.
func (l *Location) complete() bool {
	if l == nil || strings.TrimSpace(l.Address) == "" {
		return false
	}
	return finite(l.Lat) && finite(l.Lng)
}

func finite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

// Contact details are kept only for civic complaints.
type Contact struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

// Draft is a complaint as submitted, before triage.
type Draft struct {
	Type        models.ComplaintType `json:"type"`
	Category    string               `json:"category"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Location    *Location            `json:"location"`
	Contact     Contact              `json:"contact"`
	Evidence    []EvidenceFile       `json:"-"`
}

// Validate rejects a draft missing any mandatory field. It has no side effects.
func Validate(d *Draft) error {
	if !d.Type.Valid() {
		return invalid("invalid complaint type %q", d.Type)
	}
	if strings.TrimSpace(d.Category) == "" {
		return invalid("category required")
	}
	if !d.Location.complete() {
		return invalid("location required")
	}
	if strings.TrimSpace(d.Title) == "" {
		return invalid("title required")
	}
	if strings.TrimSpace(d.Description) == "" {
		return invalid("description required")
	}
	if len(d.Evidence) > config.MaxEvidenceFiles {
		return invalid("at most %d evidence files allowed", config.MaxEvidenceFiles)
	}
	for _, f := range d.Evidence {
		if _, reason := f.check(); reason != "" {
			return invalid("%s: %s", f.Name, reason)
		}
	}
	return nil
}

// EvidenceFile is one uploaded file held in memory until triage uploads it.
type EvidenceFile struct {
	Name string
	Data []byte
}

// ContentType sniffs the file contents; the client-declared type is ignored.
func (f EvidenceFile) ContentType() string {
	return mimetype.Detect(f.Data).String()
}

// check returns the stored extension, or a rejection reason.
func (f EvidenceFile) check() (ext string, reason string) {
	if len(f.Data) > config.MaxEvidenceFileSize {
		return "", fmt.Sprintf("file exceeds %d MB", config.MaxEvidenceFileSize>>20)
	}
	detected := mimetype.Detect(f.Data)
	for mime, ext := range config.AllowedEvidenceTypes {
		if detected.Is(mime) {
			return ext, ""
		}
	}
	return "", fmt.Sprintf("unsupported file type %s", detected.String())
}

// Rejection explains why a single file was not accepted.
type Rejection struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// EvidenceSet accumulates accepted evidence across incremental batches.
type EvidenceSet struct {
	files []EvidenceFile
}

// Add accepts valid files from batch. A batch that would push the set past the
// file cap is refused as a whole and leaves the set unchanged; otherwise each
// file is checked on its own.
func (s *EvidenceSet) Add(batch ...EvidenceFile) ([]Rejection, error) {
	if len(s.files)+len(batch) > config.MaxEvidenceFiles {
		return nil, invalid("at most %d evidence files allowed", config.MaxEvidenceFiles)
	}
	var rejected []Rejection
	for _, f := range batch {
		if _, reason := f.check(); reason != "" {
			rejected = append(rejected, Rejection{Name: f.Name, Reason: reason})
			continue
		}
		s.files = append(s.files, f)
	}
	return rejected, nil
}

func (s *EvidenceSet) Files() []EvidenceFile { return s.files }

func (s *EvidenceSet) Len() int { return len(s.files) }
