package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"civiceye/backend/internal/models"
)

var csvHeader = []string{
	"Complaint ID",
	"Type",
	"Category",
	"Title",
	"Description",
	"Status",
	"Priority",
	"Location",
	"Credibility Score",
	"Created At",
	"Reporter Name",
	"Department",
}

// WriteCSV writes one row per complaint after a header row.
func WriteCSV(w io.Writer, complaints []models.Complaint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, c := range complaints {
		reporter := "Anonymous"
		if c.ReporterName != nil && *c.ReporterName != "" {
			reporter = *c.ReporterName
		}
		department := "Unassigned"
		if c.Department != nil && *c.Department != "" {
			department = *c.Department
		}
		row := []string{
			c.TrackingID,
			string(c.Type),
			c.Category,
			c.Title,
			c.Description,
			string(c.Status),
			string(c.Priority),
			c.LocationAddress,
			strconv.Itoa(c.CredibilityScore),
			c.CreatedAt.UTC().Format("2006-01-02 15:04"),
			reporter,
			department,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %s: %w", c.TrackingID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFilename names a download made at t.
func ExportFilename(t time.Time) string {
	return fmt.Sprintf("complaints-report-%s.csv", t.Format("2006-01-02"))
}
