package report

import (
	"strconv"
	"strings"

	"civiceye/backend/internal/models"
)

// Search keeps complaints where any of tracking ID, title, description,
// address, category, status, department or a keyword contains query,
// ignoring case. A blank query keeps everything.
func Search(items []models.Complaint, query string) []models.Complaint {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return items
	}
	out := make([]models.Complaint, 0, len(items))
	for _, c := range items {
		if matches(&c, q) {
			out = append(out, c)
		}
	}
	return out
}

func matches(c *models.Complaint, q string) bool {
	fields := []string{
		c.TrackingID,
		c.Title,
		c.Description,
		c.LocationAddress,
		c.Category,
		string(c.Status),
		strconv.Itoa(c.CredibilityScore),
	}
	if c.Department != nil {
		fields = append(fields, *c.Department)
	}
	fields = append(fields, c.AIKeywords...)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}
