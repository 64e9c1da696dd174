package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"jobboard/scrape-service/internal/model"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// AllowedSources are the job boards shown on the board. Jobs stored under
// any other source are kept but not listed.
var AllowedSources = []string{
	"Indeed", "LinkedIn", "ZipRecruiter", "Glassdoor", "Monster",
	"SimplyHired", "CareerBuilder", "FlexJobs", "Built In", "Ladders",
	"Remote.co", "DailyRemote", "Workday", "Upwork",
}

// JobView is the JSON shape returned to the board.
type JobView struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Company        string `json:"company"`
	Location       string `json:"location"`
	LocationType   string `json:"locationType"`
	EmploymentType string `json:"employmentType"`
	Salary         string `json:"salary,omitempty"`
	Category       string `json:"category"`
	Description    string `json:"description"`
	PostedAt       string `json:"postedAt"`
	Source         string `json:"source"`
	ApplyURL       string `json:"applyUrl,omitempty"`
}

// listJobs handles GET /jobs?source=A,B&limit=N.
func (h *Handler) listJobs(c *gin.Context) {
	sources := AllowedSources
	if raw := c.QueryArray("source"); len(raw) > 0 {
		sources = splitList(raw)
	}

	limit := defaultListLimit
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer", "success": false})
			return
		}
		limit = min(n, maxListLimit)
	}

	recs, err := h.jobs.ListRecent(c.Request.Context(), sources, limit)
	if err != nil {
		h.log.Error("list jobs failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error", "success": false})
		return
	}

	now := h.now()
	out := make([]JobView, 0, len(recs))
	for _, r := range recs {
		out = append(out, toView(r, now))
	}
	c.JSON(http.StatusOK, out)
}

func toView(r model.JobRecord, now time.Time) JobView {
	listed := r.CreatedAt
	if listed.IsZero() {
		listed = r.PostedAt
	}
	return JobView{
		ID:             r.ID,
		Title:          r.Title,
		Company:        r.Company,
		Location:       r.Location,
		LocationType:   string(r.LocationType),
		EmploymentType: string(r.EmploymentType),
		Salary:         model.Deref(r.Salary),
		Category:       r.Category,
		Description:    model.Deref(r.Description),
		PostedAt:       TimeAgo(listed, now),
		Source:         r.Source,
		ApplyURL:       model.Deref(r.ApplyURL),
	}
}

// TimeAgo renders the age of t in whole days as the board shows it.
func TimeAgo(t, now time.Time) string {
	days := int(now.Sub(t).Hours() / 24)
	switch {
	case days <= 0:
		return "Today"
	case days == 1:
		return "1 day ago"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	case days < 14:
		return "1 week ago"
	case days < 30:
		return fmt.Sprintf("%d weeks ago", days/7)
	}
	return fmt.Sprintf("%d months ago", days/30)
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
