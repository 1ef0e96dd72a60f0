package services

import (
	"fmt"
	"strings"
	"time"

	"filehub/internal/models"
	"filehub/internal/repositories"
)

// RecentWindow is how far back an upload counts as recent.
const RecentWindow = 7 * 24 * time.Hour

// OthersCategory collects every file type not listed in Categories.
const OthersCategory = "Others"

// Category groups lowercase file extensions under a dashboard label.
type Category struct {
	Name       string
	Extensions []string
}

// Categories in the order they are reported.
var Categories = []Category{
	{Name: "Documents", Extensions: []string{"pdf", "doc", "docx", "txt"}},
	{Name: "Spreadsheets", Extensions: []string{"xls", "xlsx", "csv"}},
	{Name: "Images", Extensions: []string{"jpg", "jpeg", "png", "gif"}},
}

// CategoryOf returns the dashboard category of a stored file type.
func CategoryOf(fileType string) string {
	ext := strings.ToLower(fileType)
	for _, c := range Categories {
		for _, e := range c.Extensions {
			if e == ext {
				return c.Name
			}
		}
	}
	return OthersCategory
}

// StatsService builds the global dashboard report.
type StatsService struct {
	repo repositories.FileRepository
	now  func() time.Time
}

// NewStatsService creates a new StatsService.
func NewStatsService(repo repositories.FileRepository) *StatsService {
	return &StatsService{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the clock used to compute the recent-upload cutoff.
func (s *StatsService) WithClock(now func() time.Time) *StatsService {
	s.now = now
	return s
}

// DashboardStats aggregates over every stored file regardless of owner.
// Any failure aborts the whole report.
func (s *StatsService) DashboardStats() (*models.DashboardStats, error) {
	since := s.now().Add(-RecentWindow)

	total, err := s.repo.CountAll()
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	recent, err := s.repo.CountSince(since)
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	userStats, err := s.repo.CountByUser(since)
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	typeCounts, err := s.repo.CountByType()
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	if userStats == nil {
		userStats = []models.UserFileCount{}
	}

	return &models.DashboardStats{
		TotalFiles:    total,
		RecentUploads: recent,
		UserStats:     userStats,
		FileTypes:     categorize(typeCounts),
	}, nil
}

// categorize folds per-type counts into categories, dropping empty ones.
func categorize(typeCounts []models.FileTypeCount) []models.CategoryCount {
	totals := make(map[string]int64, len(Categories)+1)
	for _, tc := range typeCounts {
		totals[CategoryOf(tc.FileType)] += tc.Count
	}

	out := make([]models.CategoryCount, 0, len(Categories)+1)
	for _, c := range Categories {
		if n := totals[c.Name]; n > 0 {
			out = append(out, models.CategoryCount{Type: c.Name, Count: n})
		}
	}
	if n := totals[OthersCategory]; n > 0 {
		out = append(out, models.CategoryCount{Type: OthersCategory, Count: n})
	}
	return out
}
