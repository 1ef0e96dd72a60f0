package models

// UserFileCount is one row of the per-user upload breakdown.
type UserFileCount struct {
	Username      string `json:"username"`
	Email         string `json:"email"`
	FileCount     int64  `json:"file_count"`
	RecentUploads int64  `json:"recent_uploads"`
}

// FileTypeCount is the number of files stored with one file type.
type FileTypeCount struct {
	FileType string
	Count    int64
}

// CategoryCount is the number of files falling into a dashboard category.
type CategoryCount struct {
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

// DashboardStats is the global report served by the dashboard endpoint.
type DashboardStats struct {
	TotalFiles    int64           `json:"total_files"`
	RecentUploads int64           `json:"recent_uploads"`
	UserStats     []UserFileCount `json:"user_stats"`
	FileTypes     []CategoryCount `json:"file_types"`
}
