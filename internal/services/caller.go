package services

// Caller is the authenticated identity an operation runs on behalf of.
type Caller struct {
	UserID   string
	Username string
	IsStaff  bool
}
