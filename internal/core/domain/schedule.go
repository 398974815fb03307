package domain

import "time"

// Shift is one scheduled work block for the current employee.
type Shift struct {
	ID        string    `json:"id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Site      string    `json:"site,omitempty"`
	JobNumber string    `json:"job_number,omitempty"`
	Notes     string    `json:"notes,omitempty"`
}

// Dashboard is the personal summary shown on the home screen.
type Dashboard struct {
	Greeting        string  `json:"greeting,omitempty"`
	OpenRequests    int     `json:"open_requests"`
	PendingApproval int     `json:"pending_approval"`
	SpiffTotal      float64 `json:"spiff_total"`
	HoursThisWeek   float64 `json:"hours_this_week"`
	NextShift       *Shift  `json:"next_shift,omitempty"`
}
