package domain

import "time"

// Source identifies one configured obituary source and its fetch policy.
type Source struct {
	Slug        string
	Family      string
	BaseURL     string
	PageBudget  int
	MinInterval time.Duration
	Enabled     bool
	CityHint    string
	TrustImages bool
}

// SourceHealth is the per-source circuit-breaker sub-state, mutated after
// every collection attempt. Sources are disabled, never deleted.
type SourceHealth struct {
	Slug        string
	Failures    int
	LastSuccess time.Time
	LastError   string
	Disabled    bool
	UpdatedAt   time.Time
}
