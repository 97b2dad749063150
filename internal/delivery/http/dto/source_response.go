package dto

import "github.com/google/uuid"

type SourceResponse struct {
	ID           uuid.UUID `json:"id"`
	ProviderType string    `json:"provider_type"`
	CompanySlug  string    `json:"company_slug"`
	CompanyName  string    `json:"company_name"`
	IsActive     bool      `json:"is_active"`
	LastError    string    `json:"last_error"`
	LastOKAt     string    `json:"last_ok_at"`
	LastFailAt   string    `json:"last_fail_at"`
}

type DiscoverSourceResponse struct {
	CareersURL   string `json:"careers_url"`
	ProviderType string `json:"provider_type"`
	CompanySlug  string `json:"company_slug"`
	Created      bool   `json:"created"`
	Verified     bool   `json:"verified"`
}
