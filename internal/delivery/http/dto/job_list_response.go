package dto

type JobListResponse struct {
	JobUID      string `json:"job_uid"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	URL         string `json:"url"`
	Location    string `json:"location"`
	SalaryText  string `json:"salary_text"`
	LastChecked string `json:"last_checked"`
}
