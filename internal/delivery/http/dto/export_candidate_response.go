package dto

type ExportCandidateResponse struct {
	JobUID    string `json:"job_uid"`
	ProfileID string `json:"profile_id"`
	Title     string `json:"title"`
	Company   string `json:"company"`
	URL       string `json:"url"`
	FitScore  int    `json:"fit_score"`
	FitClass  string `json:"fit_class"`
	Reason    string `json:"reason"`
}
