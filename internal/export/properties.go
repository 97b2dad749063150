package export

import (
	"strings"
	"time"

	"jobradar/internal/fitness"
	"jobradar/internal/repository"
	"jobradar/internal/scraper"
)

func richText(value string) map[string]any {
	value = strings.TrimSpace(value)
	if value == "" {
		return map[string]any{"rich_text": []any{}}
	}
	return map[string]any{
		"rich_text": []any{map[string]any{"text": map[string]any{"content": value}}},
	}
}

func title(value string) map[string]any {
	return map[string]any{
		"title": []any{map[string]any{"text": map[string]any{"content": value}}},
	}
}

func selectProp(name string) map[string]any {
	return map[string]any{"select": map[string]any{"name": name}}
}

func dateProp(t time.Time) map[string]any {
	return map[string]any{"date": map[string]any{"start": t.UTC().Format("2006-01-02")}}
}

func sourceName(providerType string) string {
	switch providerType {
	case scraper.ProviderGreenhouse:
		return "Greenhouse"
	case scraper.ProviderLever:
		return "Lever"
	default:
		return "Other"
	}
}

// statusForNewPage picks the create-time board column. Status is a human
// workflow field afterwards and updates never touch it.
func statusForNewPage(fitScore int) string {
	if fitScore >= 75 {
		return "Shortlist"
	}
	return "New"
}

func skillsMultiSelect(skillsJSON []byte) []any {
	skills := fitness.SkillsFromJSON(skillsJSON)
	if len(skills) == 0 {
		return nil
	}
	out := make([]any, 0, len(skills))
	for _, s := range skills {
		if len(s) > 100 {
			s = s[:100]
		}
		out = append(out, map[string]any{"name": s})
	}
	return out
}

// createProperties builds the full property set for a brand new page.
func createProperties(c repository.ExportCandidate) map[string]any {
	props := map[string]any{
		"Job Title":    title(c.Title),
		"Job UID":      richText(c.JobUID),
		"Job URL":      map[string]any{"url": c.URL},
		"Profile":      richText(c.ProfileID),
		"Status":       map[string]any{"status": map[string]any{"name": statusForNewPage(c.FitScore)}},
		"Fit score":    map[string]any{"number": c.FitScore},
		"Fit class":    selectProp(c.FitClass),
		"First seen":   dateProp(c.FirstSeen),
		"Last checked": dateProp(c.LastChecked),
		"Company":      richText(c.Company),
		"Source":       selectProp(sourceName(c.ProviderType)),
	}

	if c.LocationRaw != "" {
		props["Location"] = richText(c.LocationRaw)
	}
	if c.WorkplaceRaw != "" {
		props["Workplace"] = selectProp(c.WorkplaceRaw)
	}
	if c.SalaryText != "" {
		props["Salary"] = richText(c.SalaryText)
	}
	if ms := skillsMultiSelect(c.SkillsJSON); ms != nil {
		props["Skills required"] = map[string]any{"multi_select": ms}
	}

	// Text fields always exist so the page schema stays uniform.
	props["Summary"] = richText(c.Summary)
	props["Pros"] = richText(c.Pros)
	props["Cons"] = richText(c.Cons)
	props["Best outreach target"] = richText(c.OutreachTarget)
	props["Contact"] = richText("")

	return props
}

// updateProperties refreshes an existing page. Status is deliberately absent:
// the board position belongs to the human after creation.
func updateProperties(c repository.ExportCandidate) map[string]any {
	props := map[string]any{
		"Fit score":    map[string]any{"number": c.FitScore},
		"Fit class":    selectProp(c.FitClass),
		"Last checked": dateProp(c.LastChecked),
		"Company":      richText(c.Company),
	}

	if c.LocationRaw != "" {
		props["Location"] = richText(c.LocationRaw)
	}
	if c.WorkplaceRaw != "" {
		props["Workplace"] = selectProp(c.WorkplaceRaw)
	}
	if c.SalaryText != "" {
		props["Salary"] = richText(c.SalaryText)
	}
	if ms := skillsMultiSelect(c.SkillsJSON); ms != nil {
		props["Skills required"] = map[string]any{"multi_select": ms}
	}

	props["Summary"] = richText(c.Summary)
	props["Pros"] = richText(c.Pros)
	props["Cons"] = richText(c.Cons)
	props["Best outreach target"] = richText(c.OutreachTarget)

	return props
}
