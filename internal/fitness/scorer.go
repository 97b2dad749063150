// Package fitness computes deterministic relevance scores for (job, profile)
// pairs and keeps them fresh against the job and profile staleness keys.
package fitness

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	ClassGood  = "Good"
	ClassMaybe = "Maybe"
	ClassNo    = "No"
)

// PenaltyFlags records why points were taken off; empty flags marshal to nil
// so a clean score stores no diagnostics.
type PenaltyFlags struct {
	MissingSkills    []string           `json:"missing_skills,omitempty"`
	MissingLanguages []string           `json:"missing_required_languages,omitempty"`
	Seniority        *SeniorityMismatch `json:"seniority_mismatch,omitempty"`
}

type SeniorityMismatch struct {
	Job     string `json:"job"`
	Profile string `json:"profile"`
	Diff    int    `json:"diff"`
}

func (p PenaltyFlags) isEmpty() bool {
	return len(p.MissingSkills) == 0 && len(p.MissingLanguages) == 0 && p.Seniority == nil
}

// MarshalOrNil returns the JSON form, or nil when there is nothing to record.
func (p PenaltyFlags) MarshalOrNil() []byte {
	if p.isEmpty() {
		return nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil
	}
	return b
}

type Score struct {
	Value int
	Class string
	Flags PenaltyFlags
}

var langAliases = map[string][]string{
	"english":    {"english", "inglese"},
	"italian":    {"italian", "italiano"},
	"french":     {"french", "français", "francese"},
	"german":     {"german", "deutsch", "tedesco"},
	"spanish":    {"spanish", "español", "spagnolo"},
	"portuguese": {"portuguese", "português", "portoghese"},
}

const languageMarkers = "required|must|mandatory|fluent|native|needed"

var levelOrder = map[string]int{
	"unknown": 0,
	"junior":  1,
	"mid":     2,
	"senior":  3,
}

var (
	wsRe = regexp.MustCompile(`\s+`)

	yearsPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(\d{1,2})\s*\+?\s*(?:years?|yrs?)\s+(?:of\s+)?experience\b`),
		regexp.MustCompile(`\b(\d{1,2})\s*\+?\s*(?:years?|yrs?)\s+experience\b`),
		regexp.MustCompile(`\b(\d{1,2})\s*\+?\s*(?:years?|yrs?)\b`),
	}

	seniorWords = []string{"principal", "staff", "lead", "senior"}
	juniorWords = []string{"junior", "entry", "graduate", "intern"}
)

func norm(text string) string {
	return wsRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(text)), " ")
}

// SkillsFromJSON pulls the skill list out of the enrichment payload shape
// {"skills": ["Go", "Postgres", ...]}. Anything malformed yields no skills.
func SkillsFromJSON(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var payload struct {
		Skills []string `json:"skills"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil
	}
	out := make([]string, 0, len(payload.Skills))
	for _, s := range payload.Skills {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func profileLanguages(profileBlob string) map[string]bool {
	out := map[string]bool{}
	for canon, aliases := range langAliases {
		for _, a := range aliases {
			if strings.Contains(profileBlob, a) {
				out[canon] = true
				break
			}
		}
	}
	return out
}

// requiredLanguages detects languages the job text explicitly demands. Both
// "fluent italian" and "italian is required" word orders count; a language
// merely mentioned does not.
func requiredLanguages(jobBlob string) map[string]bool {
	out := map[string]bool{}
	for canon, aliases := range langAliases {
		for _, alias := range aliases {
			if !strings.Contains(jobBlob, alias) {
				continue
			}
			p1 := regexp.MustCompile(fmt.Sprintf(`\b(?:%s)\b[^\n]{0,50}\b%s\b`, languageMarkers, regexp.QuoteMeta(alias)))
			p2 := regexp.MustCompile(fmt.Sprintf(`\b%s\b[^\n]{0,50}\b(?:%s)\b`, regexp.QuoteMeta(alias), languageMarkers))
			if p1.MatchString(jobBlob) || p2.MatchString(jobBlob) {
				out[canon] = true
				break
			}
		}
	}
	return out
}

// maxYearsExperience pulls a rough years-of-experience signal from free text,
// -1 when nothing matches.
func maxYearsExperience(blob string) int {
	for _, pat := range yearsPatterns {
		if m := pat.FindStringSubmatch(blob); m != nil {
			v, err := strconv.Atoi(m[1])
			if err != nil {
				return -1
			}
			return v
		}
	}
	return -1
}

func containsAny(blob string, words []string) bool {
	for _, w := range words {
		if strings.Contains(blob, w) {
			return true
		}
	}
	return false
}

func inferProfileSeniority(profileBlob string) string {
	if containsAny(profileBlob, seniorWords) {
		return "senior"
	}
	if containsAny(profileBlob, juniorWords) {
		return "junior"
	}
	years := maxYearsExperience(profileBlob)
	switch {
	case years < 0:
		return "unknown"
	case years <= 2:
		return "junior"
	case years <= 5:
		return "mid"
	default:
		return "senior"
	}
}

func inferJobSeniority(title, jobBlob string) string {
	blob := norm(title + " " + jobBlob)
	if containsAny(blob, seniorWords) {
		return "senior"
	}
	if containsAny(blob, juniorWords) {
		return "junior"
	}
	return "unknown"
}

// ScoreJob rates how well the profile text matches one posting. The primary
// signal is the overlap between enrichment skills and the profile; a missing
// required language costs 35 points, a seniority gap 20 or 35. Same inputs
// always yield the same score.
func ScoreJob(title, jobRawText, profileText string, skills []string) Score {
	profileBlob := norm(profileText)
	jobBlob := norm(jobRawText)

	normSkills := make([]string, 0, len(skills))
	for _, s := range skills {
		if n := norm(s); n != "" {
			normSkills = append(normSkills, n)
		}
	}

	hits := 0
	for _, s := range normSkills {
		if strings.Contains(profileBlob, s) {
			hits++
		}
	}
	total := len(normSkills)

	// Full skill coverage lands at 90; no skill data sits at a neutral 50.
	score := 50
	if total > 0 {
		ratio := float64(hits) / float64(total)
		score = int(40 + 50*ratio + 0.5)
	}

	var flags PenaltyFlags

	if total > 0 && hits < total {
		for _, s := range skills {
			if n := norm(s); n != "" && !strings.Contains(profileBlob, n) {
				flags.MissingSkills = append(flags.MissingSkills, s)
			}
		}
	}

	required := requiredLanguages(jobBlob)
	known := profileLanguages(profileBlob)
	var missingLangs []string
	for lang := range required {
		if !known[lang] {
			missingLangs = append(missingLangs, lang)
		}
	}
	if len(missingLangs) > 0 {
		sort.Strings(missingLangs)
		flags.MissingLanguages = missingLangs
		score -= 35
	}

	jobLevel := inferJobSeniority(title, jobBlob)
	profileLevel := inferProfileSeniority(profileBlob)
	jobV, profV := levelOrder[jobLevel], levelOrder[profileLevel]
	if jobV > 0 && profV > 0 && jobV > profV {
		diff := jobV - profV
		flags.Seniority = &SeniorityMismatch{Job: jobLevel, Profile: profileLevel, Diff: diff}
		if diff == 1 {
			score -= 20
		} else {
			score -= 35
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	class := ClassNo
	switch {
	case score >= 75:
		class = ClassGood
	case score >= 60:
		class = ClassMaybe
	}

	return Score{Value: score, Class: class, Flags: flags}
}
