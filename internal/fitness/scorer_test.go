package fitness

import (
	"encoding/json"
	"strings"
	"testing"
)

const goProfile = `Senior backend engineer. 8 years experience with Go, PostgreSQL,
Kubernetes and Redis. Fluent English and Italian.`

func TestScoreJob_FullSkillMatch(t *testing.T) {
	s := ScoreJob("Backend Engineer", "Build services.", goProfile,
		[]string{"Go", "PostgreSQL", "Kubernetes"})

	if s.Value != 90 {
		t.Fatalf("full overlap should score 90, got %d", s.Value)
	}
	if s.Class != ClassGood {
		t.Fatalf("expected Good, got %s", s.Class)
	}
	if !s.Flags.isEmpty() {
		t.Fatalf("clean score must carry no flags: %+v", s.Flags)
	}
}

func TestScoreJob_NoSkillDataIsNeutral(t *testing.T) {
	s := ScoreJob("Backend Engineer", "Build services.", goProfile, nil)
	if s.Value != 50 {
		t.Fatalf("no skill data should score 50, got %d", s.Value)
	}
	if s.Class != ClassNo {
		t.Fatalf("50 classifies as No, got %s", s.Class)
	}
}

func TestScoreJob_PartialOverlapAndMissingSkills(t *testing.T) {
	s := ScoreJob("Engineer", "x", goProfile, []string{"Go", "Haskell"})

	// 40 + 50*(1/2) = 65.
	if s.Value != 65 {
		t.Fatalf("half overlap should score 65, got %d", s.Value)
	}
	if s.Class != ClassMaybe {
		t.Fatalf("expected Maybe, got %s", s.Class)
	}
	if len(s.Flags.MissingSkills) != 1 || s.Flags.MissingSkills[0] != "Haskell" {
		t.Fatalf("missing skill must be recorded verbatim: %+v", s.Flags.MissingSkills)
	}
}

func TestScoreJob_MissingLanguagePenalty(t *testing.T) {
	job := "We need someone for our Berlin office. Fluent German is required."
	s := ScoreJob("Engineer", job, goProfile, []string{"Go"})

	// 90 - 35 = 55.
	if s.Value != 55 {
		t.Fatalf("missing required language costs 35, got %d", s.Value)
	}
	if len(s.Flags.MissingLanguages) != 1 || s.Flags.MissingLanguages[0] != "german" {
		t.Fatalf("unexpected language flags %+v", s.Flags.MissingLanguages)
	}
}

func TestScoreJob_MentionedLanguageIsNotRequired(t *testing.T) {
	job := "Our team speaks German and English internally."
	s := ScoreJob("Engineer", job, goProfile, []string{"Go"})
	if len(s.Flags.MissingLanguages) != 0 {
		t.Fatalf("a mention without a requirement marker must not penalize: %+v", s.Flags.MissingLanguages)
	}
}

func TestScoreJob_LanguageMarkerBothOrders(t *testing.T) {
	profile := "Go developer. English only."
	for _, job := range []string{
		"Fluent Italian is a plus for this role and required for support duty.",
		"Italian required for customer calls.",
	} {
		s := ScoreJob("Engineer", job, profile, []string{"Go"})
		if len(s.Flags.MissingLanguages) != 1 {
			t.Fatalf("job %q should flag italian: %+v", job, s.Flags.MissingLanguages)
		}
	}
}

func TestScoreJob_SeniorityGapPenalty(t *testing.T) {
	juniorProfile := "Junior developer, 1 year experience with Go."

	s := ScoreJob("Senior Backend Engineer", "x", juniorProfile, []string{"Go"})
	// 90 - 35 for a two-level gap (senior vs junior).
	if s.Value != 55 {
		t.Fatalf("two-level gap costs 35, got %d", s.Value)
	}
	if s.Flags.Seniority == nil || s.Flags.Seniority.Diff != 2 {
		t.Fatalf("unexpected seniority flag %+v", s.Flags.Seniority)
	}

	midProfile := "Developer with 4 years experience in Go."
	s = ScoreJob("Senior Backend Engineer", "x", midProfile, []string{"Go"})
	// 90 - 20 for a one-level gap (senior vs mid).
	if s.Value != 70 {
		t.Fatalf("one-level gap costs 20, got %d", s.Value)
	}
}

func TestScoreJob_OverqualifiedIsNotPenalized(t *testing.T) {
	s := ScoreJob("Junior Engineer", "x", goProfile, []string{"Go"})
	if s.Flags.Seniority != nil {
		t.Fatalf("profile above the role must not be flagged: %+v", s.Flags.Seniority)
	}
}

func TestScoreJob_ClampsAtZero(t *testing.T) {
	profile := "Junior developer. English only."
	job := "Fluent German required. Portuguese required too."
	s := ScoreJob("Principal Staff Engineer", job, profile, []string{"Haskell", "Erlang"})
	if s.Value != 0 {
		t.Fatalf("stacked penalties clamp at 0, got %d", s.Value)
	}
	if s.Class != ClassNo {
		t.Fatalf("expected No, got %s", s.Class)
	}
}

func TestScoreJob_Deterministic(t *testing.T) {
	first := ScoreJob("Engineer", "Fluent German required.", goProfile, []string{"Go", "Rust"})
	for i := 0; i < 10; i++ {
		again := ScoreJob("Engineer", "Fluent German required.", goProfile, []string{"Go", "Rust"})
		if again.Value != first.Value || again.Class != first.Class {
			t.Fatalf("score must be deterministic: %+v vs %+v", first, again)
		}
	}
}

func TestSkillsFromJSON(t *testing.T) {
	skills := SkillsFromJSON([]byte(`{"skills":["Go"," Postgres ","",null]}`))
	if len(skills) != 2 || skills[0] != "Go" || skills[1] != "Postgres" {
		t.Fatalf("unexpected skills %v", skills)
	}
	if SkillsFromJSON(nil) != nil {
		t.Fatalf("nil payload yields no skills")
	}
	if SkillsFromJSON([]byte(`{"skills":"Go"}`)) != nil {
		t.Fatalf("malformed payload yields no skills")
	}
}

func TestPenaltyFlagsMarshalOrNil(t *testing.T) {
	var empty PenaltyFlags
	if empty.MarshalOrNil() != nil {
		t.Fatalf("empty flags marshal to nil")
	}

	flags := PenaltyFlags{MissingSkills: []string{"Rust"}}
	raw := flags.MarshalOrNil()
	if raw == nil {
		t.Fatalf("non-empty flags must marshal")
	}
	var back map[string]any
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("flags must be valid JSON: %v", err)
	}
	if _, ok := back["missing_skills"]; !ok {
		t.Fatalf("missing_skills key absent: %s", raw)
	}
	if strings.Contains(string(raw), "seniority_mismatch") {
		t.Fatalf("unset flags must be omitted: %s", raw)
	}
}

func TestMaxYearsExperience(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"5 years of experience", 5},
		{"3 yrs experience", 3},
		{"10+ years", 10},
		{"no numbers here", -1},
	}
	for _, c := range cases {
		if got := maxYearsExperience(c.in); got != c.want {
			t.Fatalf("maxYearsExperience(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}
