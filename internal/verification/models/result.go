package models

import (
	"slices"
	"time"
)

// RiskCategory buckets the overall score.
type RiskCategory string

const (
	RiskLow      RiskCategory = "low"
	RiskModerate RiskCategory = "moderate"
	RiskHigh     RiskCategory = "high"
	RiskCritical RiskCategory = "critical"
)

// RiskBreakdown holds the three weighted sub-scores.
type RiskBreakdown struct {
	LegalScore          int `json:"legal_score"`
	RelationshipScore   int `json:"relationship_score"`
	SocialBehaviorScore int `json:"social_behavior_score"`
}

// RiskAssessment is the scored, categorised, explained output of scoring.
type RiskAssessment struct {
	OverallScore        int           `json:"overall_score"`
	RiskCategory        RiskCategory  `json:"risk_category"`
	Breakdown           RiskBreakdown `json:"breakdown"`
	ContributingFactors []string      `json:"contributing_factors"`
	ConfidenceLevel     int           `json:"confidence_level"`
}

// TimelineEvent is a relationship-status change flattened out of a profile.
type TimelineEvent struct {
	Date           string `json:"date,omitempty"`
	PreviousStatus string `json:"previous_status"`
	NewStatus      string `json:"new_status"`
	Platform       string `json:"platform"`
}

// SubjectInfo describes who the result is about.
type SubjectInfo struct {
	Name         string         `json:"name"`
	DateOfBirth  string         `json:"dob,omitempty"`
	PhotoMatched bool           `json:"photo_matched"`
	Face         *PhotoFeatures `json:"face,omitempty"`
}

// PhotoSearchSummary counts reverse-search hits.
type PhotoSearchSummary struct {
	TotalMatches          int `json:"total_matches"`
	HighConfidenceMatches int `json:"high_confidence_matches"`
}

// Result is the terminal output of a completed job.
type Result struct {
	Subject        SubjectInfo         `json:"subject"`
	Assessment     RiskAssessment      `json:"risk_score"`
	CourtCases     []LegalRecord       `json:"court_cases"`
	Profiles       []ProfileRecord     `json:"social_profiles"`
	Timeline       []TimelineEvent     `json:"relationship_timeline"`
	PhotoSearch    *PhotoSearchSummary `json:"photo_search,omitempty"`
	DegradedStages []Stage             `json:"degraded_stages,omitempty"`
	GeneratedAt    time.Time           `json:"generated_at"`
}

// Clone deep-copies r.
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	out := *r
	if r.Subject.Face != nil {
		face := *r.Subject.Face
		out.Subject.Face = &face
	}
	out.Assessment.ContributingFactors = slices.Clone(r.Assessment.ContributingFactors)
	out.CourtCases = slices.Clone(r.CourtCases)
	if r.Profiles != nil {
		out.Profiles = make([]ProfileRecord, len(r.Profiles))
		for i, p := range r.Profiles {
			out.Profiles[i] = p.Clone()
		}
	}
	out.Timeline = slices.Clone(r.Timeline)
	if r.PhotoSearch != nil {
		ps := *r.PhotoSearch
		out.PhotoSearch = &ps
	}
	out.DegradedStages = slices.Clone(r.DegradedStages)
	return &out
}
