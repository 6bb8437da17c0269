package models

import (
	"slices"
	"strings"
)

// SourceKind tags which collector produced a record.
type SourceKind string

const (
	SourceLegal       SourceKind = "legal"
	SourceMatrimonial SourceKind = "matrimonial"
	SourceDating      SourceKind = "dating"
	SourceSocial      SourceKind = "social"
	SourcePhotoMatch  SourceKind = "photo-match"
)

// Record is implemented by every evidence variant.
type Record interface {
	Kind() SourceKind
	SourceName() string
}

// CaseType is the category of a legal case.
type CaseType string

const (
	CaseCivil            CaseType = "Civil"
	CaseCriminal         CaseType = "Criminal"
	CaseMatrimonial      CaseType = "Matrimonial"
	CasePropertyDispute  CaseType = "Property Dispute"
	CaseDomesticViolence CaseType = "Domestic Violence"
)

var caseTypes = map[string]CaseType{
	"civil":             CaseCivil,
	"criminal":          CaseCriminal,
	"matrimonial":       CaseMatrimonial,
	"property dispute":  CasePropertyDispute,
	"domestic violence": CaseDomesticViolence,
}

// ParseCaseType normalises upstream spellings ("domestic-violence",
// "DOMESTIC_VIOLENCE"). Unknown values are kept verbatim.
func ParseCaseType(raw string) CaseType {
	if ct, ok := caseTypes[normaliseEnum(raw)]; ok {
		return ct
	}
	return CaseType(strings.TrimSpace(raw))
}

// IsSerious reports criminal or domestic-violence cases.
func (c CaseType) IsSerious() bool {
	return c == CaseCriminal || c == CaseDomesticViolence
}

func (c *CaseType) UnmarshalText(b []byte) error {
	*c = ParseCaseType(string(b))
	return nil
}

// FilingStatus is the procedural state of a legal case.
type FilingStatus string

const (
	FilingPending          FilingStatus = "Pending"
	FilingDisposed         FilingStatus = "Disposed"
	FilingUnderTrial       FilingStatus = "Under Trial"
	FilingJudgmentReserved FilingStatus = "Judgment Reserved"
)

var filingStatuses = map[string]FilingStatus{
	"pending":           FilingPending,
	"disposed":          FilingDisposed,
	"under trial":       FilingUnderTrial,
	"judgment reserved": FilingJudgmentReserved,
}

// ParseFilingStatus normalises upstream spellings. Unknown values are kept
// verbatim.
func ParseFilingStatus(raw string) FilingStatus {
	if fs, ok := filingStatuses[normaliseEnum(raw)]; ok {
		return fs
	}
	return FilingStatus(strings.TrimSpace(raw))
}

// IsPending compares case-insensitively.
func (s FilingStatus) IsPending() bool {
	return strings.EqualFold(strings.TrimSpace(string(s)), string(FilingPending))
}

func (s *FilingStatus) UnmarshalText(b []byte) error {
	*s = ParseFilingStatus(string(b))
	return nil
}

func normaliseEnum(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	return strings.NewReplacer("-", " ", "_", " ").Replace(s)
}

// DefaultSeverity applies when a source omits the severity score.
const DefaultSeverity = 5

// LegalRecord is one court case naming the subject.
type LegalRecord struct {
	CaseNumber string       `json:"case_number"`
	CaseType   CaseType     `json:"case_type"`
	FilingDate string       `json:"filing_date,omitempty"`
	Status     FilingStatus `json:"status"`
	CourtName  string       `json:"court_name"`
	State      string       `json:"state,omitempty"`
	Severity   int          `json:"severity_score"`
	Summary    string       `json:"summary,omitempty"`
}

func (r LegalRecord) Kind() SourceKind   { return SourceLegal }
func (r LegalRecord) SourceName() string { return r.CourtName }

// EffectiveSeverity is Severity clamped to [1,10], with a missing score
// treated as DefaultSeverity.
func (r LegalRecord) EffectiveSeverity() int {
	if r.Severity == 0 {
		return DefaultSeverity
	}
	return min(max(r.Severity, 1), 10)
}

// StatusChange is one relationship-status transition on a profile.
type StatusChange struct {
	Date           string `json:"date,omitempty"`
	PreviousStatus string `json:"previous_status"`
	NewStatus      string `json:"new_status"`
}

// ActivityPattern carries the metrics a source reports for a profile.
// Fields a source does not report stay zero.
type ActivityPattern struct {
	LastActive      string `json:"last_active,omitempty"`
	ProfileChanges  int    `json:"profile_changes,omitempty"`
	ProfileViews    int    `json:"profile_views,omitempty"`
	ResponsesSent   int    `json:"responses_sent,omitempty"`
	PostsPerMonth   int    `json:"posts_per_month,omitempty"`
	FriendCount     *int   `json:"friend_count,omitempty"`
	AccountAgeDays  int    `json:"account_age_days,omitempty"`
	PhotoCount      int    `json:"photo_count,omitempty"`
	PhotoMatches    int    `json:"photo_matches,omitempty"`
	MatchConfidence int    `json:"match_confidence,omitempty"`
	ProfileActive   *bool  `json:"profile_active,omitempty"`
}

// ProfileRecord is a matrimonial, dating, social or photo-matched profile.
type ProfileRecord struct {
	SourceKind      SourceKind      `json:"source_kind"`
	Platform        string          `json:"platform"`
	ProfileURL      string          `json:"profile_url"`
	CreatedDate     string          `json:"created_date,omitempty"`
	StatusHistory   []StatusChange  `json:"relationship_status_history"`
	Activity        ActivityPattern `json:"activity_pattern"`
	PhotoMatched    bool            `json:"photo_matched,omitempty"`
	MatchConfidence *int            `json:"photo_match_confidence,omitempty"`
}

func (r ProfileRecord) Kind() SourceKind   { return r.SourceKind }
func (r ProfileRecord) SourceName() string { return r.Platform }

// Clone copies the slices and pointers of r.
func (r ProfileRecord) Clone() ProfileRecord {
	out := r
	out.StatusHistory = slices.Clone(r.StatusHistory)
	if r.Activity.FriendCount != nil {
		v := *r.Activity.FriendCount
		out.Activity.FriendCount = &v
	}
	if r.Activity.ProfileActive != nil {
		v := *r.Activity.ProfileActive
		out.Activity.ProfileActive = &v
	}
	if r.MatchConfidence != nil {
		v := *r.MatchConfidence
		out.MatchConfidence = &v
	}
	return out
}
