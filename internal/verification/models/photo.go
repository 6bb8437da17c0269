package models

// HighConfidenceThreshold marks a reverse-search candidate as a strong match.
const HighConfidenceThreshold = 85

// PhotoFeatures is the extractor's view of an uploaded image.
type PhotoFeatures struct {
	FaceDetected bool   `json:"face_detected"`
	FaceCount    int    `json:"face_count"`
	Fingerprint  string `json:"fingerprint"`
}

// SocialCandidate is a social-media profile whose photos resemble the upload.
type SocialCandidate struct {
	Platform        string `json:"platform"`
	ProfileURL      string `json:"profile_url"`
	ProfileName     string `json:"profile_name"`
	MatchConfidence int    `json:"match_confidence"`
	PhotoCount      int    `json:"photo_count,omitempty"`
	LastUpdated     string `json:"last_updated,omitempty"`
}

// DatingCandidate is a dating-app profile whose photos resemble the upload.
type DatingCandidate struct {
	Platform        string `json:"platform"`
	ProfileURL      string `json:"profile_url"`
	MatchConfidence int    `json:"match_confidence"`
	ProfileActive   bool   `json:"profile_active"`
	PhotoMatches    int    `json:"photo_matches,omitempty"`
	AccountAgeDays  int    `json:"account_age_days,omitempty"`
}

// WebMatch is a general web image hit.
type WebMatch struct {
	Source          string `json:"source"`
	URL             string `json:"url"`
	Title           string `json:"title,omitempty"`
	MatchConfidence int    `json:"match_confidence"`
}

// ReverseSearchResult aggregates every sub-source of a photo search.
// Degraded is set when any sub-source failed.
type ReverseSearchResult struct {
	Web      []WebMatch        `json:"google_images"`
	Social   []SocialCandidate `json:"social_media"`
	Dating   []DatingCandidate `json:"dating_apps"`
	Degraded bool              `json:"-"`
}

// TotalMatches counts hits across all sub-sources.
func (r ReverseSearchResult) TotalMatches() int {
	return len(r.Web) + len(r.Social) + len(r.Dating)
}

// HighConfidenceMatches counts social and dating candidates at or above
// HighConfidenceThreshold.
func (r ReverseSearchResult) HighConfidenceMatches() int {
	n := 0
	for _, c := range r.Social {
		if c.MatchConfidence >= HighConfidenceThreshold {
			n++
		}
	}
	for _, c := range r.Dating {
		if c.MatchConfidence >= HighConfidenceThreshold {
			n++
		}
	}
	return n
}
