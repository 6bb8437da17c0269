package risk

import (
	"fmt"

	"pastmatters/internal/verification/models"
	pstrings "pastmatters/pkg/platform/strings"
)

// Sub-score weights, in percent.
const (
	weightLegal          = 40
	weightRelationship   = 35
	weightSocialBehavior = 25
)

const limitedInformationFactor = "Limited public information available"

// legalScore accumulates severity and case-type points per record.
func legalScore(cases []models.LegalRecord) int {
	score := 0
	for _, c := range cases {
		score += c.EffectiveSeverity() * 2
		if c.Status.IsPending() {
			score += 3
		}
		switch {
		case c.CaseType.IsSerious():
			score += 10
		case c.CaseType == models.CaseMatrimonial:
			score += 5
		}
	}
	return clampScore(score)
}

// relationshipScore penalises frequent status changes and parallel
// matrimonial or dating presence.
func relationshipScore(profiles []models.ProfileRecord, catalog *Catalog) int {
	if len(profiles) == 0 {
		return 0
	}
	score := 0
	if changes := totalStatusChanges(profiles); changes > 3 {
		score += (changes - 3) * 5
	}
	if countMatrimonial(profiles, catalog) > 1 {
		score += 10
	}
	if countDating(profiles, catalog) > 2 {
		score += 15
	}
	return clampScore(score)
}

// socialBehaviorScore penalises wide platform spread and frequently edited
// profiles.
func socialBehaviorScore(profiles []models.ProfileRecord) int {
	if len(profiles) == 0 {
		return 0
	}
	score := 0
	if distinctPlatforms(profiles) > 5 {
		score += 10
	}
	for _, p := range profiles {
		if p.Activity.ProfileChanges > 6 {
			score += 5
		}
	}
	return clampScore(score)
}

// overallScore is the rounded weighted sum, computed in integers so halves
// always round up.
func overallScore(b models.RiskBreakdown) int {
	weighted := weightLegal*b.LegalScore +
		weightRelationship*b.RelationshipScore +
		weightSocialBehavior*b.SocialBehaviorScore
	return clampScore((weighted + 50) / 100)
}

// categorise maps an overall score to its bucket; bounds are inclusive on
// the lower bucket.
func categorise(score int) models.RiskCategory {
	switch {
	case score <= 15:
		return models.RiskLow
	case score <= 35:
		return models.RiskModerate
	case score <= 60:
		return models.RiskHigh
	default:
		return models.RiskCritical
	}
}

// confidence grows with evidence volume.
func confidence(evidenceCount int) int {
	switch {
	case evidenceCount >= 5:
		return 85
	case evidenceCount >= 3:
		return 70
	case evidenceCount >= 1:
		return 50
	default:
		return 30
	}
}

// contributingFactors explains the score in a fixed order.
func contributingFactors(cases []models.LegalRecord, profiles []models.ProfileRecord, catalog *Catalog) []string {
	var factors []string

	pending, serious := 0, 0
	for _, c := range cases {
		if c.Status.IsPending() {
			pending++
		}
		if c.CaseType.IsSerious() {
			serious++
		}
	}
	if pending > 0 {
		factors = append(factors, fmt.Sprintf("%d pending court case(s)", pending))
	}
	if serious > 0 {
		factors = append(factors, fmt.Sprintf("%d serious criminal/domestic violence case(s)", serious))
	}
	if changes := totalStatusChanges(profiles); changes > 3 {
		factors = append(factors, fmt.Sprintf("Multiple relationship status changes (%d recorded)", changes))
	}
	if n := countMatrimonial(profiles, catalog); n > 1 {
		factors = append(factors, fmt.Sprintf("Active on %d matrimonial platforms", n))
	}
	if n := len(profiles); n > 5 {
		factors = append(factors, fmt.Sprintf("Presence on %d different platforms", n))
	}

	if len(factors) == 0 {
		return []string{limitedInformationFactor}
	}
	return factors
}

func totalStatusChanges(profiles []models.ProfileRecord) int {
	n := 0
	for _, p := range profiles {
		n += len(p.StatusHistory)
	}
	return n
}

func countMatrimonial(profiles []models.ProfileRecord, catalog *Catalog) int {
	n := 0
	for _, p := range profiles {
		if catalog.IsMatrimonial(p.Platform) {
			n++
		}
	}
	return n
}

func countDating(profiles []models.ProfileRecord, catalog *Catalog) int {
	n := 0
	for _, p := range profiles {
		if catalog.IsDating(p.Platform) {
			n++
		}
	}
	return n
}

func distinctPlatforms(profiles []models.ProfileRecord) int {
	names := make([]string, len(profiles))
	for i, p := range profiles {
		names[i] = p.Platform
	}
	return pstrings.CountDistinctFold(names)
}

func clampScore(v int) int {
	return min(max(v, 0), 100)
}
