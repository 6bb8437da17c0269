// Package risk turns collected evidence into a weighted, explained risk
// assessment. Everything here is pure: no I/O and no clock.
package risk

import "pastmatters/internal/verification/models"

// Scorer computes risk assessments against a platform catalog.
type Scorer struct {
	catalog *Catalog
}

// NewScorer creates a scorer. A nil catalog uses DefaultCatalog.
func NewScorer(catalog *Catalog) *Scorer {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Scorer{catalog: catalog}
}

// Score assesses legal records together with the combined profile list.
// Identical input, including order, always yields an identical assessment.
func (s *Scorer) Score(cases []models.LegalRecord, profiles []models.ProfileRecord) models.RiskAssessment {
	breakdown := models.RiskBreakdown{
		LegalScore:          legalScore(cases),
		RelationshipScore:   relationshipScore(profiles, s.catalog),
		SocialBehaviorScore: socialBehaviorScore(profiles),
	}
	overall := overallScore(breakdown)

	return models.RiskAssessment{
		OverallScore:        overall,
		RiskCategory:        categorise(overall),
		Breakdown:           breakdown,
		ContributingFactors: contributingFactors(cases, profiles, s.catalog),
		ConfidenceLevel:     confidence(len(cases) + len(profiles)),
	}
}
