package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pastmatters/pkg/domain"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to Status
		allowed  bool
	}{
		{StatusQueued, StatusProcessing, true},
		{StatusQueued, StatusCompleted, false},
		{StatusQueued, StatusFailed, false},
		{StatusProcessing, StatusCompleted, true},
		{StatusProcessing, StatusFailed, true},
		{StatusProcessing, StatusQueued, false},
		{StatusCompleted, StatusFailed, false},
		{StatusFailed, StatusProcessing, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}

	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
	assert.False(t, StatusProcessing.IsTerminal())
	assert.False(t, Status("paused").IsValid())
}

func TestNewProgressSkipsPhotoStages(t *testing.T) {
	photo := domain.NewPhotoID()

	t.Run("name only pre-completes both photo stages", func(t *testing.T) {
		p := NewProgress(SubjectInput{Name: "Asha Rao", DateOfBirth: "1990-01-02"})
		assert.Equal(t, 100, p.Stages[StagePhotoAnalysis])
		assert.Equal(t, 100, p.Stages[StageReverseImageSearch])
		assert.Len(t, p.Stages, len(AllStages))
		assert.Equal(t, 200/7, p.Overall)
	})

	t.Run("name and photo runs analysis but not reverse search", func(t *testing.T) {
		p := NewProgress(SubjectInput{Name: "Asha Rao", DateOfBirth: "1990-01-02", Photo: &photo})
		assert.Equal(t, 0, p.Stages[StagePhotoAnalysis])
		assert.Equal(t, 100, p.Stages[StageReverseImageSearch])
	})

	t.Run("photo only runs both", func(t *testing.T) {
		p := NewProgress(SubjectInput{Photo: &photo})
		assert.Equal(t, 0, p.Stages[StagePhotoAnalysis])
		assert.Equal(t, 0, p.Stages[StageReverseImageSearch])
		assert.Equal(t, 0, p.Overall)
	})
}

func TestProgressOverallIsFloorMean(t *testing.T) {
	p := Progress{}
	p.Set("a", 10)
	assert.Equal(t, 10, p.Overall)
	p.Set("b", 15)
	assert.Equal(t, 12, p.Overall)
	p.Set("c", 100)
	assert.Equal(t, 41, p.Overall)

	p.Set("c", 250)
	assert.Equal(t, 100, p.Stages["c"], "values clamp to 100")
	p.Set("a", -5)
	assert.Equal(t, 0, p.Stages["a"], "values clamp to 0")
	assert.Equal(t, (0+15+100)/3, p.Overall)
}

func TestProgressCloneIsIndependent(t *testing.T) {
	p := NewProgress(SubjectInput{Name: "x", DateOfBirth: "2000-01-01"})
	c := p.Clone()
	c.Set(StageCourtCases, 100)
	assert.Equal(t, 0, p.Stages[StageCourtCases])
	assert.NotEqual(t, p.Overall, c.Overall)
}

func TestJobUpdateApply(t *testing.T) {
	job := NewJob(SubjectInput{Name: "x", DateOfBirth: "2000-01-01"}, time.Now())

	assert.True(t, JobUpdate{}.IsEmpty())

	status := StatusFailed
	msg := "job store unavailable"
	JobUpdate{Status: &status, Error: &msg}.Apply(job)

	assert.Equal(t, StatusFailed, job.Status)
	require.NotNil(t, job.Error)
	assert.Equal(t, msg, *job.Error)
	assert.Nil(t, job.Result)
	assert.Nil(t, job.CompletedAt)
}

func TestJobCloneDoesNotAlias(t *testing.T) {
	job := NewJob(SubjectInput{Name: "x", DateOfBirth: "2000-01-01"}, time.Now())
	job.Result = &Result{
		Profiles: []ProfileRecord{{Platform: "Shaadi", StatusHistory: []StatusChange{{Date: "2023-01-01"}}}},
	}

	c := job.Clone()
	c.Result.Profiles[0].StatusHistory[0].Date = "1999-01-01"
	c.Progress.Set(StageSocial, 100)

	assert.Equal(t, "2023-01-01", job.Result.Profiles[0].StatusHistory[0].Date)
	assert.Equal(t, 0, job.Progress.Stages[StageSocial])
}

func TestCaseTypeParsing(t *testing.T) {
	assert.Equal(t, CaseDomesticViolence, ParseCaseType("domestic-violence"))
	assert.Equal(t, CaseDomesticViolence, ParseCaseType("DOMESTIC_VIOLENCE"))
	assert.Equal(t, CasePropertyDispute, ParseCaseType(" property dispute "))
	assert.Equal(t, CaseType("Tax"), ParseCaseType("Tax"))
	assert.True(t, CaseCriminal.IsSerious())
	assert.False(t, CaseMatrimonial.IsSerious())

	assert.True(t, ParseFilingStatus("PENDING").IsPending())
	assert.True(t, FilingStatus("pending").IsPending())
	assert.Equal(t, FilingUnderTrial, ParseFilingStatus("under-trial"))
}

func TestLegalRecordDecodesLooseEnums(t *testing.T) {
	var rec LegalRecord
	require.NoError(t, json.Unmarshal([]byte(`{"case_type":"criminal","status":"pending","severity_score":0}`), &rec))

	assert.Equal(t, CaseCriminal, rec.CaseType)
	assert.Equal(t, FilingPending, rec.Status)
	assert.Equal(t, DefaultSeverity, rec.EffectiveSeverity())
}

func TestEffectiveSeverityClamps(t *testing.T) {
	assert.Equal(t, 10, LegalRecord{Severity: 42}.EffectiveSeverity())
	assert.Equal(t, 1, LegalRecord{Severity: -3}.EffectiveSeverity())
	assert.Equal(t, 7, LegalRecord{Severity: 7}.EffectiveSeverity())
}

func TestReverseSearchCounts(t *testing.T) {
	r := ReverseSearchResult{
		Web:    []WebMatch{{MatchConfidence: 99}},
		Social: []SocialCandidate{{MatchConfidence: 85}, {MatchConfidence: 84}},
		Dating: []DatingCandidate{{MatchConfidence: 90}},
	}
	assert.Equal(t, 4, r.TotalMatches())
	assert.Equal(t, 2, r.HighConfidenceMatches(), "web hits are not counted as high confidence")
}
