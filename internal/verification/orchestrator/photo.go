package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pastmatters/internal/verification/models"
	"pastmatters/pkg/domain"
)

// UnknownSubject is the working name when a photo-only search finds no
// social-media candidate.
const UnknownSubject = "Unknown"

type photoOutcome struct {
	features    *models.PhotoFeatures
	search      models.ReverseSearchResult
	searched    bool
	workingName string
}

// runPhotoStages analyses the photo and, for photo-only jobs, derives the
// working name from reverse search before any evidence stage starts.
func (o *Orchestrator) runPhotoStages(ctx context.Context, job *models.Job, tracker *progressTracker) (photoOutcome, error) {
	out := photoOutcome{workingName: job.Input.Name}
	if !job.Input.HasPhoto() {
		return out, nil
	}
	photo := *job.Input.Photo

	if err := tracker.set(ctx, models.StagePhotoAnalysis, 10); err != nil {
		return out, err
	}
	stageCtx, span := o.tracer.Start(ctx, "verification.stage.photo_analysis")
	start := time.Now()
	out.features = o.analyze(stageCtx, job, photo)
	span.End()
	o.metrics.ObserveStage(string(models.StagePhotoAnalysis), time.Since(start))
	if out.features == nil {
		o.logger.InfoContext(ctx, "no face detected in photo", "job_id", job.ID)
	}
	if err := tracker.set(ctx, models.StagePhotoAnalysis, 100); err != nil {
		return out, err
	}

	if !job.Input.IsPhotoOnly() {
		return out, nil
	}

	if err := tracker.set(ctx, models.StageReverseImageSearch, 10); err != nil {
		return out, err
	}
	stageCtx, span = o.tracer.Start(ctx, "verification.stage.reverse_image_search")
	start = time.Now()
	out.search = o.reverseSearch(stageCtx, job, photo)
	out.searched = true
	span.End()
	o.metrics.ObserveStage(string(models.StageReverseImageSearch), time.Since(start))
	out.workingName = workingName(out.search)
	o.logger.InfoContext(ctx, "reverse image search finished",
		"job_id", job.ID,
		"total_matches", out.search.TotalMatches(),
		"working_name_derived", out.workingName != UnknownSubject,
	)
	if err := tracker.set(ctx, models.StageReverseImageSearch, 100); err != nil {
		return out, err
	}
	return out, nil
}

func (o *Orchestrator) analyze(ctx context.Context, job *models.Job, photo domain.PhotoID) (features *models.PhotoFeatures) {
	defer func() {
		if rec := recover(); rec != nil {
			o.logger.ErrorContext(ctx, "photo analysis panicked", "job_id", job.ID, "panic", fmt.Sprint(rec))
			features = nil
		}
	}()
	return o.extractor.Analyze(ctx, photo)
}

func (o *Orchestrator) reverseSearch(ctx context.Context, job *models.Job, photo domain.PhotoID) (res models.ReverseSearchResult) {
	defer func() {
		if rec := recover(); rec != nil {
			o.logger.ErrorContext(ctx, "reverse image search panicked", "job_id", job.ID, "panic", fmt.Sprint(rec))
			res = models.ReverseSearchResult{Degraded: true}
		}
	}()
	return o.search.Search(ctx, photo)
}

// workingName takes the profile name of the first social candidate.
func workingName(search models.ReverseSearchResult) string {
	if len(search.Social) > 0 {
		if name := strings.TrimSpace(search.Social[0].ProfileName); name != "" {
			return name
		}
	}
	return UnknownSubject
}

// photoMatchRecords converts reverse-search candidates into synthetic
// profile records: social matches first, then dating matches.
func photoMatchRecords(search models.ReverseSearchResult) []models.ProfileRecord {
	out := make([]models.ProfileRecord, 0, len(search.Social)+len(search.Dating))
	for _, c := range search.Social {
		conf := clampConfidence(c.MatchConfidence)
		out = append(out, models.ProfileRecord{
			SourceKind:    models.SourcePhotoMatch,
			Platform:      c.Platform,
			ProfileURL:    c.ProfileURL,
			StatusHistory: []models.StatusChange{},
			Activity: models.ActivityPattern{
				LastActive:      c.LastUpdated,
				PhotoCount:      c.PhotoCount,
				MatchConfidence: conf,
			},
			PhotoMatched:    true,
			MatchConfidence: &conf,
		})
	}
	for _, c := range search.Dating {
		conf := clampConfidence(c.MatchConfidence)
		active := c.ProfileActive
		out = append(out, models.ProfileRecord{
			SourceKind:    models.SourcePhotoMatch,
			Platform:      c.Platform,
			ProfileURL:    c.ProfileURL,
			StatusHistory: []models.StatusChange{},
			Activity: models.ActivityPattern{
				AccountAgeDays:  c.AccountAgeDays,
				PhotoMatches:    c.PhotoMatches,
				MatchConfidence: conf,
				ProfileActive:   &active,
			},
			PhotoMatched:    true,
			MatchConfidence: &conf,
		})
	}
	return out
}

// mergeProfiles concatenates matrimonial, dating and social results, then
// the photo matches, regardless of which collector finished first.
func mergeProfiles(ev *gatheredEvidence, matches []models.ProfileRecord) []models.ProfileRecord {
	total := len(ev.matrimonial.Records) + len(ev.dating.Records) + len(ev.social.Records) + len(matches)
	out := make([]models.ProfileRecord, 0, total)
	out = append(out, ev.matrimonial.Records...)
	out = append(out, ev.dating.Records...)
	out = append(out, ev.social.Records...)
	out = append(out, matches...)
	return out
}

func clampConfidence(v int) int {
	return min(max(v, 0), 100)
}
