package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"pastmatters/internal/verification/models"
	"pastmatters/internal/verification/ports"
)

type gatheredEvidence struct {
	court       ports.Collection[models.LegalRecord]
	matrimonial ports.Collection[models.ProfileRecord]
	dating      ports.Collection[models.ProfileRecord]
	social      ports.Collection[models.ProfileRecord]
}

// degradedStages lists stages whose source was failing, in plan order.
func (g *gatheredEvidence) degradedStages(photo photoOutcome) []models.Stage {
	var out []models.Stage
	if photo.search.Degraded {
		out = append(out, models.StageReverseImageSearch)
	}
	flags := []struct {
		stage    models.Stage
		degraded bool
	}{
		{models.StageCourtCases, g.court.Degraded},
		{models.StageMatrimonial, g.matrimonial.Degraded},
		{models.StageDating, g.dating.Degraded},
		{models.StageSocial, g.social.Degraded},
	}
	for _, f := range flags {
		if f.degraded {
			out = append(out, f.stage)
		}
	}
	return out
}

// gatherEvidence runs the four evidence stages concurrently. Only progress
// write faults are returned; collectors cannot fail the run.
func (o *Orchestrator) gatherEvidence(ctx context.Context, input models.SubjectInput, name string, tracker *progressTracker) (*gatheredEvidence, error) {
	g, ctx := errgroup.WithContext(ctx)
	ev := &gatheredEvidence{}

	g.Go(func() error {
		return collect(ctx, o, tracker, models.StageCourtCases, o.collectors.Court,
			ports.Query{Name: name, Hint: input.State}, &ev.court)
	})
	g.Go(func() error {
		return collect(ctx, o, tracker, models.StageMatrimonial, o.collectors.Matrimonial,
			ports.Query{Name: name, Hint: input.Email}, &ev.matrimonial)
	})
	g.Go(func() error {
		return collect(ctx, o, tracker, models.StageDating, o.collectors.Dating,
			ports.Query{Name: name, Hint: input.Email}, &ev.dating)
	})
	g.Go(func() error {
		return collect(ctx, o, tracker, models.StageSocial, o.collectors.Social,
			ports.Query{Name: name, Hint: input.Email}, &ev.social)
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ev, nil
}

// collect reports 10 on dispatch and 100 once the collector answers.
func collect[T any](
	ctx context.Context,
	o *Orchestrator,
	tracker *progressTracker,
	stage models.Stage,
	collector ports.Collector[T],
	q ports.Query,
	dst *ports.Collection[T],
) error {
	if err := tracker.set(ctx, stage, 10); err != nil {
		return err
	}

	stageCtx, span := o.tracer.Start(ctx, "verification.stage."+string(stage))
	start := time.Now()
	res := safeFetch(stageCtx, o.logger, stage, collector, q)
	elapsed := time.Since(start)
	span.SetAttributes(
		attribute.Int("evidence.records", len(res.Records)),
		attribute.Bool("evidence.degraded", res.Degraded),
	)
	span.End()

	o.metrics.ObserveStage(string(stage), elapsed)
	o.metrics.ObserveEvidence(string(stage), len(res.Records), res.Degraded)
	o.logger.DebugContext(ctx, "evidence stage finished",
		"stage", stage,
		"records", len(res.Records),
		"degraded", res.Degraded,
		"duration_ms", elapsed.Milliseconds(),
	)

	*dst = res
	return tracker.set(ctx, stage, 100)
}

// safeFetch shields the run from a collector that panics.
func safeFetch[T any](ctx context.Context, logger *slog.Logger, stage models.Stage, collector ports.Collector[T], q ports.Query) (res ports.Collection[T]) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.ErrorContext(ctx, "collector panicked",
				"stage", stage,
				"panic", fmt.Sprint(rec),
			)
			res = ports.Collection[T]{Records: []T{}, Degraded: true}
		}
	}()

	res = collector.Fetch(ctx, q)
	if res.Records == nil {
		res.Records = []T{}
	}
	return res
}
