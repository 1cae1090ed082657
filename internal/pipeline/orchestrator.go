package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"lessonforge/internal/audio"
	"lessonforge/internal/generators"
	"lessonforge/internal/icons"
	"lessonforge/internal/logging"
	"lessonforge/internal/preflight"
	"lessonforge/internal/script"
	"lessonforge/internal/services"
	"lessonforge/internal/staleness"
)

// Orchestrator builds lessons.
type Orchestrator struct {
	opts     Options
	deps     Deps
	logger   *slog.Logger
	newRunID func() string
	now      func() time.Time
}

// Result summarizes one lesson run. It is returned even when the run fails so
// callers can report how far it got.
type Result struct {
	RunID        string
	Lesson       string
	Dir          string
	State        State
	Decisions    []staleness.Decision
	Regenerated  []string
	Icons        []icons.Resolution
	ManifestPath string
	Manifest     *Manifest
	Elapsed      time.Duration
}

// New constructs an orchestrator. Narrator, Cover, Composer and Icons are required.
func New(opts Options, deps Deps, logger *slog.Logger) (*Orchestrator, error) {
	var missing []string
	if deps.Narrator == nil {
		missing = append(missing, "narrator")
	}
	if deps.Cover == nil {
		missing = append(missing, "cover renderer")
	}
	if deps.Composer == nil {
		missing = append(missing, "audio composer")
	}
	if deps.Icons == nil {
		missing = append(missing, "icon resolver")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("pipeline requires %v", missing)
	}
	return &Orchestrator{
		opts:     opts.withDefaults(),
		deps:     deps,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
		newRunID: uuid.NewString,
		now:      time.Now,
	}, nil
}

// Build runs every state for the lesson in lessonDir.
func (o *Orchestrator) Build(ctx context.Context, lessonDir string) (*Result, error) {
	dir, err := lessonRoot(lessonDir)
	if err != nil {
		return nil, err
	}
	r := o.newRun(dir)
	ctx = services.WithRunID(services.WithLesson(ctx, r.result.Lesson), r.result.RunID)

	lock := flock.New(r.layout.Lock())
	locked, err := lock.TryLock()
	if err != nil {
		return r.result, fmt.Errorf("acquire lesson lock: %w", err)
	}
	if !locked {
		return r.result, services.Wrap(services.ErrBusy, "pipeline", "lock",
			fmt.Sprintf("another build holds %s", r.layout.Lock()), nil)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logging.WarnWithContext(logging.WithContext(ctx, o.logger), "failed to release lesson lock", "lock_release_failed",
				logging.String("lock", r.layout.Lock()),
				logging.Error(err),
				logging.String(logging.FieldImpact, "the next build of this lesson may report busy"),
				logging.String(logging.FieldErrorHint, "remove the lock file if no build is running"),
			)
		}
	}()

	r.reapAbandoned(ctx)

	started := o.now()
	runErr := r.execute(ctx)
	r.result.Elapsed = o.now().Sub(started)
	r.finish(ctx, runErr)
	return r.result, runErr
}

type run struct {
	o      *Orchestrator
	layout Layout
	lesson *script.Lesson
	logger *slog.Logger
	result *Result

	journaling       bool
	clipsRegenerated bool
	manifestCleared  bool
	track            *audio.ComposedTrack
}

func (o *Orchestrator) newRun(dir string) *run {
	return &run{
		o:      o,
		layout: Layout{Root: dir, AudioExt: o.opts.AudioExt, ImageExt: o.opts.ImageExt},
		logger: o.logger,
		result: &Result{
			RunID:  o.newRunID(),
			Lesson: filepath.Base(dir),
			Dir:    dir,
		},
	}
}

// reapAbandoned closes journal rows a killed build left running.
func (r *run) reapAbandoned(ctx context.Context) {
	j := r.o.deps.Journal
	if j == nil {
		return
	}
	n, err := j.MarkAbandoned(ctx, r.result.Lesson)
	if err != nil {
		r.journalWarning(ctx, err)
		return
	}
	if n > 0 {
		logging.WithContext(ctx, r.logger).Info("abandoned runs closed",
			logging.String(logging.FieldEventType, "runs_abandoned"),
			logging.Int("runs", int(n)),
		)
	}
}

func (r *run) execute(ctx context.Context) error {
	if err := r.load(ctx); err != nil {
		return err
	}
	plan, err := r.check(ctx)
	if err != nil {
		return err
	}
	if err := r.generate(ctx, plan); err != nil {
		return err
	}
	if err := r.assemble(ctx); err != nil {
		return err
	}
	r.advance(ctx, StateDone)
	return nil
}

func (r *run) load(ctx context.Context) error {
	path, err := script.Find(r.layout.Root, r.o.opts.ScriptNames)
	if err != nil {
		return err
	}
	lesson, err := script.LoadWithKinds(path, r.o.opts.Kinds)
	if err != nil {
		return err
	}
	r.lesson = lesson

	if j := r.o.deps.Journal; j != nil {
		if err := j.Begin(ctx, r.result.RunID, r.result.Lesson, r.layout.Root, string(StateLoaded)); err != nil {
			r.journalWarning(ctx, err)
		} else {
			r.journaling = true
		}
	}
	r.result.State = StateLoaded
	logging.WithContext(ctx, r.logger).Info("lesson loaded",
		logging.String(logging.FieldEventType, "lesson_loaded"),
		logging.String("script", path),
		logging.String("title", lesson.Meta().Title),
		logging.Int("scenes", len(lesson.Scenes())),
		logging.Int("narrated_scenes", len(lesson.NarratedScenes())),
	)
	return nil
}

// check stats every declared input and decides clips and cover. All missing
// inputs and resource problems are reported together.
func (r *run) check(ctx context.Context) (buildPlan, error) {
	plan, err := r.plan(true)
	if err != nil {
		return buildPlan{}, err
	}
	r.advance(ctx, StateResourcesChecked)
	return plan, nil
}

func (r *run) generate(ctx context.Context, plan buildPlan) error {
	r.advance(ctx, StateGenerating)
	if plan.anyStale() {
		if err := r.clearManifest(ctx); err != nil {
			return err
		}
	}

	narrationCtx := services.WithStage(ctx, "narration")
	for i, scene := range plan.scenes {
		decision := plan.clips[i]
		r.recordDecision(narrationCtx, decision)
		if !decision.Stale {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		req := generators.NarrationRequest{
			Scene:     scene.Index,
			Text:      scene.NarrationText,
			Reference: r.o.opts.ReferenceAudio,
			Output:    decision.Asset.Path,
		}
		if err := r.o.deps.Narrator.Narrate(narrationCtx, req); err != nil {
			return err
		}
		r.clipsRegenerated = true
		r.regenerated(decision.Asset.LogicalName)
	}

	coverCtx := services.WithStage(ctx, "cover")
	r.recordDecision(coverCtx, plan.cover)
	if plan.cover.Stale {
		if err := ctx.Err(); err != nil {
			return err
		}
		meta := r.lesson.Meta()
		req := generators.CoverRequest{
			Title:      meta.Title,
			Subtitle:   meta.Subtitle,
			SeriesID:   meta.SeriesID,
			ScriptPath: r.lesson.Path(),
			Output:     plan.cover.Asset.Path,
		}
		if err := r.o.deps.Cover.RenderCover(coverCtx, req); err != nil {
			return err
		}
		r.regenerated(plan.cover.Asset.LogicalName)
	}

	return r.compose(services.WithStage(ctx, "audio"), plan)
}

// compose decides the full track only after narration so that freshly
// written clips count as newer inputs.
func (r *run) compose(ctx context.Context, plan buildPlan) error {
	output, err := staleness.Stat(r.layout.Rel(r.layout.FullAudio()), r.layout.FullAudio())
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "audio", "stat output", "", err)
	}
	inputs, err := r.fullAudioInputs(plan)
	if err != nil {
		return err
	}
	decision, err := staleness.Decide(output, inputs, r.clipsRegenerated)
	if err != nil {
		return err
	}
	r.recordDecision(ctx, decision)
	if !decision.Stale {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.clearManifest(ctx); err != nil {
		return err
	}

	clips := make([]string, 0, len(plan.scenes))
	for _, scene := range plan.scenes {
		clips = append(clips, r.layout.Clip(scene.Index))
	}
	segments := audio.Interleave(clips, r.o.opts.Gap)
	if bg := r.o.opts.BackgroundPath; bg != "" {
		segments = append(segments, audio.Background(bg, r.o.opts.BackgroundVolumeDB, r.o.opts.BackgroundLoop))
	}
	track, err := r.o.deps.Composer.Compose(ctx, segments, output.Path)
	if err != nil {
		return err
	}
	r.track = &track
	r.regenerated(output.LogicalName)
	return nil
}

// clearManifest removes the previous manifest before any asset is rewritten,
// so a run that fails part way never leaves a manifest describing a mix of old
// and new assets.
func (r *run) clearManifest(ctx context.Context) error {
	if r.manifestCleared {
		return nil
	}
	path := r.layout.Manifest()
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return services.Wrap(services.ErrGeneration, "assemble", "remove stale manifest", path, err)
	}
	r.manifestCleared = true
	if err == nil {
		logging.WithContext(ctx, r.logger).Debug("previous manifest removed",
			logging.String("manifest", path),
		)
	}
	return nil
}

func (r *run) fullAudioInputs(plan buildPlan) ([]staleness.AssetRef, error) {
	problems := services.NewProblems("stat audio inputs")
	inputs := make([]staleness.AssetRef, 0, len(plan.scenes)+1)
	for _, scene := range plan.scenes {
		path := r.layout.Clip(scene.Index)
		ref, err := staleness.Stat(r.layout.Rel(path), path)
		if err != nil {
			problems.Addf("%v", err)
			continue
		}
		inputs = append(inputs, ref)
	}
	if plan.background != nil {
		ref, err := staleness.Stat(plan.background.LogicalName, plan.background.Path)
		if err != nil {
			problems.Addf("%v", err)
		} else {
			inputs = append(inputs, ref)
		}
	}
	return inputs, problems.Err()
}

func (r *run) assemble(ctx context.Context) error {
	ctx = services.WithStage(ctx, "assemble")
	logger := logging.WithContext(ctx, r.logger)

	resolutions := r.o.deps.Icons.ResolveAll(ctx, r.lesson.IconNames())
	r.result.Icons = resolutions
	byName := make(map[string]icons.Resolution, len(resolutions))
	for _, res := range resolutions {
		byName[res.Query] = res
	}

	meta := r.lesson.Meta()
	manifest := Manifest{
		Lesson:      r.result.Lesson,
		RunID:       r.result.RunID,
		GeneratedAt: r.o.now().UTC(),
		Title:       meta.Title,
		Subtitle:    meta.Subtitle,
		SeriesID:    meta.SeriesID,
		Script:      r.layout.Rel(r.lesson.Path()),
		Cover:       r.layout.Rel(r.layout.Cover()),
		FullAudio:   r.layout.Rel(r.layout.FullAudio()),
	}
	for _, scene := range r.lesson.Scenes() {
		entry := ManifestScene{Index: scene.Index, Kind: string(scene.Kind)}
		if scene.Narrated {
			clip := r.layout.Clip(scene.Index)
			entry.Clip = r.layout.Rel(clip)
			entry.DurationSeconds = r.measure(ctx, clip)
		}
		for _, name := range scene.Icons {
			if res, ok := byName[name]; ok {
				entry.Icons = append(entry.Icons, manifestIcon(res))
			}
		}
		manifest.Scenes = append(manifest.Scenes, entry)
	}
	if r.track != nil && r.track.Duration > 0 {
		manifest.DurationSeconds = roundSeconds(r.track.Duration.Seconds())
	} else {
		manifest.DurationSeconds = r.measure(ctx, r.layout.FullAudio())
	}

	if err := writeManifest(r.layout.Manifest(), manifest); err != nil {
		return services.Wrap(services.ErrGeneration, "assemble", "manifest", r.layout.Manifest(), err)
	}
	r.result.Manifest = &manifest
	r.result.ManifestPath = r.layout.Manifest()

	placeholders := 0
	for _, res := range resolutions {
		if res.IsPlaceholder() {
			placeholders++
		}
	}
	logger.Info("manifest written",
		logging.String(logging.FieldEventType, "manifest_written"),
		logging.String("manifest", r.layout.Manifest()),
		logging.Int("icons", len(resolutions)),
		logging.Int("icon_placeholders", placeholders),
	)
	r.advance(ctx, StateAssembled)
	return nil
}

// measure returns a duration in seconds for the manifest, or zero when no
// prober is configured or the file cannot be measured.
func (r *run) measure(ctx context.Context, path string) float64 {
	if r.o.deps.Prober == nil {
		return 0
	}
	d, err := r.o.deps.Prober.Duration(ctx, path)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, r.logger), "duration probe failed", "duration_probe_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "manifest omits this duration"),
			logging.String(logging.FieldErrorHint, "check the file with ffprobe"),
		)
		return 0
	}
	return roundSeconds(d.Seconds())
}

func (r *run) advance(ctx context.Context, state State) {
	r.result.State = state
	logging.WithContext(ctx, r.logger).Debug("state changed", logging.String("state", string(state)))
	if !r.journaling {
		return
	}
	if err := r.o.deps.Journal.Transition(ctx, r.result.RunID, string(state)); err != nil {
		r.journalWarning(ctx, err)
	}
}

func (r *run) regenerated(name string) {
	r.result.Regenerated = append(r.result.Regenerated, name)
}

func (r *run) recordDecision(ctx context.Context, decision staleness.Decision) {
	r.result.Decisions = append(r.result.Decisions, decision)
	result := "reuse"
	if decision.Stale {
		result = "regenerate"
	}
	attrs := logging.DecisionAttrs("staleness", result, decision.Reason.String())
	attrs = append(attrs, logging.String("asset", decision.Asset.LogicalName))
	if decision.NewerInput != "" {
		attrs = append(attrs, logging.String("newer_input", decision.NewerInput))
	}
	logging.WithContext(ctx, r.logger).Debug("staleness decided", logging.Args(attrs...)...)
}

func (r *run) finish(ctx context.Context, runErr error) {
	logger := logging.WithContext(ctx, r.logger)
	if r.journaling {
		if err := r.o.deps.Journal.Finish(context.WithoutCancel(ctx), r.result.RunID, r.result.Regenerated, runErr); err != nil {
			r.journalWarning(ctx, err)
		}
	}
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			logger.Info("lesson build canceled", logging.String("state", string(r.result.State)))
			return
		}
		logging.ErrorWithContext(logger, "lesson build failed", "build_failed",
			logging.String("state", string(r.result.State)),
			logging.Error(runErr),
			logging.String(logging.FieldErrorHint, errorHint(runErr)),
		)
		return
	}
	logger.Info("lesson build completed",
		logging.String(logging.FieldEventType, "build_completed"),
		logging.Int("regenerated", len(r.result.Regenerated)),
		logging.Duration("elapsed", r.result.Elapsed.Round(time.Millisecond)),
	)
}

func (r *run) journalWarning(ctx context.Context, err error) {
	logging.WarnWithContext(logging.WithContext(ctx, r.logger), "build journal update failed", "journal_write_failed",
		logging.Error(err),
		logging.String(logging.FieldImpact, "history for this run may be incomplete"),
		logging.String(logging.FieldErrorHint, "check state_dir permissions"),
	)
}

func errorHint(err error) string {
	switch {
	case errors.Is(err, services.ErrConfiguration):
		return "fix every listed path or field, then rebuild"
	case errors.Is(err, services.ErrTimeout):
		return "raise the tool timeout or check the tool is responsive"
	case errors.Is(err, services.ErrGeneration):
		return "run the failing tool by hand with the logged arguments"
	default:
		return "check logs for details"
	}
}

func lessonRoot(lessonDir string) (string, error) {
	abs, err := filepath.Abs(lessonDir)
	if err != nil {
		return "", fmt.Errorf("resolve lesson directory: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		problems := services.NewProblems("open lesson")
		problems.Addf("%s: lesson directory not found", abs)
		return "", problems.Err()
	}
	return abs, nil
}

// checkFreeSpace is a variable so tests can simulate a full disk.
var checkFreeSpace = preflight.CheckFreeSpace
