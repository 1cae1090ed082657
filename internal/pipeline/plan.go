package pipeline

import (
	"context"

	"lessonforge/internal/script"
	"lessonforge/internal/services"
	"lessonforge/internal/staleness"
)

type buildPlan struct {
	scenes     []script.Scene
	clips      []staleness.Decision
	cover      staleness.Decision
	fullAudio  staleness.AssetRef
	background *staleness.AssetRef
}

// anyStale reports whether any clip or the cover will be regenerated.
func (p buildPlan) anyStale() bool {
	if p.cover.Stale {
		return true
	}
	for _, d := range p.clips {
		if d.Stale {
			return true
		}
	}
	return false
}

// LessonPlan is a dry-run report: what a build would regenerate and why.
type LessonPlan struct {
	Lesson    string
	Dir       string
	Title     string
	Decisions []staleness.Decision
}

// Stale returns the decisions that would regenerate an asset.
func (p *LessonPlan) Stale() []staleness.Decision {
	var out []staleness.Decision
	for _, d := range p.Decisions {
		if d.Stale {
			out = append(out, d)
		}
	}
	return out
}

// Plan loads the lesson and decides every asset without generating anything
// or taking the lesson lock.
func (o *Orchestrator) Plan(ctx context.Context, lessonDir string) (*LessonPlan, error) {
	dir, err := lessonRoot(lessonDir)
	if err != nil {
		return nil, err
	}
	r := o.newRun(dir)
	path, err := script.Find(dir, o.opts.ScriptNames)
	if err != nil {
		return nil, err
	}
	if r.lesson, err = script.LoadWithKinds(path, o.opts.Kinds); err != nil {
		return nil, err
	}
	plan, err := r.plan(false)
	if err != nil {
		return nil, err
	}

	decisions := append([]staleness.Decision(nil), plan.clips...)
	decisions = append(decisions, plan.cover)
	full, err := r.pendingFullAudio(plan)
	if err != nil {
		return nil, err
	}
	decisions = append(decisions, full)
	return &LessonPlan{
		Lesson:    r.result.Lesson,
		Dir:       dir,
		Title:     r.lesson.Meta().Title,
		Decisions: decisions,
	}, nil
}

// plan stats every output and declared input, then decides clips and cover.
// The background track is checked here too so that every missing input is
// reported in one error, although the full track is decided later.
func (r *run) plan(checkResources bool) (buildPlan, error) {
	opts := r.o.opts
	problems := services.NewProblems("check resources")

	scriptRef, err := staleness.Stat(r.layout.Rel(r.lesson.Path()), r.lesson.Path())
	if err != nil {
		problems.Addf("%v", err)
	}
	var clipInputs []staleness.AssetRef
	clipInputs = append(clipInputs, scriptRef)
	if opts.ReferenceAudio != "" {
		ref, err := staleness.Stat("reference_audio", opts.ReferenceAudio)
		if err != nil {
			problems.Addf("%v", err)
		}
		clipInputs = append(clipInputs, ref)
	}
	coverInputs := []staleness.AssetRef{scriptRef}
	if opts.CoverFont != "" {
		ref, err := staleness.Stat("cover_font", opts.CoverFont)
		if err != nil {
			problems.Addf("%v", err)
		}
		coverInputs = append(coverInputs, ref)
	}

	plan := buildPlan{scenes: r.lesson.NarratedScenes()}
	if len(plan.scenes) == 0 {
		problems.Addf("%s: no narrated scenes", r.layout.Rel(r.lesson.Path()))
	}

	var targets []staleness.Target
	for _, scene := range plan.scenes {
		targets = append(targets, staleness.Target{
			Output: r.statOutput(problems, r.layout.Clip(scene.Index)),
			Inputs: clipInputs,
			Force:  opts.ForceNarration,
		})
	}
	targets = append(targets, staleness.Target{
		Output: r.statOutput(problems, r.layout.Cover()),
		Inputs: coverInputs,
		Force:  opts.ForceCover,
	})

	plan.fullAudio = r.statOutput(problems, r.layout.FullAudio())
	var backgroundInputs []staleness.AssetRef
	if opts.BackgroundPath != "" {
		ref, err := staleness.Stat("background", opts.BackgroundPath)
		if err != nil {
			problems.Addf("%v", err)
		}
		plan.background = &ref
		backgroundInputs = append(backgroundInputs, ref)
	}
	targets = append(targets, staleness.Target{Output: plan.fullAudio, Inputs: backgroundInputs})

	if checkResources && opts.MinFreeMiB > 0 {
		if result := checkFreeSpace("free space", r.layout.Root, opts.MinFreeMiB); !result.Passed {
			problems.Addf("%s", result.Detail)
		}
	}

	decisions, err := staleness.Plan(targets)
	problems.Merge(err)
	if err := problems.Err(); err != nil {
		return buildPlan{}, err
	}

	plan.clips = decisions[:len(plan.scenes)]
	plan.cover = decisions[len(plan.scenes)]
	return plan, nil
}

func (r *run) statOutput(problems *services.Problems, path string) staleness.AssetRef {
	ref, err := staleness.Stat(r.layout.Rel(path), path)
	if err != nil {
		problems.Addf("%v", err)
	}
	return ref
}

// pendingFullAudio predicts the full-track decision for a dry run. A clip
// that will be regenerated counts as a newer input.
func (r *run) pendingFullAudio(plan buildPlan) (staleness.Decision, error) {
	for _, clip := range plan.clips {
		if !clip.Stale {
			continue
		}
		decision := staleness.Decision{Asset: plan.fullAudio, Stale: true}
		if plan.fullAudio.Exists {
			decision.Reason = staleness.OlderThanInput
			decision.NewerInput = clip.Asset.LogicalName
		} else {
			decision.Reason = staleness.MissingOutput
		}
		return decision, nil
	}
	inputs, err := r.fullAudioInputs(plan)
	if err != nil {
		return staleness.Decision{}, err
	}
	return staleness.Decide(plan.fullAudio, inputs, false)
}
