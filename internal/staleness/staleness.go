// Package staleness decides which derived assets must be regenerated.
//
// The only cache key is filesystem modification time: an output is stale when
// it is missing, when any declared input is strictly newer, or when the caller
// forces a rebuild. Decisions are pure and safe to recompute at any time.
package staleness

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"lessonforge/internal/services"
)

// AssetRef describes one source or derived artifact. Exists implies ModTime is set.
type AssetRef struct {
	LogicalName string
	Path        string
	Exists      bool
	ModTime     time.Time
}

// Stat captures the current filesystem state of path. A missing file is not an
// error; it yields a ref with Exists false.
func Stat(logicalName, path string) (AssetRef, error) {
	ref := AssetRef{LogicalName: logicalName, Path: path}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ref, nil
		}
		return ref, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return ref, fmt.Errorf("stat %s: is a directory", path)
	}
	ref.Exists = true
	ref.ModTime = info.ModTime()
	return ref, nil
}

// Reason explains a decision.
type Reason int

const (
	// Fresh means the output exists and no input is newer.
	Fresh Reason = iota
	// ForcedRebuild means the caller asked for regeneration.
	ForcedRebuild
	// MissingOutput means the output does not exist.
	MissingOutput
	// OlderThanInput means at least one input is newer than the output.
	OlderThanInput
)

func (r Reason) String() string {
	switch r {
	case Fresh:
		return "fresh"
	case ForcedRebuild:
		return "forced_rebuild"
	case MissingOutput:
		return "missing_output"
	case OlderThanInput:
		return "older_than_input"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// Decision is the verdict for one output.
type Decision struct {
	Asset  AssetRef
	Stale  bool
	Reason Reason
	// NewerInput names the first input found newer than the output when
	// Reason is OlderThanInput.
	NewerInput string
}

// Decide computes whether output must be regenerated from inputs. Every
// declared input must exist; missing inputs are reported together as a
// configuration error.
func Decide(output AssetRef, inputs []AssetRef, force bool) (Decision, error) {
	problems := services.NewProblems("staleness " + output.LogicalName)
	collectMissing(problems, output, inputs)
	if err := problems.Err(); err != nil {
		return Decision{Asset: output}, err
	}
	return decide(output, inputs, force), nil
}

func decide(output AssetRef, inputs []AssetRef, force bool) Decision {
	decision := Decision{Asset: output}
	switch {
	case force:
		decision.Stale = true
		decision.Reason = ForcedRebuild
	case !output.Exists:
		decision.Stale = true
		decision.Reason = MissingOutput
	default:
		for _, input := range inputs {
			if input.ModTime.After(output.ModTime) {
				decision.Stale = true
				decision.Reason = OlderThanInput
				decision.NewerInput = input.LogicalName
				break
			}
		}
	}
	return decision
}

func collectMissing(problems *services.Problems, output AssetRef, inputs []AssetRef) {
	for _, input := range inputs {
		if !input.Exists {
			problems.Addf("%s: input %s not found at %s", output.LogicalName, input.LogicalName, input.Path)
		}
	}
}

// Target pairs an output with the inputs it is derived from.
type Target struct {
	Output AssetRef
	Inputs []AssetRef
	Force  bool
}

// Plan decides every target in order. Missing inputs across all targets are
// gathered into a single configuration error so they can be fixed in one pass.
func Plan(targets []Target) ([]Decision, error) {
	problems := services.NewProblems("staleness plan")
	for _, target := range targets {
		collectMissing(problems, target.Output, target.Inputs)
	}
	if err := problems.Err(); err != nil {
		return nil, err
	}
	decisions := make([]Decision, 0, len(targets))
	for _, target := range targets {
		decisions = append(decisions, decide(target.Output, target.Inputs, target.Force))
	}
	return decisions, nil
}
