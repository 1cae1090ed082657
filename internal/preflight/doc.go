// Package preflight provides readiness checks for the tools, directories and
// input files a lesson build depends on.
//
// These checks run in two contexts:
//   - The pipeline calls CheckFreeSpace before generating so a nearly full disk
//     fails fast instead of midway through an ffmpeg run.
//   - The CLI "lessonforge doctor" command runs RunAll and prints every result.
package preflight
