// Command lessonforge builds the media assets for lesson videos: narration
// clips, a cover image, the composed narration track and a manifest of
// resolved icons. Only stale assets are regenerated.
//
// Usage:
//
//	lessonforge build lesson-01 lesson-02
//	lessonforge build --all --force-cover
//	lessonforge plan --all
//	lessonforge icons resolve coin "money bag"
//	lessonforge watch lesson-01
//	lessonforge history --limit 10
//	lessonforge doctor
package main
