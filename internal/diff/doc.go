// Package diff splits multi-file unified diffs into per-file changes and
// maps new-side line numbers to diff positions.
//
// Segmentation feeds the review pipeline: each "diff --git" header starts a
// new unit, and the unit's text travels to the model as-is. Position mapping
// feeds inline pull request comments, where a comment is anchored by its
// 1-indexed offset from the first @@ hunk header rather than by file line.
package diff
