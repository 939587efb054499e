// Package config loads the run configuration: the bracket schedules to
// compare, the revenue range, the comparison settings, the median income
// marker and the output paths.
//
// A bundled default (default.yaml) carries the two schedules the tool was
// built around. Users may supply their own file in YAML (.yaml, .yml,
// .json) or CUE (.cue). CUE files are unified with the embedded schema.cue
// before decoding, so type errors and unknown fields are reported with CUE
// positions.
//
// Schedules are configuration values passed to the report builder; nothing
// in this package is process-wide state.
package config
