package engines

import "errors"

// ErrDataUnavailable means no historical rows exist for a window the caller
// expected to be populated. It is fatal for the request and never replaced by
// a silent zero-fill.
var ErrDataUnavailable = errors.New("no historical sales data for requested window")

// ErrInvalidScenario means the scenario is structurally unusable (inverted
// date range, empty department or channel list) and was rejected before any
// computation. Business-rule failures are not errors; they come back as a
// ValidationReport.
var ErrInvalidScenario = errors.New("invalid scenario")
