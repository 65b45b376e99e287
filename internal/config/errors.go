package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoTarget is returned when the target URL is empty.
	ErrNoTarget = errors.New("no target specified: provide a URL or set target in the config file")

	// ErrInvalidTargetURL is returned when the target is not an absolute http(s) URL.
	ErrInvalidTargetURL = errors.New("invalid target URL: must be an absolute http or https URL")

	// ErrNoLinkText is returned when the link text to search for is empty.
	ErrNoLinkText = errors.New("no link text specified: --link-text must not be empty")

	// ErrNoOutputDir is returned when the output directory is empty.
	ErrNoOutputDir = errors.New("no output directory specified")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 to use the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidResourceRule is returned when a resource rule lacks a tag or attribute.
	ErrInvalidResourceRule = errors.New("invalid resource rule: tag and attribute are required")
)
