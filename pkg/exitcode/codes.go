// Package exitcode defines the exit codes remerge reports to CI.
package exitcode

const (
	// Success indicates every conflict was resolved, or none were found.
	Success = 0

	// ManualReview indicates one or more files need human resolution.
	ManualReview = 1

	// InternalError indicates a failure unrelated to conflict content:
	// I/O errors, report persistence failures, or running outside a
	// git repository.
	InternalError = 2
)
