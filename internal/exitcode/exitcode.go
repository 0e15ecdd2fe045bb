// Package exitcode defines exit codes for the CLI.
package exitcode

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, unknown task reference).
	UserError = 1

	// ConfigError indicates invalid configuration or missing credentials.
	ConfigError = 2

	// BackendError indicates the remote refused or never received a change,
	// which was rolled back.
	BackendError = 3
)
