// Package exitcode maps command errors to process exit codes.
package exitcode

import (
	stderrors "errors"
	"os"
	"strings"

	"github.com/felixgeelhaar/flowbind/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// InputError indicates an unreadable or invalid process or OpenAPI document
	InputError = 3

	// Unmatched indicates that --fail-on-unmatched found tasks without an endpoint
	Unmatched = 4

	// Rejected indicates the mapping was rejected during interactive review
	Rejected = 5

	// ConfigError indicates an invalid configuration file or environment
	ConfigError = 6

	// Interrupted indicates the command was cancelled by SIGINT or SIGTERM
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	Exit(DetermineExitCode(err))
}

// DetermineExitCode picks the exit code from the error code of a coded error and
// falls back to matching cobra's usage messages
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	var fe *errors.FlowbindError
	if stderrors.As(err, &fe) {
		code := string(fe.Code)
		switch {
		case fe.Code == errors.ErrCodeUnmatchedTasks:
			return Unmatched
		case fe.Code == errors.ErrCodeReviewRejected:
			return Rejected
		case strings.HasPrefix(code, "CONFIG-"):
			return ConfigError
		case strings.HasPrefix(code, "PROCESS-"), strings.HasPrefix(code, "OPENAPI-"), strings.HasPrefix(code, "IO-"):
			return InputError
		}
		return GeneralError
	}

	errMsg := strings.ToLower(err.Error())
	for _, usage := range []string{"unknown flag", "invalid flag", "unknown command", "required flag", "accepts ", "invalid argument"} {
		if strings.Contains(errMsg, usage) {
			return UsageError
		}
	}
	return GeneralError
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags or arguments)"
	case InputError:
		return "Invalid process or OpenAPI input"
	case Unmatched:
		return "Unmatched tasks"
	case Rejected:
		return "Mapping rejected in review"
	case ConfigError:
		return "Invalid configuration"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
