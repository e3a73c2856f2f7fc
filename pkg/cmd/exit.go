package cmd

import "github.com/sharky-compress/sharky/pkg/types"

// Exit codes returned by the sharky binary.
const (
	ExitOK               = 0
	ExitFailure          = 1
	ExitInvalidParameter = 2
	ExitIO               = 3
	ExitCorruptArchive   = 4
)

// ExitCode maps an error returned by the root command to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case types.IsInvalidParameter(err):
		return ExitInvalidParameter
	case types.IsIO(err):
		return ExitIO
	case types.IsCorrupt(err):
		return ExitCorruptArchive
	}
	return ExitFailure
}
