package pipeline

import "fmt"

// Stage identifies one discrete transformation within the pipeline.
type Stage string

const (
	StageTranscode Stage = "transcode"
	StageThumbnail Stage = "thumbnail"
	StageHLS       Stage = "hls"
)

// DiagnosticsLimit bounds the toolchain error text carried on failures.
// The full stream is logged at error level; only this prefix travels with
// the job result.
const DiagnosticsLimit = 500

// TruncateDiagnostics bounds raw toolchain output to DiagnosticsLimit bytes.
func TruncateDiagnostics(s string) string {
	if len(s) <= DiagnosticsLimit {
		return s
	}
	return s[:DiagnosticsLimit]
}

// ToolchainError is returned by Invoker implementations when the external
// toolchain exits non-zero or cannot be started. Diagnostics holds the
// truncated error stream.
type ToolchainError struct {
	Diagnostics string
}

func (e *ToolchainError) Error() string {
	return fmt.Sprintf("toolchain invocation failed: %s", e.Diagnostics)
}

// StageError is a mandatory-stage failure: the job ends and the asset is
// marked failed.
type StageError struct {
	Stage       Stage
	Diagnostics string
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %s", e.Stage, e.Diagnostics)
}
