// conf/validate.go
package conf

import (
	"fmt"
	"strings"
)

// ValidationError collects every validation failure found in a Settings
// tree, so a misconfigured install reports everything wrong at once instead
// of one field at a time.
type ValidationError struct {
	Errors []string
}

func (ve ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", strings.Join(ve.Errors, "; "))
}

// ValidateSettings validates the entire Settings struct, mirroring the
// sample-rate/channel/chunk-duration bounds spec.md §7 requires a
// ConfigError for.
func ValidateSettings(s *Settings) error {
	ve := ValidationError{}

	if s.Acquisition.SampleRate < 8000 || s.Acquisition.SampleRate > 192000 {
		ve.Errors = append(ve.Errors, fmt.Sprintf("acquisition.samplerate %d out of range [8000, 192000]", s.Acquisition.SampleRate))
	}
	if s.Acquisition.Channels < 1 || s.Acquisition.Channels > 8 {
		ve.Errors = append(ve.Errors, fmt.Sprintf("acquisition.channels %d out of range [1, 8]", s.Acquisition.Channels))
	}
	if s.Acquisition.FrameSize <= 0 {
		ve.Errors = append(ve.Errors, "acquisition.framesize must be positive")
	}
	if s.Acquisition.ChunkDurationMs <= 0 || s.Acquisition.ChunkDurationMs > 30000 {
		ve.Errors = append(ve.Errors, fmt.Sprintf("acquisition.chunkdurationms %d out of range (0, 30000]", s.Acquisition.ChunkDurationMs))
	}
	if s.Acquisition.OverlapMs < 0 || s.Acquisition.OverlapMs >= s.Acquisition.ChunkDurationMs {
		ve.Errors = append(ve.Errors, "acquisition.overlapms must be non-negative and smaller than chunkdurationms")
	}

	switch s.Acquisition.Source {
	case "mic", "file", "mock":
	default:
		ve.Errors = append(ve.Errors, fmt.Sprintf("acquisition.source %q must be one of mic, file, mock", s.Acquisition.Source))
	}
	if s.Acquisition.Source == "file" && s.Acquisition.File.Path == "" {
		ve.Errors = append(ve.Errors, "acquisition.file.path is required when acquisition.source is file")
	}

	if s.Processing.StatsRefreshFrames <= 0 {
		ve.Errors = append(ve.Errors, "processing.statsrefreshframes must be positive")
	}
	if s.Processing.MaxConsumerLagFrames <= 0 {
		ve.Errors = append(ve.Errors, "processing.maxconsumerlagframes must be positive")
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}
