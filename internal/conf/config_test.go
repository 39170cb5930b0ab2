package conf_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sctg-development/photoacoustic-go/internal/conf"
)

func validSettings() *conf.Settings {
	s := &conf.Settings{}
	s.Acquisition.SampleRate = 48000
	s.Acquisition.Channels = 2
	s.Acquisition.FrameSize = 4096
	s.Acquisition.ChunkDurationMs = 100
	s.Acquisition.OverlapMs = 0
	s.Acquisition.Source = "mock"
	s.Processing.StatsRefreshFrames = 100
	s.Processing.MaxConsumerLagFrames = 64
	return s
}

func TestValidateSettings_Valid(t *testing.T) {
	assert.NoError(t, conf.ValidateSettings(validSettings()))
}

func TestValidateSettings_SampleRateOutOfRange(t *testing.T) {
	s := validSettings()
	s.Acquisition.SampleRate = 1000
	err := conf.ValidateSettings(s)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "samplerate")
}

func TestValidateSettings_OverlapMustBeSmallerThanChunk(t *testing.T) {
	s := validSettings()
	s.Acquisition.OverlapMs = s.Acquisition.ChunkDurationMs
	err := conf.ValidateSettings(s)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "overlapms")
}

func TestValidateSettings_FileSourceRequiresPath(t *testing.T) {
	s := validSettings()
	s.Acquisition.Source = "file"
	err := conf.ValidateSettings(s)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "file.path")
}

func TestValidateSettings_UnknownSource(t *testing.T) {
	s := validSettings()
	s.Acquisition.Source = "bogus"
	err := conf.ValidateSettings(s)
	assert.Error(t, err)
}
