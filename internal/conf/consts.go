// conf/consts.go hard coded constants
package conf

const (
	// DefaultSampleRate is the sample rate used when a source does not report one.
	DefaultSampleRate = 48000
	// DefaultChannels is the channel count used when a source does not report one.
	DefaultChannels = 2
	// DefaultFrameSize is the frame length, in samples per channel, that the
	// acquisition daemon assembles irregular device chunks into.
	DefaultFrameSize = 4096
)
