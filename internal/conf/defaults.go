// conf/defaults.go default values for settings
package conf

import "github.com/spf13/viper"

// setDefaultConfig sets default values for every configuration key before
// the config file is read, so a fresh install works without a config.yaml.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "photoacoustic-node")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "logs/application.log")
	viper.SetDefault("main.log.rotation", string(RotationDaily))
	viper.SetDefault("main.log.maxsize", int64(10*1024*1024))

	viper.SetDefault("sentry.enabled", false)
	viper.SetDefault("sentry.dsn", "")
	viper.SetDefault("sentry.samplerate", 1.0)

	// Acquisition configuration
	viper.SetDefault("acquisition.source", "mock")
	viper.SetDefault("acquisition.samplerate", DefaultSampleRate)
	viper.SetDefault("acquisition.channels", DefaultChannels)
	viper.SetDefault("acquisition.framesize", DefaultFrameSize)
	viper.SetDefault("acquisition.chunkdurationms", 100)
	viper.SetDefault("acquisition.overlapms", 0)
	viper.SetDefault("acquisition.mic.devicename", "")
	viper.SetDefault("acquisition.mic.gain", 1.0)
	viper.SetDefault("acquisition.file.path", "")
	viper.SetDefault("acquisition.file.loop", false)

	// Processing configuration
	viper.SetDefault("processing.graphconfigpath", "graph.yaml")
	viper.SetDefault("processing.hotreloadenabled", true)
	viper.SetDefault("processing.statsrefreshframes", 100)
	viper.SetDefault("processing.maxconsumerlagframes", 64)

	// Action dispatch configuration
	viper.SetDefault("action.debouncewindow", "5s")
	viper.SetDefault("action.mqtt.enabled", false)
	viper.SetDefault("action.mqtt.broker", "tcp://localhost:1883")
	viper.SetDefault("action.mqtt.topic", "photoacoustic/alerts")
	viper.SetDefault("action.mqtt.username", "")
	viper.SetDefault("action.mqtt.password", "")

	// Metrics configuration
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.namespace", "photoacoustic")
}
