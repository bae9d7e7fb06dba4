package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode string `mapstructure:"mode"`
	Port int    `mapstructure:"port"`

	AudioFile string `mapstructure:"audio_file"`

	// Codec profile constants. FrameSize is empirical for the configured
	// bitrate/sample-rate combination, not a general MP3 property.
	FrameSize    int `mapstructure:"frame_size"`
	FrameSamples int `mapstructure:"frame_samples"`
	SampleRate   int `mapstructure:"sample_rate"`

	UpgradeLimit  int           `mapstructure:"upgrade_limit"`
	UpgradeWindow time.Duration `mapstructure:"upgrade_window"`

	Secret string `mapstructure:"secret"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8888)
	v.SetDefault("audio_file", "audio/10_mono.mp3")
	v.SetDefault("frame_size", 549)
	v.SetDefault("frame_samples", 1152)
	v.SetDefault("sample_rate", 8000)
	v.SetDefault("upgrade_limit", 20)
	v.SetDefault("upgrade_window", "1m")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
