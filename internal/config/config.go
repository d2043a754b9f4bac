package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete service configuration
type Config struct {
	Audio         AudioConfig         `yaml:"audio"`
	Recording     RecordingConfig     `yaml:"recording"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	HTTP          HTTPConfig          `yaml:"http"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// AudioConfig contains capture parameters
type AudioConfig struct {
	SampleRate      int `yaml:"sample_rate"`
	Channels        int `yaml:"channels"`
	BitDepth        int `yaml:"bit_depth"`
	FramesPerBuffer int `yaml:"frames_per_buffer"`
	BufferSeconds   int `yaml:"buffer_seconds"`    // rolling buffer length
	ChunkDurationMs int `yaml:"chunk_duration_ms"` // transcription chunk length
}

// RecordingConfig contains recording output configuration
type RecordingConfig struct {
	OutputDir      string `yaml:"output_dir"`
	TranscriptPath string `yaml:"transcript_path"`
}

// TranscriptionConfig contains whisper model configuration
type TranscriptionConfig struct {
	ModelPath      string `yaml:"model_path"`
	Threads        int    `yaml:"threads"`
	PollIntervalMs int    `yaml:"poll_interval_ms"`
	Language       string `yaml:"language"`
	Translate      bool   `yaml:"translate"`
}

// HTTPConfig contains HTTP API server configuration
type HTTPConfig struct {
	Port    int    `yaml:"port"`
	Address string `yaml:"address"`
	Enabled bool   `yaml:"enabled"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}

	if err := c.Recording.Validate(); err != nil {
		return fmt.Errorf("recording config: %w", err)
	}

	if err := c.Transcription.Validate(); err != nil {
		return fmt.Errorf("transcription config: %w", err)
	}

	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates audio configuration
func (a *AudioConfig) Validate() error {
	if a.SampleRate != 16000 {
		return fmt.Errorf("sample_rate must be 16000 Hz for whisper, got %d", a.SampleRate)
	}

	if a.Channels != 1 {
		return fmt.Errorf("channels must be 1 (mono), got %d", a.Channels)
	}

	if a.BitDepth != 16 {
		return fmt.Errorf("bit_depth must be 16, got %d", a.BitDepth)
	}

	if a.FramesPerBuffer < 64 || a.FramesPerBuffer > 16384 {
		return fmt.Errorf("frames_per_buffer must be between 64 and 16384, got %d", a.FramesPerBuffer)
	}

	if a.BufferSeconds < 1 {
		return fmt.Errorf("buffer_seconds must be at least 1, got %d", a.BufferSeconds)
	}

	if a.ChunkDurationMs < 100 {
		return fmt.Errorf("chunk_duration_ms must be at least 100, got %d", a.ChunkDurationMs)
	}

	if a.ChunkDurationMs > a.BufferSeconds*1000 {
		return fmt.Errorf("chunk_duration_ms (%d) cannot exceed buffer_seconds (%d s)",
			a.ChunkDurationMs, a.BufferSeconds)
	}

	return nil
}

// Validate validates recording configuration
func (r *RecordingConfig) Validate() error {
	if r.OutputDir == "" {
		return fmt.Errorf("output_dir cannot be empty")
	}

	if r.TranscriptPath == "" {
		return fmt.Errorf("transcript_path cannot be empty")
	}

	return nil
}

// Validate validates transcription configuration
func (t *TranscriptionConfig) Validate() error {
	if t.ModelPath == "" {
		return fmt.Errorf("model_path cannot be empty")
	}

	if t.Threads < 1 {
		return fmt.Errorf("threads must be at least 1, got %d", t.Threads)
	}

	if t.PollIntervalMs < 10 {
		return fmt.Errorf("poll_interval_ms must be at least 10, got %d", t.PollIntervalMs)
	}

	if t.Language == "" {
		return fmt.Errorf("language cannot be empty (use 'auto' for detection)")
	}

	return nil
}

// Validate validates HTTP configuration
func (h *HTTPConfig) Validate() error {
	if h.Enabled {
		if h.Port < 1 || h.Port > 65535 {
			return fmt.Errorf("http port must be between 1 and 65535, got %d", h.Port)
		}

		if h.Address == "" {
			return fmt.Errorf("http address cannot be empty when HTTP is enabled")
		}
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}

// GetBufferDuration returns the rolling buffer length as a time.Duration
func (a *AudioConfig) GetBufferDuration() time.Duration {
	return time.Duration(a.BufferSeconds) * time.Second
}

// GetChunkDuration returns the chunk length as a time.Duration
func (a *AudioConfig) GetChunkDuration() time.Duration {
	return time.Duration(a.ChunkDurationMs) * time.Millisecond
}

// GetPollInterval returns the worker poll interval as a time.Duration
func (t *TranscriptionConfig) GetPollInterval() time.Duration {
	return time.Duration(t.PollIntervalMs) * time.Millisecond
}
