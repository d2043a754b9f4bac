// Package config provides configuration loading and validation for the
// microphone transcription service. It handles YAML-based configuration with
// per-section struct validation.
package config
