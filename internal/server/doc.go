// Package server implements the HTTP API for controlling recordings and
// inspecting service state. It exposes recording start/stop, thread count
// tuning, status/config introspection and Prometheus metrics.
package server
