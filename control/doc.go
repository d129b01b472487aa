// Package control
// Author: momentics <momentics@gmail.com>
//
// Configuration loading, runtime metrics and debug introspection for the
// receive path.
//
// Provides:
//   - YAML loading of protocol.Config with defaults and validation
//   - MetricsRegistry, an api.MetricsSink for receiver counters
//   - DebugProbes, an api.Debug registry for receiver snapshots
package control
