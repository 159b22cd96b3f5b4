// Package component defines lifecycle-managed parts of an application and a
// registry that starts them in order and stops them in reverse.
//
// The authenticated HTTP client and the telemetry exporters implement
// Component so a command can bring them up and tear them down together.
package component
