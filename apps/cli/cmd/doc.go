// Package cmd implements the storm-bringer CLI commands using Cobra.
//
// Available commands:
//   - request: Send one request through the rest client
//   - init: Write a default .storm-bringer.yaml
//   - version: Show version information
//
// klog flags (-v, --logtostderr, ...) are registered on the root command;
// -v=4 traces every request the client sends.
package cmd
