// Package cli parses the launcher's command-line arguments into an
// app.Config, validating them before the application starts.
package cli
