// Package registry holds the trainer definitions known to a single
// application instance and validates that the loaded launch plan is
// consistent with them before anything is executed.
package registry
