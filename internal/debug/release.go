//go:build !memkit_debug

// Package debug switches the expensive precondition checks of the container
// packages. Build with -tags memkit_debug to enable them.
package debug

// Enabled is true when the memkit_debug build tag is set.
const Enabled = false
