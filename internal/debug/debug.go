//go:build memkit_debug

package debug

// Enabled is true when the memkit_debug build tag is set.
const Enabled = true
