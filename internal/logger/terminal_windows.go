//go:build windows

package logger

// isTerminal always reports false on Windows; output stays uncolored rather
// than probing the console mode.
func isTerminal(fd uintptr) bool {
	return false
}
