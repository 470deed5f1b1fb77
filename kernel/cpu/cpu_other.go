//go:build !arm64

package cpu

// Native returns the Hardware implementation for the current platform. There
// is none on this platform; callers must inject their own.
func Native() Hardware {
	return Unsupported{}
}
