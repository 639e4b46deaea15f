// Package runtime answers one question: is this process itself running
// inside a container?
//
// The supervisor must never launch a nested copy of the service from within
// the service's own container, so the answer short-circuits auto-start.
// Detection is a pure probe with no side effects.
package runtime

import "os"

// EnvInContainer is an explicit override. The service image sets it so
// detection works even on runtimes that do not create marker files.
const EnvInContainer = "AGENT_ZERO_IN_CONTAINER"

// defaultMarkerPaths are the filesystem markers checked for container
// detection. Docker creates /.dockerenv in every container; podman and
// other OCI runtimes create /run/.containerenv.
var defaultMarkerPaths = []string{
	"/.dockerenv",
	"/run/.containerenv",
}

// Detector reports whether the current process runs inside a container.
// The zero value is not usable; use NewDetector.
type Detector struct {
	markerPaths []string
}

// NewDetector returns a Detector probing the standard marker paths.
func NewDetector() *Detector {
	return &Detector{markerPaths: defaultMarkerPaths}
}

// NewDetectorWithMarkers returns a Detector probing the given paths instead
// of the standard ones. Used by tests to simulate the in-container case.
func NewDetectorWithMarkers(paths []string) *Detector {
	return &Detector{markerPaths: paths}
}

// InContainer reports whether a recognized container marker is present:
// either the AGENT_ZERO_IN_CONTAINER environment variable is set to a
// non-empty value, or one of the marker files exists.
func (d *Detector) InContainer() bool {
	if os.Getenv(EnvInContainer) != "" {
		return true
	}
	for _, path := range d.markerPaths {
		if _, err := os.Stat(path); err == nil {
			return true
		}
	}
	return false
}

// InContainer is a convenience wrapper using the standard markers.
func InContainer() bool {
	return NewDetector().InContainer()
}
