package platform

import (
	"strings"
	"sync"
)

// Reported operating systems of the native wrapper bridge.
const (
	OSiOS     = "ios"
	OSAndroid = "android"
)

// HostProbe reads the bridge markers a host injects into the shell.
// Implementations must be read-only.
type HostProbe interface {
	// MessagingBridgePresent reports whether the messaging-platform bridge is injected.
	MessagingBridgePresent() bool
	// NativeBridge reports the OS of the native wrapper bridge and whether it is injected.
	NativeBridge() (os string, present bool)
}

// Detector classifies the host once and caches the answer for its lifetime.
type Detector struct {
	probe   HostProbe
	once    sync.Once
	variant Variant
}

// NewDetector creates a Detector that queries probe on the first call to Detect.
// A nil probe always resolves to VariantWeb.
func NewDetector(probe HostProbe) *Detector {
	return &Detector{probe: probe}
}

// Detect returns the platform variant. The probe is queried at most once.
func (d *Detector) Detect() Variant {
	d.once.Do(func() {
		d.variant = Classify(d.probe)
	})
	return d.variant
}

// Classify applies the detection precedence to probe without caching.
// The first matching marker wins: messaging bridge, then native bridge, then web.
func Classify(probe HostProbe) Variant {
	if probe == nil {
		return VariantWeb
	}

	if probe.MessagingBridgePresent() {
		return VariantMessagingClient
	}

	if os, ok := probe.NativeBridge(); ok {
		switch strings.ToLower(strings.TrimSpace(os)) {
		case OSiOS:
			return VariantNativeIOS
		case OSAndroid:
			return VariantNativeAndroid
		}
	}

	return VariantWeb
}
