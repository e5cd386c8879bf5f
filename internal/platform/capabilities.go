package platform

import (
	"fmt"
	"strings"
)

// Capability names a single host feature.
type Capability string

const (
	// CapabilityCamera is photo capture for profile pictures and documents
	CapabilityCamera Capability = "camera"
	// CapabilityPushNotifications is OS-level push delivery
	CapabilityPushNotifications Capability = "push-notifications"
	// CapabilityStatusBar is control over the device status bar
	CapabilityStatusBar Capability = "status-bar"
)

// Capabilities is the fixed record of feature availability for a variant.
type Capabilities struct {
	SupportsCamera            bool `json:"supportsCamera"`
	SupportsPushNotifications bool `json:"supportsPushNotifications"`
	SupportsStatusBar         bool `json:"supportsStatusBar"`
}

// Resolve derives the capability set of a variant.
// Unknown variants get the web capabilities.
func Resolve(v Variant) Capabilities {
	switch v {
	case VariantNativeIOS, VariantNativeAndroid:
		return Capabilities{
			SupportsCamera:            true,
			SupportsPushNotifications: true,
			SupportsStatusBar:         true,
		}
	case VariantMessagingClient:
		return Capabilities{SupportsCamera: true}
	default:
		return Capabilities{}
	}
}

// Has reports whether c includes capability.
func (c Capabilities) Has(capability Capability) bool {
	switch capability {
	case CapabilityCamera:
		return c.SupportsCamera
	case CapabilityPushNotifications:
		return c.SupportsPushNotifications
	case CapabilityStatusBar:
		return c.SupportsStatusBar
	default:
		return false
	}
}

// Without returns c with the given capabilities disabled.
// Called with no arguments it disables everything.
func (c Capabilities) Without(caps ...Capability) Capabilities {
	if len(caps) == 0 {
		return Capabilities{}
	}
	for _, capability := range caps {
		switch capability {
		case CapabilityCamera:
			c.SupportsCamera = false
		case CapabilityPushNotifications:
			c.SupportsPushNotifications = false
		case CapabilityStatusBar:
			c.SupportsStatusBar = false
		}
	}
	return c
}

// List returns the enabled capabilities in a stable order.
func (c Capabilities) List() []Capability {
	var out []Capability
	for _, capability := range []Capability{CapabilityCamera, CapabilityPushNotifications, CapabilityStatusBar} {
		if c.Has(capability) {
			out = append(out, capability)
		}
	}
	return out
}

// String renders the enabled capabilities, e.g. "camera,status-bar" or "none".
func (c Capabilities) String() string {
	caps := c.List()
	if len(caps) == 0 {
		return "none"
	}
	names := make([]string, len(caps))
	for i, capability := range caps {
		names[i] = string(capability)
	}
	return strings.Join(names, ",")
}

// BridgeUnavailableError indicates a platform bridge is missing or malfunctioning.
// Capabilities lists the features that depend on it; empty means all of them.
type BridgeUnavailableError struct {
	Variant      Variant
	Capabilities []Capability
	Cause        error
}

func (e *BridgeUnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s bridge unavailable: %v", e.Variant, e.Cause)
	}
	return fmt.Sprintf("%s bridge unavailable", e.Variant)
}

func (e *BridgeUnavailableError) Unwrap() error {
	return e.Cause
}
