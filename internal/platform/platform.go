// Package platform detects which host the app shell runs in and derives the features that host offers.
package platform

import (
	"fmt"
	"strings"
)

// Variant represents the runtime environment a session is executing in.
type Variant string

const (
	// VariantMessagingClient is the LINE mini-app (LIFF) embedded in the messaging client
	VariantMessagingClient Variant = "embedded-messaging-client"
	// VariantNativeIOS is the native wrapper running on iOS
	VariantNativeIOS Variant = "native-ios"
	// VariantNativeAndroid is the native wrapper running on Android
	VariantNativeAndroid Variant = "native-android"
	// VariantWeb is a plain browser, and the fallback when no bridge is present
	VariantWeb Variant = "web"
)

// Variants returns every variant in detection precedence order.
func Variants() []Variant {
	return []Variant{VariantMessagingClient, VariantNativeIOS, VariantNativeAndroid, VariantWeb}
}

// Native reports whether v runs inside the native wrapper.
func (v Variant) Native() bool {
	return v == VariantNativeIOS || v == VariantNativeAndroid
}

// String implements fmt.Stringer.
func (v Variant) String() string {
	return string(v)
}

// ParseVariant converts a string into a Variant.
func ParseVariant(s string) (Variant, error) {
	v := Variant(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Variants() {
		if v == known {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown platform variant %q", s)
}
