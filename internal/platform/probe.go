package platform

import (
	"net/http"
	"os"
	"strconv"
)

// Environment variables carrying host markers for EnvProbe.
const (
	EnvMessagingBridge = "JOBMARKET_LIFF_BRIDGE"
	EnvNativeBridge    = "JOBMARKET_NATIVE_BRIDGE"
	EnvNativeOS        = "JOBMARKET_NATIVE_OS"
)

// Request headers carrying host markers for HeaderProbe.
const (
	HeaderMessagingBridge = "X-Liff-Bridge"
	HeaderNativeBridge    = "X-Native-Bridge"
	HeaderNativeOS        = "X-Native-OS"
)

// StaticProbe is a HostProbe with fixed answers.
type StaticProbe struct {
	MessagingBridge bool
	Native          bool
	NativeOS        string
}

// MessagingBridgePresent implements HostProbe.
func (p StaticProbe) MessagingBridgePresent() bool {
	return p.MessagingBridge
}

// NativeBridge implements HostProbe.
func (p StaticProbe) NativeBridge() (string, bool) {
	return p.NativeOS, p.Native
}

// EnvProbe reads host markers from environment variables.
// A marker is present when its variable parses as true.
type EnvProbe struct {
	lookup func(string) (string, bool)
}

// NewEnvProbe creates an EnvProbe over the process environment.
func NewEnvProbe() *EnvProbe {
	return &EnvProbe{lookup: os.LookupEnv}
}

// MessagingBridgePresent implements HostProbe.
func (p *EnvProbe) MessagingBridgePresent() bool {
	return p.flag(EnvMessagingBridge)
}

// NativeBridge implements HostProbe.
func (p *EnvProbe) NativeBridge() (string, bool) {
	if !p.flag(EnvNativeBridge) {
		return "", false
	}
	osName, _ := p.lookup(EnvNativeOS)
	return osName, true
}

func (p *EnvProbe) flag(key string) bool {
	value, ok := p.lookup(key)
	if !ok || value == "" {
		return false
	}
	b, err := strconv.ParseBool(value)
	return err == nil && b
}

// HeaderProbe reads host markers forwarded by a client as request headers.
type HeaderProbe struct {
	header http.Header
}

// NewHeaderProbe creates a HeaderProbe over the headers of r.
func NewHeaderProbe(r *http.Request) *HeaderProbe {
	return &HeaderProbe{header: r.Header}
}

// MessagingBridgePresent implements HostProbe.
func (p *HeaderProbe) MessagingBridgePresent() bool {
	return headerFlag(p.header.Get(HeaderMessagingBridge))
}

// NativeBridge implements HostProbe.
func (p *HeaderProbe) NativeBridge() (string, bool) {
	if !headerFlag(p.header.Get(HeaderNativeBridge)) {
		return "", false
	}
	return p.header.Get(HeaderNativeOS), true
}

func headerFlag(value string) bool {
	b, err := strconv.ParseBool(value)
	return err == nil && b
}
