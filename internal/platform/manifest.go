package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/jonathan/jobmarket/internal/schemas"
	"go.uber.org/zap"
)

// Native wrapper plugin names that back each capability.
const (
	PluginCamera            = "Camera"
	PluginPushNotifications = "PushNotifications"
	PluginStatusBar         = "StatusBar"
)

// HostMarkers is the manifest a host writes next to the shell describing injected bridges.
type HostMarkers struct {
	Liff         *LiffMarker   `json:"liff,omitempty"`
	NativeBridge *NativeMarker `json:"nativeBridge,omitempty"`
}

// LiffMarker describes the LINE mini-app bridge.
type LiffMarker struct {
	Version  string `json:"version,omitempty"`
	InClient bool   `json:"inClient"`
}

// NativeMarker describes the native wrapper bridge.
type NativeMarker struct {
	Platform string   `json:"platform"`
	Plugins  []string `json:"plugins,omitempty"`
}

// ReadHostMarkers reads and validates a manifest file.
func ReadHostMarkers(path string) (*HostMarkers, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read host markers %s: %w", path, err)
	}

	if err := schemas.ValidateHostMarkers(data); err != nil {
		return nil, err
	}

	var markers HostMarkers
	if err := json.Unmarshal(data, &markers); err != nil {
		return nil, fmt.Errorf("failed to parse host markers: %w", err)
	}
	return &markers, nil
}

// FileProbe is a HostProbe backed by a host-marker manifest on disk.
// A missing or invalid manifest reads as "no markers".
type FileProbe struct {
	path   string
	logger *zap.Logger

	once    sync.Once
	markers *HostMarkers
	err     error
}

// NewFileProbe creates a FileProbe for path. The file is read on first use.
func NewFileProbe(path string, logger *zap.Logger) *FileProbe {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileProbe{path: path, logger: logger}
}

// Markers returns the parsed manifest, or an error if it could not be read.
func (p *FileProbe) Markers() (*HostMarkers, error) {
	p.once.Do(func() {
		p.markers, p.err = ReadHostMarkers(p.path)
		if p.err != nil {
			level := p.logger.Warn
			if errors.Is(p.err, os.ErrNotExist) {
				level = p.logger.Debug
			}
			level("Host markers unavailable, assuming web",
				zap.String("path", p.path), zap.Error(p.err))
		}
	})
	return p.markers, p.err
}

// MessagingBridgePresent implements HostProbe.
func (p *FileProbe) MessagingBridgePresent() bool {
	m, err := p.Markers()
	return err == nil && m.Liff != nil
}

// NativeBridge implements HostProbe.
func (p *FileProbe) NativeBridge() (string, bool) {
	m, err := p.Markers()
	if err != nil || m.NativeBridge == nil {
		return "", false
	}
	return m.NativeBridge.Platform, true
}

// Init checks that the bridges the manifest declares can back the variant's capabilities.
// A LIFF bridge opened outside the LINE client, or a native bridge missing a plugin,
// yields a BridgeUnavailableError naming the capabilities that must be disabled.
func (p *FileProbe) Init(_ context.Context, v Variant) error {
	m, err := p.Markers()
	if v == VariantWeb {
		return nil
	}
	if err != nil {
		return &BridgeUnavailableError{Variant: v, Cause: err}
	}

	switch {
	case v == VariantMessagingClient:
		if m.Liff == nil || !m.Liff.InClient {
			return &BridgeUnavailableError{
				Variant:      v,
				Capabilities: []Capability{CapabilityCamera},
				Cause:        errors.New("liff is not running inside the LINE client"),
			}
		}
	case v.Native():
		if m.NativeBridge == nil {
			return &BridgeUnavailableError{Variant: v, Cause: errors.New("native bridge marker missing")}
		}
		missing := missingPlugins(m.NativeBridge.Plugins)
		if len(missing) > 0 {
			return &BridgeUnavailableError{
				Variant:      v,
				Capabilities: missing,
				Cause:        fmt.Errorf("native plugins not installed: %s", capabilityNames(missing)),
			}
		}
	}
	return nil
}

func missingPlugins(plugins []string) []Capability {
	installed := make(map[string]bool, len(plugins))
	for _, plugin := range plugins {
		installed[plugin] = true
	}

	var missing []Capability
	if !installed[PluginCamera] {
		missing = append(missing, CapabilityCamera)
	}
	if !installed[PluginPushNotifications] {
		missing = append(missing, CapabilityPushNotifications)
	}
	if !installed[PluginStatusBar] {
		missing = append(missing, CapabilityStatusBar)
	}
	return missing
}

func capabilityNames(caps []Capability) string {
	names := make([]string, len(caps))
	for i, c := range caps {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
