// Package schemas embeds the JSON Schemas for documents the app shell reads from its host.
package schemas

import _ "embed"

// HostMarkers is the schema of the host-marker manifest read by platform.FileProbe.
//
//go:embed host_markers.schema.json
var HostMarkers string

// Credential is the schema of a persisted sign-in credential.
//
//go:embed credential.schema.json
var Credential string
