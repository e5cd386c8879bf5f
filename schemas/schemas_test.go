package schemas

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllSchemaFiles_ValidJSON(t *testing.T) {
	schemaFiles := []string{
		"host_markers.schema.json",
		"credential.schema.json",
	}

	for _, schemaFile := range schemaFiles {
		t.Run(schemaFile, func(t *testing.T) {
			data, err := os.ReadFile(schemaFile)
			require.NoError(t, err, "should be able to read schema file")

			var v map[string]interface{}
			err = json.Unmarshal(data, &v)
			require.NoError(t, err, "schema file should be valid JSON: %s", schemaFile)
			assert.Equal(t, "object", v["type"])
		})
	}
}

func TestEmbeddedSchemas_MatchFiles(t *testing.T) {
	data, err := os.ReadFile("host_markers.schema.json")
	require.NoError(t, err)
	assert.Equal(t, string(data), HostMarkers)

	data, err = os.ReadFile("credential.schema.json")
	require.NoError(t, err)
	assert.Equal(t, string(data), Credential)
}
