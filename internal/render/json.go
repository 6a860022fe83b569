// Package render provides output formatting for ceres commands.
package render

import (
	"encoding/json"
	"io"
)

// SchemaVersion is the version of every JSON envelope ceres prints.
const SchemaVersion = "1.0"

// JSONEnvelope is the stable JSON output format for --json.
type JSONEnvelope struct {
	SchemaVersion string `json:"schema_version"`
	Data          any    `json:"data"`
}

// WriteJSON writes data wrapped in the envelope as indented JSON.
func WriteJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(JSONEnvelope{SchemaVersion: SchemaVersion, Data: data})
}
