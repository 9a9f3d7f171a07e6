// internal/output/json.go
package output

import (
	"encoding/json"
	"io"

	"github.com/dsablic/anchoraudit/internal/model"
)

// WriteJSON writes the audit result as pretty-printed JSON to w.
func WriteJSON(w io.Writer, result model.AuditResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
