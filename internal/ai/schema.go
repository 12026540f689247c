package ai

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/spenddesk/receipt-pipeline/internal/extraction"
)

// receiptSchemaJSON is the fixed shape the model is instructed to return and
// that every response is validated against server-side. A single violation
// invalidates the whole response; fields are never partially accepted.
const receiptSchemaJSON = `{
  "type": "object",
  "properties": {
    "vendor":   {"type": "string", "minLength": 1},
    "date":     {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
    "total":    {"type": "number", "exclusiveMinimum": 0},
    "subtotal": {"type": "number"},
    "tax":      {"type": "number"},
    "items": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "desc":     {"type": "string"},
          "price":    {"type": "number"},
          "quantity": {"type": "number"}
        },
        "required": ["desc", "price"]
      }
    }
  },
  "required": ["vendor", "date", "total", "items"]
}`

var receiptSchema = jsonschema.MustCompileString("receipt.schema.json", receiptSchemaJSON)

// validateResponse checks a raw model response against the receipt schema.
func validateResponse(raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("%w: response is not valid JSON: %v", extraction.ErrSchemaValidation, err)
	}
	if err := receiptSchema.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", extraction.ErrSchemaValidation, err)
	}
	return nil
}
