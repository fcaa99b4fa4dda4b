package scopus

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// credentialSchema guards against hand-edited credential files: the
// ingestion pipeline shares this file and silently misbehaves on shape
// drift, so we fail loudly at load time instead.
const credentialSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["apikey", "insttoken", "expirydate"],
  "properties": {
    "apikey": {"type": "string", "minLength": 1},
    "insttoken": {"type": "string"},
    "expirydate": {"type": "string", "pattern": "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"}
  },
  "additionalProperties": false
}`

// validateCredentialDocument checks a raw credential file against the
// schema before it is trusted.
func validateCredentialDocument(data []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(credentialSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		var messages []string
		for _, desc := range result.Errors() {
			messages = append(messages, desc.String())
		}
		return fmt.Errorf("credential file is invalid: %s", strings.Join(messages, "; "))
	}

	return nil
}
