package credential

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	// VerifierTag marks every payload this gateway issues.
	VerifierTag = "NurseCredX-Verify"

	// SchemaVersion is stamped on every payload; bump on breaking shape
	// changes.
	SchemaVersion = "1.0"
)

// Fixed provenance and required field names. Caller extras may not shadow
// any of these; fixed fields win.
const (
	FieldSubject        = "subject"
	FieldHolder         = "holder"
	FieldLicenses       = "licenses"
	FieldCertifications = "certifications"
	FieldVerifier       = "verifier"
	FieldSchemaVersion  = "schemaVersion"
	FieldIssuedAt       = "issuedAt"
)

// BuildInput carries the caller-supplied fields for one credential payload.
type BuildInput struct {
	Subject        string
	Holder         string
	Licenses       []string
	Certifications []string
	Extras         map[string]any
}

// Payload is a built credential object. It is immutable once published; a
// changed credential is republished as a new content-addressed object.
type Payload map[string]any

// now is swappable for tests.
var now = time.Now

// Build assembles a canonical payload from the input. Subject and holder are
// required; extras are merged first so the required and fixed fields always
// overwrite colliding keys.
func Build(input BuildInput) (Payload, error) {
	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		return nil, fmt.Errorf("subject is required")
	}
	holder := strings.TrimSpace(input.Holder)
	if holder == "" {
		return nil, fmt.Errorf("holder is required")
	}

	payload := make(Payload, len(input.Extras)+7)
	for key, value := range input.Extras {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" {
			continue
		}
		payload[trimmedKey] = value
	}

	payload[FieldSubject] = subject
	payload[FieldHolder] = holder
	if len(input.Licenses) > 0 {
		payload[FieldLicenses] = input.Licenses
	}
	if len(input.Certifications) > 0 {
		payload[FieldCertifications] = input.Certifications
	}

	payload[FieldVerifier] = VerifierTag
	payload[FieldSchemaVersion] = SchemaVersion
	payload[FieldIssuedAt] = now().UTC().Format(time.RFC3339)

	return payload, nil
}

// Canonical serializes the payload with recursively sorted keys so the same
// credential always publishes byte-identically.
func (p Payload) Canonical() ([]byte, error) {
	encoded, err := json.Marshal(sortJSON(map[string]any(p)))
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize payload: %w", err)
	}
	return encoded, nil
}

func sortJSON(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		sorted := make(map[string]any, len(keys))
		for _, key := range keys {
			sorted[key] = sortJSON(typed[key])
		}
		return sorted
	case []any:
		items := make([]any, 0, len(typed))
		for _, item := range typed {
			items = append(items, sortJSON(item))
		}
		return items
	default:
		return value
	}
}
