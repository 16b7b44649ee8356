package masking

import "strings"

const maskToken = "****"

// sensitiveKeys are attributes whose values never reach the audit trail in
// clear text.
var sensitiveKeys = map[string]struct{}{
	"bindcredentials":       {},
	"integration_api_token": {},
	"password":              {},
	"feed_token":            {},
}

// MaskSecret redacts a secret while keeping a minimal suffix for auditing.
func MaskSecret(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}

	prefix, remainder := splitPrefix(trimmed)
	if len(remainder) <= 4 {
		return prefix + maskToken
	}

	return prefix + maskToken + remainder[len(remainder)-4:]
}

// IsSensitive reports whether attribute holds a secret.
func IsSensitive(attribute string) bool {
	_, ok := sensitiveKeys[strings.ToLower(strings.TrimSpace(attribute))]
	return ok
}

// MaskAttribute masks value when attribute is sensitive.
func MaskAttribute(attribute, value string) string {
	if !IsSensitive(attribute) || value == "null" {
		return value
	}
	return MaskSecret(value)
}

func splitPrefix(value string) (string, string) {
	lastUnderscore := strings.LastIndex(value, "_")
	if lastUnderscore == -1 || lastUnderscore == len(value)-1 {
		return "", value
	}
	return value[:lastUnderscore+1], value[lastUnderscore+1:]
}
