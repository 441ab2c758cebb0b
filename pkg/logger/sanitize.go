package logger

import (
	"strings"

	"go.uber.org/zap"
)

var sensitiveKeys = []string{"password", "token", "secret", "key", "authorization"}

// Sanitize returns a copy of data safe for logging: credential-like keys are
// removed and email values are masked. Nested maps are sanitized as well.
func Sanitize(data map[string]interface{}) map[string]interface{} {
	if data == nil {
		return nil
	}

	clean := make(map[string]interface{}, len(data))
	for k, v := range data {
		if isSensitive(k) {
			continue
		}
		switch val := v.(type) {
		case map[string]interface{}:
			clean[k] = Sanitize(val)
		case string:
			if strings.Contains(strings.ToLower(k), "email") {
				clean[k] = MaskEmail(val)
			} else {
				clean[k] = val
			}
		default:
			clean[k] = v
		}
	}
	return clean
}

// Fields converts a sanitized map into zap fields.
func Fields(data map[string]interface{}) []zap.Field {
	clean := Sanitize(data)
	fields := make([]zap.Field, 0, len(clean))
	for k, v := range clean {
		fields = append(fields, zap.Any(k, v))
	}
	return fields
}

// MaskEmail keeps the first two characters of the local part:
// "maria@escola.br" becomes "ma***@escola.br".
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}
	local, domain := email[:at], email[at+1:]
	if len(local) > 2 {
		local = local[:2]
	}
	return local + "***@" + domain
}

// Email is a zap field carrying a masked address.
func Email(key, email string) zap.Field {
	return zap.String(key, MaskEmail(email))
}

func isSensitive(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}
