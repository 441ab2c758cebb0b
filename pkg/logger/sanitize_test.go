package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeDropsSecretsAndMasksEmail(t *testing.T) {
	in := map[string]interface{}{
		"password":    "hunter22",
		"resetToken":  "abc",
		"jwt_secret":  "s",
		"apiKey":      "k",
		"email":       "coordenacao@escola.br",
		"name":        "Maria",
		"nested":      map[string]interface{}{"newPassword": "x", "userEmail": "jo@x.com"},
		"occurrences": 3,
	}

	out := Sanitize(in)

	require.NotNil(t, out)
	assert.NotContains(t, out, "password")
	assert.NotContains(t, out, "resetToken")
	assert.NotContains(t, out, "jwt_secret")
	assert.NotContains(t, out, "apiKey")
	assert.Equal(t, "co***@escola.br", out["email"])
	assert.Equal(t, "Maria", out["name"])
	assert.Equal(t, 3, out["occurrences"])

	nested := out["nested"].(map[string]interface{})
	assert.NotContains(t, nested, "newPassword")
	assert.Equal(t, "jo***@x.com", nested["userEmail"])

	assert.Equal(t, "hunter22", in["password"], "input must not be mutated")
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "a***@b.com", MaskEmail("a@b.com"))
	assert.Equal(t, "***", MaskEmail("invalid"))
	assert.Equal(t, "***", MaskEmail("@nolocal.com"))
}

func TestFieldsSkipsSensitive(t *testing.T) {
	fields := Fields(map[string]interface{}{"token": "x", "id": "1"})
	require.Len(t, fields, 1)
	assert.Equal(t, "id", fields[0].Key)
}

func TestSanitizeNil(t *testing.T) {
	assert.Nil(t, Sanitize(nil))
}
