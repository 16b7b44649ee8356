package masking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", MaskSecret("  "))
	assert.Equal(t, "****", MaskSecret("abc"))
	assert.Equal(t, "****6789", MaskSecret("123456789"))
	assert.Equal(t, "tok_****cdef", MaskSecret("tok_abcdef"))
}

func TestMaskAttribute(t *testing.T) {
	assert.Equal(t, "****cret", MaskAttribute("bindcredentials", "supersecret"))
	assert.Equal(t, "null", MaskAttribute("bindcredentials", "null"))
	assert.Equal(t, "ldap://x:389", MaskAttribute("url", "ldap://x:389"))
	assert.True(t, IsSensitive(" Integration_API_Token "))
}
