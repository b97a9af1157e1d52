package namematch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatDisplayNameRotatesGivenName(t *testing.T) {
	assert.Equal(t, "Joan Laporta Estruch", FormatDisplayName("LAPORTA ESTRUCH JOAN"))
}

func TestFormatDisplayNameKeepsParticleAttached(t *testing.T) {
	assert.Equal(t, "Johannes van der Berg", FormatDisplayName("VAN DER BERG JOHANNES"))
	assert.Equal(t, "Juan de la Fuente", FormatDisplayName("DE LA FUENTE JUAN"))
}

func TestFormatDisplayNameHandlesDiacritics(t *testing.T) {
	// Display formatting operates on the normalized form: diacritics are
	// stripped before casing.
	assert.Equal(t, "Jose Garcia Munoz", FormatDisplayName("GARCÍA MUÑOZ JOSÉ"))
}

func TestFormatDisplayNameSingleToken(t *testing.T) {
	// Nothing to rotate.
	assert.Equal(t, "Garcia", FormatDisplayName("GARCIA"))
	assert.Equal(t, "", FormatDisplayName(""))
}

func TestDisplayTokensGroupsParticles(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"VAN DER BERG JOHANNES", []string{"VAN DER BERG", "JOHANNES"}},
		{"DE LA FUENTE JUAN", []string{"DE LA FUENTE", "JUAN"}},
		{"LAPORTA ESTRUCH JOAN", []string{"LAPORTA", "ESTRUCH", "JOAN"}},
		// Three-word particle phrase joining a second compound surname.
		{"ORTEGA Y DE LA VEGA CARMEN", []string{"ORTEGA", "Y DE LA VEGA", "CARMEN"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DisplayTokens(tt.input), "input %q", tt.input)
	}
}

func TestDisplayTokensTrailingParticle(t *testing.T) {
	// A particle with no following word stays as its own token.
	assert.Equal(t, []string{"VAN"}, DisplayTokens("VAN"))
	assert.Equal(t, []string{"GARCIA", "DE"}, DisplayTokens("GARCIA DE"))
}

func TestDisplayTokensEmpty(t *testing.T) {
	assert.Nil(t, DisplayTokens("  ·`´  "))
}
