package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgjwt "github.com/jhoicas/Despacho-api/pkg/jwt"
)

func TestGenerateParse_RoundTrip(t *testing.T) {
	tok, err := pkgjwt.Generate("s3cr3t", "u1", "unidad-norte", "conductor", "despacho-test", 5)
	require.NoError(t, err)

	userID, unitID, role, err := pkgjwt.Parse("s3cr3t", tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
	assert.Equal(t, "unidad-norte", unitID)
	assert.Equal(t, "conductor", role)
}

func TestParse_FirmaIncorrecta(t *testing.T) {
	tok, err := pkgjwt.Generate("s3cr3t", "u1", "x", "admin", "i", 5)
	require.NoError(t, err)
	_, _, _, err = pkgjwt.Parse("otro", tok)
	assert.Error(t, err)
}

func TestParse_Expirado(t *testing.T) {
	tok, err := pkgjwt.Generate("s3cr3t", "u1", "x", "admin", "i", -1)
	require.NoError(t, err)
	_, _, _, err = pkgjwt.Parse("s3cr3t", tok)
	assert.Error(t, err)
}
