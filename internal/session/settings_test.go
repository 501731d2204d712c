package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSettingsDefaults(t *testing.T) {
	s := NewSettings("env-key")
	assert.Equal(t, "env-key", s.Credential())
	assert.Equal(t, DefaultModel, s.Model())
	assert.Equal(t, "Lite", s.Variant())
}

func TestSetVariantCaseInsensitive(t *testing.T) {
	s := NewSettings("")

	require.NoError(t, s.SetVariant("max"))
	assert.Equal(t, "GigaChat-2-Max", s.Model())

	require.NoError(t, s.SetVariant("MAX"))
	assert.Equal(t, "GigaChat-2-Max", s.Model())

	require.NoError(t, s.SetVariant("  Pro "))
	assert.Equal(t, "GigaChat-2-Pro", s.Model())
	assert.Equal(t, "Pro", s.Variant())
}

func TestSetVariantInvalidLeavesSelection(t *testing.T) {
	s := NewSettings("")
	require.NoError(t, s.SetVariant("Max"))

	err := s.SetVariant("bogus")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidModelVariant))
	assert.Equal(t, "GigaChat-2-Max", s.Model())
}

func TestSetCredentialTrims(t *testing.T) {
	s := NewSettings("")
	s.SetCredential("  secret \n")
	assert.Equal(t, "secret", s.Credential())
}
