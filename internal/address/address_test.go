package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken(t *testing.T) {
	assert.Equal(t, "${alice}", Token("alice"))

	name, ok := TokenName("${alice}")
	require.True(t, ok)
	assert.Equal(t, "alice", name)

	_, ok = TokenName("alice")
	assert.False(t, ok)
	_, ok = TokenName("${alice}:8545")
	assert.False(t, ok)
}

func TestUnsolved(t *testing.T) {
	assert.Equal(t, "${defaultHostname}:8545", Unsolved("", 8545, "${defaultHostname}"))
	assert.Equal(t, "${alice}:8545", Unsolved("${alice}", 8545, "${defaultHostname}"))
	assert.Equal(t, "10.0.0.5:8545", Unsolved("10.0.0.5", 8545, "${defaultHostname}"))
}

func TestResolved(t *testing.T) {
	addr, err := Resolved("", 5001)
	require.NoError(t, err)
	assert.Equal(t, "localhost:5001", addr)

	addr, err = Resolved("10.0.0.5", 5001)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5:5001", addr)

	_, err = Resolved("${alice}", 5001)
	require.ErrorIs(t, err, ErrResolution)
}

func TestSubstitute(t *testing.T) {
	table := map[string]string{
		"alice":           "10.0.0.5",
		"defaultHostname": "${alice}",
	}

	out, err := Substitute("${alice}:8545", table)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5:8545", out)

	// Two-level indirection resolves through the fixpoint.
	out, err = Substitute("${defaultHostname}:8545", table)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5:8545", out)

	// Idempotence: a concrete string passes through untouched.
	out, err = Substitute("10.0.0.5:8545", table)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5:8545", out)
}

func TestSubstituteUnknownToken(t *testing.T) {
	_, err := Substitute("${ghost}:8545", map[string]string{"alice": "10.0.0.5"})
	require.ErrorIs(t, err, ErrResolution)
	assert.Contains(t, err.Error(), "${ghost}")
}

func TestSubstituteCycle(t *testing.T) {
	table := map[string]string{
		"a": "${b}",
		"b": "${a}",
	}
	_, err := Substitute("${a}", table)
	require.ErrorIs(t, err, ErrResolution)
}

func TestNormalizeHost(t *testing.T) {
	assert.Equal(t, "10.0.0.5:3000", NormalizeHost("10.0.0.5:3000"))
	assert.Equal(t, "10.0.0.5:3000", NormalizeHost("http://10.0.0.5:3000"))
	assert.Equal(t, "10.0.0.5:3000", NormalizeHost("https://10.0.0.5:3000/api/v1"))
	assert.Equal(t, "localhost:13000", NormalizeHost("http://localhost:13000?x=1"))
}
