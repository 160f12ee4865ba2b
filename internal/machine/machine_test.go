package machine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSet(t *testing.T) *Set {
	t.Helper()
	s, err := NewSet([]Machine{
		{Name: "alice", NetworkIdentity: "10.0.0.5"},
		{Name: "bob", NetworkIdentity: "10.0.0.6"},
	}, "alice", "bob")
	require.NoError(t, err)
	return s
}

func TestNewSetValidation(t *testing.T) {
	_, err := NewSet([]Machine{{Name: "alice", NetworkIdentity: "10.0.0.5"}}, "alice", "ghost")
	require.Error(t, err)

	_, err = NewSet([]Machine{
		{Name: "alice", NetworkIdentity: "10.0.0.5"},
		{Name: "alice", NetworkIdentity: "10.0.0.6"},
	}, "alice", "alice")
	require.Error(t, err)

	_, err = NewSet([]Machine{{Name: "alice"}}, "alice", "alice")
	require.Error(t, err)
}

func TestResolveName(t *testing.T) {
	s := testSet(t)

	for in, want := range map[string]string{
		"local":           "alice",
		"localHostname":   "alice",
		"default":         "bob",
		"defaultHostname": "bob",
		"alice":           "alice",
		"bob":             "bob",
	} {
		got, err := s.ResolveName(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := s.ResolveName("ghost")
	require.Error(t, err)
}

func TestIdentity(t *testing.T) {
	s := testSet(t)

	id, err := s.Identity("default")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.6", id)
}

func TestPlaceholderTable(t *testing.T) {
	s := testSet(t)
	table := s.PlaceholderTable()

	assert.Equal(t, "10.0.0.5", table["alice"])
	assert.Equal(t, "10.0.0.6", table["bob"])
	// Reserved bindings point at another placeholder; the substitution
	// fixpoint resolves them in a second round.
	assert.Equal(t, "${alice}", table[PlaceholderLocal])
	assert.Equal(t, "${bob}", table[PlaceholderDefault])
}
