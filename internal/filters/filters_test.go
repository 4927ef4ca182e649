package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryResolvesChainsInOrder(t *testing.T) {
	r := NewRegistry()
	r.RegisterInput("star", func(s string) string { return s + "*" })
	r.RegisterInput("bang", func(s string) string { return s + "!" })

	chain, err := r.InputChain([]string{"star", "bang"})
	require.NoError(t, err)
	assert.Equal(t, "hello*!", Apply(chain, "hello"))

	chain, err = r.InputChain([]string{"bang", "star"})
	require.NoError(t, err)
	assert.Equal(t, "hello!*", Apply(chain, "hello"))
}

func TestRegistryUnknownKey(t *testing.T) {
	r := NewRegistry()

	_, err := r.InputChain([]string{"missing"})
	assert.ErrorContains(t, err, "input filter not registered")

	_, err = r.OutputChain([]string{"missing"})
	assert.ErrorContains(t, err, "output filter not registered")

	_, err = r.Display("missing")
	assert.ErrorContains(t, err, "display filter not registered")
}

func TestCollapseSpace(t *testing.T) {
	assert.Equal(t, " go north ", collapseSpace("\tgo\n\nnorth  "))
	assert.Equal(t, "already flat", collapseSpace("already flat"))
}

func TestStripMarkup(t *testing.T) {
	assert.Equal(t, "You see a door.", stripMarkup("[scene]You see[/scene] a door.[fin]"))
	assert.Equal(t, "no tags here", stripMarkup("no tags here"))
}

func TestBuiltinChains(t *testing.T) {
	r := Builtin()

	input, err := r.InputChain([]string{"trim", "collapse_space"})
	require.NoError(t, err)
	assert.Equal(t, "go north", Apply(input, "  go \n north\t"))

	output, err := r.OutputChain([]string{"strip_markup", "collapse_space", "trim"})
	require.NoError(t, err)
	assert.Equal(t, "The door creaks open.", Apply(output, " [x]The door\n creaks open.[/x]  "))
}

func TestBuiltinDisplay(t *testing.T) {
	r := Builtin()

	plain, err := r.Display("plain")
	require.NoError(t, err)
	assert.Equal(t, "a\n\nb", plain([]string{"a", "b"}))

	spaced, err := r.Display("spaced")
	require.NoError(t, err)
	assert.Equal(t, "a b", spaced([]string{"a", "b"}))
}
