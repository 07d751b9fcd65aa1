package foundation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/contractcatalog/internal/foundation/errors"
)

type paths struct {
	In  string
	Out string
}

func TestValidatorChain(t *testing.T) {
	chain := NewValidatorChain(
		Required("contracts.dir", func(p paths) string { return p.In }),
		Required("output.directory", func(p paths) string { return p.Out }),
	)

	assert.True(t, chain.Validate(paths{In: "contracts", Out: "site"}).Valid)

	res := chain.Validate(paths{In: "  "})
	require.False(t, res.Valid)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, "contracts.dir: must not be empty", res.Errors[0].Error())
	assert.Equal(t, "required", res.Errors[1].Code)
}

func TestValidatorChainAdd(t *testing.T) {
	chain := NewValidatorChain(Required("contracts.dir", func(p paths) string { return p.In }))
	assert.True(t, chain.Validate(paths{In: "contracts"}).Valid)

	chain.Add(Required("output.directory", func(p paths) string { return p.Out }))
	res := chain.Validate(paths{In: "contracts"})
	require.False(t, res.Valid)
	assert.Equal(t, "output.directory", res.Errors[0].Field)
}

func TestOneOf(t *testing.T) {
	v := OneOf("mode", []string{"auto", "never"})
	assert.True(t, v("auto").Valid)

	res := v("sometimes")
	require.False(t, res.Valid)
	assert.Contains(t, res.Errors[0].Message, "[auto never]")
}

func TestToError(t *testing.T) {
	assert.NoError(t, Valid().ToError(errors.CategoryConfig))

	err := Invalid(NewFieldError("site.title", "required", "must not be empty")).ToError(errors.CategoryConfig)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
	assert.Contains(t, err.Error(), "site.title: must not be empty")
}
