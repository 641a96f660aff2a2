package dsl_test

import (
	"context"
	"testing"

	"github.com/aretw0/ntrode"
	"github.com/aretw0/ntrode/pkg/domain"
	"github.com/aretw0/ntrode/pkg/dsl"
	"github.com/aretw0/ntrode/pkg/handlers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_Specs(t *testing.T) {
	specs, err := dsl.New().
		Then(handlers.KindCopy).Set("from", "item").Set("to", "out").
		Input(handlers.KindCounter).With(map[string]any{"limit": 2, "step": 5}).
		Then(handlers.KindLog).
		Specs()
	require.NoError(t, err)

	assert.Equal(t, []domain.HandlerSpec{
		{Kind: handlers.KindCounter, Config: map[string]any{"limit": 2, "step": 5}},
		{Kind: handlers.KindCopy, Config: map[string]any{"from": "item", "to": "out"}},
		{Kind: handlers.KindLog},
	}, specs, "the input handler goes first whatever the call order")
}

func TestBuilder_SpecsAreCopies(t *testing.T) {
	b := dsl.New()
	h := b.Input(handlers.KindCounter).Set("limit", 1)

	specs, err := b.Specs()
	require.NoError(t, err)
	specs[0].Config["limit"] = 99

	assert.Equal(t, 1, h.Spec().Config["limit"])
}

func TestBuilder_Errors(t *testing.T) {
	_, err := dsl.New().Specs()
	assert.ErrorIs(t, err, domain.ErrNoHandlers)

	_, err = dsl.New().Input(handlers.KindCounter).Input(handlers.KindCounter).Specs()
	assert.ErrorIs(t, err, dsl.ErrInputDefined)

	_, err = dsl.New().Then("").Specs()
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = dsl.New().NTrode()
	assert.ErrorIs(t, err, domain.ErrNoHandlers)
}

func TestBuilder_NTrode(t *testing.T) {
	n, err := dsl.New().
		Input(handlers.KindCounter).Set("limit", 2).
		Then(handlers.KindCopy).Set("from", "item").Set("to", "last").
		NTrode(ntrode.WithName("built"), ntrode.WithContinuation(ntrode.UntilExhausted()))
	require.NoError(t, err)

	require.NoError(t, n.Run(context.Background()))
	assert.Equal(t, "built", n.Name())

	last, ok := n.Memory().Get("last")
	require.True(t, ok)
	assert.Equal(t, 1, last)
}
