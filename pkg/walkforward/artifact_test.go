package walkforward

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paramPredictor struct {
	Bias float64 `msgpack:"bias"`
}

func (p paramPredictor) Predict(_ context.Context, features [][]float64) ([]float64, error) {
	out := make([]float64, len(features))
	for i := range out {
		out[i] = p.Bias
	}
	return out, nil
}

func (p paramPredictor) EncodeArtifact() (any, error) { return p, nil }

func TestArtifactWriter_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	w, err := NewArtifactWriter(dir)
	require.NoError(t, err)

	path, err := w.Write(3, paramPredictor{Bias: 0.042})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "wf_period_0003.bin"), path)

	period, params, err := ReadArtifact[paramPredictor](path)
	require.NoError(t, err)
	assert.Equal(t, 3, period)
	assert.InDelta(t, 0.042, params.Bias, 1e-12)
}

func TestArtifactWriter_SkipsNonEncodablePredictors(t *testing.T) {
	w, err := NewArtifactWriter(t.TempDir())
	require.NoError(t, err)

	path, err := w.Write(0, constantPredictor{})
	require.NoError(t, err)
	assert.Empty(t, path, "predictors without parameters are not persisted")
}
