package walkforward

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// ArtifactEncoder is implemented by predictors whose fitted parameters can
// be persisted as a per-period artifact. The returned value must be
// msgpack-encodable.
type ArtifactEncoder interface {
	EncodeArtifact() (any, error)
}

// artifactEnvelope wraps the encoded parameters with enough metadata to
// identify the period they belong to.
type artifactEnvelope struct {
	Period    int       `msgpack:"period"`
	SavedAt   time.Time `msgpack:"saved_at"`
	Predictor any       `msgpack:"predictor"`
}

// ArtifactWriter persists one artifact file per walk-forward period into a
// directory. Files are the only lineage carried across periods; nothing is
// shared in memory.
type ArtifactWriter struct {
	dir   string
	nowFn func() time.Time
}

// NewArtifactWriter creates the target directory if needed.
func NewArtifactWriter(dir string) (*ArtifactWriter, error) {
	if dir == "" {
		dir = "artifacts"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("walkforward: create artifact dir: %w", err)
	}
	return &ArtifactWriter{dir: dir, nowFn: time.Now}, nil
}

// Write stores the fitted predictor parameters for the given period and
// returns the file path. Predictors that do not implement ArtifactEncoder
// are skipped silently (no path, no error).
func (w *ArtifactWriter) Write(period int, predictor Predictor) (string, error) {
	enc, ok := predictor.(ArtifactEncoder)
	if !ok {
		return "", nil
	}
	params, err := enc.EncodeArtifact()
	if err != nil {
		return "", fmt.Errorf("encode artifact: %w", err)
	}
	data, err := msgpack.Marshal(artifactEnvelope{
		Period:    period,
		SavedAt:   w.nowFn().UTC(),
		Predictor: params,
	})
	if err != nil {
		return "", fmt.Errorf("marshal artifact: %w", err)
	}
	path := filepath.Join(w.dir, fmt.Sprintf("wf_period_%04d.bin", period))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return path, nil
}

// ReadArtifact decodes a previously written artifact into the provided
// parameter type.
func ReadArtifact[T any](path string) (int, *T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, nil, fmt.Errorf("walkforward: read artifact: %w", err)
	}
	var env struct {
		Period    int       `msgpack:"period"`
		SavedAt   time.Time `msgpack:"saved_at"`
		Predictor T         `msgpack:"predictor"`
	}
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return 0, nil, fmt.Errorf("walkforward: decode artifact: %w", err)
	}
	return env.Period, &env.Predictor, nil
}
