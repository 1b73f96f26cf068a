package sentence

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/knights-analytics/hugot"
	"go.uber.org/zap"
)

// fetchModel returns the local directory of model, downloading it into dir on
// first use.
func fetchModel(model, dir string, log *zap.Logger) (string, error) {
	local := filepath.Join(dir, strings.ReplaceAll(model, "/", "_"))
	if info, err := os.Stat(local); err == nil && info.IsDir() {
		return local, nil
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("checking model directory: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating models directory: %w", err)
	}

	log.Info("downloading sentence model", zap.String("model", model), zap.String("dir", dir))
	path, err := hugot.DownloadModel(model, dir, hugot.NewDownloadOptions())
	if err != nil {
		return "", fmt.Errorf("downloading model %q: %w", model, err)
	}
	return path, nil
}

// loadModel starts a pure Go inference session with a feature extraction
// pipeline over the model at path.
func loadModel(path string) (runFunc, func() error, error) {
	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, nil, err
	}

	pipeline, err := hugot.NewPipeline(session, hugot.FeatureExtractionConfig{
		ModelPath: path,
		Name:      "job-matcher-sentence",
	})
	if err != nil {
		_ = session.Destroy()
		return nil, nil, err
	}

	run := func(texts []string) ([][]float32, error) {
		out, err := pipeline.RunPipeline(texts)
		if err != nil {
			return nil, err
		}
		return out.Embeddings, nil
	}

	return run, session.Destroy, nil
}
