// Package artifact saves and restores fitted workflows as gob bundles
// on disk. A restored bundle predicts identically to the workflow that
// produced it.
package artifact

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"tablefit/app"
	"tablefit/domain/core"
)

// Bundle is the on-disk envelope around a fitted workflow
type Bundle struct {
	ID          core.ArtifactID
	Fingerprint core.Fingerprint
	Workflow    *app.FittedWorkflow
}

// Save writes the fitted workflow to path, creating parent directories.
// The write goes through a temp file and rename so a crash never leaves
// a truncated bundle behind.
func Save(path string, fitted *app.FittedWorkflow) (core.ArtifactID, error) {
	if fitted == nil || fitted.Prepared == nil {
		return "", core.NewNotFittedError("workflow")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("artifact: %w", err)
	}

	bundle := Bundle{
		ID:          core.NewArtifactID(),
		Fingerprint: fitted.Prepared.Fingerprint,
		Workflow:    fitted,
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".artifact-*")
	if err != nil {
		return "", fmt.Errorf("artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(bundle); err != nil {
		tmp.Close()
		return "", fmt.Errorf("artifact: encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("artifact: %w", err)
	}
	return bundle.ID, nil
}

// Load reads a bundle back. Step states and model types register
// themselves with gob in their packages' init functions; loading a
// bundle written with an unknown estimator fails with a decode error.
func Load(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("artifact: %w", err)
	}
	defer f.Close()

	var bundle Bundle
	if err := gob.NewDecoder(f).Decode(&bundle); err != nil {
		return nil, fmt.Errorf("artifact: decode %s: %w", path, err)
	}
	if bundle.Workflow == nil || bundle.Workflow.Prepared == nil {
		return nil, fmt.Errorf("artifact: %s holds no fitted workflow", path)
	}
	return &bundle, nil
}
