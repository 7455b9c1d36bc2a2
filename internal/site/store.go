// store.go - Manifest persistence under the output tree
package site

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"docsite-generator/internal/utils"
)

// ManifestFilename is the manifest location relative to the output
// root. Revision runs read it to recover previous fingerprints.
const ManifestFilename = "docgen-manifest.json"

// SaveManifest writes the manifest atomically under the output root.
func SaveManifest(outputDir string, manifest *SiteManifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal site manifest: %w", err)
	}
	path := filepath.Join(outputDir, ManifestFilename)
	if err := utils.WriteFileAtomic(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write site manifest: %w", err)
	}
	return nil
}

// LoadManifest reads a previous run's manifest. A missing manifest
// surfaces as os.ErrNotExist through the wrapped error.
func LoadManifest(outputDir string) (*SiteManifest, error) {
	data, err := os.ReadFile(filepath.Join(outputDir, ManifestFilename))
	if err != nil {
		return nil, fmt.Errorf("failed to read site manifest: %w", err)
	}
	var manifest SiteManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse site manifest: %w", err)
	}
	return &manifest, nil
}
