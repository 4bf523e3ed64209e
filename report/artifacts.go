package report

import (
	"fmt"
	"os"
	"path/filepath"
)

// SaveRaw persists one raw result document verbatim so the run can be
// reanalyzed offline. Each document gets its own file keyed by run timestamp
// and workload name.
func SaveRaw(outDir string, ts int64, name string, doc []byte) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output dir failed: %w", err)
	}
	p := filepath.Join(outDir, fmt.Sprintf("%d_%s.json", ts, name))
	if err := os.WriteFile(p, doc, 0o644); err != nil {
		return "", fmt.Errorf("writing artifact failed: %w", err)
	}
	return p, nil
}
