package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/programme-lv/benchrunner/api"
)

// WriteReports persists the outcomes as results.csv and results.json in dir.
// Both files are written atomically (temp file + rename) once the full run
// has completed, so a report always reflects a consistent snapshot.
func WriteReports(dir string, outcomes []api.ProjectOutcome) (csvPath, jsonPath string, err error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", fmt.Errorf("failed to create results dir: %w", err)
	}

	csvPath = filepath.Join(dir, "results.csv")
	jsonPath = filepath.Join(dir, "results.json")

	if err := writeAtomic(csvPath, encodeCSV(outcomes)); err != nil {
		return "", "", err
	}

	jsonBytes, err := json.MarshalIndent(outcomes, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := writeAtomic(jsonPath, append(jsonBytes, '\n')); err != nil {
		return "", "", err
	}

	return csvPath, jsonPath, nil
}

func encodeCSV(outcomes []api.ProjectOutcome) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	_ = w.Write([]string{"benchmark", "compile", "run", "failure_stage", "note"})
	for _, o := range outcomes {
		_ = w.Write([]string{o.Benchmark, string(o.Compile), string(o.Run), string(o.FailureStage), o.Note})
	}
	w.Flush()
	return buf.Bytes()
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}
