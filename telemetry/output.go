package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/pthm-cable/thermo/config"
)

// OutputManager handles structured run output with CSV logging.
// A nil *OutputManager is valid and discards everything.
type OutputManager struct {
	dir          string
	stepFile     *os.File
	decisionFile *os.File
	windowFile   *os.File

	// Track if headers have been written
	stepHeaderWritten     bool
	decisionHeaderWritten bool
	windowHeaderWritten   bool
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	for _, f := range []struct {
		name string
		dst  **os.File
	}{
		{"steps.csv", &om.stepFile},
		{"decisions.csv", &om.decisionFile},
		{"windows.csv", &om.windowFile},
	} {
		file, err := os.Create(filepath.Join(dir, f.name))
		if err != nil {
			om.Close()
			return nil, fmt.Errorf("creating %s: %w", f.name, err)
		}
		*f.dst = file
	}

	return om, nil
}

// WriteConfig saves the run configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteStep writes a step record to steps.csv.
func (om *OutputManager) WriteStep(rec StepRecord) error {
	if om == nil {
		return nil
	}
	if err := appendCSV(om.stepFile, &om.stepHeaderWritten, []StepRecord{rec}); err != nil {
		return fmt.Errorf("writing step: %w", err)
	}
	return nil
}

// WriteDecision writes a decision record to decisions.csv.
func (om *OutputManager) WriteDecision(rec DecisionRecord) error {
	if om == nil {
		return nil
	}
	if err := appendCSV(om.decisionFile, &om.decisionHeaderWritten, []DecisionRecord{rec}); err != nil {
		return fmt.Errorf("writing decision: %w", err)
	}
	return nil
}

// WriteWindow writes a window stats record to windows.csv.
func (om *OutputManager) WriteWindow(stats WindowStats) error {
	if om == nil {
		return nil
	}
	if err := appendCSV(om.windowFile, &om.windowHeaderWritten, []WindowStats{stats}); err != nil {
		return fmt.Errorf("writing window: %w", err)
	}
	return nil
}

// WriteLifetimes writes all lifetime records to lifetimes.csv in one go.
func (om *OutputManager) WriteLifetimes(records []LifetimeStats) error {
	if om == nil || len(records) == 0 {
		return nil
	}
	f, err := os.Create(filepath.Join(om.dir, "lifetimes.csv"))
	if err != nil {
		return fmt.Errorf("creating lifetimes.csv: %w", err)
	}
	if err := gocsv.Marshal(records, f); err != nil {
		f.Close()
		return fmt.Errorf("writing lifetimes: %w", err)
	}
	return f.Close()
}

// appendCSV writes records, including the header only on the first call.
func appendCSV[T any](f *os.File, headerWritten *bool, records []T) error {
	if !*headerWritten {
		if err := gocsv.Marshal(records, f); err != nil {
			return err
		}
		*headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, f)
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, f := range []*os.File{om.stepFile, om.decisionFile, om.windowFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
