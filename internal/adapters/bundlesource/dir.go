package bundlesource

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/comitanigiacomo/kanso-report-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-report-engine/internal/core/services"
)

// LoadDir reads every *.json file in dir as one bundle. Files are returned in
// name order. A file that cannot be read or decoded becomes an input with Err
// set, so one broken file never hides the rest of the directory.
func LoadDir(dir, startDate, endDate string) ([]services.BatchInput, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("bundlesource: invalid directory %q: %w", dir, err)
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("bundlesource: %w", err)
	}
	sort.Strings(paths)

	inputs := make([]services.BatchInput, 0, len(paths))
	for _, path := range paths {
		in := services.BatchInput{
			Source:    filepath.Base(path),
			StartDate: startDate,
			EndDate:   endDate,
		}
		in.Bundle, in.Err = LoadFile(path)
		inputs = append(inputs, in)
	}
	return inputs, nil
}

func LoadFile(path string) (domain.Bundle, error) {
	var b domain.Bundle

	data, err := os.ReadFile(path)
	if err != nil {
		return b, fmt.Errorf("bundlesource: failed to read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, &b); err != nil {
		return domain.Bundle{}, fmt.Errorf("%w: %s: %v", domain.ErrInvalidBundle, filepath.Base(path), err)
	}
	return b, nil
}
