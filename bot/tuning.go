package bot

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning holds the planner knobs. Keys missing from a YAML file keep the
// defaults.
type Tuning struct {
	// Candidates is how many random paths are simulated per replan.
	Candidates int `yaml:"candidates"`
	// MaxPathLen bounds a candidate path; half of it is spent collecting.
	MaxPathLen int `yaml:"max_path_len"`
	// A candidate heads home once cargo exceeds a threshold sampled from
	// [GoBackMin, GoBackMax).
	GoBackMin int `yaml:"go_back_min"`
	GoBackMax int `yaml:"go_back_max"`
	// CellEmpty is the cell halite at or below which a ship moves on.
	CellEmpty int `yaml:"cell_empty"`

	SpawnUntilTurn int `yaml:"spawn_until_turn"`
	MaxShips       int `yaml:"max_ships"` // 0 = no limit
}

func DefaultTuning() Tuning {
	return Tuning{
		Candidates:     8,
		MaxPathLen:     200,
		GoBackMin:      200,
		GoBackMax:      800,
		CellEmpty:      50,
		SpawnUntilTurn: 200,
		MaxShips:       0,
	}
}

func (t Tuning) Validate() error {
	if t.Candidates <= 0 {
		return fmt.Errorf("candidates must be positive, got %d", t.Candidates)
	}
	if t.MaxPathLen < 2 {
		return fmt.Errorf("max_path_len must be at least 2, got %d", t.MaxPathLen)
	}
	if t.GoBackMin < 0 || t.GoBackMax <= t.GoBackMin {
		return fmt.Errorf("go_back range [%d, %d) is empty", t.GoBackMin, t.GoBackMax)
	}
	return nil
}

// LoadTuning reads a YAML file over DefaultTuning.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning %s: %w", path, err)
	}
	return t, nil
}
