package config

// SimConfig is the top-level simulation configuration. Command-line flags
// override any of these values.
type SimConfig struct {
	// Policy is the default ordering policy identifier ("edf",
	// "fixed_priority", "critical_path").
	Policy string `json:"policy"`
	// Cores is the default number of processor cores.
	Cores int `json:"cores"`
	// OutputDir is where YAML run reports are written.
	OutputDir string `json:"output_dir"`
	// ResultsDB is an optional SQLite path for recording run summaries.
	// Empty disables recording.
	ResultsDB string `json:"results_db,omitempty"`
	// Parallelism bounds concurrent runs in a batch; <= 0 means unbounded.
	Parallelism int `json:"parallelism,omitempty"`
}
