package extensibility

import (
	"fmt"

	"github.com/comalice/statechartx/internal/primitives"
	"gopkg.in/yaml.v3"
)

// LoadYAML parses a YAML machine document into a primitives.MachineConfig.
// Parsing is treated as a pure edge adapter: it never touches core, and
// the caller is still expected to pass the result through core.Load (which
// runs MachineConfig.Validate) before driving a Service with it.
func LoadYAML(data []byte) (primitives.MachineConfig, error) {
	var cfg primitives.MachineConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return primitives.MachineConfig{}, fmt.Errorf("statechartx: invalid YAML machine document: %w", err)
	}
	return cfg, nil
}

// DumpYAML serializes a MachineConfig back to YAML, mirroring the
// round-trip a Persister/Registry implementation may need for snapshots
// saved as YAML files.
func DumpYAML(cfg primitives.MachineConfig) ([]byte, error) {
	return yaml.Marshal(cfg)
}
