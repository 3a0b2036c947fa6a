// Package primitives provides versioning utilities for MachineConfig.
package primitives

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"
)

// ComputeVersion computes a version string for MachineConfig.
// Priority: user-provided config.Version, else SHA256(config JSON)[:8] + timestamp.
// Without config.Version the result includes the current UTC time to the
// second, so two calls on the same config can return different versions.
func ComputeVersion(config *MachineConfig) string {
	if config.Version != "" {
		return config.Version
	}

	data, err := json.Marshal(config)
	if err != nil {
		// Fallback: json.Marshal fails e.g. when a guard or action is a func
		return fmt.Sprintf("invalid-%d", time.Now().Unix())
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x-%s", hash[:8], time.Now().UTC().Format("20060102T150405Z"))
}

// There is no snapshot-based variant; core.Load calls ComputeVersion on the MachineConfig it loads.
