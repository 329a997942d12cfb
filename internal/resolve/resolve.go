// Package resolve merges the layered configuration defaults of a matrix
// specification into one resolved configuration per cell.
package resolve

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vk/matrixgen/internal/ctxlog"
	"github.com/vk/matrixgen/internal/matrix"
)

// KeyGPUArchType is the configuration key naming a cell's accelerator
// class. Its value selects which platform defaults layer applies.
const KeyGPUArchType = "gpu_arch_type"

// RequirementSeparator joins list-like requirement values when layers are
// concatenated instead of replaced.
const RequirementSeparator = " | "

// appendKeys lists the configuration keys merged by concatenation in
// layer order rather than by shallow replacement.
var appendKeys = map[string]bool{
	"extra_install_requirements": true,
}

// Config is the final key to value mapping used to parameterize the job
// templates for one cell. It is immutable once returned by Resolve.
type Config map[string]string

// SortedKeys returns the configuration keys in lexical order, for
// deterministic iteration.
func (c Config) SortedKeys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ResolutionError reports a required configuration key left unset for a
// cell after all layers were applied. It carries the offending cell's
// coordinates so the operator can fix the matrix.
type ResolutionError struct {
	Cell    string
	Missing []string
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cell %s: required configuration keys unset: %s",
		e.Cell, strings.Join(e.Missing, ", "))
}

// PlatformKey returns the accelerator class of a cell, taken from the
// gpu_arch_type override of its selections. The last selection carrying
// the key wins, mirroring merge precedence.
func PlatformKey(cell *matrix.Cell) string {
	key := ""
	for _, s := range cell.Selections {
		if v, ok := s.Overrides[KeyGPUArchType]; ok {
			key = v
		}
	}
	return key
}

// Resolve produces the cell's configuration by layered merge: global
// defaults, overridden by the platform defaults layer matching the
// cell's accelerator class, overridden by the cell's own per-axis
// overrides in axis declaration order. The merge is a shallow key
// replacement except for appendKeys, which are concatenated with
// RequirementSeparator in layer order. Resolve is a pure function of its
// inputs: identical inputs always yield an identical configuration.
func Resolve(
	ctx context.Context,
	cell *matrix.Cell,
	globalDefaults map[string]string,
	platformDefaults map[string]map[string]string,
	required []string,
) (Config, error) {
	logger := ctxlog.FromContext(ctx)

	cfg := make(Config, len(globalDefaults))
	apply(cfg, globalDefaults)

	platform := PlatformKey(cell)
	if layer, ok := platformDefaults[platform]; ok {
		apply(cfg, layer)
	}

	for _, s := range cell.Selections {
		// The coordinate itself is part of the cell's own layer: the
		// axis name becomes a configuration key holding the selected
		// value, then the value's inline overrides apply on top.
		cfg[s.Axis] = s.Value
		apply(cfg, s.Overrides)
	}

	var missing []string
	for _, key := range required {
		if _, ok := cfg[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &ResolutionError{Cell: cell.String(), Missing: missing}
	}

	logger.Debug("Cell configuration resolved.", "cell", cell.String(), "platform", platform, "keys", len(cfg))
	return cfg, nil
}

// apply merges one layer into dst, honoring the concatenation exception
// for list-like requirement keys.
func apply(dst Config, layer map[string]string) {
	keys := make([]string, 0, len(layer))
	for k := range layer {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := layer[k]
		if prev, ok := dst[k]; ok && appendKeys[k] && prev != "" {
			dst[k] = prev + RequirementSeparator + v
			continue
		}
		dst[k] = v
	}
}
