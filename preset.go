package srla

import "github.com/srla-audio/srla/internal/lpc"

// Preset bundles the encode-time tuning knobs spec.md §3 says a stream's
// single preset byte (0..=6) selects: max LPC order, LPC order-search
// tactic, SVR iteration count and its margin list. Channel-decorrelation
// tactic is not listed here: every preset uses the adaptive tactic (spec.md
// §9 Open Questions notes MS_FIXED is declared but unreachable in the
// shipped table, so we don't give it a field).
type Preset struct {
	MaxOrder      int
	OrderTactic   lpc.OrderTactic
	SVRIterations int
	Margins       []float64
}

// margins is the fixed SVR soft-thresholding margin list shared by every
// preset that uses SVR refinement, reproduced exactly from
// original_source/libs/srla_internal/src/srla_internal.c's margin_list[].
var margins = []float64{0, 1.0 / 4096, 1.0 / 1024, 1.0 / 256, 1.0 / 64, 1.0 / 16}

// presets is the registry spec.md §6 requires: exactly seven entries
// (0..=6), each a (max_num_parameters, order tactic, SVR iterations) combo.
// original_source ships 14 combinations (3 orders x 2 reachable tactics x 2
// SVR counts); spec.md is explicit that streams must validate against a
// 7-entry table (preset < 7), so we take the order-32 sub-family - which
// alone spans all three order tactics - plus three order-64/128 entries
// (two max-fixed, one brute-force estimation), keeping the preset *shape* the source exercises (fast/cheap
// presets at low orders, higher orders only paired with the cheaper
// tactics) while staying inside the 7-entry contract. See DESIGN.md's
// resolved Open Questions.
var presets = [7]Preset{
	0: {MaxOrder: 32, OrderTactic: lpc.OrderMaxFixed, SVRIterations: 0},
	1: {MaxOrder: 32, OrderTactic: lpc.OrderMaxFixed, SVRIterations: 10, Margins: margins},
	2: {MaxOrder: 32, OrderTactic: lpc.OrderBruteforceEstimation, SVRIterations: 0},
	3: {MaxOrder: 32, OrderTactic: lpc.OrderBruteforceSearch, SVRIterations: 10, Margins: margins},
	4: {MaxOrder: 64, OrderTactic: lpc.OrderMaxFixed, SVRIterations: 0},
	5: {MaxOrder: 64, OrderTactic: lpc.OrderBruteforceEstimation, SVRIterations: 10, Margins: margins},
	6: {MaxOrder: 128, OrderTactic: lpc.OrderMaxFixed, SVRIterations: 10, Margins: margins},
}

// NumPresets is the fixed preset-table size mandated by spec.md §6.
const NumPresets = len(presets)

// PresetByIndex returns the registry entry for idx, which must satisfy
// 0 <= idx < NumPresets.
func PresetByIndex(idx int) (Preset, error) {
	if idx < 0 || idx >= NumPresets {
		return Preset{}, newErrorf(InvalidArgument, "preset %d out of range [0, %d)", idx, NumPresets)
	}
	return presets[idx], nil
}
