package runner

import "patchlab/internal/patch"

// Stats is the cumulative counter snapshot a job broadcasts after each
// pair. Counters are reset at job start and only ever advance while the
// job runs.
type Stats struct {
	// Images is the number of files in the source images directory that
	// match the configured extension patterns.
	Images int `json:"images"`
	// Pairs is the number of resolvable image/mask pairs.
	Pairs int `json:"pairs"`
	// Processed is the number of pairs finished so far.
	Processed int `json:"processed"`
	// PatchesTotal is the total number of patches kept across all pairs.
	PatchesTotal int `json:"patches_total"`
	// KeptLast is the number of patches kept in the most recent pair.
	// Zero during dry runs.
	KeptLast int `json:"kept_last"`
	// LastPair is the per-pair record of the most recent pair. During dry
	// runs it holds the all-negative sentinel.
	LastPair patch.PairStats `json:"last_pair"`
}
