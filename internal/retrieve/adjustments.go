package retrieve

import "strings"

// applyAdjustments applies the two opt-in post-fusion score tweaks
// from SPEC_FULL.md's enrichment section, grounded on the teacher's
// internal/search/options.go path-based heuristics. Both are no-ops
// unless explicitly enabled, so the documented RRF/weighted-sum
// invariants (including the α=0/1 identities) hold whenever a caller
// doesn't opt in.
func applyAdjustments(hits []Hit, adj ScoreAdjustments) {
	if !adj.PenalizeTestPaths && adj.ImplementationBoost == 0 && adj.WrapperPenalty == 0 {
		return
	}
	for i := range hits {
		path := hits[i].Chunk.SourceID
		if adj.PenalizeTestPaths && looksLikeTestPath(path) {
			hits[i].Score -= adj.TestPathPenalty
		}
		if isImplementationPath(path) {
			hits[i].Score += adj.ImplementationBoost
		} else if isWrapperPath(path) {
			hits[i].Score -= adj.WrapperPenalty
		}
	}
}

func looksLikeTestPath(path string) bool {
	lower := strings.ToLower(path)
	return strings.Contains(lower, "_test.") || strings.Contains(lower, "/test/") || strings.Contains(lower, "/tests/")
}

func isImplementationPath(path string) bool {
	lower := strings.ToLower(path)
	return strings.Contains(lower, "/internal/") || strings.Contains(lower, "/impl/")
}

func isWrapperPath(path string) bool {
	lower := strings.ToLower(path)
	return strings.Contains(lower, "/wrapper/") || strings.Contains(lower, "/generated/")
}
