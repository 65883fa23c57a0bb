package versionid

// FileOutcome records how one fetched file took part in the consensus.
type FileOutcome string

const (
	OutcomeMatched   FileOutcome = "matched"
	OutcomeOutlier   FileOutcome = "outlier"
	OutcomeUnmatched FileOutcome = "unmatched"
)

type FileEvidence struct {
	Path       string      `json:"path"`
	Candidates []string    `json:"candidates,omitempty"`
	Outcome    FileOutcome `json:"outcome"`
}

// Consensus is the fetched-evidence version set together with the per-file
// trail that produced it.
type Consensus struct {
	Versions VersionSet
	Files    []FileEvidence
}

// consensusState is the accumulator of the fold. defined is false until the
// first file with any evidence arrives.
type consensusState struct {
	defined  bool
	versions VersionSet
	outcomes []FileOutcome
}

// refine is the fold step: skip empty candidates, adopt the first non-empty
// one, narrow on overlap and discard candidates that share nothing with the
// running consensus.
func refine(st consensusState, candidates VersionSet) consensusState {
	switch {
	case candidates.Empty():
		st.outcomes = append(st.outcomes, OutcomeUnmatched)
	case !st.defined:
		st.defined = true
		st.versions = candidates
		st.outcomes = append(st.outcomes, OutcomeMatched)
	default:
		common := st.versions.Intersect(candidates)
		if common.Empty() {
			st.outcomes = append(st.outcomes, OutcomeOutlier)
			break
		}
		st.versions = common
		st.outcomes = append(st.outcomes, OutcomeMatched)
	}
	return st
}

func fold[T, A any](items []T, acc A, step func(A, T) A) A {
	for _, item := range items {
		acc = step(acc, item)
	}
	return acc
}

// foldConsensus reduces an ordered sequence of candidate sets to the
// consensus set and one outcome per input.
func foldConsensus(candidates []VersionSet) (VersionSet, []FileOutcome) {
	st := fold(candidates, consensusState{outcomes: make([]FileOutcome, 0, len(candidates))}, refine)
	if !st.defined {
		return VersionSet{}, st.outcomes
	}
	return st.versions, st.outcomes
}

// ResolveConsensus looks up every fetched file, in the order supplied, and
// folds the candidate sets into one.
func ResolveConsensus(files []FetchedFile, collection *Collection) Consensus {
	candidates := make([]VersionSet, len(files))
	for i, f := range files {
		candidates[i] = PossibleVersions(f, collection)
	}

	versions, outcomes := foldConsensus(candidates)
	trail := make([]FileEvidence, len(files))
	for i, f := range files {
		trail[i] = FileEvidence{
			Path:       f.Path,
			Candidates: candidates[i].Sorted(),
			Outcome:    outcomes[i],
		}
	}
	return Consensus{Versions: versions, Files: trail}
}

// FetchedEvidence is ResolveConsensus without the trail.
func FetchedEvidence(files []FetchedFile, collection *Collection) VersionSet {
	return ResolveConsensus(files, collection).Versions
}
