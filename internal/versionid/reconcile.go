package versionid

// DefaultConfidenceLevel is full trust in fetched-file evidence.
const DefaultConfidenceLevel = 100

type Status string

const (
	StatusIdentified   Status = "identified"
	StatusNoEvidence   Status = "no_evidence"
	StatusInconclusive Status = "inconclusive"
)

// Decision names the branch the reconciler took, for reports and logs.
type Decision string

const (
	DecisionNone           Decision = "none"
	DecisionSingleFetched  Decision = "single_fetched_version"
	DecisionLowestFetched  Decision = "lowest_fetched_version"
	DecisionCommon         Decision = "lowest_common_version"
	DecisionTrustFetched   Decision = "trusted_fetched_over_source"
	DecisionSameMinor      Decision = "source_same_minor"
	DecisionSameMajor      Decision = "source_same_major"
	DecisionIrreconcilable Decision = "irreconcilable"
)

type Reconciliation struct {
	Version  string
	Status   Status
	Decision Decision
}

// Reconcile picks one version out of the fetched-file evidence and the
// optional page evidence. Ambiguity always resolves to the lowest candidate.
func Reconcile(fetched, source VersionSet, confidence int) Reconciliation {
	if fetched.Empty() {
		return Reconciliation{Status: StatusNoEvidence, Decision: DecisionNone}
	}

	// an exact hash match on one version is never overridden by page text
	if v, ok := fetched.Only(); ok {
		return identified(v, DecisionSingleFetched)
	}

	if source.Empty() {
		return identified(Lowest(fetched), DecisionLowestFetched)
	}

	if common := fetched.Intersect(source); !common.Empty() {
		return identified(Lowest(common), DecisionCommon)
	}

	if confidence >= 100 {
		return identified(Lowest(fetched), DecisionTrustFetched)
	}

	if near := closeTo(source, fetched, ShareMajorMinor); !near.Empty() {
		return identified(Lowest(near), DecisionSameMinor)
	}
	if near := closeTo(source, fetched, ShareMajor); !near.Empty() {
		return identified(Lowest(near), DecisionSameMajor)
	}
	return Reconciliation{Status: StatusInconclusive, Decision: DecisionIrreconcilable}
}

func identified(v string, d Decision) Reconciliation {
	return Reconciliation{Version: v, Status: StatusIdentified, Decision: d}
}

// closeTo keeps the source versions that relate to at least one fetched
// version under the given predicate.
func closeTo(source, fetched VersionSet, related func(a, b string) bool) VersionSet {
	return source.Filter(func(v string) bool {
		for f := range fetched {
			if related(v, f) {
				return true
			}
		}
		return false
	})
}
