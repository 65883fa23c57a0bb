package messages

import (
	"testing"

	"github.com/MOYARU/verid/internal/versionid"
)

func TestEveryDecisionHasAMessage(t *testing.T) {
	decisions := []versionid.Decision{
		versionid.DecisionNone,
		versionid.DecisionSingleFetched,
		versionid.DecisionLowestFetched,
		versionid.DecisionCommon,
		versionid.DecisionTrustFetched,
		versionid.DecisionSameMinor,
		versionid.DecisionSameMajor,
		versionid.DecisionIrreconcilable,
	}
	for _, d := range decisions {
		if _, ok := decisionMessages[string(d)]; !ok {
			t.Fatalf("missing message for decision %q", d)
		}
	}
}

func TestGetUIMessage(t *testing.T) {
	if got := GetUIMessage("JSONReportSaved", "out.json"); got != "JSON Report saved: out.json" {
		t.Fatalf("unexpected message: %q", got)
	}
	if got := GetUIMessage("NoSuchMessage"); got != "NoSuchMessage" {
		t.Fatalf("unknown id should echo back, got %q", got)
	}
	if got := GetDecisionMessage("made_up"); got.Title != "made_up" {
		t.Fatalf("unexpected fallback: %+v", got)
	}
}
