package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/MOYARU/verid/internal/app/ui"
	"github.com/MOYARU/verid/internal/fingerprint"
	msges "github.com/MOYARU/verid/internal/messages"
	"github.com/MOYARU/verid/internal/report"
	"github.com/MOYARU/verid/internal/versionid"
)

var progressMu sync.Mutex

// PrintStage rewrites the current progress line.
func PrintStage(w io.Writer, stage string) {
	progressMu.Lock()
	defer progressMu.Unlock()
	if len(stage) > 70 {
		stage = stage[:67] + "..."
	}
	fmt.Fprintf(w, "\r %s\033[K", ui.Paint(ui.ColorGray, stage))
}

// PrintReport writes the human-readable result. showFiles adds the
// per-file trail.
func PrintReport(w io.Writer, r *report.Report, showFiles bool) {
	fmt.Fprintf(w, "\n%s\n", ui.Paint(ui.ColorWhite, msges.GetUIMessage("ResultTitle")))

	switch r.Status {
	case versionid.StatusIdentified:
		fmt.Fprintln(w, ui.Paint(ui.ColorGreen, msges.GetUIMessage("IdentifiedVersion", r.Collection, r.Version)))
	case versionid.StatusInconclusive:
		fmt.Fprintln(w, ui.Paint(ui.ColorYellow, msges.GetUIMessage("InconclusiveWarning")))
	default:
		fmt.Fprintln(w, ui.Paint(ui.ColorYellow, msges.GetUIMessage("NoEvidenceWarning")))
	}

	detail := msges.GetDecisionMessage(string(r.Decision))
	if r.Version != "" {
		printField(w, "ResultVersion", r.Version)
	}
	printField(w, "ResultStatus", string(r.Status))
	printField(w, "ResultDecision", detail.Title)
	fmt.Fprintf(w, "  %s\n", ui.Paint(ui.ColorGray, detail.Message))
	if detail.Hint != "" {
		fmt.Fprintf(w, "  %s\n", ui.Paint(ui.ColorGray, detail.Hint))
	}
	printField(w, "ResultConfidence", fmt.Sprintf("%d", r.Confidence))
	printField(w, "ResultFetched", joinOrDash(r.FetchedEvidence))
	if r.SourceEvidence != nil {
		printField(w, "ResultSource", joinOrDash(r.SourceEvidence))
	}

	counts := r.Counts()
	fmt.Fprintf(w, "\n%s\n", ui.Paint(ui.ColorWhite, msges.GetUIMessage("FilesTitle")))
	fmt.Fprintln(w, msges.GetUIMessage("FilesSummary",
		counts[versionid.OutcomeMatched], counts[versionid.OutcomeOutlier], counts[versionid.OutcomeUnmatched]))
	if showFiles {
		for _, f := range r.Files {
			fmt.Fprintf(w, "  %s %-45s %s\n", outcomeMark(f.Outcome), f.Path, joinOrDash(f.Candidates))
		}
	}

	if len(r.Pages) > 0 {
		printField(w, "PagesTitle", strings.Join(r.Pages, ", "))
	}
	if r.Metrics != nil {
		fmt.Fprintln(w, ui.Paint(ui.ColorGray, msges.GetUIMessage("MetricsLine",
			r.Metrics.Requests, r.Metrics.Failures, time.Duration(r.DurationMS)*time.Millisecond)))
	}
	if len(r.Errors) > 0 {
		fmt.Fprintf(w, "%s\n", ui.Paint(ui.ColorRed, msges.GetUIMessage("ErrorsTitle")))
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  - %s\n", e)
		}
	}
}

func printField(w io.Writer, id, value string) {
	fmt.Fprintf(w, "%-18s %s\n", msges.GetUIMessage(id)+":", value)
}

func outcomeMark(o versionid.FileOutcome) string {
	switch o {
	case versionid.OutcomeMatched:
		return ui.Paint(ui.ColorGreen, "+")
	case versionid.OutcomeOutlier:
		return ui.Paint(ui.ColorYellow, "!")
	default:
		return ui.Paint(ui.ColorGray, "-")
	}
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}

// PrintStats writes the dbinfo table.
func PrintStats(w io.Writer, stats []fingerprint.Stats) {
	fmt.Fprintf(w, "%s\n", ui.Paint(ui.ColorWhite, msges.GetUIMessage("DBInfoTitle")))
	for _, st := range stats {
		fmt.Fprintf(w, "%s (%s, %s)\n", ui.Paint(ui.ColorGreen, st.Key), st.Producer, st.HashAlgo)
		fmt.Fprintf(w, "  files %d, signatures %d, versions %d\n", st.Files, st.Signatures, st.Versions)
		if st.Versions > 0 {
			fmt.Fprintf(w, "  range %s .. %s\n", st.Oldest, st.Newest)
		}
	}
}

// WriteJSON encodes v indented, as the --json flag prints it.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// SaveJSONReport writes r to dir (the working directory when empty) and
// returns the file name.
func SaveJSONReport(r *report.Report, dir string) (string, error) {
	timestamp := r.StartTime.Format("20060102_150405")
	sanitizedTarget := strings.NewReplacer("://", "_", "/", "_", ":", "_", "?", "_").Replace(strings.TrimSuffix(r.Target, "/"))
	filename := filepath.Join(dir, fmt.Sprintf("verid_report_%s_%s.json", sanitizedTarget, timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if err := WriteJSON(file, r); err != nil {
		return "", err
	}
	return filename, nil
}
