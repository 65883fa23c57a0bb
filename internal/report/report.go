package report

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/MOYARU/verid/internal/engine"
	"github.com/MOYARU/verid/internal/versionid"
)

// FileEntry is one reference file as the consensus saw it.
type FileEntry struct {
	Path       string                `json:"path"`
	Hash       string                `json:"hash"`
	Candidates []string              `json:"candidates"`
	Outcome    versionid.FileOutcome `json:"outcome"`
}

// Report is the record of one identification, live or offline.
type Report struct {
	ScanID          string             `json:"scan_id"`
	Target          string             `json:"target"`
	Collection      string             `json:"collection"`
	Status          versionid.Status   `json:"status"`
	Version         string             `json:"version,omitempty"`
	Decision        versionid.Decision `json:"decision"`
	Confidence      int                `json:"confidence"`
	FetchedEvidence []string           `json:"fetched_evidence"`
	SourceEvidence  []string           `json:"source_evidence,omitempty"`
	Files           []FileEntry        `json:"files"`
	Pages           []string           `json:"pages,omitempty"`
	Metrics         *engine.Metrics    `json:"metrics,omitempty"`
	Errors          []string           `json:"errors,omitempty"`
	StartTime       time.Time          `json:"start_time"`
	EndTime         time.Time          `json:"end_time"`
	DurationMS      int64              `json:"duration_ms"`
}

func New(target, collection string) *Report {
	return &Report{
		ScanID:     uuid.NewString(),
		Target:     SanitizeURL(target),
		Collection: collection,
		Status:     versionid.StatusNoEvidence,
		Decision:   versionid.DecisionNone,
		StartTime:  time.Now(),
	}
}

// Apply copies an engine result into the report. files is the slice the
// result was computed from; res.Files follows its order, so hashes are
// paired by position and a path fetched twice keeps both digests.
func (r *Report) Apply(res versionid.Result, files []versionid.FetchedFile) {
	r.Status = res.Status
	r.Version = res.Version
	r.Decision = res.Decision
	r.Confidence = res.Confidence
	r.FetchedEvidence = append([]string{}, res.FetchedEvidence...)
	if res.SourceEvidence != nil {
		r.SourceEvidence = append([]string{}, res.SourceEvidence...)
	}
	r.Files = make([]FileEntry, 0, len(res.Files))
	for i, fe := range res.Files {
		var hash string
		if i < len(files) && files[i].Path == fe.Path {
			hash = files[i].Hash
		}
		r.Files = append(r.Files, FileEntry{
			Path:       fe.Path,
			Hash:       hash,
			Candidates: append([]string{}, fe.Candidates...),
			Outcome:    fe.Outcome,
		})
	}
}

func (r *Report) AddPage(u string) {
	r.Pages = append(r.Pages, SanitizeURL(u))
}

func (r *Report) AddError(err error) {
	if err == nil {
		return
	}
	r.Errors = append(r.Errors, SanitizeText(err.Error()))
}

// Finish stamps the end time and, for live scans, the traffic metrics.
func (r *Report) Finish(m *engine.Metrics) {
	r.EndTime = time.Now()
	r.DurationMS = r.EndTime.Sub(r.StartTime).Milliseconds()
	r.Metrics = m
}

func (r *Report) Found() bool {
	return r.Status == versionid.StatusIdentified
}

// Err summarises a failed report for exit codes; nil when identified.
func (r *Report) Err() error {
	switch r.Status {
	case versionid.StatusIdentified:
		return nil
	case versionid.StatusInconclusive:
		return ErrInconclusive
	default:
		return ErrNoEvidence
	}
}

var (
	ErrNoEvidence   = errors.New("no version evidence found")
	ErrInconclusive = errors.New("version evidence is inconclusive")
)

// Counts tallies the file trail by outcome.
func (r *Report) Counts() map[versionid.FileOutcome]int {
	out := make(map[versionid.FileOutcome]int)
	for _, f := range r.Files {
		out[f.Outcome]++
	}
	return out
}

// Outliers lists the paths discarded as disagreeing with the consensus.
func (r *Report) Outliers() []string {
	var paths []string
	for _, f := range r.Files {
		if f.Outcome == versionid.OutcomeOutlier {
			paths = append(paths, f.Path)
		}
	}
	sort.Strings(paths)
	return paths
}
