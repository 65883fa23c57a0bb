package versionid

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Result is the outcome of one identification. Version is empty unless
// Status is StatusIdentified.
type Result struct {
	Version         string         `json:"version,omitempty"`
	Status          Status         `json:"status"`
	Decision        Decision       `json:"decision"`
	FetchedEvidence []string       `json:"fetched_evidence"`
	SourceEvidence  []string       `json:"source_evidence,omitempty"`
	Files           []FileEvidence `json:"files,omitempty"`
	Confidence      int            `json:"confidence_level"`
}

func (r Result) Found() bool { return r.Status == StatusIdentified }

// Identifier resolves versions for one scan session. It is not meant to be
// shared between concurrent scans; build one per scan.
type Identifier struct {
	confidence int
	extractor  *Extractor
	log        *logrus.Entry
}

type Option func(*Identifier) error

func WithConfidenceLevel(level int) Option {
	return func(id *Identifier) error {
		return id.SetConfidenceLevel(level)
	}
}

func WithProduct(product string) Option {
	return func(id *Identifier) error {
		id.extractor = NewExtractor(product)
		return nil
	}
}

func WithLogger(entry *logrus.Entry) Option {
	return func(id *Identifier) error {
		if entry != nil {
			id.log = entry
		}
		return nil
	}
}

func New(opts ...Option) (*Identifier, error) {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	id := &Identifier{
		confidence: DefaultConfidenceLevel,
		extractor:  NewExtractor(DefaultProduct),
		log:        logrus.NewEntry(quiet),
	}
	for _, opt := range opts {
		if err := opt(id); err != nil {
			return nil, err
		}
	}
	return id, nil
}

// SetConfidenceLevel sets how much fetched-file evidence is trusted over page
// evidence when the two disagree.
func (id *Identifier) SetConfidenceLevel(level int) error {
	if level < 0 || level > 100 {
		return fmt.Errorf("%w: got %d", ErrInvalidConfidence, level)
	}
	id.confidence = level
	return nil
}

func (id *Identifier) ConfidenceLevel() int { return id.confidence }

func (id *Identifier) Extractor() *Extractor { return id.extractor }

// IdentifyVersion correlates the fetched files with the collection and, when
// pages is non-nil, with the versions exposed by those pages. An error is
// returned only for unusable reference data; absence of a version is a
// normal Result.
func (id *Identifier) IdentifyVersion(files []FetchedFile, collection *Collection, pages [][]byte) (Result, error) {
	if err := collection.Validate(); err != nil {
		return Result{}, err
	}

	consensus := ResolveConsensus(files, collection)
	for _, f := range consensus.Files {
		id.log.WithFields(logrus.Fields{
			"path":       f.Path,
			"outcome":    f.Outcome,
			"candidates": f.Candidates,
		}).Debug("file evidence")
	}

	var source VersionSet
	if pages != nil {
		source = id.extractor.VersionsInPages(pages)
		id.log.WithField("versions", source.Sorted()).Debugf("page evidence from %d page(s)", len(pages))
	}

	rec := Reconcile(consensus.Versions, source, id.confidence)
	id.log.WithFields(logrus.Fields{
		"status":   rec.Status,
		"decision": rec.Decision,
		"version":  rec.Version,
	}).Debug("reconciled")

	res := Result{
		Version:         rec.Version,
		Status:          rec.Status,
		Decision:        rec.Decision,
		FetchedEvidence: consensus.Versions.Sorted(),
		Files:           consensus.Files,
		Confidence:      id.confidence,
	}
	if source != nil {
		res.SourceEvidence = source.Sorted()
	}
	return res, nil
}

// VersionsInSourceFiles exposes the page extractor with the identifier's
// product settings.
func (id *Identifier) VersionsInSourceFiles(pages [][]byte) VersionSet {
	return id.extractor.VersionsInPages(pages)
}
