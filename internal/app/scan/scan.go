package scan

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/MOYARU/verid/internal/app/output"
	"github.com/MOYARU/verid/internal/config"
	"github.com/MOYARU/verid/internal/engine"
	msges "github.com/MOYARU/verid/internal/messages"
	"github.com/MOYARU/verid/internal/report"
	"github.com/MOYARU/verid/internal/versionid"
)

// Saver persists finished reports; *store.Store implements it.
type Saver interface {
	Save(ctx context.Context, r *report.Report) error
}

// Scanner runs identifications with one configuration. Each call builds
// its own Identifier, so concurrent scans never share a confidence level.
type Scanner struct {
	cfg      *config.Config
	log      *logrus.Entry
	saver    Saver
	progress io.Writer
}

type Option func(*Scanner)

func WithLogger(log *logrus.Entry) Option {
	return func(s *Scanner) { s.log = log }
}

// WithSaver stores every report after it is finished. Store failures are
// recorded in the report, never returned.
func WithSaver(saver Saver) Option {
	return func(s *Scanner) { s.saver = saver }
}

// WithProgress prints stage lines to w while a live scan runs.
func WithProgress(w io.Writer) Option {
	return func(s *Scanner) { s.progress = w }
}

func New(cfg *config.Config, opts ...Option) *Scanner {
	s := &Scanner{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		s.log = logrus.NewEntry(l)
	}
	return s
}

func (s *Scanner) identifier(log *logrus.Entry) (*versionid.Identifier, error) {
	return versionid.New(
		versionid.WithConfidenceLevel(s.cfg.ConfidenceLevel),
		versionid.WithProduct(s.cfg.Product),
		versionid.WithLogger(log),
	)
}

func (s *Scanner) stage(id string, args ...interface{}) {
	if s.progress != nil {
		output.PrintStage(s.progress, msges.GetUIMessage(id, args...))
	}
}

// Identify fetches the collection's files and the exposing pages from
// target and reconciles them into a report.
func (s *Scanner) Identify(ctx context.Context, target string, c *versionid.Collection) (*report.Report, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	log := s.log.WithField("collection", c.Key)
	id, err := s.identifier(log)
	if err != nil {
		return nil, err
	}
	fetcher, err := engine.NewFetcher(target, s.cfg.Scan, log)
	if err != nil {
		return nil, err
	}

	rep := report.New(fetcher.Base().String(), c.Key)
	s.stage("ScanStart", s.cfg.Product, rep.Target)
	if s.progress != nil {
		defer fmt.Fprintln(s.progress)
	}

	s.stage("FetchingFiles", len(c.Files))
	files, err := fetcher.FetchFiles(ctx, c.Paths(), c.Algo())
	if err != nil {
		return nil, fmt.Errorf("fetch reference files: %w", err)
	}

	var bodies [][]byte
	if len(s.cfg.ExposingPages) > 0 {
		s.stage("FetchingPages", len(s.cfg.ExposingPages))
		pages, err := fetcher.FetchPages(ctx, s.cfg.ExposingPages)
		if err != nil {
			return nil, fmt.Errorf("fetch exposing pages: %w", err)
		}
		bodies = make([][]byte, 0, len(pages))
		for _, p := range pages {
			bodies = append(bodies, p.Body)
			rep.AddPage(p.URL)
		}
	}

	res, err := id.IdentifyVersion(files, c, bodies)
	if err != nil {
		return nil, err
	}
	rep.Apply(res, files)
	metrics := fetcher.Metrics()
	rep.Finish(&metrics)

	s.save(ctx, rep)
	log.WithFields(logrus.Fields{
		"target":   rep.Target,
		"status":   rep.Status,
		"version":  rep.Version,
		"decision": rep.Decision,
		"requests": metrics.Requests,
	}).Info("identification finished")
	return rep, nil
}

func (s *Scanner) save(ctx context.Context, rep *report.Report) {
	if s.saver == nil {
		return
	}
	if err := s.saver.Save(ctx, rep); err != nil {
		rep.AddError(fmt.Errorf("store result: %w", err))
		s.log.WithError(err).Warn("result not stored")
	}
}
