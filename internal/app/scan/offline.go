package scan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MOYARU/verid/internal/engine"
	"github.com/MOYARU/verid/internal/report"
	"github.com/MOYARU/verid/internal/versionid"
)

var ErrInvalidManifest = errors.New("invalid offline manifest")

// ManifestFile is a reference file captured earlier. Either Hash is given,
// or File names a saved copy to hash with the collection's algorithm.
type ManifestFile struct {
	Path string `json:"path"`
	Hash string `json:"hash,omitempty"`
	File string `json:"file,omitempty"`
}

// Manifest describes an identification that needs no network: files that
// were already fetched and pages saved to disk. A missing "pages" key
// means no page evidence at all; an empty list means pages were read and
// exposed nothing.
type Manifest struct {
	Target string         `json:"target"`
	Files  []ManifestFile `json:"files"`
	Pages  []string       `json:"pages"`

	dir string
}

// LoadManifest reads a manifest; relative file and page paths resolve
// against the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	for i, f := range m.Files {
		if f.Path == "" || (f.Hash == "" && f.File == "") {
			return nil, fmt.Errorf("%w: file #%d needs a path and a hash or file", ErrInvalidManifest, i)
		}
	}
	m.dir = filepath.Dir(path)
	return &m, nil
}

func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) || m.dir == "" {
		return p
	}
	return filepath.Join(m.dir, p)
}

// FetchedFiles turns the manifest entries into engine input, hashing saved
// copies with algo.
func (m *Manifest) FetchedFiles(algo string) ([]versionid.FetchedFile, error) {
	out := make([]versionid.FetchedFile, 0, len(m.Files))
	for _, f := range m.Files {
		if f.Hash != "" {
			out = append(out, versionid.FetchedFile{Path: f.Path, Hash: f.Hash})
			continue
		}
		body, err := os.ReadFile(m.resolve(f.File))
		if err != nil {
			return nil, err
		}
		sum, err := engine.HashContent(algo, body)
		if err != nil {
			return nil, err
		}
		out = append(out, versionid.FetchedFile{Path: f.Path, Hash: sum})
	}
	return out, nil
}

// PageBodies reads the saved pages, or returns nil when the manifest has
// no "pages" key.
func (m *Manifest) PageBodies() ([][]byte, error) {
	if m.Pages == nil {
		return nil, nil
	}
	bodies := make([][]byte, 0, len(m.Pages))
	for _, p := range m.Pages {
		b, err := os.ReadFile(m.resolve(p))
		if err != nil {
			return nil, err
		}
		bodies = append(bodies, b)
	}
	return bodies, nil
}

// IdentifyOffline runs the engine on a manifest without any network access.
func (s *Scanner) IdentifyOffline(ctx context.Context, m *Manifest, c *versionid.Collection) (*report.Report, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	log := s.log.WithField("collection", c.Key)
	id, err := s.identifier(log)
	if err != nil {
		return nil, err
	}

	files, err := m.FetchedFiles(c.Algo())
	if err != nil {
		return nil, err
	}
	bodies, err := m.PageBodies()
	if err != nil {
		return nil, err
	}

	rep := report.New(m.Target, c.Key)
	for _, p := range m.Pages {
		rep.AddPage(p)
	}
	res, err := id.IdentifyVersion(files, c, bodies)
	if err != nil {
		return nil, err
	}
	rep.Apply(res, files)
	rep.Finish(nil)
	s.save(ctx, rep)
	return rep, nil
}
