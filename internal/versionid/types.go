package versionid

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMalformedCollection = errors.New("malformed fingerprint collection")
	ErrInvalidConfidence   = errors.New("confidence level must be within [0,100]")
)

// FetchedFile is one static file retrieved from the target, identified by
// its path relative to the product root and the hex digest of its body.
type FetchedFile struct {
	Path string `json:"path" yaml:"path"`
	Hash string `json:"hash" yaml:"hash"`
}

type FileSignature struct {
	Hash     string   `json:"hash" yaml:"hash"`
	Algo     string   `json:"algo,omitempty" yaml:"algo,omitempty"`
	Versions []string `json:"versions" yaml:"versions"`
}

type FileRecord struct {
	Path       string          `json:"path" yaml:"path"`
	Signatures []FileSignature `json:"signatures" yaml:"signatures"`
}

// Collection is the reference fingerprint universe for one product.
type Collection struct {
	Key      string       `json:"key" yaml:"key"`
	Producer string       `json:"producer" yaml:"producer"`
	HashAlgo string       `json:"hash_algo,omitempty" yaml:"hash_algo,omitempty"`
	Files    []FileRecord `json:"files" yaml:"files"`
}

// Validate reports structural defects that make the collection unusable as
// reference data. Malformed version strings are not defects; they are
// dropped at lookup time.
func (c *Collection) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: nil collection", ErrMalformedCollection)
	}
	algo := normalizeAlgo(c.HashAlgo)
	for i, rec := range c.Files {
		if strings.TrimSpace(rec.Path) == "" {
			return fmt.Errorf("%w: file #%d has an empty path", ErrMalformedCollection, i)
		}
		for j, sig := range rec.Signatures {
			if strings.TrimSpace(sig.Hash) == "" {
				return fmt.Errorf("%w: %s signature #%d has an empty hash", ErrMalformedCollection, rec.Path, j)
			}
			sigAlgo := normalizeAlgo(sig.Algo)
			switch {
			case sigAlgo == "":
			case algo == "":
				algo = sigAlgo
			case sigAlgo != algo:
				// fetched files are hashed once, with a single algorithm
				return fmt.Errorf("%w: %s signature #%d uses %s, collection uses %s",
					ErrMalformedCollection, rec.Path, j, sigAlgo, algo)
			}
		}
	}
	return nil
}

func normalizeAlgo(algo string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(algo), "-", ""))
}

// Paths lists every file path the collection knows about, in collection order.
func (c *Collection) Paths() []string {
	paths := make([]string, 0, len(c.Files))
	for _, rec := range c.Files {
		paths = append(paths, rec.Path)
	}
	return paths
}

// Algo returns the hash algorithm the collection's digests were computed
// with. Validate guarantees every signature agrees with it.
func (c *Collection) Algo() string {
	if algo := normalizeAlgo(c.HashAlgo); algo != "" {
		return algo
	}
	for _, rec := range c.Files {
		for _, sig := range rec.Signatures {
			if algo := normalizeAlgo(sig.Algo); algo != "" {
				return algo
			}
		}
	}
	return "SHA256"
}

// Versions returns every well-formed version mentioned by any signature.
func (c *Collection) Versions() VersionSet {
	out := VersionSet{}
	for _, rec := range c.Files {
		for _, sig := range rec.Signatures {
			out.Add(sig.Versions...)
		}
	}
	return out
}
