package versionid

import "strings"

// PossibleVersions returns every version known to ship exactly the fetched
// content at the fetched path. An unknown path or an unknown hash (a locally
// modified file, for instance) yields an empty set.
func PossibleVersions(file FetchedFile, collection *Collection) VersionSet {
	if collection == nil {
		return VersionSet{}
	}
	rec, ok := findRecord(collection, file.Path)
	if !ok {
		return VersionSet{}
	}
	for _, sig := range rec.Signatures {
		if strings.EqualFold(sig.Hash, file.Hash) {
			return NewVersionSet(sig.Versions...)
		}
	}
	return VersionSet{}
}

func findRecord(collection *Collection, path string) (FileRecord, bool) {
	for _, rec := range collection.Files {
		if rec.Path == path {
			return rec, true
		}
	}
	return FileRecord{}, false
}
