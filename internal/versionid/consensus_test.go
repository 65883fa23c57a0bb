package versionid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	readme, style FetchedFile
	collection    *Collection
}

func newFixture() fixture {
	readme := FetchedFile{Path: "readme.html", Hash: "12345"}
	style := FetchedFile{Path: "style.css", Hash: "09876"}
	return fixture{
		readme: readme,
		style:  style,
		collection: &Collection{
			Key:      "wordpress",
			Producer: "unittest",
			Files: []FileRecord{
				{Path: "readme.html", Signatures: []FileSignature{
					{Hash: readme.Hash, Versions: []string{"1.0"}},
					{Hash: "23456", Versions: []string{"2.0"}},
				}},
				{Path: "style.css", Signatures: []FileSignature{
					{Hash: style.Hash, Versions: []string{"1.0", "2.0"}},
				}},
			},
		},
	}
}

func TestPossibleVersions(t *testing.T) {
	fx := newFixture()

	assert.Equal(t, []string{"1.0"}, PossibleVersions(fx.readme, fx.collection).Sorted())
	assert.Equal(t, []string{"1.0", "2.0"}, PossibleVersions(fx.style, fx.collection).Sorted())
}

func TestPossibleVersionsUnknownHashOrPath(t *testing.T) {
	fx := newFixture()

	assert.True(t, PossibleVersions(FetchedFile{Path: "readme.html", Hash: "modified"}, fx.collection).Empty())
	assert.True(t, PossibleVersions(FetchedFile{Path: "missing.js", Hash: "12345"}, fx.collection).Empty())
	assert.True(t, PossibleVersions(fx.readme, nil).Empty())
}

func TestPossibleVersionsHashIsCaseInsensitive(t *testing.T) {
	c := &Collection{Files: []FileRecord{{Path: "a.js", Signatures: []FileSignature{{Hash: "ABCDEF", Versions: []string{"3.1"}}}}}}
	assert.Equal(t, []string{"3.1"}, PossibleVersions(FetchedFile{Path: "a.js", Hash: "abcdef"}, c).Sorted())
}

func TestPossibleVersionsDropsMalformedReferenceVersions(t *testing.T) {
	c := &Collection{Files: []FileRecord{{Path: "a.js", Signatures: []FileSignature{{Hash: "1", Versions: []string{"3.1", "trunk", ""}}}}}}
	assert.Equal(t, []string{"3.1"}, PossibleVersions(FetchedFile{Path: "a.js", Hash: "1"}, c).Sorted())
}

func TestPossibleVersionsDoesNotAliasReferenceData(t *testing.T) {
	fx := newFixture()
	got := PossibleVersions(fx.style, fx.collection)
	got.Add("9.9")
	assert.Equal(t, []string{"1.0", "2.0"}, fx.collection.Files[1].Signatures[0].Versions)
}

func TestFoldConsensus(t *testing.T) {
	tests := []struct {
		name     string
		in       []VersionSet
		want     []string
		outcomes []FileOutcome
	}{
		{
			name:     "no evidence",
			in:       []VersionSet{{}, {}},
			want:     []string{},
			outcomes: []FileOutcome{OutcomeUnmatched, OutcomeUnmatched},
		},
		{
			name:     "refines toward agreement",
			in:       []VersionSet{NewVersionSet("1.0", "2.0", "3.0"), NewVersionSet("2.0", "3.0"), NewVersionSet("3.0")},
			want:     []string{"3.0"},
			outcomes: []FileOutcome{OutcomeMatched, OutcomeMatched, OutcomeMatched},
		},
		{
			name:     "discards outlier",
			in:       []VersionSet{NewVersionSet("1.0", "2.0"), NewVersionSet("1.5"), NewVersionSet("1.0")},
			want:     []string{"1.0"},
			outcomes: []FileOutcome{OutcomeMatched, OutcomeOutlier, OutcomeMatched},
		},
		{
			name:     "first evidence wins on conflict",
			in:       []VersionSet{{}, NewVersionSet("2.0"), NewVersionSet("1.0")},
			want:     []string{"2.0"},
			outcomes: []FileOutcome{OutcomeUnmatched, OutcomeMatched, OutcomeOutlier},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, outcomes := foldConsensus(tt.in)
			assert.Equal(t, tt.want, got.Sorted())
			assert.Equal(t, tt.outcomes, outcomes)
		})
	}
}

func TestFetchedEvidenceIgnoresDisjointFileAtAnyPosition(t *testing.T) {
	fx := newFixture()
	fx.collection.Files = append(fx.collection.Files,
		FileRecord{Path: "login.js", Signatures: []FileSignature{{Hash: "11111", Versions: []string{"1.0"}}}},
		FileRecord{Path: "test.html", Signatures: []FileSignature{{Hash: "22222", Versions: []string{"1.5"}}}},
	)
	login := FetchedFile{Path: "login.js", Hash: "11111"}
	stray := FetchedFile{Path: "test.html", Hash: "22222"}
	base := []FetchedFile{login, fx.style, fx.readme}

	want := FetchedEvidence(base, fx.collection).Sorted()
	require.Equal(t, []string{"1.0"}, want)

	for i := 1; i <= len(base); i++ {
		files := append(append(append([]FetchedFile{}, base[:i]...), stray), base[i:]...)
		assert.Equal(t, want, FetchedEvidence(files, fx.collection).Sorted(), "stray file at position %d", i)
	}
}

func TestResolveConsensusTrail(t *testing.T) {
	fx := newFixture()
	files := []FetchedFile{fx.style, {Path: "unknown.js", Hash: "0"}, fx.readme}

	c := ResolveConsensus(files, fx.collection)

	assert.Equal(t, []string{"1.0"}, c.Versions.Sorted())
	require.Len(t, c.Files, 3)
	assert.Equal(t, OutcomeMatched, c.Files[0].Outcome)
	assert.Equal(t, OutcomeUnmatched, c.Files[1].Outcome)
	assert.Empty(t, c.Files[1].Candidates)
	assert.Equal(t, []string{"1.0"}, c.Files[2].Candidates)
}

func TestFetchedEvidenceDoesNotMutateInputs(t *testing.T) {
	fx := newFixture()
	files := []FetchedFile{fx.readme, fx.style}
	before := append([]FetchedFile{}, files...)

	FetchedEvidence(files, fx.collection)

	assert.Equal(t, before, files)
	assert.Equal(t, []string{"1.0"}, fx.collection.Files[0].Signatures[0].Versions)
	assert.Equal(t, []string{"1.0", "2.0"}, fx.collection.Files[1].Signatures[0].Versions)
}
