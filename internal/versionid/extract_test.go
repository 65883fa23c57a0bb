package versionid

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readSample(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return b
}

func TestVersionsInPage(t *testing.T) {
	e := NewExtractor("")

	tests := []struct {
		sample string
		want   []string
	}{
		{sample: "delvelabs_homepage.html", want: []string{"4.7.5"}},
		{sample: "delvelabs_login.html", want: []string{"4.7.5"}},
		{sample: "sample_homepage.html", want: []string{"1.2.1", "1.11.2", "3.2", "4.2.2"}},
		{sample: "canola_login.html", want: []string{"4.2.2"}},
	}
	for _, tt := range tests {
		t.Run(tt.sample, func(t *testing.T) {
			got := e.VersionsInPage(readSample(t, tt.sample))
			assert.Equal(t, tt.want, got.Sorted())
		})
	}
}

func TestVersionsInPageGeneratorMetaTagIsAuthoritative(t *testing.T) {
	e := NewExtractor(DefaultProduct)

	assert.Equal(t, []string{"4.7.5"}, e.VersionsInPage(readSample(t, "delvelabs_homepage.html")).Sorted())
	assert.Equal(t, []string{"4.2.2"}, e.VersionsInPage(readSample(t, "canola_homepage.html")).Sorted())
}

func TestVersionsInPageGeneratorComment(t *testing.T) {
	e := NewExtractor(DefaultProduct)
	assert.Equal(t, []string{"4.7.5"}, e.VersionsInPage(readSample(t, "wp-links-opml.php")).Sorted())
}

func TestVersionsInPageFeedGenerator(t *testing.T) {
	e := NewExtractor(DefaultProduct)
	assert.Equal(t, []string{"4.7.5"}, e.VersionsInPage(readSample(t, "feed.xml")).Sorted())
}

func TestVersionsInPageOtherProductGeneratorIsIgnored(t *testing.T) {
	page := []byte(`<meta name="generator" content="Drupal 8.3.2"><script src="/misc/drupal.js?ver=8.3.2"></script>`)

	assert.Equal(t, []string{"8.3.2"}, NewExtractor("WordPress").VersionsInPage(page).Sorted())
	assert.Equal(t, []string{"8.3.2"}, NewExtractor("Drupal").VersionsInPage(page).Sorted())
}

func TestVersionsInPageEdgeCases(t *testing.T) {
	e := NewExtractor(DefaultProduct)

	assert.True(t, e.VersionsInPage(nil).Empty())
	assert.True(t, e.VersionsInPage([]byte("plain text, no markup 1.2.3")).Empty())
	assert.Equal(t, []string{"2.1"}, e.VersionsInPage([]byte(`<img src="/a.png?version=2.1&ver=7">`)).Sorted())
}

func TestVersionsInPagesUnionsEveryPage(t *testing.T) {
	e := NewExtractor(DefaultProduct)
	pages := [][]byte{
		readSample(t, "sample_homepage.html"),
		readSample(t, "delvelabs_login.html"),
	}

	got := e.VersionsInPages(pages)
	assert.Equal(t, []string{"1.2.1", "1.11.2", "3.2", "4.2.2", "4.7.5"}, got.Sorted())
	assert.True(t, e.VersionsInPages(nil).Empty())
}
