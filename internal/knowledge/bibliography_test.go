// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshintel/biosearch-engine/pkg/types"
)

func TestBibliographyAddOrUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bibliography.json")
	b, err := OpenBibliography(path)
	require.NoError(t, err)

	require.NoError(t, b.AddOrUpdate("smith2023", types.BibliographyEntry{
		Title: "EGFR review",
		URL:   "https://example.org/egfr",
	}, 3))

	// A later sighting with extra detail fills in, never blanks out.
	require.NoError(t, b.AddOrUpdate("smith2023", types.BibliographyEntry{
		DOI:  "10.1000/egfr",
		Year: "2023",
	}, 5))

	e, ok := b.Get("smith2023")
	require.True(t, ok)
	assert.Equal(t, "EGFR review", e.Title)
	assert.Equal(t, "10.1000/egfr", e.DOI)
	assert.Equal(t, 3, e.FirstSeenRound)

	// An earlier round lowers FirstSeenRound.
	require.NoError(t, b.AddOrUpdate("smith2023", types.BibliographyEntry{}, 1))
	e, _ = b.Get("smith2023")
	assert.Equal(t, 1, e.FirstSeenRound)
}

func TestBibliographyPersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bibliography.json")

	b, err := OpenBibliography(path)
	require.NoError(t, err)
	require.NoError(t, b.AddOrUpdate("lee2022", types.BibliographyEntry{Title: "T790M"}, 2))

	reopened, err := OpenBibliography(path)
	require.NoError(t, err)
	e, ok := reopened.Get("lee2022")
	require.True(t, ok)
	assert.Equal(t, "T790M", e.Title)
	assert.Equal(t, 2, e.FirstSeenRound)
}

func TestBibliographyMergeEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bibliography.json")
	b, err := OpenBibliography(path)
	require.NoError(t, err)

	require.NoError(t, b.AddOrUpdate("tmp-key", types.BibliographyEntry{
		Title: "Provisional",
		URL:   "https://example.org/x",
	}, 1))
	require.NoError(t, b.AddOrUpdate("doi-key", types.BibliographyEntry{
		DOI: "10.1000/x",
	}, 4))

	require.NoError(t, b.MergeEntries("tmp-key", "doi-key"))

	_, ok := b.Get("tmp-key")
	assert.False(t, ok, "old key should be gone")

	e, ok := b.Get("doi-key")
	require.True(t, ok)
	assert.Equal(t, "Provisional", e.Title, "missing fields copied from old entry")
	assert.Equal(t, "10.1000/x", e.DOI, "existing fields kept")
	assert.Equal(t, 1, e.FirstSeenRound)

	// Merging a missing key is a no-op.
	require.NoError(t, b.MergeEntries("ghost", "doi-key"))
}
