// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// BibliographyEntry is the long-lived record of a cited source, keyed by a
// stable citation key. Fields fill in monotonically across rounds: a later
// sighting may add detail but never blanks out what an earlier one recorded.
type BibliographyEntry struct {
	Key            string   `json:"key"`
	Title          string   `json:"title,omitempty"`
	URL            string   `json:"url,omitempty"`
	DOI            string   `json:"doi,omitempty"`
	Year           string   `json:"year,omitempty"`
	Authors        []string `json:"authors,omitempty"`
	FirstSeenRound int      `json:"first_seen_round"`
	APA            string   `json:"apa,omitempty"`
	Description    string   `json:"description,omitempty"`
}

// SourcesReference is one numbered entry of the in-run reference pool.
// Index is 1-based and stable for the lifetime of the run.
type SourcesReference struct {
	Index    int    `json:"index"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Link     string `json:"link"`
}
