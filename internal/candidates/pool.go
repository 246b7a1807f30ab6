// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package candidates maintains the report-mode symbol pool: gene and
// protein symbols harvested from search output, ranked deterministically,
// expanded with family hypotheses, prescreened, and validated against
// annotation tools. Truncation for prompt budgets affects visibility only;
// a symbol leaves the pool exclusively through an explicit drop decision.
package candidates

import (
	"regexp"
	"sort"
	"strings"
	"sync"
)

// State is a candidate's lifecycle position.
type State int

const (
	Discovered State = iota
	Pinned
	Deprioritized
	Dropped
)

func (s State) String() string {
	switch s {
	case Pinned:
		return "pinned"
	case Deprioritized:
		return "deprioritized"
	case Dropped:
		return "dropped"
	default:
		return "discovered"
	}
}

// Validation holds per-symbol annotation lookups. Fields fill
// independently; one failed lookup does not blank the others.
type Validation struct {
	GOComponents  string `json:"go_components,omitempty"`
	TargetClasses string `json:"target_classes,omitempty"`
	Diseases      string `json:"diseases,omitempty"`
}

// Candidate is one pooled symbol with its sighting statistics.
type Candidate struct {
	Symbol     string
	Count      int
	LastSeen   int
	Sources    map[string]struct{}
	State      State
	Validated  bool
	Validation Validation
}

func (c *Candidate) sourceDiversity() int { return len(c.Sources) }

// symbolRE matches candidate gene/protein symbols: uppercase start, then
// uppercase letters, digits or hyphens, 2-10 characters total.
var symbolRE = regexp.MustCompile(`\b[A-Z][A-Z0-9-]{1,9}\b`)

// stoplist holds uppercase tokens that match the symbol pattern but are
// never gene symbols.
var stoplist = map[string]struct{}{
	"DNA": {}, "RNA": {}, "MRNA": {}, "ATP": {}, "ADP": {}, "GTP": {},
	"GO": {}, "KEGG": {}, "FDA": {}, "EMA": {}, "NIH": {}, "WHO": {},
	"IC50": {}, "EC50": {}, "KD": {}, "KI": {}, "DMSO": {}, "PBS": {},
	"PCR": {}, "ELISA": {}, "HPLC": {}, "USA": {}, "UK": {}, "EU": {},
	"PDF": {}, "HTML": {}, "HTTP": {}, "HTTPS": {}, "URL": {}, "DOI": {},
	"PMID": {}, "PMC": {}, "API": {}, "JSON": {}, "ID": {}, "IDS": {},
	"AND": {}, "OR": {}, "NOT": {}, "THE": {}, "FOR": {}, "WITH": {},
	"CT": {}, "MRI": {}, "PET": {}, "II": {}, "III": {}, "IV": {},
	"COVID-19": {}, "SARS-COV-2": {},
}

// Pool is the concurrency-safe candidate pool.
type Pool struct {
	mu      sync.Mutex
	symbols map[string]*Candidate
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	return &Pool{symbols: make(map[string]*Candidate)}
}

// Harvest scans search-family output for symbols and records sightings.
// iteration stamps LastSeen; source feeds diversity. Returns how many new
// symbols entered the pool.
func (p *Pool) Harvest(iteration int, source, text string) int {
	matches := symbolRE.FindAllString(text, -1)
	if len(matches) == 0 {
		return 0
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	added := 0
	for _, sym := range matches {
		if _, stop := stoplist[sym]; stop {
			continue
		}
		c, ok := p.symbols[sym]
		if !ok {
			c = &Candidate{Symbol: sym, Sources: make(map[string]struct{})}
			p.symbols[sym] = c
			added++
		}
		if c.State == Dropped {
			continue
		}
		c.Count++
		if iteration > c.LastSeen {
			c.LastSeen = iteration
		}
		c.Sources[source] = struct{}{}
	}
	return added
}

// Inject adds a symbol directly, used by family expansion. Existing
// symbols only record the sighting.
func (p *Pool) Inject(iteration int, source, symbol string) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" || !symbolRE.MatchString(symbol) {
		return
	}
	if _, stop := stoplist[symbol]; stop {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	c, ok := p.symbols[symbol]
	if !ok {
		c = &Candidate{Symbol: symbol, Sources: make(map[string]struct{})}
		p.symbols[symbol] = c
	}
	if c.State == Dropped {
		return
	}
	c.Count++
	if iteration > c.LastSeen {
		c.LastSeen = iteration
	}
	c.Sources[source] = struct{}{}
}

// Len returns the number of live (non-dropped) symbols.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.symbols {
		if c.State != Dropped {
			n++
		}
	}
	return n
}

// Get returns a copy of the candidate for symbol.
func (p *Pool) Get(symbol string) (Candidate, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.symbols[symbol]
	if !ok {
		return Candidate{}, false
	}
	return copyCandidate(c), true
}

// Ranked returns live candidates in deterministic priority order: most
// recently seen first, then higher count, then higher source diversity,
// then symbol as the tiebreaker.
func (p *Pool) Ranked() []Candidate {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rankedLocked()
}

func (p *Pool) rankedLocked() []Candidate {
	out := make([]Candidate, 0, len(p.symbols))
	for _, c := range p.symbols {
		if c.State == Dropped {
			continue
		}
		out = append(out, copyCandidate(c))
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.LastSeen != b.LastSeen {
			return a.LastSeen > b.LastSeen
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.sourceDiversity() != b.sourceDiversity() {
			return a.sourceDiversity() > b.sourceDiversity()
		}
		return a.Symbol < b.Symbol
	})
	return out
}

// Visible returns the candidates a prompt should see: the top limit by
// rank plus every pinned candidate regardless of rank. limit <= 0 means
// no truncation. The pool itself is unaffected.
func (p *Pool) Visible(limit int) []Candidate {
	ranked := p.Ranked()
	if limit <= 0 || len(ranked) <= limit {
		return ranked
	}
	out := ranked[:limit:limit]
	seen := make(map[string]struct{}, limit)
	for _, c := range out {
		seen[c.Symbol] = struct{}{}
	}
	for _, c := range ranked[limit:] {
		if c.State == Pinned {
			if _, dup := seen[c.Symbol]; !dup {
				out = append(out, c)
			}
		}
	}
	return out
}

// Pin marks a symbol exempt from visibility truncation.
func (p *Pool) Pin(symbol string) { p.setState(symbol, Pinned) }

// Deprioritize moves a symbol out of the validation queue without
// removing it.
func (p *Pool) Deprioritize(symbol string) { p.setState(symbol, Deprioritized) }

// Drop removes a symbol from all future consideration. This is the only
// way a symbol leaves the pool.
func (p *Pool) Drop(symbol string) { p.setState(symbol, Dropped) }

func (p *Pool) setState(symbol string, s State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.symbols[symbol]; ok {
		c.State = s
	}
}

// MarkValidated stores a validation result on the symbol.
func (p *Pool) MarkValidated(symbol string, v Validation) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.symbols[symbol]; ok {
		c.Validated = true
		c.Validation = v
	}
}

// Validated returns the validated live candidates in rank order.
func (p *Pool) Validated() []Candidate {
	var out []Candidate
	for _, c := range p.Ranked() {
		if c.Validated {
			out = append(out, c)
		}
	}
	return out
}

// remove deletes symbols outright. Used by the cleanup passes, which
// remove pattern-matching noise rather than deciding candidate fates.
func (p *Pool) remove(symbols []string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	removed := 0
	for _, s := range symbols {
		if _, ok := p.symbols[s]; ok {
			delete(p.symbols, s)
			removed++
		}
	}
	return removed
}

func copyCandidate(c *Candidate) Candidate {
	out := *c
	out.Sources = make(map[string]struct{}, len(c.Sources))
	for s := range c.Sources {
		out.Sources[s] = struct{}{}
	}
	return out
}
