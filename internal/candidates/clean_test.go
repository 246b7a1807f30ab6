// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package candidates

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

// cannedClient returns one fixed response.
type cannedClient struct {
	response string
	err      error
	prompts  []string
}

func (c *cannedClient) Complete(ctx context.Context, prompt string) (string, error) {
	c.prompts = append(c.prompts, prompt)
	return c.response, c.err
}

func TestClean(t *testing.T) {
	p := NewPool()
	p.Harvest(1, "s", "EGFR XYZQW HER2")

	cl := NewCleaner(&cannedClient{response: `{"remove": ["XYZQW", "NOTPOOLED"]}`}, 250, zap.NewNop())
	removed := cl.Clean(context.Background(), p)

	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, ok := p.Get("XYZQW"); ok {
		t.Error("XYZQW still pooled")
	}
	if _, ok := p.Get("EGFR"); !ok {
		t.Error("EGFR removed without being named")
	}
}

func TestCleanDegradesToNoop(t *testing.T) {
	p := NewPool()
	p.Harvest(1, "s", "EGFR")

	cl := NewCleaner(&cannedClient{err: errors.New("down")}, 250, zap.NewNop())
	if removed := cl.Clean(context.Background(), p); removed != 0 {
		t.Errorf("removed = %d on model failure, want 0", removed)
	}

	cl = NewCleaner(&cannedClient{response: "not json"}, 250, zap.NewNop())
	if removed := cl.Clean(context.Background(), p); removed != 0 {
		t.Errorf("removed = %d on unparseable verdict, want 0", removed)
	}
	if p.Len() != 1 {
		t.Errorf("Len = %d, want 1", p.Len())
	}
}

func TestHardFilter(t *testing.T) {
	p := NewPool()
	// ER is ambiguous, XY is short and not allowlisted, AR is
	// allowlisted, CYP3A is a bare family prefix, EGFR is fine.
	for _, sym := range []string{"ER", "XY", "AR", "CYP3A", "EGFR"} {
		p.Inject(1, "s", sym)
	}

	HardFilter(p)

	for _, gone := range []string{"ER", "XY", "CYP3A"} {
		if _, ok := p.Get(gone); ok {
			t.Errorf("%s survived hard filter", gone)
		}
	}
	for _, kept := range []string{"AR", "EGFR"} {
		if _, ok := p.Get(kept); !ok {
			t.Errorf("%s removed by hard filter", kept)
		}
	}
}

func TestDiverge(t *testing.T) {
	p := NewPool()
	// Four AKR1C members establish a frequent prefix.
	p.Harvest(1, "s", "AKR1C1 AKR1C2 AKR1C3 AKR1C4 EGFR")

	client := &cannedClient{response: `{"symbols": ["AKR1B1", "AKR1C1", "AKR1D1"]}`}
	e := NewExpander(client, 250, 0, zap.NewNop())

	added := e.Diverge(context.Background(), p, 2)
	if len(added) != 2 {
		t.Fatalf("added = %v, want 2 new symbols (AKR1C1 already pooled)", added)
	}

	c, ok := p.Get("AKR1B1")
	if !ok {
		t.Fatal("AKR1B1 not injected")
	}
	if _, fromExpansion := c.Sources[expansionSource]; !fromExpansion {
		t.Errorf("expansion source missing: %v", c.Sources)
	}
}

func TestDivergeNeedsFrequentPrefix(t *testing.T) {
	p := NewPool()
	p.Harvest(1, "s", "EGFR HER2")

	client := &cannedClient{response: `{"symbols": ["KRAS"]}`}
	e := NewExpander(client, 250, 0, zap.NewNop())
	if added := e.Diverge(context.Background(), p, 1); added != nil {
		t.Errorf("added = %v without any frequent prefix", added)
	}
	if len(client.prompts) != 0 {
		t.Error("model called despite no frequent prefix")
	}
}

func TestProfileThrottled(t *testing.T) {
	p := NewPool()
	p.Harvest(1, "s", "EGFR HER2 KRAS")

	client := &cannedClient{response: "A small kinase-heavy pool."}
	e := NewExpander(client, 250, 2, zap.NewNop())

	if got := e.Profile(context.Background(), p, 1); got == "" {
		t.Error("first profile of iteration skipped")
	}
	if got := e.Profile(context.Background(), p, 1); got != "" {
		t.Error("second profile same iteration not throttled")
	}
	if got := e.Profile(context.Background(), p, 2); got == "" {
		t.Error("next iteration profile skipped")
	}
}

func TestProfileRequiresMinPool(t *testing.T) {
	p := NewPool()
	p.Harvest(1, "s", "EGFR")

	e := NewExpander(&cannedClient{response: "x"}, 250, 60, zap.NewNop())
	if got := e.Profile(context.Background(), p, 1); got != "" {
		t.Errorf("Profile = %q below minimum pool size", got)
	}
}
