// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package candidates

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
)

func TestPrescreenAppliesVerdict(t *testing.T) {
	p := NewPool()
	p.Harvest(1, "s", "EGFR HER2 KRAS XYZQW")

	client := &cannedClient{response: `{
		"selected": ["HER2", "KRAS"],
		"deprioritized": ["EGFR"],
		"dropped": ["XYZQW", "NOTPOOLED"]
	}`}
	ps := NewPrescreener(client, 12, zap.NewNop())

	selected := ps.Prescreen(context.Background(), p, "What does EGFR signal to?")
	if len(selected) != 2 || selected[0] != "HER2" {
		t.Fatalf("selected = %v", selected)
	}
	if c, _ := p.Get("EGFR"); c.State != Deprioritized {
		t.Errorf("EGFR state = %v, want deprioritized", c.State)
	}
	if c, _ := p.Get("XYZQW"); c.State != Dropped {
		t.Errorf("XYZQW state = %v, want dropped", c.State)
	}
	if _, ok := p.Get("NOTPOOLED"); ok {
		t.Error("verdict invented a symbol into the pool")
	}
}

func TestPrescreenCapsSelection(t *testing.T) {
	p := NewPool()
	p.Harvest(1, "s", "AAA1 BBB1 CCC1 DDD1")

	client := &cannedClient{response: `{"selected": ["AAA1", "BBB1", "CCC1", "DDD1"]}`}
	ps := NewPrescreener(client, 2, zap.NewNop())

	selected := ps.Prescreen(context.Background(), p, "q")
	if len(selected) != 2 {
		t.Errorf("selected = %v, want cap of 2", selected)
	}
}

func TestPrescreenFallsBackToRank(t *testing.T) {
	p := NewPool()
	p.Harvest(3, "s", "NEW1")
	p.Harvest(1, "s", "OLD1")

	ps := NewPrescreener(&cannedClient{err: errors.New("down")}, 1, zap.NewNop())
	selected := ps.Prescreen(context.Background(), p, "q")
	if len(selected) != 1 || selected[0] != "NEW1" {
		t.Errorf("selected = %v, want top-ranked NEW1", selected)
	}
}

func TestValidate(t *testing.T) {
	p := NewPool()
	p.Harvest(1, "s", "EGFR HER2")
	p.Drop("HER2")

	var peak, active int64
	lookup := func(value string, err error) LookupFunc {
		return func(ctx context.Context, symbol string) (string, error) {
			cur := atomic.AddInt64(&active, 1)
			for {
				old := atomic.LoadInt64(&peak)
				if cur <= old || atomic.CompareAndSwapInt64(&peak, old, cur) {
					break
				}
			}
			atomic.AddInt64(&active, -1)
			return value, err
		}
	}

	v := NewValidator(Lookups{
		GOComponents:  lookup("plasma membrane", nil),
		TargetClasses: lookup("", errors.New("lookup failed")),
		Diseases:      lookup("lung carcinoma", nil),
	}, 5, zap.NewNop())

	v.Validate(context.Background(), p, []string{"EGFR", "HER2"})

	c, _ := p.Get("EGFR")
	if !c.Validated {
		t.Fatal("EGFR not validated")
	}
	if c.Validation.GOComponents != "plasma membrane" {
		t.Errorf("GOComponents = %q", c.Validation.GOComponents)
	}
	if c.Validation.TargetClasses != "" {
		t.Errorf("failed lookup should leave field empty, got %q", c.Validation.TargetClasses)
	}
	if c.Validation.Diseases != "lung carcinoma" {
		t.Errorf("Diseases = %q", c.Validation.Diseases)
	}

	if h, _ := p.Get("HER2"); h.Validated {
		t.Error("dropped symbol validated")
	}
}
