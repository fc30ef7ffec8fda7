package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"DealSentinel/internal/model"
)

func TestKey_Canonical(t *testing.T) {
	a := &model.DealTerms{CashAmount: model.Num("500"), PayorName: "Acme Inc"}
	b := &model.DealTerms{CashAmount: model.NumInt(500), PayorName: "Acme Inc"}

	ka, err := Key(model.KindClearinghouse, a, nil)
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	kb, err := Key(model.KindClearinghouse, b, &model.AthleteProfile{})
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	if ka != kb {
		t.Errorf("expected equal keys, got %s and %s", ka, kb)
	}
	if !strings.HasPrefix(ka, "dealsentinel:clearinghouse:") {
		t.Errorf("unexpected key format %s", ka)
	}

	kv, _ := Key(model.KindValuation, a, nil)
	if kv == ka {
		t.Error("expected kind to change the key")
	}
	c := &model.DealTerms{CashAmount: model.NumInt(501), PayorName: "Acme Inc"}
	kc, _ := Key(model.KindClearinghouse, c, nil)
	if kc == ka {
		t.Error("expected different inputs to change the key")
	}
}

func TestMemoryCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0)
	if _, ok, _ := c.Get(ctx, "missing"); ok {
		t.Error("expected miss")
	}
	if err := c.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := c.Get(ctx, "k")
	if err != nil || !ok || v != "v" {
		t.Errorf("Get = %q,%v,%v", v, ok, err)
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache(time.Minute)
	c.now = func() time.Time { return now }

	c.Set(ctx, "k", "v")
	now = now.Add(59 * time.Second)
	if _, ok, _ := c.Get(ctx, "k"); !ok {
		t.Error("expected hit before expiry")
	}
	now = now.Add(time.Second)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("expected miss at expiry")
	}
	if c.Len() != 0 {
		t.Errorf("expected expired entry to be dropped, len=%d", c.Len())
	}
}
