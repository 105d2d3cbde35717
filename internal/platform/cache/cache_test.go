package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

type mapCache struct {
	values map[string][]byte
	sets   int
}

func (m *mapCache) Get(_ context.Context, key string, dst any) (bool, error) {
	raw, ok := m.values[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (m *mapCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.sets++
	m.values[key] = raw
	return nil
}

func (m *mapCache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

type summary struct {
	Total string `json:"total"`
}

func TestFetchLoadsOnceThenHits(t *testing.T) {
	c := &mapCache{values: map[string][]byte{}}
	loads := 0
	load := func(context.Context) (summary, error) {
		loads++
		return summary{Total: "1187.50"}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := Fetch(context.Background(), c, "payroll:2025-01-10", time.Minute, load)
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		if got.Total != "1187.50" {
			t.Fatalf("unexpected value %+v", got)
		}
	}
	if loads != 1 || c.sets != 1 {
		t.Fatalf("expected one load and one set, got loads=%d sets=%d", loads, c.sets)
	}

	if err := c.Delete(context.Background(), "payroll:2025-01-10"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := Fetch(context.Background(), c, "payroll:2025-01-10", time.Minute, load); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if loads != 2 {
		t.Fatalf("expected reload after delete, got %d loads", loads)
	}
}

func TestFetchDoesNotCacheErrors(t *testing.T) {
	c := &mapCache{values: map[string][]byte{}}
	boom := errors.New("boom")
	_, err := Fetch(context.Background(), c, "k", time.Minute, func(context.Context) (summary, error) {
		return summary{}, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected load error, got %v", err)
	}
	if len(c.values) != 0 {
		t.Fatal("failed loads must not be cached")
	}
}

func TestFetchWithNoopAlwaysLoads(t *testing.T) {
	loads := 0
	for i := 0; i < 2; i++ {
		_, _ = Fetch(context.Background(), Noop{}, "k", time.Minute, func(context.Context) (int, error) {
			loads++
			return loads, nil
		})
	}
	if loads != 2 {
		t.Fatalf("expected noop cache to miss every time, got %d loads", loads)
	}
}
