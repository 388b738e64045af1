package db

import (
	"context"
	"os"
	"testing"
	"time"
)

// TestStoreAndLoad verifies that payloads round-trip with their expiry.
func TestStoreAndLoad(t *testing.T) {
	d, err := New(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	ctx := context.Background()

	exp := time.UnixMilli(1_700_000_000_000)
	if err := d.Store(ctx, "queen", []byte(`{"a":1}`), exp); err != nil {
		t.Fatal(err)
	}
	payload, got, ok, err := d.Load(ctx, "queen")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || string(payload) != `{"a":1}` {
		t.Fatalf("unexpected payload %q ok=%v", payload, ok)
	}
	if !got.Equal(exp) {
		t.Fatalf("expected expiry %v got %v", exp, got)
	}
}

// TestLoadMissing ensures unknown keys are reported as absent, not as errors.
func TestLoadMissing(t *testing.T) {
	d, err := New(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	_, _, ok, err := d.Load(context.Background(), "nobody")
	if err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}
}

// TestStoreOverwrites checks the last writer wins for a key and that rows
// persist across reopening the same file.
func TestStoreOverwrites(t *testing.T) {
	path := "memo_test.db"
	d, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(path)
	ctx := context.Background()

	exp := time.UnixMilli(1_700_000_000_000)
	if err := d.Store(ctx, "k", []byte("one"), exp); err != nil {
		t.Fatal(err)
	}
	if err := d.Store(ctx, "k", []byte("two"), exp.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	d.Close()

	reopened, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	payload, got, ok, err := reopened.Load(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("expected row, got ok=%v err=%v", ok, err)
	}
	if string(payload) != "two" || !got.Equal(exp.Add(time.Hour)) {
		t.Fatalf("unexpected row %q %v", payload, got)
	}
}
