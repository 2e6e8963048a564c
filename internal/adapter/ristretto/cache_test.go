package ristretto

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCache_SetGetDelete(t *testing.T) {
	c, err := New(1 << 20)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "job:1", []byte(`{"status":"accepted"}`), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	val, ok, err := c.Get(ctx, "job:1")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if string(val) != `{"status":"accepted"}` {
		t.Errorf("val = %s", val)
	}

	if err := c.Delete(ctx, "job:1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "job:1"); ok {
		t.Error("expected miss after Delete")
	}
}

func TestCache_Miss(t *testing.T) {
	c, err := New(1 << 20)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()
	if _, ok, err := c.Get(context.Background(), "absent"); ok || err != nil {
		t.Errorf("ok=%v err=%v", ok, err)
	}
}

func TestNew_RejectsNonPositiveCost(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Error("expected error for zero max cost")
	}
}

func TestCache_SetCopiesValue(t *testing.T) {
	c, err := New(1 << 20)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()
	ctx := context.Background()

	buf := []byte("accepted")
	if err := c.Set(ctx, "job:2", buf, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	copy(buf, "XXXXXXXX")

	val, ok, _ := c.Get(ctx, "job:2")
	if !ok || string(val) != "accepted" {
		t.Errorf("val = %q ok = %v", val, ok)
	}
}

func TestCache_RejectsOversizedValue(t *testing.T) {
	c, err := New(64)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	err = c.Set(context.Background(), "idem:big", make([]byte, 128), time.Minute)
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("err = %v, want ErrTooLarge", err)
	}
}
