package cache

import (
	"testing"
	"time"
)

func TestCache_SetGet(t *testing.T) {
	c := New(time.Minute)
	defer c.Stop()

	c.Set("key", "value")

	got, ok := c.Get("key")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got != "value" {
		t.Errorf("expected 'value', got %v", got)
	}

	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestCache_Expiry(t *testing.T) {
	c := New(time.Minute)
	defer c.Stop()

	c.SetWithTTL("ephemeral", 1, 5*time.Millisecond)
	time.Sleep(10 * time.Millisecond)

	if _, ok := c.Get("ephemeral"); ok {
		t.Error("expected expired entry to be invisible")
	}
}

func TestCache_Delete(t *testing.T) {
	c := New(time.Minute)
	defer c.Stop()

	c.Set("key", "value")
	c.Delete("key")

	if _, ok := c.Get("key"); ok {
		t.Error("expected miss after delete")
	}
}

func TestCache_StopIsIdempotent(t *testing.T) {
	c := New(time.Minute)
	c.Stop()
	c.Stop()
}
