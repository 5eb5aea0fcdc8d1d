package handlers

import (
	"testing"
	"time"
)

func TestSessionCache_Isolation(t *testing.T) {
	c := newSessionCache()
	c.Put("s1", "f1", &cachedFile{Filename: "a.csv", Bytes: []byte("x")})

	if _, ok := c.Get("s2", "f1"); ok {
		t.Fatal("file must not be visible to another session")
	}
	f, ok := c.Get("s1", "f1")
	if !ok || f.Filename != "a.csv" {
		t.Fatalf("expected cached file, got ok=%v f=%+v", ok, f)
	}
}

func TestSessionCache_OversizeSkipped(t *testing.T) {
	c := newSessionCache()
	c.Put("s1", "big", &cachedFile{Bytes: make([]byte, cacheMaxFileBytes+1)})

	if _, ok := c.Get("s1", "big"); ok {
		t.Fatal("oversize file must not be cached")
	}
}

func TestSessionCache_StaleEviction(t *testing.T) {
	c := newSessionCache()
	c.Put("s1", "f1", &cachedFile{Bytes: []byte("x")})
	c.sessions["s1"].lastSeen = time.Now().Add(-sessionTTL - time.Minute)

	if _, ok := c.Get("s1", "f1"); ok {
		t.Fatal("stale session must be evicted")
	}
}
