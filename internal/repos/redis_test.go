package repos_test

import (
	"os"
	"testing"

	"quickthrift/internal/repos"
)

// Runs against a real server only when TEST_REDIS_ADDR is set.
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	s, err := repos.NewRedisStore(addr)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	key := "quickthrift.test." + t.Name()
	t.Cleanup(func() { _ = s.Remove(key) })

	if _, ok, err := s.Get(key); err != nil || ok {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}
	if err := s.Set(key, `[1,2]`); err != nil {
		t.Fatal(err)
	}
	if v, ok, err := s.Get(key); err != nil || !ok || v != `[1,2]` {
		t.Fatalf("get: %q %v %v", v, ok, err)
	}
	if err := s.Remove(key); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Get(key); ok {
		t.Fatal("key survived remove")
	}
}

func TestRedisStore_RequiresAddr(t *testing.T) {
	if _, err := repos.NewRedisStore(""); err == nil {
		t.Fatal("expected error for empty address")
	}
}
