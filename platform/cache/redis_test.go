package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

type redisCfg struct{ url string }

func (c redisCfg) GetRedisURL() string       { return c.url }
func (c redisCfg) GetRedisTLSInsecure() bool { return false }

func TestNewClient_Pings(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(context.Background(), redisCfg{url: "redis://" + mr.Addr() + "/0"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	if err := client.Set(context.Background(), "k", "v", 0).Err(); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, _ := mr.Get("k"); got != "v" {
		t.Fatalf("unexpected value %q", got)
	}
}

func TestParseOptions(t *testing.T) {
	if _, err := ParseOptions("", false); err == nil {
		t.Fatalf("expected error for empty url")
	}
	opt, err := ParseOptions("rediss://user:pw@cache.internal:6380/2", true)
	if err != nil {
		t.Fatalf("ParseOptions: %v", err)
	}
	if opt.Addr != "cache.internal:6380" || opt.DB != 2 || opt.Password != "pw" {
		t.Fatalf("unexpected options %+v", opt)
	}
	if opt.TLSConfig == nil || !opt.TLSConfig.InsecureSkipVerify {
		t.Fatalf("expected insecure TLS config")
	}
}
