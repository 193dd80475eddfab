package config

import (
	"testing"
	"time"
)

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func validConfig() Config {
	return Config{
		App:   AppConfig{Env: "local", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "portal"},
		Auth:  AuthConfig{AccessSecret: "secret"},
		Org:   OrgConfig{EmailDomain: "org.com"},
	}
}

func TestValidate_AppliesTokenTTLDefaults(t *testing.T) {
	c := validConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.Auth.AccessTokenTTL != time.Hour {
		t.Fatalf("expected 1h access ttl default, got %v", c.Auth.AccessTokenTTL)
	}
	if c.Auth.RefreshTokenTTL != 7*24*time.Hour {
		t.Fatalf("expected 7d refresh ttl default, got %v", c.Auth.RefreshTokenTTL)
	}
	if c.RateLimit.Backend != RateLimitBackendMemory {
		t.Fatalf("expected memory rate-limit default, got %q", c.RateLimit.Backend)
	}
	if c.RateLimit.MaxRequests != 100 || c.RateLimit.Window != 15*time.Minute {
		t.Fatalf("unexpected rate limit defaults: %+v", c.RateLimit)
	}
}

func TestValidate_RefreshTTLMustExceedAccessTTL(t *testing.T) {
	c := validConfig()
	c.Auth.AccessTokenTTL = 2 * time.Hour
	c.Auth.RefreshTokenTTL = time.Hour
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for refresh ttl <= access ttl")
	}
}

func TestValidate_EmailDomainRequired(t *testing.T) {
	c := validConfig()
	c.Org.EmailDomain = ""
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for missing ORG_EMAIL_DOMAIN")
	}
}

func TestValidate_RedisBackendRequiresHost(t *testing.T) {
	c := validConfig()
	c.RateLimit.Backend = RateLimitBackendRedis
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for redis backend without REDIS_HOST")
	}
	c = validConfig()
	c.RateLimit.Backend = RateLimitBackendRedis
	c.Redis.Host = "localhost"
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestParseTTL(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"1h", time.Hour, true},
		{"90m", 90 * time.Minute, true},
		{"7d", 7 * 24 * time.Hour, true},
		{"1d", 24 * time.Hour, true},
		{"d", 0, false},
		{"x7d", 0, false},
		{"soon", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseTTL(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("ParseTTL(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Fatalf("ParseTTL(%q): expected error", tc.in)
		}
	}
}
