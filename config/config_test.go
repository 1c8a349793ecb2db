package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTiers(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    map[string]int
		wantErr bool
	}{
		{name: "default", in: DefaultTokenTiers, want: map[string]int{"30d": 30, "90d": 90, "365d": 365}},
		{name: "spaces", in: " 7d = 7 , 1y=365 ", want: map[string]int{"7d": 7, "1y": 365}},
		{name: "missing days", in: "30d", wantErr: true},
		{name: "negative", in: "30d=-1", wantErr: true},
		{name: "duplicate", in: "30d=30,30d=31", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTiers(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TOKEN_DURATION_TIERS", "")
	t.Setenv("FILES_EXPIRATION_DAYS", "")
	t.Setenv("RECLAIM_INTERVAL", "")

	cfg := Load()

	assert.Equal(t, 365, cfg.Tokens.Tiers["365d"])
	assert.Equal(t, []string{"30d", "90d", "365d"}, cfg.Tokens.TierNames())
	assert.Equal(t, 7, cfg.Files.ExpirationDays)
	assert.Equal(t, 10*time.Minute, cfg.Files.ReclaimInterval)
	assert.Equal(t, StorageLocal, cfg.Storage.Backend)
}

func TestLoad_RejectsBadTiers(t *testing.T) {
	t.Setenv("SERVICE_SESSION_SECRET", "s")
	t.Setenv("TOKEN_DURATION_TIERS", "30d=30,90d=90,365d=36S")
	t.Setenv("HASH_THREADS", "256")

	cfg := Load()
	assert.Nil(t, cfg.Tokens.Tiers, "a broken table is never replaced by the defaults")

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TOKEN_DURATION_TIERS")
	assert.Contains(t, err.Error(), "HASH_THREADS")
}

func TestLoad_RejectsOutOfRangeHashParams(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{key: "HASH_THREADS", value: "256"},
		{key: "HASH_THREADS", value: "0"},
		{key: "HASH_MEMORY_KIB", value: "-1"},
		{key: "HASH_ITERATIONS", value: "4294967297"},
		{key: "HASH_KEY_LENGTH", value: "8"},
		{key: "HASH_CONCURRENCY", value: "many"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv("SERVICE_SESSION_SECRET", "s")
			t.Setenv(tt.key, tt.value)

			err := Load().Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_ValidDefaults(t *testing.T) {
	t.Setenv("SERVICE_SESSION_SECRET", "s")
	for _, k := range []string{
		"TOKEN_DURATION_TIERS", "HASH_ITERATIONS", "HASH_MEMORY_KIB", "HASH_THREADS",
		"HASH_KEY_LENGTH", "HASH_CONCURRENCY", "STORAGE_BACKEND", "STORAGE_DIR",
		"FILES_EXPIRATION_DAYS", "FILES_MAX_SIZE_KB_ANON", "FILES_MAX_SIZE_KB_USERS",
	} {
		t.Setenv(k, "")
	}

	cfg := Load()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, uint8(1), cfg.Hash.Threads)
	assert.Equal(t, uint32(19*1024), cfg.Hash.MemoryKiB)
}

func TestConfig_Validate(t *testing.T) {
	base := func() Config {
		return Config{
			App:     APP{SessionSecret: "s"},
			Storage: Storage{Backend: StorageLocal, Dir: "/tmp/x"},
			Files:   Files{ExpirationDays: 1, MaxSizeKBAnon: 1, MaxSizeKBUsers: 1},
			Hash:    Hash{Iterations: 1, MemoryKiB: 64, Threads: 1, KeyLength: 32, Concurrency: 1},
			Tokens:  Tokens{Tiers: map[string]int{"30d": 30}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "ok", mutate: func(c *Config) {}},
		{name: "missing secret", mutate: func(c *Config) { c.App.SessionSecret = "" }, wantErr: "SERVICE_SESSION_SECRET"},
		{name: "minio without endpoint", mutate: func(c *Config) { c.Storage.Backend = StorageMinio }, wantErr: "S3_ENDPOINT"},
		{name: "unknown backend", mutate: func(c *Config) { c.Storage.Backend = "ftp" }, wantErr: "unknown STORAGE_BACKEND"},
		{name: "zero retention", mutate: func(c *Config) { c.Files.ExpirationDays = 0 }, wantErr: "FILES_EXPIRATION_DAYS"},
		{name: "negative size limit", mutate: func(c *Config) { c.Files.MaxSizeKBAnon = -1 }, wantErr: "FILES_MAX_SIZE_KB_ANON"},
		{name: "no tiers", mutate: func(c *Config) { c.Tokens.Tiers = nil }, wantErr: "TOKEN_DURATION_TIERS"},
		{name: "memory below threads", mutate: func(c *Config) { c.Hash.Threads = 16 }, wantErr: "HASH_MEMORY_KIB"},
		{name: "zero key length", mutate: func(c *Config) { c.Hash.KeyLength = 0 }, wantErr: "HASH_KEY_LENGTH"},
		{
			name: "every problem is reported",
			mutate: func(c *Config) {
				c.App.SessionSecret = ""
				c.Files.ExpirationDays = 0
			},
			wantErr: "FILES_EXPIRATION_DAYS",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFiles_Limits(t *testing.T) {
	f := Files{MaxSizeKBAnon: 10, MaxSizeKBUsers: 20, ExpirationDays: 2}

	assert.Equal(t, int64(10*1024), f.MaxUploadBytes(true))
	assert.Equal(t, int64(20*1024), f.MaxUploadBytes(false))
	assert.Equal(t, int64(20*1024), f.LargestUpload())
	assert.Equal(t, 48*time.Hour, f.Retention())
}

func TestConfig_DSNs(t *testing.T) {
	c := Config{
		DB: DB{User: "u", Password: "p", Name: "d", Host: "h", Port: "5432"},
		MQ: MQ{User: "g", Password: "x", Host: "mq", AmqpPort: "5672", Vhost: "/"},
	}

	dsn, err := c.DBDSN()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@h:5432/d", dsn)

	amqp, err := c.AMQPDSN()
	require.NoError(t, err)
	assert.Equal(t, "amqp://g:x@mq:5672/%2F", amqp)

	_, err = Config{}.DBDSN()
	require.Error(t, err)
	assert.False(t, Config{}.MQEnabled())
}
