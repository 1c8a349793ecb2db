package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

type (
	APP struct {
		Name          string
		Host          string
		Port          string
		Env           string
		SessionSecret string
		SessionTTL    time.Duration
	}
	DB struct {
		User     string
		Password string
		Name     string
		Host     string
		Port     string
	}
	Storage struct {
		Backend string
		Dir     string
	}
	S3 struct {
		Endpoint        string
		Region          string
		AccessKeyID     string
		SecretAccessKey string
		BucketUploads   string
		Secure          bool
	}
	MQ struct {
		User         string
		Password     string
		Vhost        string
		Host         string
		AmqpPort     string
		Exchange     string
		ExchangeType string
		QueueName    string
	}
	Files struct {
		MaxSizeKBAnon   int64
		MaxSizeKBUsers  int64
		ExpirationDays  int
		ReclaimInterval time.Duration
	}
	Accounts struct {
		AllowAnon         bool
		AllowRegistration bool
	}
	Hash struct {
		Iterations  uint32
		MemoryKiB   uint32
		Threads     uint8
		KeyLength   uint32
		Concurrency int64
	}
	// Tokens maps a duration tier name (e.g. "90d") to its length in days.
	Tokens struct {
		Tiers map[string]int
	}

	Config struct {
		App      APP
		DB       DB
		Storage  Storage
		S3       S3
		MQ       MQ
		Files    Files
		Accounts Accounts
		Hash     Hash
		Tokens   Tokens

		// loadErrs holds values Load could not accept; Validate reports them.
		loadErrs []error
	}
)

// DefaultTokenTiers is used when TOKEN_DURATION_TIERS is unset.
const DefaultTokenTiers = "30d=30,90d=90,365d=365"

const (
	maxHashIterations = 64
	minHashMemoryKiB  = 8
	maxHashMemoryKiB  = 4 * 1024 * 1024
	minHashKeyLength  = 16
	maxHashKeyLength  = 1024
)

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int64) int64 {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

// getEnvRange reads an integer that must lie in [lo, hi]. An out of range or
// unparsable value is recorded in errs and def is returned.
func getEnvRange(key string, def, lo, hi int64, errs *[]error) int64 {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < lo || n > hi {
		*errs = append(*errs, fmt.Errorf("%s=%q: want an integer in [%d, %d]", key, v, lo, hi))
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func Load() Config {
	app := APP{
		Name:          getEnv("SERVICE_NAME", "tempfiles"),
		Host:          getEnv("SERVICE_HOST", ""),
		Port:          getEnv("SERVICE_PORT", "8080"),
		Env:           getEnv("SERVICE_ENV", ""),
		SessionSecret: getEnv("SERVICE_SESSION_SECRET", ""),
		SessionTTL:    getEnvDuration("SERVICE_SESSION_TTL", 48*time.Hour),
	}
	db := DB{
		User:     getEnv("POSTGRES_USER", ""),
		Password: getEnv("POSTGRES_PASSWORD", ""),
		Name:     getEnv("POSTGRES_DB", ""),
		Host:     getEnv("POSTGRES_HOST", ""),
		Port:     getEnv("POSTGRES_PORT", ""),
	}
	storage := Storage{
		Backend: getEnv("STORAGE_BACKEND", StorageLocal),
		Dir:     getEnv("STORAGE_DIR", "./data/storage"),
	}
	s3 := S3{
		Endpoint:        getEnv("S3_ENDPOINT", ""),
		Region:          getEnv("S3_REGION", ""),
		AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		BucketUploads:   getEnv("S3_BUCKET_UPLOADS", ""),
		Secure:          getEnvBool("S3_SECURE", false),
	}
	mq := MQ{
		User:         getEnv("RABBITMQ_USER", ""),
		Password:     getEnv("RABBITMQ_PASSWORD", ""),
		Vhost:        getEnv("RABBITMQ_VHOST", ""),
		Host:         getEnv("RABBITMQ_HOST", ""),
		AmqpPort:     getEnv("RABBITMQ_AMQP_PORT", ""),
		Exchange:     getEnv("RABBITMQ_EXCHANGE", "tempfiles"),
		ExchangeType: getEnv("RABBITMQ_EXCHANGE_TYPE", "topic"),
		QueueName:    getEnv("RABBITMQ_QUEUE_NAME", "tempfiles.audit"),
	}
	files := Files{
		MaxSizeKBAnon:   getEnvInt("FILES_MAX_SIZE_KB_ANON", 10*1024),
		MaxSizeKBUsers:  getEnvInt("FILES_MAX_SIZE_KB_USERS", 100*1024),
		ExpirationDays:  int(getEnvInt("FILES_EXPIRATION_DAYS", 7)),
		ReclaimInterval: getEnvDuration("RECLAIM_INTERVAL", 10*time.Minute),
	}
	accounts := Accounts{
		AllowAnon:         getEnvBool("ACCOUNTS_ALLOW_ANON", true),
		AllowRegistration: getEnvBool("ACCOUNTS_ALLOW_REGISTRATION", true),
	}
	var loadErrs []error
	hash := Hash{
		Iterations:  uint32(getEnvRange("HASH_ITERATIONS", 2, 1, maxHashIterations, &loadErrs)),
		MemoryKiB:   uint32(getEnvRange("HASH_MEMORY_KIB", 19*1024, minHashMemoryKiB, maxHashMemoryKiB, &loadErrs)),
		Threads:     uint8(getEnvRange("HASH_THREADS", 1, 1, 255, &loadErrs)),
		KeyLength:   uint32(getEnvRange("HASH_KEY_LENGTH", 32, minHashKeyLength, maxHashKeyLength, &loadErrs)),
		Concurrency: getEnvRange("HASH_CONCURRENCY", 4, 1, 1024, &loadErrs),
	}

	tiers, err := ParseTiers(getEnv("TOKEN_DURATION_TIERS", DefaultTokenTiers))
	if err != nil {
		loadErrs = append(loadErrs, fmt.Errorf("TOKEN_DURATION_TIERS: %w", err))
	}

	return Config{
		App:      app,
		DB:       db,
		Storage:  storage,
		S3:       s3,
		MQ:       mq,
		Files:    files,
		Accounts: accounts,
		Hash:     hash,
		Tokens:   Tokens{Tiers: tiers},
		loadErrs: loadErrs,
	}
}

// ParseTiers parses "30d=30,90d=90" into a tier table.
func ParseTiers(s string) (map[string]int, error) {
	tiers := make(map[string]int)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, days, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("tier %q: want name=days", part)
		}
		name = strings.TrimSpace(name)
		n, err := strconv.Atoi(strings.TrimSpace(days))
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("tier %q: days must be a positive integer", part)
		}
		if _, dup := tiers[name]; dup {
			return nil, fmt.Errorf("tier %q declared twice", name)
		}
		tiers[name] = n
	}
	if len(tiers) == 0 {
		return nil, errors.New("no token duration tiers")
	}
	return tiers, nil
}

// TierNames returns the configured tier names ordered by length.
func (t Tokens) TierNames() []string {
	names := make([]string, 0, len(t.Tiers))
	for n := range t.Tiers {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		if t.Tiers[names[i]] == t.Tiers[names[j]] {
			return names[i] < names[j]
		}
		return t.Tiers[names[i]] < t.Tiers[names[j]]
	})
	return names
}

// Validate reports every problem at once so a misconfigured deployment fails on start-up.
func (c Config) Validate() error {
	errs := append([]error(nil), c.loadErrs...)

	if c.App.SessionSecret == "" {
		errs = append(errs, errors.New("SERVICE_SESSION_SECRET is required"))
	}
	switch c.Storage.Backend {
	case StorageLocal:
		if c.Storage.Dir == "" {
			errs = append(errs, errors.New("STORAGE_DIR is required for the local backend"))
		}
	case StorageMinio:
		if c.S3.Endpoint == "" || c.S3.BucketUploads == "" {
			errs = append(errs, errors.New("S3_ENDPOINT and S3_BUCKET_UPLOADS are required for the minio backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend))
	}
	if c.Files.ExpirationDays <= 0 {
		errs = append(errs, errors.New("FILES_EXPIRATION_DAYS must be positive"))
	}
	if c.Files.MaxSizeKBAnon <= 0 || c.Files.MaxSizeKBUsers <= 0 {
		errs = append(errs, errors.New("FILES_MAX_SIZE_KB_ANON and FILES_MAX_SIZE_KB_USERS must be positive"))
	}
	if len(c.Tokens.Tiers) == 0 {
		errs = append(errs, errors.New("TOKEN_DURATION_TIERS must declare at least one tier"))
	}
	if err := c.Hash.validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (h Hash) validate() error {
	switch {
	case h.Iterations == 0 || h.Iterations > maxHashIterations:
		return fmt.Errorf("HASH_ITERATIONS must be in [1, %d]", maxHashIterations)
	case h.Threads == 0:
		return errors.New("HASH_THREADS must be positive")
	case h.MemoryKiB < minHashMemoryKiB*uint32(h.Threads) || h.MemoryKiB > maxHashMemoryKiB:
		return fmt.Errorf("HASH_MEMORY_KIB must be in [8*HASH_THREADS, %d]", maxHashMemoryKiB)
	case h.KeyLength < minHashKeyLength || h.KeyLength > maxHashKeyLength:
		return fmt.Errorf("HASH_KEY_LENGTH must be in [%d, %d]", minHashKeyLength, maxHashKeyLength)
	case h.Concurrency < 1:
		return errors.New("HASH_CONCURRENCY must be positive")
	}
	return nil
}

func (c Config) DBDSN() (string, error) {
	if c.DB.User == "" || c.DB.Name == "" || c.DB.Host == "" || c.DB.Port == "" {
		return "", fmt.Errorf("incomplete DB config")
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		url.PathEscape(c.DB.User),
		url.PathEscape(c.DB.Password),
		c.DB.Host,
		c.DB.Port,
		c.DB.Name,
	), nil
}

// MQEnabled reports whether the event bus is configured.
func (c Config) MQEnabled() bool { return c.MQ.Host != "" }

func (c Config) AMQPDSN() (string, error) {
	if c.MQ.User == "" || c.MQ.Host == "" || c.MQ.AmqpPort == "" {
		return "", fmt.Errorf("invalid MQ config: user, host and amqp port are required")
	}

	return fmt.Sprintf(
		"%s://%s@%s:%s/%s",
		"amqp",
		url.UserPassword(c.MQ.User, c.MQ.Password).String(),
		c.MQ.Host,
		c.MQ.AmqpPort,
		url.PathEscape(c.MQ.Vhost),
	), nil
}

// MaxUploadBytes returns the size limit for an anonymous or registered uploader.
func (f Files) MaxUploadBytes(anonymous bool) int64 {
	if anonymous {
		return f.MaxSizeKBAnon * 1024
	}
	return f.MaxSizeKBUsers * 1024
}

// LargestUpload is the body limit the HTTP layer must allow.
func (f Files) LargestUpload() int64 {
	return max(f.MaxSizeKBAnon, f.MaxSizeKBUsers) * 1024
}

func (f Files) Retention() time.Duration {
	return time.Duration(f.ExpirationDays) * 24 * time.Hour
}
