package config

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultAppEnv        = "local"
	defaultPort          = "5000"
	defaultMongoURI      = "mongodb://localhost:27017/aniicone-cafe"
	defaultMongoDatabase = "aniicone-cafe"
	defaultRedisAddr     = "localhost:6379"
	defaultCORSOrigins   = "http://localhost:3000"
	defaultCurrency      = "INR"
	defaultProvider      = "firebase"
	defaultCacheDriver   = "memory"
	defaultRateLimit     = 200
)

var (
	loadOnce sync.Once
	loadErr  error

	mu     sync.RWMutex
	values = defaultValues()
)

// Load reads config/app.json and .env once. Variables present in the
// process environment always win over file values.
func Load() error {
	loadOnce.Do(func() {
		loadErr = loadFromFiles("config/app.json", ".env")
	})
	return loadErr
}

func defaultValues() map[string]string {
	return map[string]string{
		"APP_ENV":              defaultAppEnv,
		"PORT":                 defaultPort,
		"MONGODB_URI":          defaultMongoURI,
		"IDENTITY_PROVIDER":    defaultProvider,
		"PAYMENT_CURRENCY":     defaultCurrency,
		"PAYMENT_CACHE_DRIVER": defaultCacheDriver,
		"REDIS_ADDR":           defaultRedisAddr,
		"CORS_ORIGINS":         defaultCORSOrigins,
	}
}

// ── Application ──────────────────────────────────────────────────────────────

func AppEnv() string {
	_ = Load()
	return get("APP_ENV", defaultAppEnv)
}

// IsProduction reports whether internal error detail must be hidden from clients.
func IsProduction() bool {
	switch strings.ToLower(AppEnv()) {
	case "production", "prod":
		return true
	}
	return false
}

func Port() string {
	_ = Load()
	return get("PORT", defaultPort)
}

func CORSOrigins() []string {
	_ = Load()
	return splitList(get("CORS_ORIGINS", defaultCORSOrigins))
}

func RateLimitPerMinute() int {
	_ = Load()
	return getInt("RATE_LIMIT_PER_MINUTE", defaultRateLimit)
}

// TrustedProxies lists the IPs or CIDR ranges whose X-Forwarded-For header
// is believed. Empty means the remote address is always the client.
func TrustedProxies() []string {
	_ = Load()
	return splitList(get("TRUSTED_PROXIES", ""))
}

// LogToMongo reports whether warnings and errors are also kept in the
// logs collection.
func LogToMongo() bool {
	_ = Load()
	b, _ := strconv.ParseBool(get("LOG_MONGO", "false"))
	return b
}

// ── Database ─────────────────────────────────────────────────────────────────

func MongoURI() string {
	_ = Load()
	return get("MONGODB_URI", defaultMongoURI)
}

// MongoDatabase returns MONGODB_DATABASE, falling back to the database named
// in the URI path.
func MongoDatabase() string {
	_ = Load()
	if db := get("MONGODB_DATABASE", ""); db != "" {
		return db
	}
	if u, err := url.Parse(MongoURI()); err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}
	return defaultMongoDatabase
}

func RedisAddr() string {
	_ = Load()
	return get("REDIS_ADDR", defaultRedisAddr)
}

func RedisPassword() string {
	_ = Load()
	return get("REDIS_PASSWORD", "")
}

// ── Auth ─────────────────────────────────────────────────────────────────────

func JWTSecret() string {
	_ = Load()
	return get("JWT_SECRET", "")
}

func AdminSecretKey() string {
	_ = Load()
	return get("ADMIN_SECRET_KEY", "")
}

// IdentityProvider is "firebase" (default) or "local".
func IdentityProvider() string {
	_ = Load()
	switch p := strings.ToLower(get("IDENTITY_PROVIDER", defaultProvider)); p {
	case "firebase", "local":
		return p
	default:
		return defaultProvider
	}
}

func LocalIdentitySecret() string {
	_ = Load()
	return get("LOCAL_IDENTITY_SECRET", "")
}

// FirebaseServiceAccount assembles the service-account document from the
// individual FIREBASE_* variables.
func FirebaseServiceAccount() map[string]string {
	_ = Load()
	return map[string]string{
		"type":                        get("FIREBASE_TYPE", "service_account"),
		"project_id":                  get("FIREBASE_PROJECT_ID", ""),
		"private_key_id":              get("FIREBASE_PRIVATE_KEY_ID", ""),
		"private_key":                 strings.ReplaceAll(get("FIREBASE_PRIVATE_KEY", ""), `\n`, "\n"),
		"client_email":                get("FIREBASE_CLIENT_EMAIL", ""),
		"client_id":                   get("FIREBASE_CLIENT_ID", ""),
		"auth_uri":                    get("FIREBASE_AUTH_URI", "https://accounts.google.com/o/oauth2/auth"),
		"token_uri":                   get("FIREBASE_TOKEN_URI", "https://oauth2.googleapis.com/token"),
		"auth_provider_x509_cert_url": get("FIREBASE_AUTH_PROVIDER_X509_CERT_URL", ""),
		"client_x509_cert_url":        get("FIREBASE_CLIENT_X509_CERT_URL", ""),
	}
}

func FirebaseProjectID() string {
	_ = Load()
	return get("FIREBASE_PROJECT_ID", "")
}

// ── Payments ─────────────────────────────────────────────────────────────────

func CashfreeClientID() string     { _ = Load(); return get("CASHFREE_CLIENT_ID", "") }
func CashfreeClientSecret() string { _ = Load(); return get("CASHFREE_CLIENT_SECRET", "") }

// CashfreeSandbox reports whether CASHFREE_ENVIRONMENT selects the sandbox.
func CashfreeSandbox() bool {
	_ = Load()
	return strings.EqualFold(get("CASHFREE_ENVIRONMENT", ""), "SANDBOX")
}

func PaymentCurrency() string {
	_ = Load()
	return strings.ToUpper(get("PAYMENT_CURRENCY", defaultCurrency))
}

// PaymentCacheDriver is "memory" (default) or "redis".
func PaymentCacheDriver() string {
	_ = Load()
	switch d := strings.ToLower(get("PAYMENT_CACHE_DRIVER", defaultCacheDriver)); d {
	case "memory", "redis":
		return d
	default:
		return defaultCacheDriver
	}
}

// PaymentCacheTTL is zero unless configured; zero means entries never expire.
func PaymentCacheTTL() time.Duration {
	_ = Load()
	d, err := time.ParseDuration(get("PAYMENT_CACHE_TTL", "0s"))
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// ── Events ───────────────────────────────────────────────────────────────────

// KafkaBrokers lists KAFKA_BROKERS. Empty disables the Kafka publisher.
func KafkaBrokers() []string {
	_ = Load()
	return splitList(get("KAFKA_BROKERS", ""))
}

// ── Storage ──────────────────────────────────────────────────────────────────

func StorageDefault() string {
	_ = Load()
	return get("STORAGE_DISK", "local")
}

func StorageLocalRoot() string {
	_ = Load()
	return get("STORAGE_LOCAL_ROOT", "storage")
}

func StorageURL() string {
	_ = Load()
	return get("STORAGE_URL", "http://localhost:"+Port()+"/storage")
}

func StorageS3Bucket() string   { _ = Load(); return get("S3_BUCKET", "") }
func StorageS3Region() string   { _ = Load(); return get("S3_REGION", "us-east-1") }
func StorageS3Key() string      { _ = Load(); return get("S3_KEY", "") }
func StorageS3Secret() string   { _ = Load(); return get("S3_SECRET", "") }
func StorageS3Endpoint() string { _ = Load(); return get("S3_ENDPOINT", "") }
func StorageS3URL() string      { _ = Load(); return get("S3_URL", "") }

// ── Validation ───────────────────────────────────────────────────────────────

// Validate reports every required key that is missing for the configured
// identity provider.
func Validate() error {
	if err := Load(); err != nil {
		return err
	}

	required := []string{
		"JWT_SECRET",
		"ADMIN_SECRET_KEY",
		"CASHFREE_CLIENT_ID",
		"CASHFREE_CLIENT_SECRET",
	}
	switch IdentityProvider() {
	case "local":
		required = append(required, "LOCAL_IDENTITY_SECRET")
	default:
		required = append(required, "FIREBASE_PROJECT_ID", "FIREBASE_CLIENT_EMAIL", "FIREBASE_PRIVATE_KEY")
	}

	var missing []string
	for _, key := range required {
		if get(key, "") == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing required values: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ── Loading ──────────────────────────────────────────────────────────────────

func loadFromFiles(configPath, envPath string) error {
	loaded := defaultValues()

	if err := mergeJSONConfig(configPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	if err := mergeDotEnv(envPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	mergeEnviron(os.Environ(), loaded)

	mu.Lock()
	values = loaded
	mu.Unlock()

	return nil
}

func mergeJSONConfig(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var raw map[string]interface{}
	if err := json.NewDecoder(file).Decode(&raw); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	for key, val := range raw {
		var s string
		switch v := val.(type) {
		case string:
			s = v
		case float64:
			s = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			s = strconv.FormatBool(v)
		default:
			continue
		}

		k := strings.ToUpper(strings.TrimSpace(key))
		if k == "" {
			continue
		}
		out[k] = strings.TrimSpace(s)
	}

	return nil
}

func mergeDotEnv(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024) // private keys are long
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		idx := strings.IndexByte(line, '=')
		if idx <= 0 {
			continue
		}

		key := strings.ToUpper(strings.TrimSpace(line[:idx]))
		value := strings.TrimSpace(line[idx+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}
		out[key] = value
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	return nil
}

func mergeEnviron(environ []string, out map[string]string) {
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" || strings.TrimSpace(value) == "" {
			continue
		}
		out[key] = value
	}
}

func get(key, fallback string) string {
	mu.RLock()
	defer mu.RUnlock()

	if value := strings.TrimSpace(values[key]); value != "" {
		return value
	}

	return fallback
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(get(key, ""))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Get reads any config key by name with an optional fallback.
func Get(key, fallback string) string {
	_ = Load()
	return get(key, fallback)
}

// Set overrides a single key at runtime. Intended for tests and CLI flags.
func Set(key, value string) {
	_ = Load()
	mu.Lock()
	values[strings.ToUpper(key)] = value
	mu.Unlock()
}
