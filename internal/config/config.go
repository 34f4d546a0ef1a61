package config

import (
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"imagevault/internal/types"
	"os"
	"strconv"
	"time"
)

type (
	// Mode selects the catalog's persistence target. Nothing else differs
	// between the two.
	Mode string

	Config struct {
		Mode Mode `validate:"required,oneof=development production"`

		// AccessKey is the master access key to the server API. Must be kept safe!
		AccessKey string

		ServerAddr string `validate:"required"`

		ServerSSLCertFile, ServerSSLKeyFile string

		// DataDir holds the durable catalog in production mode.
		DataDir string `validate:"required"`

		// ResticBin is the restic executable to invoke.
		ResticBin string `validate:"required"`

		// StagingVolume is checked for free space before a backup starts.
		StagingVolume string

		// MinFreeBytes refuses a backup when the staging volume has less free
		// space than this.
		MinFreeBytes uint64

		// CascadeDelete allows client/site deletes to remove children in one
		// transaction. Off by default: refusing is the safer policy.
		CascadeDelete bool

		S3 S3Config

		// ReconcileInterval is how often pending metadata records are
		// republished.
		ReconcileInterval time.Duration
	}

	// S3Config is optional: without an endpoint, repositories resolve to local
	// paths under DataDir and the metadata mirror is disabled.
	S3Config struct {
		Endpoint    string
		Bucket      string `validate:"required_with=Endpoint"`
		AccessKeyID string `validate:"required_with=Endpoint"`
		SecretKey   string `validate:"required_with=Endpoint"`
		Region      string
		UseTLS      bool

		// OperationTimeout bounds each individual metadata call. The backup
		// step itself is never subject to a timeout.
		OperationTimeout time.Duration
	}
)

const (
	ModeDevelopment Mode = "development"
	ModeProduction  Mode = "production"
)

func New() (Config, error) {
	// missing .env is fine, the environment may carry everything already
	_ = godotenv.Load()

	cfg := Config{
		Mode:              Mode(envOr("IMAGEVAULT_MODE", string(ModeProduction))),
		AccessKey:         os.Getenv("ACCESS_KEY"),
		ServerAddr:        envOr("SERVER_ADDR", ":3646"),
		ServerSSLCertFile: os.Getenv("SERVER_SSL_CERT_FILE"),
		ServerSSLKeyFile:  os.Getenv("SERVER_SSL_KEY_FILE"),
		DataDir:           envOr("DATA_DIR", defaultDataDir),
		ResticBin:         envOr("RESTIC_BIN", "restic"),
		StagingVolume:     envOr("STAGING_VOLUME", defaultStagingVolume),
		MinFreeBytes:      envUint("MIN_FREE_BYTES", 2<<30),
		CascadeDelete:     envBool("CASCADE_DELETE"),
		ReconcileInterval: envDuration("RECONCILE_INTERVAL", 5*time.Minute),
		S3: S3Config{
			Endpoint:         os.Getenv("S3_ENDPOINT"),
			Bucket:           envOr("S3_BUCKET", "imagevault"),
			AccessKeyID:      os.Getenv("S3_ACCESS_KEY_ID"),
			SecretKey:        os.Getenv("S3_SECRET_KEY"),
			Region:           os.Getenv("S3_REGION"),
			UseTLS:           envBool("S3_USE_TLS"),
			OperationTimeout: envDuration("S3_OPERATION_TIMEOUT", 30*time.Second),
		},
	}

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return Config{}, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

func (c Config) HasTLSConfig() bool {
	return c.ServerSSLCertFile != "" && c.ServerSSLKeyFile != ""
}

func (s S3Config) Enabled() bool {
	return s.Endpoint != ""
}

func (s S3Config) Credentials() types.StorageCredentials {
	return types.StorageCredentials{
		Endpoint:    s.Endpoint,
		Bucket:      s.Bucket,
		AccessKeyID: s.AccessKeyID,
		SecretKey:   s.SecretKey,
		Region:      s.Region,
		UseTLS:      s.UseTLS,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	v, _ := strconv.ParseBool(os.Getenv(key))
	return v
}

func envUint(key string, fallback uint64) uint64 {
	v, err := strconv.ParseUint(os.Getenv(key), 10, 64)
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
