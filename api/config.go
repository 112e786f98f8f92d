package api

import "errors"

type CORSConfig struct {
	TrustedOrigins []string `yaml:"trusted_origins"`
}

type Config struct {
	Addr     string     `yaml:"addr"`
	CertFile string     `yaml:"cert_file"`
	KeyFile  string     `yaml:"key_file"`
	CORS     CORSConfig `yaml:"cors"`

	// MaxBatchSize caps the number of queries of one batch request.
	MaxBatchSize int `yaml:"max_batch_size"`
	// MaxBodySize caps request bodies, in bytes.
	MaxBodySize int64 `yaml:"max_body_size"`
}

const (
	DefaultMaxBatchSize = 1000
	DefaultMaxBodySize  = 1 << 20
)

func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("api server address is required")
	}

	if c.MaxBatchSize < 0 {
		return errors.New("max batch size cannot be negative")
	}

	if c.MaxBodySize < 0 {
		return errors.New("max body size cannot be negative")
	}

	return nil
}
