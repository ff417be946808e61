package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/jigsawhub/internal/flagx"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration. Only fields present
// in the file override the current values.
type FileConfig struct {
	EndpointAddrHTTP            string    `json:"endpoint_addr_http" yaml:"endpoint_addr_http"`
	EndpointAddrGRPC            string    `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc"`
	DatabaseDSN                 string    `json:"database_dsn" yaml:"database_dsn"`
	SecretKey                   string    `json:"secret_key" yaml:"secret_key"`
	AccessTokenValidityDuration *Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	RedisURL                    string    `json:"redis_url" yaml:"redis_url"`
	IdleMatchTimeout            *Duration `json:"idle_match_timeout" yaml:"idle_match_timeout"`
	ReaperInterval              *Duration `json:"reaper_interval" yaml:"reaper_interval"`
	LogBackend                  string    `json:"log_backend" yaml:"log_backend"`
	LogLevel                    string    `json:"log_level" yaml:"log_level"`
	AllowedOrigins              []string  `json:"allowed_origins" yaml:"allowed_origins"`
	S3RootUser                  string    `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword              string    `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket                    string    `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region                    string    `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint              string    `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
}

// parseFile loads the file named by -c/-config (or $JIGSAW_CONFIG) into
// config. Files ending in .yaml or .yml are decoded as YAML, anything else as
// JSON. An unreadable or malformed file panics: the server must not start
// with half-applied settings.
func parseFile(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, fc)
	default:
		err = json.Unmarshal(raw, fc)
	}
	if err != nil {
		panic(err)
	}

	fc.apply(config)
}

func (fc *FileConfig) apply(c *Config) {
	setString(&c.EndpointAddrHTTP, fc.EndpointAddrHTTP)
	setString(&c.EndpointAddrGRPC, fc.EndpointAddrGRPC)
	setString(&c.DatabaseDSN, fc.DatabaseDSN)
	setString(&c.SecretKey, fc.SecretKey)
	setString(&c.RedisURL, fc.RedisURL)
	setString(&c.LogBackend, fc.LogBackend)
	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.S3RootUser, fc.S3RootUser)
	setString(&c.S3RootPassword, fc.S3RootPassword)
	setString(&c.S3Bucket, fc.S3Bucket)
	setString(&c.S3Region, fc.S3Region)
	setString(&c.S3BaseEndpoint, fc.S3BaseEndpoint)

	if fc.AccessTokenValidityDuration != nil {
		c.AccessTokenValidityDuration = fc.AccessTokenValidityDuration.Duration
	}
	if fc.IdleMatchTimeout != nil {
		c.IdleMatchTimeout = fc.IdleMatchTimeout.Duration
	}
	if fc.ReaperInterval != nil && fc.ReaperInterval.Duration > 0 {
		c.ReaperInterval = fc.ReaperInterval.Duration
	}
	if len(fc.AllowedOrigins) > 0 {
		c.AllowedOrigins = fc.AllowedOrigins
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
