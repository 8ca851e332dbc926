// Package config provides the run configuration for adsync.
//
// Two inputs are combined: the googleads.yaml credential file (the
// standard Google Ads client library format, loaded with viper) and the
// CLI flags carried in RunConfig. Connectors receive the validated
// RunConfig and never read files or flags themselves.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/adsync-io/adsync/pkg/errors"
)

// Logical destination table names. The three record sets an account
// produces are routed to these, qualified as project.dataset.table.
const (
	TableCampaign = "daily_campaign_data"
	TableGeo      = "daily_geo_data"
	TableSearch   = "daily_search_query_data"
)

// GoogleAdsCredentials mirrors the googleads.yaml credential file.
type GoogleAdsCredentials struct {
	DeveloperToken  string `mapstructure:"developer_token" yaml:"developer_token"`
	ClientID        string `mapstructure:"client_id" yaml:"client_id"`
	ClientSecret    string `mapstructure:"client_secret" yaml:"client_secret"`
	RefreshToken    string `mapstructure:"refresh_token" yaml:"refresh_token"`
	LoginCustomerID string `mapstructure:"login_customer_id" yaml:"login_customer_id"`
	JSONKeyFilePath string `mapstructure:"json_key_file_path" yaml:"json_key_file_path"`
}

// RunConfig is the full configuration of one batch run.
type RunConfig struct {
	// Exactly one of ManagerID and CustomerID is set. ManagerID runs
	// discovery and fans out over the child accounts; CustomerID runs a
	// single account without discovery.
	ManagerID  string `yaml:"manager_id"`
	CustomerID string `yaml:"customer_id"`

	ProjectID string `yaml:"project_id"`
	DatasetID string `yaml:"dataset_id"`

	ConfigPath  string `yaml:"config_path"`
	KeyFilePath string `yaml:"key_file_path"`

	LookbackDays int    `yaml:"lookback_days"`
	Workers      int    `yaml:"workers"`
	LogLevel     string `yaml:"log_level"`

	Credentials GoogleAdsCredentials `yaml:"-"`
}

// NewRunConfig returns a RunConfig with run defaults: the trailing
// 90-day window and the 10-account worker pool of the original jobs.
func NewRunConfig() *RunConfig {
	return &RunConfig{
		LookbackDays: 90,
		Workers:      10,
		LogLevel:     "info",
	}
}

// LoadCredentials reads the googleads.yaml file into cfg.Credentials.
// The login customer id is forced to the manager account when one is
// configured, and the service key path always follows --key-file
// rather than whatever path the yaml file carries.
func (cfg *RunConfig) LoadCredentials() error {
	v := viper.New()
	v.SetConfigFile(cfg.ConfigPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, fmt.Sprintf("failed to read config file %s", cfg.ConfigPath))
	}
	if err := v.Unmarshal(&cfg.Credentials); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, fmt.Sprintf("failed to parse config file %s", cfg.ConfigPath))
	}

	if cfg.ManagerID != "" {
		cfg.Credentials.LoginCustomerID = cfg.ManagerID
	}
	cfg.Credentials.JSONKeyFilePath = cfg.KeyFilePath

	return nil
}

// Validate checks the configuration for correctness.
func (cfg *RunConfig) Validate() error {
	if cfg.ManagerID == "" && cfg.CustomerID == "" {
		return errors.New(errors.ErrorTypeConfig, "one of manager id or customer id is required")
	}
	if cfg.ManagerID != "" && cfg.CustomerID != "" {
		return errors.New(errors.ErrorTypeConfig, "manager id and customer id are mutually exclusive")
	}
	if cfg.ProjectID == "" {
		return errors.New(errors.ErrorTypeConfig, "project id is required")
	}
	if cfg.DatasetID == "" {
		return errors.New(errors.ErrorTypeConfig, "dataset id is required")
	}
	if cfg.ConfigPath == "" {
		return errors.New(errors.ErrorTypeConfig, "config file path is required")
	}
	if cfg.KeyFilePath == "" {
		return errors.New(errors.ErrorTypeConfig, "key file path is required")
	}
	if _, err := os.Stat(cfg.KeyFilePath); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, fmt.Sprintf("key file %s not found", cfg.KeyFilePath))
	}
	if cfg.LookbackDays <= 0 {
		return errors.New(errors.ErrorTypeConfig, "lookback_days must be positive")
	}
	if cfg.Workers <= 0 {
		return errors.New(errors.ErrorTypeConfig, "workers must be positive")
	}
	return nil
}

// ValidateCredentials checks the credential fields the API client needs.
func (cfg *RunConfig) ValidateCredentials() error {
	c := cfg.Credentials
	if c.DeveloperToken == "" {
		return errors.New(errors.ErrorTypeConfig, "developer_token is required")
	}
	if c.ClientID == "" {
		return errors.New(errors.ErrorTypeConfig, "client_id is required")
	}
	if c.ClientSecret == "" {
		return errors.New(errors.ErrorTypeConfig, "client_secret is required")
	}
	if c.RefreshToken == "" {
		return errors.New(errors.ErrorTypeConfig, "refresh_token is required")
	}
	return nil
}

// Tables returns the three fully qualified destination table ids in
// campaign, geo, search order.
func (cfg *RunConfig) Tables() (campaign, geo, search string) {
	qualify := func(table string) string {
		return fmt.Sprintf("%s.%s.%s", cfg.ProjectID, cfg.DatasetID, table)
	}
	return qualify(TableCampaign), qualify(TableGeo), qualify(TableSearch)
}
