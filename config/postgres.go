package config

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// PostgresConfig defines the configuration for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	TimeZone string `mapstructure:"timezone"`

	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN renders the connection string for the configured database.
func (cfg *PostgresConfig) DSN() string {
	return cfg.dsn(cfg.DBName)
}

// AdminDSN targets the server's default "postgres" database, used to create ours.
func (cfg *PostgresConfig) AdminDSN() string {
	return cfg.dsn("postgres")
}

func (cfg *PostgresConfig) dsn(dbName string) string {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, dbName, cfg.SSLMode,
	)

	if cfg.TimeZone != "" {
		dsn += fmt.Sprintf(" TimeZone=%s", cfg.TimeZone)
	}

	return dsn
}

// SSM parameter names read in prod.
const (
	ParamDBHost          = "DREAMSITE_DB_HOST"
	ParamDBUser          = "DREAMSITE_DB_USER"
	ParamDBPassword      = "DREAMSITE_DB_PASSWORD"
	ParamSupabaseAnonKey = "DREAMSITE_SUPABASE_ANON_KEY"
	ParamJWTSecret       = "DREAMSITE_JWT_SECRET"
)

type secretTarget struct {
	name string
	dst  *string
}

// ParameterGetter fetches one decrypted parameter value.
type ParameterGetter func(ctx context.Context, name string) (string, error)

// ResolveSecrets fills credentials from the parameter store when running in prod.
// Outside prod it leaves the config untouched.
func (c *Config) ResolveSecrets(ctx context.Context, get ParameterGetter) error {
	if c.Environment != "prod" {
		return nil
	}

	targets := []secretTarget{
		{ParamSupabaseAnonKey, &c.Gateway.Supabase.AnonKey},
		{ParamJWTSecret, &c.Gateway.JWTSecret},
	}
	if c.Gateway.Driver == "postgres" {
		targets = append(targets,
			secretTarget{ParamDBHost, &c.Postgres.Host},
			secretTarget{ParamDBUser, &c.Postgres.User},
			secretTarget{ParamDBPassword, &c.Postgres.Password},
		)
	}

	for _, t := range targets {
		value, err := get(ctx, t.name)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", t.name, err)
		}
		if value != "" {
			*t.dst = value
		}
	}
	return nil
}

// SSMParameterGetter reads parameters from AWS SSM Parameter Store using the
// default credential chain.
func SSMParameterGetter(ctx context.Context) (ParameterGetter, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cfg, err := config.LoadDefaultConfig(ctxWithTimeout)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := ssm.NewFromConfig(cfg)

	return func(ctx context.Context, name string) (string, error) {
		return getParameterStoreValue(ctx, client, name, true)
	}, nil
}

func getParameterStoreValue(ctx context.Context, client *ssm.Client, parameterName string, decrypt bool) (string, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	input := &ssm.GetParameterInput{
		Name:           &parameterName,
		WithDecryption: &decrypt,
	}

	result, err := client.GetParameter(ctxWithTimeout, input)
	if err != nil {
		return "", err
	}

	if result.Parameter == nil || result.Parameter.Value == nil {
		return "", nil
	}

	return *result.Parameter.Value, nil
}
