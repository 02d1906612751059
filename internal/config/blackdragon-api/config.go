package blackdragon_api_config

import (
	"time"

	"github.com/NordCoder/BlackDragon/internal/obs"
	pg "github.com/NordCoder/BlackDragon/internal/repository/postgres"
	"github.com/NordCoder/BlackDragon/internal/token"
)

const (
	LedgerPostgres = "postgres"
	LedgerMemory   = "memory"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type Server struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	GRPCAddr        string        `mapstructure:"grpc_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

func (oc *OTEL) AsOTELConfig() *obs.OTELConfig {
	return &obs.OTELConfig{
		Enable:      oc.Enable,
		Endpoint:    oc.OTLPEndpoint,
		ServiceName: oc.ServiceName,
		SampleRatio: oc.SampleRatio,
	}
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type Auth struct {
	JWTKey            string        `mapstructure:"jwt_key"`
	Issuer            string        `mapstructure:"issuer"`
	Audience          string        `mapstructure:"audience"`
	TokenTTL          time.Duration `mapstructure:"token_ttl"`
	PasswordMinLength int           `mapstructure:"password_min_length"`
	Ledger            string        `mapstructure:"ledger"`
}

func (a *Auth) AsTokenConfig() token.Config {
	return token.Config{
		Secret:   []byte(a.JWTKey),
		Issuer:   a.Issuer,
		Audience: a.Audience,
		TTL:      a.TokenTTL,
	}
}

type Retention struct {
	Tick  time.Duration `mapstructure:"tick"`
	Grace time.Duration `mapstructure:"grace"`
}

type Kafka struct {
	Enable            bool     `mapstructure:"enable"`
	Brokers           []string `mapstructure:"brokers"`
	Topic             string   `mapstructure:"topic"`
	GroupID           string   `mapstructure:"group_id"`
	NumPartitions     int      `mapstructure:"num_partitions"`
	ReplicationFactor int      `mapstructure:"replication_factor"`
}

type Outbox struct {
	Workers       int           `mapstructure:"workers"`
	BatchSize     int           `mapstructure:"batch_size"`
	WaitTime      time.Duration `mapstructure:"wait_time"`
	InProgressTTL time.Duration `mapstructure:"in_progress_ttl"`
}

type Config struct {
	App       App       `mapstructure:"app"`
	Server    Server    `mapstructure:"server"`
	DB        pg.Config `mapstructure:"db"`
	OTEL      OTEL      `mapstructure:"otel"`
	Log       Log       `mapstructure:"log"`
	Auth      Auth      `mapstructure:"auth"`
	Retention Retention `mapstructure:"retention"`
	Kafka     Kafka     `mapstructure:"kafka"`
	Outbox    Outbox    `mapstructure:"outbox"`
}

type ErrConfig string

func (e ErrConfig) Error() string { return string(e) }
