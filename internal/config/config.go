package config

import (
	"time"

	"github.com/spf13/viper"

	pkgconfig "github.com/weiawesome/jobboard-chat/pkg/config"
	"github.com/weiawesome/jobboard-chat/pkg/database"
)

type Config struct {
	Server        ServerConfig
	GRPC          GRPCConfig
	WebSocket     WebSocketConfig
	Auth          AuthConfig
	Database      database.Config
	Throttle      ThrottleConfig
	Notifications NotificationsConfig
	Kafka         KafkaConfig
	Redis         RedisConfig
	Log           LogConfig
}

type ServerConfig struct {
	Host       string
	Port       int
	InstanceID string `mapstructure:"instance_id"`
}

type GRPCConfig struct {
	Enabled bool
	Host    string
	Port    int
}

type WebSocketConfig struct {
	Path           string
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	AuthTimeout    time.Duration `mapstructure:"auth_timeout"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
	SendBuffer     int           `mapstructure:"send_buffer"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

type AuthConfig struct {
	Secret   string
	Issuer   string
	Leeway   time.Duration
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

// ThrottleConfig bounds per-user event rates. A non-positive rate disables
// the corresponding limiter.
type ThrottleConfig struct {
	TypingInterval time.Duration `mapstructure:"typing_interval"`
	SendRate       float64       `mapstructure:"send_rate"`
	SendBurst      int           `mapstructure:"send_burst"`
	IdleTTL        time.Duration `mapstructure:"idle_ttl"`
}

type NotificationsConfig struct {
	// PushDriver selects the hand-off for created notification records:
	// kafka, redis or none.
	PushDriver      string        `mapstructure:"push_driver"`
	PreviewLength   int           `mapstructure:"preview_length"`
	DispatchTimeout time.Duration `mapstructure:"dispatch_timeout"`
}

type KafkaConfig struct {
	Brokers    string
	Topic      string
	Partitions int
}

type RedisConfig struct {
	Enabled           bool
	Address           string
	Password          string
	DB                int
	PresencePrefix    string        `mapstructure:"presence_prefix"`
	NotifyChannel     string        `mapstructure:"notify_channel"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	KeyTTL            time.Duration `mapstructure:"key_ttl"`
}

type LogConfig struct {
	Level  string
	Pretty bool
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load(pkgconfig.GetEnv("CONFIG_PATH", "./config"), "config")
	if err != nil {
		return nil, err
	}
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	bindEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.WebSocket.PingInterval = pkgconfig.Duration(v, "websocket.ping_interval", 30*time.Second)
	cfg.WebSocket.PongWait = pkgconfig.Duration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = pkgconfig.Duration(v, "websocket.write_wait", 10*time.Second)
	cfg.WebSocket.AuthTimeout = pkgconfig.Duration(v, "websocket.auth_timeout", 5*time.Second)
	cfg.Auth.Leeway = pkgconfig.Duration(v, "auth.leeway", 30*time.Second)
	cfg.Auth.TokenTTL = pkgconfig.Duration(v, "auth.token_ttl", 24*time.Hour)
	cfg.Database.ConnMaxLifetime = pkgconfig.Duration(v, "database.conn_max_lifetime", 30*time.Minute)
	cfg.Database.SlowThreshold = pkgconfig.Duration(v, "database.slow_threshold", 200*time.Millisecond)
	cfg.Throttle.TypingInterval = pkgconfig.Duration(v, "throttle.typing_interval", 2*time.Second)
	cfg.Throttle.IdleTTL = pkgconfig.Duration(v, "throttle.idle_ttl", 10*time.Minute)
	cfg.Notifications.DispatchTimeout = pkgconfig.Duration(v, "notifications.dispatch_timeout", 10*time.Second)
	cfg.Redis.HeartbeatInterval = pkgconfig.Duration(v, "redis.heartbeat_interval", 10*time.Second)
	cfg.Redis.KeyTTL = pkgconfig.Duration(v, "redis.key_ttl", 30*time.Second)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.instance_id", "chat-1")
	v.SetDefault("grpc.enabled", true)
	v.SetDefault("grpc.host", "0.0.0.0")
	v.SetDefault("grpc.port", 50061)
	v.SetDefault("websocket.path", "/api/ws/chat")
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.auth_timeout", "5s")
	v.SetDefault("websocket.max_message_size", 16384)
	v.SetDefault("websocket.send_buffer", 256)
	v.SetDefault("websocket.allowed_origins", []string{})
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.leeway", "30s")
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "jobboard")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.file_path", "chat.db")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.slow_threshold", "200ms")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.auto_migrate", false)
	v.SetDefault("throttle.typing_interval", "2s")
	v.SetDefault("throttle.send_rate", 5)
	v.SetDefault("throttle.send_burst", 10)
	v.SetDefault("throttle.idle_ttl", "10m")
	v.SetDefault("notifications.push_driver", "none")
	v.SetDefault("notifications.preview_length", 100)
	v.SetDefault("notifications.dispatch_timeout", "10s")
	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.topic", "chat-notifications")
	v.SetDefault("kafka.partitions", 8)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.presence_prefix", "chat:presence")
	v.SetDefault("redis.notify_channel", "chat:notifications")
	v.SetDefault("redis.heartbeat_interval", "10s")
	v.SetDefault("redis.key_ttl", "30s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

func bindEnv(v *viper.Viper) {
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.instance_id", "INSTANCE_ID")
	v.BindEnv("grpc.port", "GRPC_PORT")
	v.BindEnv("auth.secret", "JWT_SECRET")
	v.BindEnv("auth.issuer", "JWT_ISSUER")
	v.BindEnv("auth.token_ttl", "JWT_TOKEN_TTL")
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_NAME")
	v.BindEnv("database.file_path", "DB_FILE_PATH")
	v.BindEnv("notifications.push_driver", "PUSH_DRIVER")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("kafka.topic", "KAFKA_TOPIC")
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.address", "REDIS_ADDRESS")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("log.level", "LOG_LEVEL")
}
