package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// OperatingMode selects the business mode of a deployment. It is threaded
// explicitly through engine constructors instead of being read from globals.
type OperatingMode string

const (
	ModeVODOperator   OperatingMode = "vod_operator"
	ModeContentVendor OperatingMode = "content_vendor"
	ModeGameVendor    OperatingMode = "game_vendor"
)

type AppConfig struct {
	Port          string        `mapstructure:"port"`
	Env           string        `mapstructure:"env"`
	OperatingMode OperatingMode `mapstructure:"operating_mode"`
}

type SalesConfig struct {
	Unit             string  `mapstructure:"unit"` // "time" or "volume"
	Currency         string  `mapstructure:"currency"`
	WelcomeOfferMB   int64   `mapstructure:"welcome_offer_mb"`
	WelcomeOfferDays int     `mapstructure:"welcome_offer_days"`
	ShareRate        float64 `mapstructure:"share_rate"`
	ShareFixed       int64   `mapstructure:"share_fixed"`
	FallbackRate     float64 `mapstructure:"fallback_rate"`
	HasPartner       bool    `mapstructure:"has_partner"`
	PartnerTxRate    float64 `mapstructure:"partner_tx_rate"`
}

type MediaConfig struct {
	DataSources   []string `mapstructure:"data_sources"`
	LinkSecret    string   `mapstructure:"link_secret"`
	LinkBaseURL   string   `mapstructure:"link_base_url"`
	BaseFolder    string   `mapstructure:"base_folder"`
	LinkTimeout   int      `mapstructure:"link_timeout_min"`
	MoviesTimeout int      `mapstructure:"movies_timeout_days"`
	SeriesTimeout int      `mapstructure:"series_timeout_days"`
}

type DBConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
}

type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	TokenLifespan time.Duration `mapstructure:"token_lifespan"`
}

type CloudinaryConfig struct {
	CloudName string `mapstructure:"cloud_name"`
	ApiKey    string `mapstructure:"api_key"`
	ApiSecret string `mapstructure:"api_secret"`
}

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Sales      SalesConfig      `mapstructure:"sales"`
	Media      MediaConfig      `mapstructure:"media"`
	DB         DBConfig         `mapstructure:"db"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Cloudinary CloudinaryConfig `mapstructure:"cloudinary"`
}

func LoadConfig() (cfg Config, err error) {

	err = godotenv.Load()
	if err != nil {
		log.Println("warning: .env file not found, use default.")
	}

	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	if err = viper.ReadInConfig(); err != nil {
		log.Printf("note: config.yaml not found, read .env only. Error: %v", err)
	}

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.BindEnv("app.port", "APP_PORT")
	viper.BindEnv("app.env", "APP_ENV")
	viper.BindEnv("app.operating_mode", "OPERATING_MODE")
	viper.BindEnv("sales.unit", "SALES_UNIT")
	viper.BindEnv("sales.currency", "SALES_CURRENCY")
	viper.BindEnv("db.dsn", "DB_DSN")
	viper.BindEnv("redis.addr", "REDIS_ADDR")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	viper.BindEnv("auth.jwt_secret", "JWT_SECRET")
	viper.BindEnv("auth.token_lifespan", "TOKEN_LIFESPAN")

	viper.BindEnv("cloudinary.cloud_name", "CLOUDINARY_CLOUD_NAME")
	viper.BindEnv("cloudinary.api_key", "CLOUDINARY_API_KEY")
	viper.BindEnv("cloudinary.api_secret", "CLOUDINARY_API_SECRET")

	viper.SetDefault("app.operating_mode", string(ModeVODOperator))
	viper.SetDefault("sales.unit", "volume")
	viper.SetDefault("sales.currency", "XAF")
	viper.SetDefault("sales.welcome_offer_mb", 200)
	viper.SetDefault("sales.welcome_offer_days", 7)
	viper.SetDefault("sales.fallback_rate", 3.0)
	viper.SetDefault("media.link_timeout_min", 90)
	viper.SetDefault("media.movies_timeout_days", 2)
	viper.SetDefault("media.series_timeout_days", 5)

	err = viper.Unmarshal(&cfg)
	return
}
