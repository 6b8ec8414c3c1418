package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	TelegramBot TelegramBot
	PickemAPI   PickemAPI
	Refresh     Refresh
	Storage     Storage
	HealthAddr  string `envconfig:"HEALTH_ADDR" default:":80"`
	Timezone    string `envconfig:"DISPLAY_TIMEZONE" default:"America/Chicago"`
}

type TelegramBot struct {
	Token string `envconfig:"TELEGRAM_TOKEN" required:"true"`
}

type PickemAPI struct {
	BaseURL string        `envconfig:"PICKEM_API_URL" required:"true"`
	Timeout time.Duration `envconfig:"PICKEM_API_TIMEOUT" default:"10s"`
}

type Refresh struct {
	Leaderboard time.Duration `envconfig:"LEADERBOARD_REFRESH" default:"30s"`
	Games       time.Duration `envconfig:"GAMES_REFRESH" default:"60s"`
}

type Storage struct {
	SessionDB string `envconfig:"SESSION_DB" default:"sessions.db"`
}

func New() (*Config, error) {
	var c Config
	err := envconfig.Process("", &c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
