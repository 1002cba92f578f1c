package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StorageRedis  = "redis"
	StorageSQLite = "sqlite"
)

var (
	ErrInvalidStorageDriver = errors.New("invalid storage driver")
	ErrInvalidBoardSizes    = errors.New("invalid board size range")
	ErrInvalidGameMode      = errors.New("invalid default game mode")
)

type Config struct {
	LogLevel string  `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort string  `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	Storage  Storage `yaml:"storage"`
	Redis    Redis   `yaml:"redis"`
	Game     Game    `yaml:"game"`
}

type Storage struct {
	Driver     string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"redis"`
	SQLitePath string `yaml:"sqlite-path" env:"SQLITE_PATH" env-default:"scores.db"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

type Game struct {
	DefaultSize    int           `yaml:"default-size" env:"GAME_DEFAULT_SIZE" env-default:"3"`
	MinSize        int           `yaml:"min-size" env:"GAME_MIN_SIZE" env-default:"3"`
	MaxSize        int           `yaml:"max-size" env:"GAME_MAX_SIZE" env-default:"10"`
	DefaultMode    string        `yaml:"default-mode" env:"GAME_DEFAULT_MODE" env-default:"two-player"`
	AutoResetDelay time.Duration `yaml:"auto-reset-delay" env:"GAME_AUTO_RESET_DELAY" env-default:"5s"`
	Player1Name    string        `yaml:"player1-name" env:"GAME_PLAYER1_NAME" env-default:"Player 1"`
	Player2Name    string        `yaml:"player2-name" env:"GAME_PLAYER2_NAME" env-default:"Player 2"`
}

// MustLoad - load all configurations in config.yml file, or from the environment when the file is absent.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func Load(path string) (*Config, error) {
	config := &Config{}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err = cleanenv.ReadEnv(config); err != nil {
			return nil, fmt.Errorf("failed to read env: %w", err)
		}
	} else if err = cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (that *Config) Validate() error {
	switch that.Storage.Driver {
	case StorageRedis, StorageSQLite:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStorageDriver, that.Storage.Driver)
	}

	game := that.Game
	if game.MinSize < 1 || game.MaxSize < game.MinSize || game.DefaultSize < game.MinSize || game.DefaultSize > game.MaxSize {
		return fmt.Errorf("%w: default %d not within %d..%d", ErrInvalidBoardSizes, game.DefaultSize, game.MinSize, game.MaxSize)
	}

	if game.DefaultMode != "two-player" && game.DefaultMode != "solo" {
		return fmt.Errorf("%w: %q", ErrInvalidGameMode, game.DefaultMode)
	}

	return nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
