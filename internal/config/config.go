package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port            string
		LogLevel        string
		LogFormat       string
		ShutdownTimeout time.Duration
	}
	Database struct {
		URL         string
		AutoMigrate bool
	}
	Lobby struct {
		InboxSize     int
		WatcherBuffer int
		Linger        time.Duration
	}
	WS struct {
		WriteTimeout time.Duration
		PingInterval time.Duration
	}
}

// Load reads .env (if present) and the environment.
func Load() Config {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_format", "json")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("lobby.inbox_size", 64)
	v.SetDefault("lobby.watcher_buffer", 8)
	v.SetDefault("lobby.linger", "30s")
	v.SetDefault("ws.write_timeout", "3s")
	v.SetDefault("ws.ping_interval", "30s")

	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.log_level", "LOG_LEVEL")
	v.BindEnv("server.log_format", "LOG_FORMAT")
	v.BindEnv("server.shutdown_timeout", "SHUTDOWN_TIMEOUT")
	v.BindEnv("database.url", "DATABASE_URL")
	v.BindEnv("database.auto_migrate", "DB_AUTO_MIGRATE")
	v.BindEnv("lobby.inbox_size", "LOBBY_INBOX_SIZE")
	v.BindEnv("lobby.watcher_buffer", "WATCHER_BUFFER")
	v.BindEnv("lobby.linger", "LOBBY_LINGER")
	v.BindEnv("ws.write_timeout", "WS_WRITE_TIMEOUT")
	v.BindEnv("ws.ping_interval", "WS_PING_INTERVAL")

	var c Config
	c.Server.Port = fmt.Sprint(v.Get("server.port"))
	c.Server.LogLevel = v.GetString("server.log_level")
	c.Server.LogFormat = v.GetString("server.log_format")
	c.Server.ShutdownTimeout = v.GetDuration("server.shutdown_timeout")

	c.Database.URL = v.GetString("database.url")
	c.Database.AutoMigrate = v.GetBool("database.auto_migrate")

	c.Lobby.InboxSize = v.GetInt("lobby.inbox_size")
	c.Lobby.WatcherBuffer = v.GetInt("lobby.watcher_buffer")
	c.Lobby.Linger = v.GetDuration("lobby.linger")

	c.WS.WriteTimeout = v.GetDuration("ws.write_timeout")
	c.WS.PingInterval = v.GetDuration("ws.ping_interval")
	return c
}
