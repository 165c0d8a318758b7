package server

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/felthq/cardroom/internal/engine"
)

// Config represents the complete server configuration
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Rooms  []RoomConfig   `hcl:"room,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
	LogFile  string `hcl:"log_file,optional"`
}

// RoomConfig defines one poker room
type RoomConfig struct {
	Name             string `hcl:"name,label"`
	SmallBlind       int    `hcl:"small_blind"`
	BigBlind         int    `hcl:"big_blind"`
	StartingStack    int    `hcl:"starting_stack,optional"`
	MaxPlayers       int    `hcl:"max_players,optional"`
	MaxRebuys        int    `hcl:"max_rebuys,optional"`
	TurnTimerSeconds int    `hcl:"turn_timer_seconds,optional"`
	LogSize          int    `hcl:"log_size,optional"`
}

// GameConfig maps the room block onto the engine's parameters.
func (rc RoomConfig) GameConfig() engine.Config {
	return engine.Config{
		SmallBlind:    rc.SmallBlind,
		BigBlind:      rc.BigBlind,
		StartingStack: rc.StartingStack,
		MaxPlayers:    rc.MaxPlayers,
		MaxRebuys:     rc.MaxRebuys,
		LogSize:       rc.LogSize,
	}
}

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
		},
		Rooms: []RoomConfig{
			{
				Name:             "main",
				SmallBlind:       10,
				BigBlind:         20,
				StartingStack:    1000,
				MaxPlayers:       9,
				TurnTimerSeconds: 30,
			},
		},
	}
}

// LoadConfig loads the server configuration from an HCL file. A missing
// file yields the default configuration.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	if config.Server.Address == "" {
		config.Server.Address = "localhost"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = "info"
	}

	for i := range config.Rooms {
		if config.Rooms[i].StartingStack == 0 {
			config.Rooms[i].StartingStack = config.Rooms[i].BigBlind * 50
		}
		if config.Rooms[i].MaxPlayers == 0 {
			config.Rooms[i].MaxPlayers = 9
		}
		if config.Rooms[i].TurnTimerSeconds == 0 {
			config.Rooms[i].TurnTimerSeconds = 30
		}
	}

	return &config, nil
}

// Validate validates the server configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	if len(c.Rooms) == 0 {
		return fmt.Errorf("at least one room must be configured")
	}

	seen := make(map[string]bool)
	for _, room := range c.Rooms {
		if seen[room.Name] {
			return fmt.Errorf("duplicate room name: %s", room.Name)
		}
		seen[room.Name] = true

		if room.SmallBlind <= 0 {
			return fmt.Errorf("room %s: small blind must be positive", room.Name)
		}
		if room.BigBlind <= room.SmallBlind {
			return fmt.Errorf("room %s: big blind must be greater than small blind", room.Name)
		}
		if room.MaxPlayers < 2 || room.MaxPlayers > 9 {
			return fmt.Errorf("room %s: max players must be between 2 and 9", room.Name)
		}
		if room.TurnTimerSeconds < 0 {
			return fmt.Errorf("room %s: turn timer cannot be negative", room.Name)
		}
	}

	return nil
}

// Addr returns the full listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
