package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
)

// The environment variables that provide flag defaults.
const (
	EnvWorkers     = "CACHESIM_WORKERS"
	EnvOutput      = "CACHESIM_OUTPUT"
	EnvBlockSize   = "CACHESIM_BLOCK_SIZE"
	EnvAddressBits = "CACHESIM_ADDRESS_BITS"
	EnvMonitorPort = "CACHESIM_MONITOR_PORT"
)

// Config holds the defaults of the command-line flags.
type Config struct {
	Workers     int
	Output      string
	BlockSize   int
	AddressBits int
	MonitorPort int
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Workers:     runtime.GOMAXPROCS(0),
		BlockSize:   32,
		AddressBits: 48,
	}
}

// LoadConfig reads the defaults from the environment. Variables in envFile
// are used when the process environment does not set them. A missing
// envFile is not an error.
func LoadConfig(envFile string) (Config, error) {
	fileEnv, err := godotenv.Read(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("reading %s: %w", envFile, err)
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}

		v, ok := fileEnv[key]

		return v, ok
	}

	return configFromEnv(lookup)
}

func configFromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := DefaultConfig()

	if v, ok := lookup(EnvOutput); ok {
		cfg.Output = v
	}

	ints := []struct {
		key string
		dst *int
	}{
		{EnvWorkers, &cfg.Workers},
		{EnvBlockSize, &cfg.BlockSize},
		{EnvAddressBits, &cfg.AddressBits},
		{EnvMonitorPort, &cfg.MonitorPort},
	}

	for _, i := range ints {
		v, ok := lookup(i.key)
		if !ok || v == "" {
			continue
		}

		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", i.key, err)
		}

		*i.dst = n
	}

	return cfg, nil
}
