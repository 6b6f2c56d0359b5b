package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type config struct {
	bind          string
	port          int
	storageType   string
	redisURL      string
	roomMaxAge    time.Duration
	sweepInterval time.Duration
	publicURL     string
	verbose       bool
}

func (c *config) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.storageType == "redis" && c.redisURL == "" {
		return errors.New("--redis-url is required when --storage-type is redis")
	}
	if c.roomMaxAge <= 0 {
		return errors.New("--room-max-age must be positive")
	}
	if c.sweepInterval <= 0 {
		return errors.New("--sweep-interval must be positive")
	}
	return nil
}

func newCmd(cfg *config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("WEREWOLF")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "werewolf-server",
		Short:         "Room and session server for moderated werewolf games.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: WEREWOLF_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: WEREWOLF_PORT)")
	fs.StringVar(&cfg.storageType, "storage-type", "memory", "room store backend, memory or redis (env: WEREWOLF_STORAGE_TYPE)")
	fs.StringVar(&cfg.redisURL, "redis-url", "", "redis connection URL (env: WEREWOLF_REDIS_URL)")
	fs.DurationVar(&cfg.roomMaxAge, "room-max-age", 24*time.Hour, "age after which rooms are swept (env: WEREWOLF_ROOM_MAX_AGE)")
	fs.DurationVar(&cfg.sweepInterval, "sweep-interval", time.Hour, "how often to sweep expired rooms (env: WEREWOLF_SWEEP_INTERVAL)")
	fs.StringVar(&cfg.publicURL, "public-url", "", "externally visible base URL used in join QR codes (env: WEREWOLF_PUBLIC_URL)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "enable debug logging (env: WEREWOLF_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	return cmd
}
