package main

import (
	"fmt"

	"github.com/aerosweep/sweep/internal/config"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flagKeys maps command-line flags onto config keys. A flag only overrides the
// config file when it was set explicitly.
var flagKeys = map[string]string{
	"seed":      "field.seed",
	"points":    "field.count",
	"storage":   "storage.type",
	"max-ticks": "mission.maxTicks",
	"realtime":  "mission.realTime",
	"log-level": "logLevel",
	"name":      "mission.name",
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet(AppName, pflag.ContinueOnError)
	fs.String("config", ".", "directory containing "+config.FileName)
	fs.Int64("seed", config.DefaultSeed, "field generation seed")
	fs.Int("points", config.DefaultPointCount, "number of target points")
	fs.String("storage", "memory", "event log backend: memory, sqlite or postgres")
	fs.Int("max-ticks", config.DefaultMaxTicks, "tick budget, including the return leg")
	fs.Bool("realtime", false, "pace ticks at the simulated timestep")
	fs.String("log-level", "info", "debug, info, warn or error")
	fs.String("name", AppName, "mission name used in exports")
	fs.Bool("no-metrics", false, "skip the HTTP metrics endpoint")
	fs.String("inspect", "", "print the missions stored in a sqlite dump and exit")
	fs.Bool("version", false, "print version and exit")
	return fs
}

// bindFlags must run after config.Load so flags rank above the config file.
func bindFlags(fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		if err := viper.BindPFlag(key, fs.Lookup(name)); err != nil {
			return fmt.Errorf("binding flag %s: %w", name, err)
		}
	}
	if off, _ := fs.GetBool("no-metrics"); off {
		viper.Set("api.enabled", false)
	}
	return nil
}
