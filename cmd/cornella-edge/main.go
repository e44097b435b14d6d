// Command cornella-edge runs the offline-first caching edge in front of the
// Cornellà Local app and carries the backend maintenance commands.
package main

import (
	"fmt"
	"os"

	"github.com/cornella-local/cornella-edge/pkg/config"
	"github.com/cornella-local/cornella-edge/pkg/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app carries state shared by every subcommand.
type app struct {
	viper   *viper.Viper
	envFile string
	config  *config.Config
}

func newRootCommand() *cobra.Command {
	a := &app{viper: config.New()}

	root := &cobra.Command{
		Use:           "cornella-edge",
		Short:         "Offline-first caching edge for Cornellà Local",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded when present")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Bool("log-pretty", false, "human-readable console logs")
	flags.String("supabase-url", "", "hosted backend project URL")
	mustBind(a.viper, "log.level", flags, "log-level")
	mustBind(a.viper, "log.pretty", flags, "log-pretty")
	mustBind(a.viper, "supabase.url", flags, "supabase-url")

	root.AddCommand(
		newServeCommand(a),
		newProbeCommand(a),
		newSeedCommand(a),
		newMigrateCommand(a),
	)
	return root
}

func (a *app) load() error {
	cfg, err := config.Load(a.viper, a.envFile)
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logCfg := logging.DefaultConfig()
	logCfg.Level = level
	logCfg.Pretty = cfg.Log.Pretty
	logging.Setup(logCfg)

	a.config = cfg
	return nil
}

// mustBind ties a config key to a flag; flag values win over the
// environment when set.
func mustBind(v *viper.Viper, key string, flags *pflag.FlagSet, name string) {
	if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", name, err))
	}
}
