package cmd

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	dsn        string
	driverFlag string
	cfgFile    string
	verbose    bool
)

// errVerdictFailed signals a completed run that found blocking drift. It maps
// to exit code 1; every other error maps to 2.
var errVerdictFailed = errors.New("verification failed")

var RootCmd = &cobra.Command{
	Use:   "schema-sentinel",
	Short: "Verify a live database against its schema contract",
	Long: `
 ___  ___ _  _ _____ ___ _  _ ___ _
/ __|| __| \| |_   _|_ _| \| | __| |
\__ \| _|| .  | | |  | || .  | _|| |__
|___/|___|_|\_| |_| |___|_|\_|___|____|

SCHEMA SENTINEL - structural drift, constraint probes and latency checks
`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with the verdict code.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		if errors.Is(err, errVerdictFailed) {
			os.Exit(1)
		}
		log.Error().Err(err).Msg("schema-sentinel")
		os.Exit(2)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./schema-sentinel.yaml)")
	RootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "Database Source Name (DSN)")
	RootCmd.PersistentFlags().StringVar(&driverFlag, "driver", "", "database driver (postgres, mysql, sqlserver, oracle, sqlite); detected from the DSN when empty")
	RootCmd.PersistentFlags().String("manifest", "", "manifest YAML file (built-in manifest when empty)")
	RootCmd.PersistentFlags().StringSlice("schemas", nil, "schemas to verify; the first is the primary schema")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	viper.BindPFlag("database.dsn", RootCmd.PersistentFlags().Lookup("dsn"))
	viper.BindPFlag("database.driver", RootCmd.PersistentFlags().Lookup("driver"))
	viper.BindPFlag("settings.manifest", RootCmd.PersistentFlags().Lookup("manifest"))
	viper.BindPFlag("settings.schemas", RootCmd.PersistentFlags().Lookup("schemas"))
	viper.BindEnv("database.dsn", "SENTINEL_DATABASE_DSN", "DATABASE_URL")
	viper.BindEnv("database.driver", "SENTINEL_DATABASE_DRIVER")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	InitLogging(verbose)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Executable directory first, then the working directory.
		ex, err := os.Executable()
		if err == nil {
			viper.AddConfigPath(filepath.Dir(ex))
		}
		viper.AddConfigPath(".")

		viper.SetConfigName("schema-sentinel")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		log.Debug().Str("file", viper.ConfigFileUsed()).Msg("using config file")
	}
}
