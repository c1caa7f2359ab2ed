package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"schema-sentinel/internal/dialect"
	"schema-sentinel/internal/engine"
	"schema-sentinel/internal/manifest"
	"schema-sentinel/internal/probe"
	"schema-sentinel/internal/report"

	"github.com/gosuri/uiprogress"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	noProbes   bool
	noProgress bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the database against the schema manifest",
	Long: `Introspects the catalog, compares it with the manifest, probes the
constraints the manifest relies on with marked rows that are always removed,
and measures round-trip latency. Exits 0 when no CRITICAL or HIGH finding was
raised, 1 when one was, and 2 when the run itself could not complete.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		format, err := report.ParseFormat(viper.GetString("settings.format"))
		if err != nil {
			return err
		}

		m, err := loadManifest()
		if err != nil {
			return err
		}

		config, err := ResolveDBConfig()
		if err != nil {
			return err
		}
		log.Info().Str("name", config.Name).Str("driver", config.Driver).Msg("connecting")

		db, err := openDatabase(ctx, config)
		if err != nil {
			return err
		}
		defer db.Close()

		schemas, err := configuredSchemas(ctx, db, config)
		if err != nil {
			return err
		}

		opts := engine.Options{
			Database:     fmt.Sprintf("%s (%s)", config.Name, config.Driver),
			Schemas:      schemas,
			SLA:          viper.GetDuration("settings.sla"),
			Workers:      viper.GetInt("settings.workers"),
			RunTimeout:   viper.GetDuration("settings.run_timeout"),
			ProbeTimeout: viper.GetDuration("settings.probe_timeout"),
			SkipProbes:   noProbes || !viper.GetBool("settings.probes"),
		}

		output := viper.GetString("settings.output")
		// The bar shares stdout with the report, so JSON on stdout runs quietly.
		showProgress := !noProgress && !opts.SkipProbes && (format == report.FormatTable || output != "")
		if showProgress {
			uiprogress.Start()
			var bar *uiprogress.Bar
			opts.OnPlan = func(total int) {
				bar = uiprogress.AddBar(total).AppendCompleted().PrependElapsed()
				bar.PrependFunc(func(b *uiprogress.Bar) string {
					return "Probing: "
				})
			}
			opts.OnProgress = func(probe.Result) {
				if bar != nil {
					bar.Incr()
				}
			}
		} else {
			opts.OnProgress = func(res probe.Result) {
				log.Debug().Str("probe", res.Probe.String()).Str("status", string(res.Status)).
					Dur("elapsed", res.Elapsed).Msg("probe finished")
			}
		}

		start := time.Now()
		r, err := engine.Verify(ctx, db, dialect.GetDialect(config.Driver), m, opts)
		if showProgress {
			uiprogress.Stop()
		}
		if err != nil {
			return err
		}
		log.Debug().Dur("elapsed", time.Since(start)).Msg("run complete")

		if err := writeReport(r, format, output); err != nil {
			return err
		}
		if !r.Passed {
			return errVerdictFailed
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().Duration("sla", 0, "round-trip latency SLA")
	verifyCmd.Flags().Int("workers", 0, "concurrent probes")
	verifyCmd.Flags().Duration("timeout", 0, "deadline for the whole run")
	verifyCmd.Flags().Duration("probe-timeout", 0, "deadline for one probe including setup")
	verifyCmd.Flags().StringP("format", "f", "", "report format: table or json")
	verifyCmd.Flags().StringP("output", "o", "", "write the report to a file instead of stdout")
	verifyCmd.Flags().BoolVar(&noProbes, "no-probes", false, "skip constraint probes (read-only run)")
	verifyCmd.Flags().BoolVar(&noProgress, "no-progress", false, "hide the progress bar")

	viper.BindPFlag("settings.sla", verifyCmd.Flags().Lookup("sla"))
	viper.BindPFlag("settings.workers", verifyCmd.Flags().Lookup("workers"))
	viper.BindPFlag("settings.run_timeout", verifyCmd.Flags().Lookup("timeout"))
	viper.BindPFlag("settings.probe_timeout", verifyCmd.Flags().Lookup("probe-timeout"))
	viper.BindPFlag("settings.format", verifyCmd.Flags().Lookup("format"))
	viper.BindPFlag("settings.output", verifyCmd.Flags().Lookup("output"))

	viper.SetDefault("settings.sla", time.Second)
	viper.SetDefault("settings.workers", 4)
	viper.SetDefault("settings.run_timeout", 2*time.Minute)
	viper.SetDefault("settings.probe_timeout", 15*time.Second)
	viper.SetDefault("settings.probes", true)
	viper.SetDefault("settings.format", string(report.FormatTable))
}

// loadManifest reads settings.manifest, falling back to the built-in manifest.
func loadManifest() (*manifest.Manifest, error) {
	path := viper.GetString("settings.manifest")
	if path == "" {
		log.Debug().Msg("using built-in manifest")
		return manifest.Default(), nil
	}
	m, err := manifest.Load(path)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("file", path).Int("tables", len(m.Tables)).Msg("manifest loaded")
	return m, nil
}

func writeReport(r *report.Report, format report.Format, output string) error {
	if output == "" {
		return report.Write(os.Stdout, r, format)
	}
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	if err := report.Write(f, r, format); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.Info().Str("file", output).Msg("report written")
	return nil
}
