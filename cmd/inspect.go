package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"schema-sentinel/internal/catalog"
	"schema-sentinel/internal/dialect"
	"schema-sentinel/internal/engine"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var showColumns bool

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the observed catalog in dependency order",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		m, err := loadManifest()
		if err != nil {
			return err
		}
		config, err := ResolveDBConfig()
		if err != nil {
			return err
		}
		db, err := openDatabase(ctx, config)
		if err != nil {
			return err
		}
		defer db.Close()

		configured, err := configuredSchemas(ctx, db, config)
		if err != nil {
			return err
		}
		d := dialect.GetDialect(config.Driver)
		_, schemas := engine.Schemas(d, m, configured)

		log.Info().Str("dialect", d.Name()).Strs("schemas", schemas).Msg("analyzing schema")
		snap, err := catalog.Introspect(ctx, db, d, schemas)
		if err != nil {
			return err
		}

		tables := snap.DependencyOrder()
		fmt.Printf("Catalog of %s (%d tables, dependency order):\n", strings.Join(schemas, ", "), len(tables))
		for i, t := range tables {
			fmt.Printf("[%02d] %s (Dependencies: %v, Indexes: %d)\n", i+1, t.QualifiedName(), t.Dependencies, len(t.Indexes))
			if showColumns {
				if err := printColumns(t); err != nil {
					return err
				}
			}
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().BoolVar(&showColumns, "columns", false, "print each table's columns and foreign keys")
}

func printColumns(t *catalog.Table) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{"Column", "Type", "Null", "Key", "Default", "References"})
	for _, c := range t.Columns {
		var key []string
		if c.IsPK {
			key = append(key, "PK")
		}
		if c.IsUnique {
			key = append(key, "UQ")
		}
		if c.IsAutoInc {
			key = append(key, "AI")
		}
		null := "NO"
		if c.IsNullable {
			null = "YES"
		}
		var ref string
		for _, fk := range t.ForeignKeys {
			if strings.EqualFold(fk.Column, c.Name) {
				ref = fk.Target() + "." + fk.RefColumn
				break
			}
		}
		if err := table.Append([]string{c.Name, c.RawType, null, strings.Join(key, ","), c.Default, ref}); err != nil {
			return err
		}
	}
	return table.Render()
}
