package imagedb

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/suryatmodulus/microsandbox/configuration"
	"github.com/suryatmodulus/microsandbox/datastore"
	"github.com/suryatmodulus/microsandbox/datastore/migrations"
	"github.com/suryatmodulus/microsandbox/datastore/migrations/schemamigrations"
	"github.com/suryatmodulus/microsandbox/version"
)

func init() {
	RootCmd.AddCommand(DBCmd)
	RootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "show the version and exit")

	MigrateCmd.AddCommand(MigrateVersionCmd)
	MigrateStatusCmd.Flags().BoolVarP(&upToDateCheck, "up-to-date", "u", false, "check if all known migrations are applied")
	MigrateCmd.AddCommand(MigrateStatusCmd)
	MigrateUpCmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "do not commit changes to the database")
	MigrateUpCmd.Flags().VarP(nullableInt{&maxNumMigrations}, "limit", "n", "limit the number of migrations (all by default)")
	MigrateCmd.AddCommand(MigrateUpCmd)
	MigrateDownCmd.Flags().BoolVarP(&force, "force", "f", false, "no confirmation message")
	MigrateDownCmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "do not commit changes to the database")
	MigrateDownCmd.Flags().VarP(nullableInt{&maxNumMigrations}, "limit", "n", "limit the number of migrations (all by default)")
	MigrateCmd.AddCommand(MigrateDownCmd)
	DBCmd.AddCommand(MigrateCmd)

	RootCmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return fmt.Errorf("%w\n\n%s", err, c.UsageString())
	})
}

// Command flag vars
var (
	dryRun           bool
	force            bool
	maxNumMigrations *int
	showVersion      bool
	upToDateCheck    bool
)

// nullableInt implements spf13/pflag#Value as a custom nullable integer to capture spf13/cobra command flags.
// https://pkg.go.dev/github.com/spf13/pflag?tab=doc#Value
type nullableInt struct {
	ptr **int
}

func (f nullableInt) String() string {
	if *f.ptr == nil {
		return "0"
	}
	return strconv.Itoa(**f.ptr)
}

func (nullableInt) Type() string {
	return "int"
}

func (f nullableInt) Set(s string) error {
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*f.ptr = &v
	return nil
}

// RootCmd is the main command for the 'imagedb' binary.
var RootCmd = &cobra.Command{
	Use:           "imagedb",
	Short:         "`imagedb` manages the image metadata database",
	Long:          "`imagedb` manages the image metadata database",
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if showVersion {
			fmt.Printf("%s %s %s\n", version.Package, version.Version, version.Revision)
			return nil
		}
		return cmd.Usage()
	},
}

// DBCmd is the root of the `database` command.
var DBCmd = &cobra.Command{
	Use:   "database",
	Short: "Manages the image metadata database",
	Long:  "Manages the image metadata database",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Usage()
	},
}

// MigrateCmd is the `migrate` sub-command of `database` that manages database migrations.
var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage migrations",
	Long:  "Manage migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Usage()
	},
}

// MigrateUpCmd is the `up` sub-command of `database migrate` that applies up migrations.
var MigrateUpCmd = &cobra.Command{
	Use:   "up <config>",
	Short: "Apply up migrations",
	Long:  "Apply up migrations",
	RunE: func(_ *cobra.Command, args []string) error {
		config, err := resolveConfiguration(args)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		if maxNumMigrations == nil {
			var all int
			maxNumMigrations = &all
		} else if *maxNumMigrations < 1 {
			return errors.New("limit must be greater than or equal to 1")
		}

		m, db, err := migratorFromConfig(config)
		if err != nil {
			return fmt.Errorf("failed to construct database connection: %w", err)
		}
		defer db.Close()

		plan, err := m.UpNPlan(*maxNumMigrations)
		if err != nil {
			return fmt.Errorf("failed to prepare Up plan: %w", err)
		}

		if len(plan) > 0 {
			_, _ = fmt.Println(strings.Join(plan, "\n"))
		}

		if !dryRun {
			start := time.Now()
			n, err := m.UpN(*maxNumMigrations)
			if err != nil {
				return fmt.Errorf("failed to run database migrations: %w", err)
			}
			fmt.Printf("OK: applied %d migrations in %.3fs\n", n, time.Since(start).Seconds())
		}
		return nil
	},
}

// MigrateDownCmd is the `down` sub-command of `database migrate` that applies down migrations.
var MigrateDownCmd = &cobra.Command{
	Use:   "down <config>",
	Short: "Apply down migrations",
	Long:  "Apply down migrations",
	RunE: func(_ *cobra.Command, args []string) error {
		config, err := resolveConfiguration(args)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		if maxNumMigrations == nil {
			var all int
			maxNumMigrations = &all
		} else if *maxNumMigrations < 1 {
			return errors.New("limit must be greater than or equal to 1")
		}

		m, db, err := migratorFromConfig(config)
		if err != nil {
			return fmt.Errorf("failed to construct database connection: %w", err)
		}
		defer db.Close()

		plan, err := m.DownNPlan(*maxNumMigrations)
		if err != nil {
			return fmt.Errorf("failed to prepare Down plan: %w", err)
		}

		if len(plan) > 0 {
			_, _ = fmt.Println(strings.Join(plan, "\n"))
		}

		if !dryRun && len(plan) > 0 {
			if !force {
				var response string
				_, _ = fmt.Print("Preparing to apply the above down migrations. Are you sure? [y/N] ")
				_, err := fmt.Scanln(&response)
				if err != nil && errors.Is(err, io.EOF) {
					return fmt.Errorf("failed to scan user input: %w", err)
				}
				if !regexp.MustCompile(`(?i)^y(es)?$`).MatchString(response) {
					return nil
				}
			}

			start := time.Now()
			n, err := m.DownN(*maxNumMigrations)
			if err != nil {
				return fmt.Errorf("failed to run database migrations: %w", err)
			}
			fmt.Printf("OK: applied %d migrations in %.3fs\n", n, time.Since(start).Seconds())
		}
		return nil
	},
}

// MigrateVersionCmd is the `version` sub-command of `database migrate` that shows the current migration version.
var MigrateVersionCmd = &cobra.Command{
	Use:   "version <config>",
	Short: "Show current migration version",
	Long:  "Show current migration version",
	RunE: func(_ *cobra.Command, args []string) error {
		config, err := resolveConfiguration(args)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		m, db, err := migratorFromConfig(config)
		if err != nil {
			return fmt.Errorf("failed to construct database connection: %w", err)
		}
		defer db.Close()

		v, err := m.Version()
		if err != nil {
			return fmt.Errorf("failed to detect database version: %w", err)
		}
		if v == "" {
			v = "Unknown"
		}

		fmt.Printf("%s\n", v)
		return nil
	},
}

// MigrateStatusCmd is the `status` sub-command of `database migrate` that shows the migrations status.
var MigrateStatusCmd = &cobra.Command{
	Use:   "status <config>",
	Short: "Show migration status",
	Long:  "Show migration status",
	RunE: func(_ *cobra.Command, args []string) error {
		config, err := resolveConfiguration(args)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		m, db, err := migratorFromConfig(config)
		if err != nil {
			return fmt.Errorf("failed to construct database connection: %w", err)
		}
		defer db.Close()

		statuses, err := m.Status()
		if err != nil {
			return fmt.Errorf("failed to detect database status: %w", err)
		}

		if upToDateCheck {
			upToDate := true
			for _, s := range statuses {
				if s.AppliedAt == nil {
					upToDate = false
					break
				}
			}
			_, err = fmt.Println(upToDate)
			if err != nil {
				return fmt.Errorf("printing line: %w", err)
			}
			return nil
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Migration", "Applied")

		// Display table rows sorted by migration ID
		var ids []string
		for id := range statuses {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			name := id
			if statuses[id].Unknown {
				name += " (unknown)"
			}

			var appliedAt string
			if statuses[id].AppliedAt != nil {
				appliedAt = statuses[id].AppliedAt.String()
			}

			if err := table.Append([]string{name, appliedAt}); err != nil {
				return fmt.Errorf("appending table row: %w", err)
			}
		}

		if err := table.Render(); err != nil {
			return fmt.Errorf("rendering table: %w", err)
		}
		return nil
	},
}

func resolveConfiguration(args []string) (*configuration.Configuration, error) {
	var configurationPath string

	if len(args) > 0 {
		configurationPath = args[0]
	} else if os.Getenv("IMAGEDB_CONFIGURATION_PATH") != "" {
		configurationPath = os.Getenv("IMAGEDB_CONFIGURATION_PATH")
	}

	if configurationPath == "" {
		return nil, errors.New("configuration path unspecified")
	}

	fp, err := os.Open(configurationPath)
	if err != nil {
		return nil, err
	}
	defer fp.Close()

	config, err := configuration.Parse(fp)
	if err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", configurationPath, err)
	}

	return config, nil
}

func migratorFromConfig(config *configuration.Configuration) (*migrations.Migrator, *datastore.DB, error) {
	logger, err := configureLogger(config)
	if err != nil {
		return nil, nil, err
	}

	db, err := datastore.Open(&datastore.DSN{
		Path:        config.Database.Path,
		BusyTimeout: config.Database.BusyTimeout,
		JournalMode: config.Database.JournalMode,
		ForeignKeys: true,
	},
		datastore.WithLogger(logger.WithField("component", "datastore")),
		datastore.WithPoolConfig(&datastore.PoolConfig{
			MaxOpen:     config.Database.Pool.MaxOpen,
			MaxIdle:     config.Database.Pool.MaxIdle,
			MaxLifetime: config.Database.Pool.MaxLifetime,
			MaxIdleTime: config.Database.Pool.MaxIdleTime,
		}),
	)
	if err != nil {
		return nil, nil, err
	}

	m := schemamigrations.NewMigrator(db,
		migrations.WithLogger(logger.WithField("component", "migrations")))

	return m, db, nil
}

func configureLogger(config *configuration.Configuration) (*logrus.Logger, error) {
	logger := logrus.New()

	level, err := logrus.ParseLevel(config.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}
	logger.SetLevel(level)

	switch config.Log.Formatter {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{})
	}

	return logger, nil
}
