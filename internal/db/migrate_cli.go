package db

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"
)

// MigrateCommand runs the 'migrate' subcommand against a database file.
// In answers the confirmation prompt of 'force'.
type MigrateCommand struct {
	DBPath     string
	Migrations fs.FS
	In         io.Reader
	Out        io.Writer
}

// Run dispatches args[0] to the matching migrate action.
func (c *MigrateCommand) Run(args []string) error {
	if len(args) < 1 {
		c.printHelp()
		return fmt.Errorf("missing migrate action")
	}
	action := args[0]
	if action == "help" {
		c.printHelp()
		return nil
	}

	migrations := c.Migrations
	if migrations == nil {
		migrations = MigrationsFS()
	}

	// Open without migrating; the actions below own the schema.
	database, err := OpenDB(c.DBPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	switch action {
	case "up":
		return c.up(database, migrations)
	case "down":
		return c.down(database, migrations)
	case "status":
		return c.status(database, migrations)
	case "version", "force", "baseline":
		if len(args) < 2 {
			return fmt.Errorf("usage: annotate migrate %s <version_number>", action)
		}
		v, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid version number: %s", args[1])
		}
		switch action {
		case "version":
			return c.to(database, migrations, uint(v))
		case "force":
			return c.force(database, migrations, int(v))
		default:
			return c.baseline(database, uint(v))
		}
	default:
		fmt.Fprintf(c.Out, "Unknown migrate action: %s\n\n", action)
		c.printHelp()
		return fmt.Errorf("unknown migrate action %q", action)
	}
}

func (c *MigrateCommand) up(database *DB, migrations fs.FS) error {
	if err := database.MigrateUp(migrations); err != nil {
		return err
	}
	fmt.Fprintln(c.Out, "✓ All migrations applied successfully")
	return c.printVersion(database, migrations)
}

func (c *MigrateCommand) down(database *DB, migrations fs.FS) error {
	if err := database.MigrateDown(migrations); err != nil {
		return err
	}
	fmt.Fprintln(c.Out, "✓ Migration rolled back successfully")
	return c.printVersion(database, migrations)
}

func (c *MigrateCommand) to(database *DB, migrations fs.FS, version uint) error {
	if err := database.MigrateTo(migrations, version); err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "✓ Migrated to version %d successfully\n", version)
	return nil
}

func (c *MigrateCommand) printVersion(database *DB, migrations fs.FS) error {
	version, dirty, err := database.MigrateVersion(migrations)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "Current version: %d (dirty: %v)\n", version, dirty)
	return nil
}

func (c *MigrateCommand) status(database *DB, migrations fs.FS) error {
	status, err := database.GetMigrationStatus(migrations)
	if err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}

	fmt.Fprintln(c.Out, "=== Migration Status ===")
	fmt.Fprintf(c.Out, "Current version: %d\n", status.CurrentVersion)
	fmt.Fprintf(c.Out, "Latest available: %d\n", status.LatestVersion)
	fmt.Fprintf(c.Out, "Dirty: %v\n", status.Dirty)
	fmt.Fprintf(c.Out, "Schema migrations table exists: %v\n", status.SchemaMigrationsExists)

	switch {
	case status.Dirty:
		fmt.Fprintln(c.Out, "\n⚠️  WARNING: Database is in a dirty state!")
		fmt.Fprintln(c.Out, "A migration failed mid-execution. Inspect the database, then run:")
		fmt.Fprintln(c.Out, "  annotate migrate force <version>")
	case status.Pending() > 0:
		fmt.Fprintf(c.Out, "\n%d migration(s) pending. Run 'annotate migrate up' to update.\n", status.Pending())
	default:
		fmt.Fprintln(c.Out, "\n✓ Database is up to date!")
	}
	return nil
}

func (c *MigrateCommand) force(database *DB, migrations fs.FS, version int) error {
	fmt.Fprintf(c.Out, "⚠️  WARNING: Forcing migration version to %d\n", version)
	fmt.Fprintln(c.Out, "This should only be used to recover from a dirty migration state.")
	fmt.Fprint(c.Out, "Continue? [y/N]: ")

	var response string
	if c.In != nil {
		line, _ := bufio.NewReader(c.In).ReadString('\n')
		response = strings.TrimSpace(line)
	}
	if response != "y" && response != "Y" {
		fmt.Fprintln(c.Out, "Aborted")
		return nil
	}

	if err := database.MigrateForce(migrations, version); err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "✓ Migration version forced to %d\n", version)
	return nil
}

func (c *MigrateCommand) baseline(database *DB, version uint) error {
	if err := database.BaselineAtVersion(version); err != nil {
		return fmt.Errorf("baseline failed: %w", err)
	}
	fmt.Fprintf(c.Out, "✓ Database baselined at version %d\n", version)
	return nil
}

func (c *MigrateCommand) printHelp() {
	fmt.Fprint(c.Out, `Database Migration Commands

Usage: annotate migrate <command> [options]

Commands:
  up              Apply all pending migrations
  down            Rollback one migration
  status          Show current migration status and version
  version <N>     Migrate to specific version N
  force <N>       Force migration version to N (recovery only)
  baseline <N>    Set migration version to N without running migrations
  help            Show this help message

Examples:
  annotate migrate up
  annotate migrate status
  annotate migrate version 1
  annotate migrate force 2
`)
}
