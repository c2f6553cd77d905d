// backupctl exports, inspects and imports backup files against the local
// database, without going through the HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	"debtbook/internal/backup"
	"debtbook/internal/config"
	"debtbook/internal/database"
	"debtbook/internal/logger"
	"debtbook/internal/services"
	"debtbook/internal/store"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow, color.Bold)
	red    = color.New(color.FgRed)
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		red.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() error {
	return fmt.Errorf(`usage: backupctl <command> [flags]

commands:
  export  [-o FILE]                          write a backup of the local database
  inspect FILE                               validate a backup and print its stats
  import  FILE [-policy replace|merge] [-keep-duplicates]
                                             load a backup into the local database`)
}

func run() error {
	if len(os.Args) < 2 {
		return usage()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	switch os.Args[1] {
	case "export":
		return runExport(cfg, os.Args[2:])
	case "inspect":
		return runInspect(os.Args[2:])
	case "import":
		return runImport(cfg, os.Args[2:])
	default:
		return usage()
	}
}

func newBackupService(cfg *config.Config) (services.BackupServicer, error) {
	manager, err := database.NewManager(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := manager.RunMigrations(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	match := backup.MatchPolicy{
		AmountTolerance: cfg.MatchAmountTolerance,
		DateWindow:      cfg.MatchDateWindow,
	}
	return services.NewBackupService(store.NewGorm(manager.DB()), match), nil
}

func runExport(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	out := fs.String("o", "", "output file (defaults to the timestamped backup name)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	svc, err := newBackupService(cfg)
	if err != nil {
		return err
	}

	artifact, err := svc.ExportBackup(context.Background())
	if err != nil {
		return err
	}

	filename := artifact.Filename
	if *out != "" {
		filename = *out
	}
	if err := os.WriteFile(filename, []byte(artifact.Content), 0o644); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	green.Printf("Backup written to %s\n", filename)
	return nil
}

func runInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: backupctl inspect FILE")
	}

	content, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("failed to read backup: %w", err)
	}

	snapshot, err := backup.Parse(string(content))
	if err != nil {
		return fmt.Errorf("failed to parse backup: %w", err)
	}

	validation := backup.Validate(snapshot)
	stats := backup.ComputeStats(snapshot)

	fmt.Printf("Version:           %s\n", snapshot.Version)
	fmt.Printf("Exported:          %s\n", snapshot.ExportDate.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("Accounts:          %d\n", stats.TotalAccounts)
	fmt.Printf("Transactions:      %d\n", stats.TotalTransactions)
	fmt.Printf("Custom currencies: %d\n", stats.TotalCustomCurrencies)
	if stats.DateRange != nil {
		fmt.Printf("Date range:        %s to %s\n",
			stats.DateRange.From.Format("2006-01-02"), stats.DateRange.To.Format("2006-01-02"))
	}

	for _, w := range validation.Warnings {
		yellow.Printf("warning: %s\n", w)
	}
	for _, e := range validation.Errors {
		red.Printf("error: %s\n", e)
	}
	if !validation.IsValid {
		return fmt.Errorf("backup failed validation with %d error(s)", len(validation.Errors))
	}
	green.Println("Backup is valid")
	return nil
}

func runImport(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	policy := fs.String("policy", string(backup.PolicyMerge), "import policy: replace or merge")
	keepDuplicates := fs.Bool("keep-duplicates", false, "rename duplicate accounts instead of skipping them")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: backupctl import FILE [-policy replace|merge] [-keep-duplicates]")
	}

	content, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("failed to read backup: %w", err)
	}

	svc, err := newBackupService(cfg)
	if err != nil {
		return err
	}

	result, validation, err := svc.ImportBackup(context.Background(), string(content), backup.Options{
		Policy:         backup.Policy(*policy),
		SkipDuplicates: !*keepDuplicates,
	})
	for _, w := range validation.Warnings {
		yellow.Printf("warning: %s\n", w)
	}
	if err != nil {
		for _, e := range validation.Errors {
			red.Printf("error: %s\n", e)
		}
		if result != nil && (result.AccountsAdded > 0 || result.TransactionsAdded > 0) {
			yellow.Printf("Partial import: %d account(s) and %d transaction(s) were applied before the failure\n",
				result.AccountsAdded, result.TransactionsAdded)
		}
		return err
	}

	green.Printf("Imported %d account(s) and %d transaction(s)\n",
		result.AccountsAdded, result.TransactionsAdded)
	if result.AccountsSkipped > 0 || result.TransactionsSkipped > 0 {
		yellow.Printf("Skipped %d duplicate account(s) and %d duplicate transaction(s)\n",
			result.AccountsSkipped, result.TransactionsSkipped)
	}
	if result.TransactionsDropped > 0 {
		yellow.Printf("Dropped %d transaction(s) with unresolvable account references\n",
			result.TransactionsDropped)
	}
	return nil
}
