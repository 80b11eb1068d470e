// Command lightfamily-backup exports the tracker state to an encrypted file
// or restores it from one. Stop the server before restoring.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dukerupert/lightfamily/internal/backup"
	"github.com/dukerupert/lightfamily/internal/config"
	"github.com/dukerupert/lightfamily/internal/database"
	"github.com/dukerupert/lightfamily/internal/logging"
	"github.com/dukerupert/lightfamily/internal/store"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: lightfamily-backup export -out FILE | restore -in FILE")
	fmt.Fprintln(os.Stderr, "the passphrase is read from LIGHTFAMILY_BACKUP_PASSPHRASE")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)
	if cfg.BackupPassphrase == "" {
		logger.Error("LIGHTFAMILY_BACKUP_PASSPHRASE is not set")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "export":
		fs := flag.NewFlagSet("export", flag.ExitOnError)
		out := fs.String("out", "-", "file to write, - for stdout")
		fs.Parse(os.Args[2:])
		err = runExport(cfg, logger, *out)
	case "restore":
		fs := flag.NewFlagSet("restore", flag.ExitOnError)
		in := fs.String("in", "", "backup file to read")
		fs.Parse(os.Args[2:])
		if *in == "" {
			usage()
			os.Exit(2)
		}
		err = runRestore(cfg, logger, *in)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error(os.Args[1]+" failed", "error", err)
		os.Exit(1)
	}
}

func openState(cfg *config.Config, logger *slog.Logger) (*store.StateStore, func() error, error) {
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	return store.NewStateStore(store.NewKVStore(db), logger.With("component", "store")), db.Close, nil
}

func runExport(cfg *config.Config, logger *slog.Logger, out string) error {
	state, closeDB, err := openState(cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	var snap backup.Snapshot
	if out == "-" {
		snap, err = backup.Export(os.Stdout, state, cfg.BackupPassphrase, time.Now())
	} else {
		snap, err = backup.ExportFile(out, state, cfg.BackupPassphrase, time.Now())
	}
	if err != nil {
		return err
	}
	logger.Info("backup written", "out", out, "members", len(snap.Members), "reflections", len(snap.Reflections))
	return nil
}

func runRestore(cfg *config.Config, logger *slog.Logger, in string) error {
	f, err := os.Open(in)
	if err != nil {
		return fmt.Errorf("open %s: %w", in, err)
	}
	defer f.Close()

	state, closeDB, err := openState(cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	members, reflections, err := backup.Restore(context.Background(), f, state, cfg.BackupPassphrase)
	if err != nil {
		return err
	}
	logger.Info("backup restored", "in", in, "members", len(members), "reflections", len(reflections))
	return nil
}
