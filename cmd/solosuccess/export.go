package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/prettyinpurple2021/solosuccess-ai/internal/config"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/store"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/training"
	"github.com/prettyinpurple2021/solosuccess-ai/internal/vault"
)

type exportOptions struct {
	output  string
	agentID string
}

func parseExportArgs(args []string) (exportOptions, error) {
	var opts exportOptions
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-f":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("missing value for -f")
			}
			i++
			opts.output = args[i]
		case "-agent":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("missing value for -agent")
			}
			i++
			opts.agentID = args[i]
		default:
			return opts, fmt.Errorf("unknown flag %s", args[i])
		}
	}
	if opts.output == "" {
		return opts, fmt.Errorf("missing -f flag")
	}
	return opts, nil
}

func runExport(args []string) error {
	opts, err := parseExportArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Usage: solosuccess export-training -f <output.jsonl.zst> [-agent <id>]\n")
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	var v *vault.Vault
	if cfg.Training.Passphrase != "" {
		if v, err = vault.New(cfg.Training.Passphrase); err != nil {
			return fmt.Errorf("init vault: %w", err)
		}
	}

	n, err := exportTo(db, v, opts)
	if err != nil {
		return err
	}
	slog.Info("training data exported", "records", n, "file", opts.output)
	return nil
}

func exportTo(db *store.Store, v *vault.Vault, opts exportOptions) (int, error) {
	f, err := os.Create(opts.output)
	if err != nil {
		return 0, fmt.Errorf("create output file: %w", err)
	}

	n, err := training.Export(db, v, opts.agentID, f)
	if err != nil {
		f.Close()
		os.Remove(opts.output)
		return n, fmt.Errorf("export: %w", err)
	}
	if err := f.Close(); err != nil {
		return n, fmt.Errorf("close output file: %w", err)
	}
	return n, nil
}
