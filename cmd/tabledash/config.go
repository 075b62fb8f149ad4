package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/tabledash/internal/config"
	"github.com/vango-dev/tabledash/internal/errors"
)

func configCmd() *cobra.Command {
	var (
		path     string
		initFile bool
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration serve would run with, after defaults and
environment overrides are applied.

Examples:
  tabledash config
  tabledash config --init
  tabledash config --file=deploy/tabledash.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if initFile {
				target := path
				if target == "" {
					target = config.ConfigFileName
				}
				if _, err := os.Stat(target); err == nil {
					return errors.New("T101").
						WithDetail(target + " already exists").
						WithSuggestion("Remove it or pass --file to write elsewhere")
				}
				if err := config.New().SaveTo(target); err != nil {
					return err
				}
				abs, _ := filepath.Abs(target)
				success("Wrote %s", abs)
				return nil
			}

			cfg, err := loadConfig(path)
			if err != nil {
				return err
			}
			data, err := cfg.JSON()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(append(data, '\n'))
			return err
		},
	}

	cmd.Flags().StringVarP(&path, "file", "f", "", "Config file (default ./"+config.ConfigFileName+")")
	cmd.Flags().BoolVar(&initFile, "init", false, "Write the default configuration to the file")
	return cmd
}

// loadConfig reads path, or ./tabledash.json when path is empty. A missing
// default file yields the defaults; a missing explicit file is an error.
// Environment overrides are applied and the result validated.
func loadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path == "" {
		cfg, err = config.Load(".")
		if config.IsNotFound(err) {
			cfg, err = config.New(), nil
		}
	} else {
		cfg, err = config.LoadFile(path)
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}
