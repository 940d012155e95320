// Package main is the atlas-core entry point.
//
// @title           Atlas Core API
// @version         1.0
// @description     Archaeological site search and question answering.
//
// @contact.name   Atlas OSS
// @contact.url    https://github.com/custodia-labs/atlas-core/issues
//
// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html
//
// @host      localhost:8080
// @BasePath  /api/v1
// @schemes   http https
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Session credential from /session/connect. Format: "Bearer {token}"
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/atlas-core/internal/config"
)

var version = "dev"

func main() {
	var cfgPath string

	root := &cobra.Command{
		Use:           "atlas-core",
		Short:         "Archaeological site search and question answering service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (YAML); env vars use the ATLAS_ prefix")

	load := func() (*config.Config, error) {
		return config.Load(cfgPath)
	}

	root.AddCommand(
		serveCMD(load),
		migrateCMD(load),
		classifyCMD(),
		parseCMD(),
		hashCodeCMD(),
		versionCMD(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func versionCMD() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

// newLogger builds the process logger from the log section
func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(handler).With("service", "atlas-core", "version", version)
}
