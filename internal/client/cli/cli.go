// Package cli реализует команды терминального клиента формы.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/iudanet/signform/internal/client/api"
	"github.com/iudanet/signform/internal/client/form"
	"github.com/iudanet/signform/internal/client/iocli"
	"github.com/iudanet/signform/internal/client/storage"
	"github.com/iudanet/signform/internal/client/storage/boltdb"
	wire "github.com/iudanet/signform/pkg/api"
)

// Значения глобальных флагов по умолчанию
const (
	DefaultServer = "http://localhost:8080"
	DefaultDBPath = "signform-client.db"
)

// BuildInfo информация о сборке, задается через ldflags
type BuildInfo struct {
	Version   string
	BuildDate string
	GitCommit string
}

// ServerClient операции сервера, которые нужны командам
type ServerClient interface {
	form.Submitter
	Health(ctx context.Context) (*wire.HealthResponse, error)
}

// Cli связывает команды с вводом-выводом и внешними зависимостями
type Cli struct {
	io           iocli.IO
	logger       *slog.Logger
	newClient    func(serverURL string) ServerClient
	openReceipts func(ctx context.Context, dbPath string) (storage.ReceiptStorage, error)
	serverURL    string
	dbPath       string
}

// New создает CLI с HTTP клиентом и BoltDB для квитанций
func New(io iocli.IO, logger *slog.Logger) *Cli {
	return &Cli{
		io:     io,
		logger: logger,
		newClient: func(serverURL string) ServerClient {
			return api.NewClient(serverURL)
		},
		openReceipts: func(ctx context.Context, dbPath string) (storage.ReceiptStorage, error) {
			return boltdb.New(ctx, dbPath)
		},
	}
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func (c *Cli) NewRootCommand(info BuildInfo) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "signform",
		Short:   "Formulario de cobro con firma",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", info.Version, info.GitCommit, info.BuildDate),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.SetOut(c.io)
	rootCmd.SetErr(c.io)

	rootCmd.PersistentFlags().StringVar(&c.serverURL, "server", envOr("SIGNFORM_SERVER", DefaultServer), "server URL")
	rootCmd.PersistentFlags().StringVar(&c.dbPath, "db", envOr("SIGNFORM_CLIENT_DB", DefaultDBPath), "path to local receipts database")

	rootCmd.AddCommand(c.newFillCommand())
	rootCmd.AddCommand(c.newSubmitCommand())
	rootCmd.AddCommand(c.newHistoryCommand())
	rootCmd.AddCommand(c.newStatusCommand())

	return rootCmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
