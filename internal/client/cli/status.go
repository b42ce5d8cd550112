package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func (c *Cli) newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Comprobar el servidor y los comprobantes locales",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runStatus(cmd.Context())
		},
	}
}

func (c *Cli) runStatus(ctx context.Context) error {
	c.io.Println("=== Estado ===")
	c.io.Printf("Servidor: %s\n", c.serverURL)

	health, err := c.newClient(c.serverURL).Health(ctx)
	if err != nil {
		c.io.Println("Estado: no disponible")
		return fmt.Errorf("server health check failed: %w", err)
	}

	c.io.Printf("Estado: %s\n", health.Status)
	if health.Version != "" {
		c.io.Printf("Versión: %s\n", health.Version)
	}
	if health.Store != "" {
		c.io.Printf("Almacenamiento: %s\n", health.Store)
	}

	// Ошибка локальной базы не прерывает команду
	receipts, err := c.openReceipts(ctx, c.dbPath)
	if err != nil {
		c.io.Printf("Aviso: no se pudo abrir %s: %v\n", c.dbPath, err)
		return nil
	}
	defer func() {
		_ = receipts.Close()
	}()

	list, err := receipts.ListReceipts(ctx, 0)
	if err != nil {
		c.io.Printf("Aviso: no se pudieron leer los comprobantes: %v\n", err)
		return nil
	}
	c.io.Printf("Comprobantes locales: %d\n", len(list))

	return nil
}
