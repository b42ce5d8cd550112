package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/iudanet/signform/internal/client/signature"
	"github.com/iudanet/signform/internal/client/storage"
)

func (c *Cli) newHistoryCommand() *cobra.Command {
	var limit int
	var verifyPath string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Mostrar los envíos registrados en este equipo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runHistory(cmd.Context(), limit, verifyPath)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of receipts, 0 for all")
	cmd.Flags().StringVar(&verifyPath, "verify", "", "signature image to look up among the listed receipts")

	return cmd
}

func (c *Cli) runHistory(ctx context.Context, limit int, verifyPath string) error {
	receipts, err := c.openReceipts(ctx, c.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open receipts database: %w", err)
	}
	defer func() {
		_ = receipts.Close()
	}()

	list, err := receipts.ListReceipts(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list receipts: %w", err)
	}

	if len(list) == 0 {
		c.io.Println("Sin envíos registrados")
		return nil
	}

	w := tabwriter.NewWriter(c.io, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "FECHA\tREGISTRO\tCONCEPTO\tNOMBRE\tVALOR\tÍTEMS\tTOTAL ÍTEMS\tFIRMA")
	for _, r := range list {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t%d\t%s\t%s\n",
			r.SubmittedAt.Local().Format("2006-01-02 15:04"),
			r.RecordID,
			r.Concept,
			r.FullName,
			r.Value,
			r.ItemCount,
			r.ItemsTotal,
			r.SignatureHash,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if verifyPath == "" {
		return nil
	}
	return c.verifySignature(verifyPath, list)
}

// verifySignature импортирует изображение так же, как при отправке,
// и ищет квитанции с совпадающим отпечатком
func (c *Cli) verifySignature(path string, list []*storage.Receipt) error {
	pad := signature.NewPad(signature.DefaultWidth, signature.DefaultHeight)
	if err := pad.Import(path); err != nil {
		return err
	}
	dataURL, err := pad.ToDataURL()
	if err != nil {
		return err
	}

	found := 0
	for _, r := range list {
		if r.SignatureHash == "" {
			continue
		}
		ok, err := signature.MatchFingerprint(dataURL, r.SignatureHash)
		if err != nil {
			return err
		}
		if ok {
			c.io.Printf("La firma coincide con el registro %s\n", r.RecordID)
			found++
		}
	}
	if found == 0 {
		c.io.Println("La firma no coincide con ningún comprobante")
	}
	return nil
}
