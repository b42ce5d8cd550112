package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/iudanet/signform/internal/client/form"
	"github.com/iudanet/signform/internal/client/signature"
	"github.com/iudanet/signform/internal/client/storage"
	"github.com/iudanet/signform/internal/models"
)

func (c *Cli) newSubmitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "submit <draft.yaml>",
		Short: "Enviar un formulario desde un borrador YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			draft, err := LoadDraft(args[0])
			if err != nil {
				return err
			}
			return c.runSubmitDraft(cmd.Context(), draft)
		},
	}
}

// runSubmitDraft прогоняет черновик через те же операции контроллера,
// что и интерактивный ввод
func (c *Cli) runSubmitDraft(ctx context.Context, d *Draft) error {
	pad := signature.NewPad(signature.DefaultWidth, signature.DefaultHeight)
	ctrl := form.NewController(c.newClient(c.serverURL), pad, c.logger)

	values := d.FieldValues()
	for _, name := range form.Fields {
		if values[name] == "" {
			continue
		}
		if err := ctrl.UpdateField(name, values[name]); err != nil {
			return err
		}
	}

	for i, item := range d.Items {
		if !ctrl.AddCollectionItem(item.Description, item.Value) {
			c.logger.Debug("draft item skipped", "index", i)
		}
	}

	if d.Attachment != "" {
		f, err := models.NewAttachedFile(d.Attachment)
		if err != nil {
			return err
		}
		if err := ctrl.AttachFile(f); err != nil {
			return err
		}
	}

	if d.Signature != "" {
		if err := pad.Import(d.Signature); err != nil {
			return err
		}
	}
	if err := d.DrawStrokes(pad); err != nil {
		return err
	}

	return c.submit(ctx, ctrl)
}

// submit отправляет форму, печатает результат и сохраняет квитанцию
func (c *Cli) submit(ctx context.Context, ctrl *form.Controller) error {
	c.io.Println("Enviando...")
	// Текст ошибки печатает cobra
	if err := ctrl.Submit(ctx); err != nil {
		return err
	}

	c.io.Println(ctrl.SuccessMessage())

	sent, recordID, ok := ctrl.LastSubmission()
	if !ok {
		return nil
	}
	c.io.Printf("Registro: %s\n", recordID)

	receipt := &storage.Receipt{
		RecordID:   recordID,
		Concept:    sent.Concept,
		FullName:   sent.FullName(),
		Value:      sent.Value,
		ItemsTotal: sent.ItemsTotal().String(),
		ItemCount:  len(sent.CollectionItems),
	}
	if fp, err := signature.Fingerprint(sent.Signature); err == nil {
		receipt.SignatureHash = fp
		c.io.Printf("Firma: %s\n", fp)
	}

	c.saveReceipt(ctx, receipt)
	return nil
}

// saveReceipt не влияет на результат отправки: запись уже создана на сервере
func (c *Cli) saveReceipt(ctx context.Context, r *storage.Receipt) {
	receipts, err := c.openReceipts(ctx, c.dbPath)
	if err != nil {
		c.logger.Warn("failed to open receipts database", slog.Any("error", err))
		c.io.Printf("Aviso: no se pudo guardar el comprobante: %v\n", err)
		return
	}
	defer func() {
		if err := receipts.Close(); err != nil {
			c.logger.Warn("failed to close receipts database", slog.Any("error", err))
		}
	}()

	if err := receipts.SaveReceipt(ctx, r); err != nil {
		c.logger.Warn("failed to save receipt", slog.Any("error", err))
		c.io.Printf("Aviso: no se pudo guardar el comprobante: %v\n", err)
	}
}
