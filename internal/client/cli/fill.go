package cli

import (
	"context"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iudanet/signform/internal/client/form"
	"github.com/iudanet/signform/internal/client/signature"
	"github.com/iudanet/signform/internal/models"
)

// prompt поле формы и подсказка для интерактивного ввода
type prompt struct {
	field  string
	label  string
	secret bool // номера счета и документа вводятся без эха
}

var fillPrompts = []prompt{
	{field: form.FieldConcept, label: "Concepto"},
	{field: form.FieldValue, label: "Valor"},
	{field: form.FieldFirstName, label: "Nombres"},
	{field: form.FieldLastName, label: "Apellidos"},
	{field: form.FieldIDNumber, label: "Cédula", secret: true},
	{field: form.FieldPhone, label: "Teléfono"},
	{field: form.FieldBank, label: "Banco"},
	{field: form.FieldAccountType, label: "Tipo de cuenta [savings/checking] (savings)"},
	{field: form.FieldAccountNumber, label: "Número de cuenta", secret: true},
	{field: form.FieldCity, label: "Ciudad"},
	{field: form.FieldDepartment, label: "Departamento"},
}

func (c *Cli) newFillCommand() *cobra.Command {
	var signaturePath string
	var attachPath string

	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Llenar y enviar el formulario de forma interactiva",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runFill(cmd.Context(), signaturePath, attachPath)
		},
	}

	cmd.Flags().StringVar(&signaturePath, "signature", "", "PNG or JPEG image with the signature")
	cmd.Flags().StringVar(&attachPath, "attach", "", "file to attach (kept locally, not uploaded)")

	return cmd
}

func (c *Cli) runFill(ctx context.Context, signaturePath, attachPath string) error {
	pad := signature.NewPad(signature.DefaultWidth, signature.DefaultHeight)
	ctrl := form.NewController(c.newClient(c.serverURL), pad, c.logger)

	c.io.Println("=== Formulario de cobro ===")

	for _, p := range fillPrompts {
		read := c.io.ReadInput
		if p.secret {
			read = c.io.ReadSecret
		}
		value, err := read(p.label + ": ")
		if err != nil {
			return err
		}
		// Пустой тип счета оставляет значение по умолчанию
		if p.field == form.FieldAccountType && value == "" {
			continue
		}
		if err := ctrl.UpdateField(p.field, value); err != nil {
			return err
		}
	}

	if err := c.readItems(ctrl); err != nil {
		return err
	}

	if attachPath == "" {
		p, err := c.io.ReadInput("Archivo adjunto (opcional): ")
		if err != nil {
			return err
		}
		attachPath = p
	}
	if attachPath != "" {
		f, err := models.NewAttachedFile(attachPath)
		if err != nil {
			return err
		}
		if err := ctrl.AttachFile(f); err != nil {
			return err
		}
		c.io.Printf("Adjunto: %s (%s, %d bytes)\n", f.Name, f.MimeType, f.Size)
	}

	if signaturePath == "" {
		p, err := c.io.ReadInput("Imagen de la firma: ")
		if err != nil {
			return err
		}
		signaturePath = p
	}
	if signaturePath != "" {
		if err := pad.Import(signaturePath); err != nil {
			return err
		}
	}

	return c.submit(ctx, ctrl)
}

// readItems читает позиции до пустого описания. Позиция без описания
// или с суммой не больше нуля не добавляется.
func (c *Cli) readItems(ctrl *form.Controller) error {
	c.io.Println("Ítems de cobro (descripción vacía para terminar)")
	for {
		desc, err := c.io.ReadInput("Descripción: ")
		if err != nil {
			return err
		}
		if desc == "" {
			return nil
		}

		raw, err := c.io.ReadInput("Valor: ")
		if err != nil {
			return err
		}
		value, _ := strconv.ParseFloat(strings.TrimSpace(raw), 64)

		if err := ctrl.SetItemDraft(desc, value); err != nil {
			return err
		}
		if !ctrl.AddItemDraft() {
			// Отклоненная позиция остается во вводе
			draft := ctrl.ItemDraft()
			c.io.Printf("Ítem no añadido: %q con valor %v (se requiere descripción y valor mayor que cero)\n",
				draft.Description, draft.Value)
		}

		record := ctrl.Record()
		c.io.Printf("Ítems: %d, total: %s\n", len(record.CollectionItems), record.ItemsTotal().String())
	}
}
