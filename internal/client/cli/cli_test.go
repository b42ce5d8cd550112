package cli

import (
	"bytes"
	"encoding/json"
	"image/color"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/signform/internal/client/form"
	"github.com/iudanet/signform/internal/client/iocli"
	"github.com/iudanet/signform/internal/client/signature"
	"github.com/iudanet/signform/pkg/api"
)

// formServer принимает отправки и отвечает заданным статусом и телом
type formServer struct {
	*httptest.Server
	body     string
	paths    []string
	requests []map[string]any
	status   int
	mu       sync.Mutex
}

func newFormServer(t *testing.T, status int, body string) *formServer {
	t.Helper()
	fs := &formServer{status: status, body: body}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)

		fs.mu.Lock()
		fs.requests = append(fs.requests, payload)
		fs.paths = append(fs.paths, r.URL.Path)
		fs.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(fs.status)
		_, _ = w.Write([]byte(fs.body))
	}))
	t.Cleanup(fs.Close)
	return fs
}

func (fs *formServer) calls() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return len(fs.requests)
}

const successBody = `{"success":true,"message":"Datos guardados correctamente","recordId":"recABC123"}`

// runCLI выполняет команду и возвращает вывод
func runCLI(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := New(iocli.New(strings.NewReader(input), &out), slog.New(slog.NewTextHandler(io.Discard, nil)))
	root := app.NewRootCommand(BuildInfo{Version: "1.2.3", BuildDate: "today", GitCommit: "abc"})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeSignature(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "firma.png")
	require.NoError(t, imaging.Save(imaging.New(120, 40, color.Black), path))
	return path
}

func writeDraft(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "draft.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

const fullDraft = `
concept: Cobro de servicios
value: "1500.50"
phone: "3001234567"
idNumber: "1020304050"
accountNumber: "00012345"
bank: Bancolombia
accountType: checking
city: Medellín
department: Antioquia
firstName: Ana
lastName: Gómez
signature: firma.png
items:
  - description: Transporte
    value: 10
  - description: ""
    value: 5
  - description: Viáticos
    value: 20.5
`

func TestSubmitCommand_Success(t *testing.T) {
	dir := t.TempDir()
	writeSignature(t, dir)
	draft := writeDraft(t, dir, fullDraft)
	db := filepath.Join(dir, "client.db")
	srv := newFormServer(t, http.StatusOK, successBody)

	out, err := runCLI(t, "", "submit", draft, "--server", srv.URL, "--db", db)
	require.NoError(t, err)

	assert.Contains(t, out, form.MsgSubmitted)
	assert.Contains(t, out, "recABC123")

	require.Equal(t, 1, srv.calls())
	assert.Equal(t, api.SubmitPath, srv.paths[0])
	req := srv.requests[0]

	fp, err := signature.Fingerprint(req["signature"].(string))
	require.NoError(t, err)
	assert.Contains(t, out, "Firma: "+fp)
	assert.Equal(t, "Cobro de servicios", req["concept"])
	assert.Equal(t, 1500.5, req["value"])
	assert.Equal(t, "checking", req["accountType"])
	// Позиция без описания отброшена, список передан строкой
	assert.Equal(t, `[{"description":"Transporte","value":10},{"description":"Viáticos","value":20.5}]`, req["collectionItems"])
	assert.True(t, strings.HasPrefix(req["signature"].(string), "data:image/png;base64,"))

	// Квитанция сохранена локально
	out, err = runCLI(t, "", "history", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "recABC123")
	assert.Contains(t, out, "Cobro de servicios")
	assert.Contains(t, out, "Ana Gómez")
	assert.Contains(t, out, "30.5")
	assert.Contains(t, out, fp)
}

func TestSubmitCommand_Strokes(t *testing.T) {
	dir := t.TempDir()
	draft := writeDraft(t, dir, strings.Replace(fullDraft, "signature: firma.png\n",
		"strokes:\n  - [[10, 100], [120, 60], [240, 140]]\n  - [[300, 100]]\n", 1))
	srv := newFormServer(t, http.StatusOK, successBody)

	out, err := runCLI(t, "", "submit", draft, "--server", srv.URL, "--db", filepath.Join(dir, "c.db"))
	require.NoError(t, err)
	assert.Contains(t, out, form.MsgSubmitted)

	require.Equal(t, 1, srv.calls())
	img, err := signature.ParseDataURL(srv.requests[0]["signature"].(string))
	require.NoError(t, err)
	r, g, b, _ := img.At(10, 100).RGBA()
	assert.True(t, r < 0x8000 && g < 0x8000 && b < 0x8000, "stroke start should be inked")
}

func TestSubmitCommand_StrokeOutsideCanvas(t *testing.T) {
	dir := t.TempDir()
	draft := writeDraft(t, dir, strings.Replace(fullDraft, "signature: firma.png\n",
		"strokes:\n  - [[10, 10], [900, 10]]\n", 1))
	srv := newFormServer(t, http.StatusOK, successBody)

	_, err := runCLI(t, "", "submit", draft, "--server", srv.URL, "--db", filepath.Join(dir, "c.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside the 500x200 canvas")
	assert.Zero(t, srv.calls())

	bad := writeDraft(t, dir, "strokes:\n  - [[10]]\n")
	d, err := LoadDraft(bad)
	require.NoError(t, err)
	assert.Error(t, d.DrawStrokes(signature.NewPad(0, 0)))
}

func TestHistoryCommand_Verify(t *testing.T) {
	dir := t.TempDir()
	sig := writeSignature(t, dir)
	draft := writeDraft(t, dir, fullDraft)
	db := filepath.Join(dir, "client.db")
	srv := newFormServer(t, http.StatusOK, successBody)

	_, err := runCLI(t, "", "submit", draft, "--server", srv.URL, "--db", db)
	require.NoError(t, err)

	out, err := runCLI(t, "", "history", "--db", db, "--verify", sig)
	require.NoError(t, err)
	assert.Contains(t, out, "La firma coincide con el registro recABC123")

	other := filepath.Join(dir, "otra.png")
	require.NoError(t, imaging.Save(imaging.New(40, 120, color.Black), other))
	out, err = runCLI(t, "", "history", "--db", db, "--verify", other)
	require.NoError(t, err)
	assert.Contains(t, out, "La firma no coincide con ningún comprobante")

	_, err = runCLI(t, "", "history", "--db", db, "--verify", filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}

func TestStatusCommand(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "client.db")
	srv := newFormServer(t, http.StatusOK, `{"status":"ok","version":"2.0.0","store":"sqlite"}`)

	out, err := runCLI(t, "", "status", "--server", srv.URL, "--db", db)
	require.NoError(t, err)

	assert.Contains(t, out, "Estado: ok")
	assert.Contains(t, out, "Versión: 2.0.0")
	assert.Contains(t, out, "Almacenamiento: sqlite")
	assert.Contains(t, out, "Comprobantes locales: 0")
	assert.Equal(t, api.HealthPath, srv.paths[0])
}

func TestStatusCommand_ServerDown(t *testing.T) {
	srv := newFormServer(t, http.StatusOK, "{}")
	url := srv.URL
	srv.Close()

	out, err := runCLI(t, "", "status", "--server", url, "--db", filepath.Join(t.TempDir(), "c.db"))
	require.Error(t, err)
	assert.Contains(t, out, "Estado: no disponible")
}

func TestSubmitCommand_MissingSignature(t *testing.T) {
	dir := t.TempDir()
	draft := writeDraft(t, dir, strings.Replace(fullDraft, "signature: firma.png\n", "", 1))
	srv := newFormServer(t, http.StatusOK, successBody)

	out, err := runCLI(t, "", "submit", draft, "--server", srv.URL, "--db", filepath.Join(dir, "c.db"))

	var local *form.LocalValidationError
	require.ErrorAs(t, err, &local)
	assert.Contains(t, out, form.MsgSignatureRequired)
	assert.Zero(t, srv.calls(), "no request without signature")
}

func TestSubmitCommand_MissingFields(t *testing.T) {
	dir := t.TempDir()
	writeSignature(t, dir)
	draft := writeDraft(t, dir, "concept: Cobro\nsignature: firma.png\n")
	srv := newFormServer(t, http.StatusOK, successBody)

	out, err := runCLI(t, "", "submit", draft, "--server", srv.URL, "--db", filepath.Join(dir, "c.db"))

	require.Error(t, err)
	assert.Contains(t, out, form.MsgRequiredFields)
	assert.Contains(t, out, "firstName")
	assert.Zero(t, srv.calls())
}

func TestSubmitCommand_ServerError(t *testing.T) {
	dir := t.TempDir()
	writeSignature(t, dir)
	draft := writeDraft(t, dir, fullDraft)
	db := filepath.Join(dir, "client.db")
	srv := newFormServer(t, http.StatusInternalServerError,
		`{"success":false,"error":"Error al guardar en Airtable","details":"INVALID_PERMISSIONS"}`)

	out, err := runCLI(t, "", "submit", draft, "--server", srv.URL, "--db", db)

	var submitErr *form.SubmitError
	require.ErrorAs(t, err, &submitErr)
	assert.Contains(t, out, "Error al guardar en Airtable: INVALID_PERMISSIONS")
	assert.Equal(t, 1, srv.calls())

	// Квитанция не сохраняется
	out, err = runCLI(t, "", "history", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Sin envíos registrados")
}

func TestSubmitCommand_DraftErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := runCLI(t, "", "submit", filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := writeDraft(t, dir, "concept: [unclosed\n")
	_, err = runCLI(t, "", "submit", bad)
	assert.Error(t, err)

	_, err = runCLI(t, "", "submit")
	assert.Error(t, err, "draft argument is required")
}

func TestFillCommand(t *testing.T) {
	dir := t.TempDir()
	sig := writeSignature(t, dir)
	attachment := filepath.Join(dir, "factura.pdf")
	require.NoError(t, os.WriteFile(attachment, []byte("%PDF-1.4 test"), 0600))
	db := filepath.Join(dir, "client.db")
	srv := newFormServer(t, http.StatusOK, successBody)

	input := strings.Join([]string{
		"Cobro",      // Concepto
		"250",        // Valor
		"Ana",        // Nombres
		"Gómez",      // Apellidos
		"1020304050", // Cédula
		"3001234567", // Teléfono
		"Davivienda", // Banco
		"",           // Tipo de cuenta, por defecto savings
		"00012345",   // Número de cuenta
		"Cali",       // Ciudad
		"Valle",      // Departamento
		"Transporte", "10",
		"Sin valor", "0",
		"", // fin de ítems
		attachment,
	}, "\n") + "\n"

	out, err := runCLI(t, input, "fill", "--signature", sig, "--server", srv.URL, "--db", db)
	require.NoError(t, err)

	assert.Contains(t, out, "Concepto: ")
	assert.Contains(t, out, "factura.pdf (application/pdf, 13 bytes)")
	assert.Contains(t, out, `Ítem no añadido: "Sin valor" con valor 0`)
	assert.Contains(t, out, form.MsgSubmitted)

	require.Equal(t, 1, srv.calls())
	req := srv.requests[0]
	assert.Equal(t, "savings", req["accountType"])
	assert.Equal(t, "00012345", req["accountNumber"])
	assert.Equal(t, `[{"description":"Transporte","value":10}]`, req["collectionItems"])
	assert.NotContains(t, req, "attachedFile")
}

func TestFillCommand_InputEnds(t *testing.T) {
	srv := newFormServer(t, http.StatusOK, successBody)

	_, err := runCLI(t, "Cobro\n", "fill", "--server", srv.URL)

	assert.ErrorIs(t, err, io.EOF)
	assert.Zero(t, srv.calls())
}

func TestHistoryCommand_Empty(t *testing.T) {
	out, err := runCLI(t, "", "history", "--db", filepath.Join(t.TempDir(), "c.db"))
	require.NoError(t, err)
	assert.Contains(t, out, "Sin envíos registrados")
}

func TestRootCommand_Version(t *testing.T) {
	out, err := runCLI(t, "", "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "1.2.3 (commit: abc, built: today)")
}

func TestLoadDraft(t *testing.T) {
	dir := t.TempDir()
	path := writeDraft(t, dir, fullDraft+"attachment: /abs/file.pdf\n")

	d, err := LoadDraft(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "firma.png"), d.Signature)
	assert.Equal(t, "/abs/file.pdf", d.Attachment)
	assert.Equal(t, "1500.50", d.Value)
	require.Len(t, d.Items, 3)
	assert.Equal(t, 20.5, d.Items[2].Value)

	values := d.FieldValues()
	assert.Len(t, values, len(form.Fields))
	assert.Equal(t, "Ana", values[form.FieldFirstName])
}
