package cli

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/iudanet/signform/internal/client/form"
	"github.com/iudanet/signform/internal/client/signature"
	"github.com/iudanet/signform/internal/models"
)

// Draft заполненная форма в YAML файле для неинтерактивной отправки
type Draft struct {
	Concept       string                  `yaml:"concept"`
	Value         string                  `yaml:"value"`
	Phone         string                  `yaml:"phone"`
	IDNumber      string                  `yaml:"idNumber"`
	AccountNumber string                  `yaml:"accountNumber"`
	Bank          string                  `yaml:"bank"`
	AccountType   string                  `yaml:"accountType"`
	City          string                  `yaml:"city"`
	Department    string                  `yaml:"department"`
	FirstName     string                  `yaml:"firstName"`
	LastName      string                  `yaml:"lastName"`
	Signature     string                  `yaml:"signature"`  // путь к изображению подписи
	Attachment    string                  `yaml:"attachment"` // путь к прикладываемому файлу
	Items         []models.CollectionItem `yaml:"items"`
	// Strokes штрихи подписи: каждая ломаная задается списком точек [x, y]
	Strokes [][][]int `yaml:"strokes"`
}

// LoadDraft читает черновик. Относительные пути подписи и вложения
// разрешаются относительно каталога черновика.
func LoadDraft(path string) (*Draft, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read draft: %w", err)
	}

	var d Draft
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse draft %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	d.Signature = resolvePath(dir, d.Signature)
	d.Attachment = resolvePath(dir, d.Attachment)

	return &d, nil
}

func resolvePath(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// FieldValues значения полей по именам, принимаемым form.Controller.UpdateField
func (d *Draft) FieldValues() map[string]string {
	return map[string]string{
		form.FieldConcept:       d.Concept,
		form.FieldValue:         d.Value,
		form.FieldPhone:         d.Phone,
		form.FieldIDNumber:      d.IDNumber,
		form.FieldAccountNumber: d.AccountNumber,
		form.FieldBank:          d.Bank,
		form.FieldAccountType:   d.AccountType,
		form.FieldCity:          d.City,
		form.FieldDepartment:    d.Department,
		form.FieldFirstName:     d.FirstName,
		form.FieldLastName:      d.LastName,
	}
}

// DrawStrokes воспроизводит штрихи черновика на холсте.
// Точки вне холста считаются ошибкой черновика.
func (d *Draft) DrawStrokes(pad *signature.Pad) error {
	bounds := pad.Bounds()

	for i, stroke := range d.Strokes {
		points := make([]image.Point, 0, len(stroke))
		for j, xy := range stroke {
			if len(xy) != 2 {
				return fmt.Errorf("stroke %d point %d: expected [x, y], got %v", i+1, j+1, xy)
			}
			pt := image.Pt(xy[0], xy[1])
			if !pt.In(bounds) {
				return fmt.Errorf("stroke %d point %d: %v is outside the %dx%d canvas",
					i+1, j+1, pt, bounds.Dx(), bounds.Dy())
			}
			points = append(points, pt)
		}
		if len(points) == 0 {
			continue
		}

		pad.BeginStroke(points[0].X, points[0].Y)
		for _, pt := range points[1:] {
			pad.LineTo(pt.X, pt.Y)
		}
		pad.EndStroke()
	}
	return nil
}
