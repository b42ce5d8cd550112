// Package signature реализует поверхность для подписи: штрихи пером
// или импорт отсканированной подписи, экспорт в PNG data URL.
package signature

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"golang.org/x/image/vector"
)

//go:generate moq -out surface_mock.go . Surface

// Размер холста по умолчанию
const (
	DefaultWidth  = 500
	DefaultHeight = 200
)

// DataURLPrefix префикс PNG в data URL
const DataURLPrefix = "data:image/png;base64,"

// penWidth толщина линии пера в пикселях
const penWidth = 2.5

var (
	// ErrEmpty возвращается при экспорте пустой подписи
	ErrEmpty = errors.New("signature is empty")
	// ErrInvalidDataURL строка не является PNG data URL
	ErrInvalidDataURL = errors.New("invalid PNG data URL")
)

// Surface поверхность подписи, с которой работает контроллер формы
type Surface interface {
	IsEmpty() bool
	ToDataURL() (string, error)
	Clear()
}

// Pad холст подписи в памяти с белым фоном.
// Штрихи хранятся как ломаные и растеризуются при экспорте.
type Pad struct {
	imported *image.NRGBA
	strokes  [][]image.Point
	width    int
	height   int
	drawing  bool
	mu       sync.Mutex
}

// NewPad создает пустой холст. Неположительные размеры заменяются значениями по умолчанию.
func NewPad(width, height int) *Pad {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return &Pad{
		width:  width,
		height: height,
	}
}

// Bounds returns the canvas rectangle; points outside it are clipped on export.
func (p *Pad) Bounds() image.Rectangle {
	return image.Rect(0, 0, p.width, p.height)
}

// BeginStroke начинает новый штрих в точке (x, y)
func (p *Pad) BeginStroke(x, y int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.strokes = append(p.strokes, []image.Point{{X: x, Y: y}})
	p.drawing = true
}

// LineTo продолжает текущий штрих; без активного штриха начинает новый
func (p *Pad) LineTo(x, y int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pt := image.Point{X: x, Y: y}
	if !p.drawing {
		p.strokes = append(p.strokes, []image.Point{pt})
		p.drawing = true
		return
	}
	last := len(p.strokes) - 1
	p.strokes[last] = append(p.strokes[last], pt)
}

// EndStroke завершает текущий штрих
func (p *Pad) EndStroke() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.drawing = false
}

// Import загружает изображение подписи с диска, уменьшает его под холст,
// переводит в оттенки серого и размещает по центру.
// Импортированное изображение считается штрихом.
func (p *Pad) Import(path string) error {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("failed to open signature image: %w", err)
	}

	fitted := imaging.Fit(img, p.width, p.height, imaging.Lanczos)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.imported = imaging.Grayscale(fitted)
	return nil
}

// IsEmpty reports whether nothing has been drawn or imported since the last Clear.
func (p *Pad) IsEmpty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.imported == nil && len(p.strokes) == 0
}

// Clear стирает холст
func (p *Pad) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.imported = nil
	p.strokes = nil
	p.drawing = false
}

// ToDataURL кодирует холст в PNG data URL. Пустой холст дает ErrEmpty.
func (p *Pad) ToDataURL() (string, error) {
	p.mu.Lock()
	if p.imported == nil && len(p.strokes) == 0 {
		p.mu.Unlock()
		return "", ErrEmpty
	}
	img := p.render()
	p.mu.Unlock()

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", fmt.Errorf("failed to encode signature: %w", err)
	}
	return DataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// render вызывается под p.mu
func (p *Pad) render() *image.NRGBA {
	canvas := imaging.New(p.width, p.height, color.White)
	if p.imported != nil {
		canvas = imaging.OverlayCenter(canvas, p.imported, 1.0)
	}
	if len(p.strokes) == 0 {
		return canvas
	}

	z := vector.NewRasterizer(p.width, p.height)
	for _, stroke := range p.strokes {
		addStroke(z, stroke)
	}
	z.Draw(canvas, canvas.Bounds(), image.NewUniform(color.Black), image.Point{})
	return canvas
}

// addStroke добавляет в растеризатор ломаную толщиной penWidth:
// прямоугольник на каждый отрезок и квадрат на каждую вершину.
func addStroke(z *vector.Rasterizer, stroke []image.Point) {
	const half = penWidth / 2

	center := func(pt image.Point) (float32, float32) {
		return float32(pt.X) + 0.5, float32(pt.Y) + 0.5
	}

	for i, pt := range stroke {
		x, y := center(pt)
		addPolygon(z, [][2]float32{
			{x - half, y - half}, {x + half, y - half},
			{x + half, y + half}, {x - half, y + half},
		})
		if i == 0 {
			continue
		}

		px, py := center(stroke[i-1])
		dx, dy := x-px, y-py
		length := float32(math.Hypot(float64(dx), float64(dy)))
		if length == 0 {
			continue
		}
		nx, ny := -dy/length*half, dx/length*half
		addPolygon(z, [][2]float32{
			{px + nx, py + ny}, {x + nx, y + ny},
			{x - nx, y - ny}, {px - nx, py - ny},
		})
	}
}

// addPolygon добавляет замкнутый контур с единой ориентацией обхода.
// Растеризатор суммирует покрытие со знаком, и контуры с разным обходом
// в местах пересечения взаимно гасятся.
func addPolygon(z *vector.Rasterizer, pts [][2]float32) {
	var area float32
	for i := range pts {
		j := (i + 1) % len(pts)
		area += pts[i][0]*pts[j][1] - pts[j][0]*pts[i][1]
	}
	if area > 0 {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}

	z.MoveTo(pts[0][0], pts[0][1])
	for _, pt := range pts[1:] {
		z.LineTo(pt[0], pt[1])
	}
	z.ClosePath()
}

// ParseDataURL проверяет и декодирует PNG data URL
func ParseDataURL(s string) (image.Image, error) {
	payload, ok := strings.CutPrefix(s, DataURLPrefix)
	if !ok {
		return nil, ErrInvalidDataURL
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDataURL, err)
	}

	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDataURL, err)
	}
	return img, nil
}
