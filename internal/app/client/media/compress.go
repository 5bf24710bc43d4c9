// Package media нормализует снимки перед отправкой: ограничивает ширину
// и перекодирует в JPEG с заданным качеством.
package media

import (
	"bytes"
	"encoding/hex"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/crypto/blake2b"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxWidth = 1920
	DefaultQuality  = 0.7
	// DefaultMaxPixels предел площади кадра, выше которого файл не декодируется
	DefaultMaxPixels = 50_000_000

	ContentTypeJPEG = "image/jpeg"
)

// Options параметры сжатия
type Options struct {
	MaxWidth  int
	Quality   float64
	MaxPixels int
}

// DefaultOptions параметры по умолчанию
func DefaultOptions() Options {
	return Options{MaxWidth: DefaultMaxWidth, Quality: DefaultQuality, MaxPixels: DefaultMaxPixels}
}

func (o Options) normalized() Options {
	if o.MaxWidth <= 0 {
		o.MaxWidth = DefaultMaxWidth
	}
	if o.Quality <= 0 || o.Quality > 1 {
		o.Quality = DefaultQuality
	}
	if o.MaxPixels <= 0 {
		o.MaxPixels = DefaultMaxPixels
	}
	return o
}

// Result результат обработки
type Result struct {
	Data        []byte
	ContentType string
	// Compressed false, если вернули исходные байты
	Compressed bool
}

// Compress возвращает уменьшенную копию изображения.
// Не-изображения, кадры больше MaxPixels и любые ошибки
// декодирования/кодирования возвращают исходные байты без изменений.
func Compress(raw []byte, opts Options) []byte {
	return Process(raw, opts).Data
}

// Process как Compress, но сообщает тип результата
func Process(raw []byte, opts Options) Result {
	passThrough := Result{Data: raw}
	opts = opts.normalized()

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return passThrough
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > int64(opts.MaxPixels) {
		return passThrough
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return passThrough
	}

	dst := flatten(resize(src, opts.MaxWidth))

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality(opts.Quality)}); err != nil {
		return passThrough
	}

	return Result{Data: buf.Bytes(), ContentType: ContentTypeJPEG, Compressed: true}
}

// Digest BLAKE2b-256 содержимого в hex
func Digest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func resize(src image.Image, maxWidth int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxWidth {
		return src
	}

	nh := h * maxWidth / w
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

// flatten накладывает изображение на белый фон: в JPEG нет альфа-канала
func flatten(src image.Image) image.Image {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return dst
}

func quality(q float64) int {
	v := int(q*100 + 0.5)
	if v < 1 {
		return 1
	}
	if v > 100 {
		return 100
	}
	return v
}
