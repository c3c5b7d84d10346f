package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"

	"gocv.io/x/gocv"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

type Alignment int

const (
	Left   Alignment = 1
	Center Alignment = 2
	Right  Alignment = 3
)

// Font defines the parameters for rendering text on an image using GoCV
type Font struct {
	Face      gocv.HersheyFont
	Scale     float64
	Color     color.RGBA
	Thickness int
	LineType  gocv.LineType
	// Padding to place around text
	LeftPad   int
	RightPad  int
	TopPad    int
	BottomPad int
	// Alignment of the text label to the bounding box
	Alignment Alignment
}

// DefaultFont returns default font settings
func DefaultFont() Font {
	return Font{
		Face:      gocv.FontHersheySimplex,
		Scale:     0.5,
		Color:     White,
		Thickness: 2,
		LineType:  gocv.LineAA,
		LeftPad:   4,
		RightPad:  4,
		TopPad:    4,
		BottomPad: 10,
		Alignment: Left,
	}
}

// LoadTTF loads a TTF or OTF font file and returns a type face of the given
// point size
func LoadTTF(path string, size float64) (font.Face, error) {

	// load font data
	fontBytes, err := os.ReadFile(path)

	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}

	return parseTTF(fontBytes, size)
}

// parseTTF parses font data and creates a type face
func parseTTF(fontBytes []byte, size float64) (font.Face, error) {

	f, err := opentype.Parse(fontBytes)

	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})

	if err != nil {
		return nil, fmt.Errorf("failed to create type face: %w", err)
	}

	return face, nil
}

// textBounds returns the pixel rectangle covered by text drawn with its
// baseline starting at pt
func textBounds(face font.Face, text string, pt image.Point) image.Rectangle {

	metrics := face.Metrics()
	width := font.MeasureString(face, text).Ceil()

	return image.Rect(pt.X, pt.Y-metrics.Ascent.Ceil(),
		pt.X+width, pt.Y+metrics.Descent.Ceil())
}

// PutTTFText draws text with a TTF type face onto the image with its
// baseline starting at pt.  The text is added to the pixels beneath it so
// it is best placed over a dark background
func PutTTFText(img *gocv.Mat, face font.Face, text string, pt image.Point, clr color.RGBA) error {

	bounds := textBounds(face, text, pt).Intersect(image.Rect(0, 0, img.Cols(), img.Rows()))

	if bounds.Empty() {
		return nil
	}

	// render text onto a transparent image covering just the text region
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), image.NewUniform(color.RGBA{0, 0, 0, 0}), image.Point{}, draw.Src)

	dr := &font.Drawer{
		Dst:  rgba,
		Src:  image.NewUniform(clr),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(pt.X - bounds.Min.X),
			Y: fixed.I(pt.Y - bounds.Min.Y),
		},
	}
	dr.DrawString(text)

	// Convert image.RGBA to gocv.Mat
	textImg, err := gocv.NewMatFromBytes(rgba.Bounds().Dy(), rgba.Bounds().Dx(), gocv.MatTypeCV8UC4, rgba.Pix)

	if textImg.Empty() || err != nil {
		return fmt.Errorf("error creating Mat from RGBA")
	}

	defer textImg.Close()

	gocv.CvtColor(textImg, &textImg, gocv.ColorRGBAToBGR)

	region := img.Region(bounds)
	defer region.Close()

	gocv.AddWeighted(region, 1.0, textImg, 1.0, 0, &region)

	return nil
}
