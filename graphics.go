package main

import (
	"bytes"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/gofont/goregular"
)

// Global font source shared by the renderer and error images
var globalFontSource *text.GoTextFaceSource

// InitGraphics initializes the global font source for text rendering
func InitGraphics() error {
	s, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		return err
	}
	globalFontSource = s
	return nil
}

// newFace returns a face of the global font at size
func newFace(size float64) *text.GoTextFace {
	return &text.GoTextFace{Source: globalFontSource, Size: size}
}

// DrawText draws text with specified position and color
func DrawText(screen *ebiten.Image, textString string, font *text.GoTextFace, x, y float64, textColor color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(textColor)
	text.Draw(screen, textString, font, op)
}

// DrawFilledRect draws filled rectangles with float64 coordinates
func DrawFilledRect(screen *ebiten.Image, x, y, w, h float64, bgColor color.Color) {
	vector.DrawFilledRect(screen, float32(x), float32(y), float32(w), float32(h), bgColor, true)
}

// StrokeRect draws a rectangle outline with float64 coordinates
func StrokeRect(screen *ebiten.Image, x, y, w, h, width float64, c color.Color) {
	vector.StrokeRect(screen, float32(x), float32(y), float32(w), float32(h), float32(width), c, false)
}

// CreateErrorImage creates an error placeholder image with name and error message
func CreateErrorImage(width, height int, name, errorMsg string) *ebiten.Image {
	if width <= 0 || height <= 0 {
		width, height = 400, 300
	}

	errorImg := ebiten.NewImage(width, height)
	errorImg.Fill(color.RGBA{120, 30, 30, 255}) // Dark red background
	StrokeRect(errorImg, 1.5, 1.5, float64(width)-3, float64(height)-3, 3, colorWhite)

	// Without a font source only the frame is drawn
	if globalFontSource == nil {
		return errorImg
	}

	lines := []string{"ERROR", "File: " + name, "Reason: " + errorMsg}
	maxChars := (width - 20) / 10 // Rough estimate: 10px per character
	face := newFace(20)
	for i, line := range lines {
		if len(line) > maxChars && maxChars > 3 {
			line = line[:maxChars-3] + "..."
		}
		DrawText(errorImg, line, face, 10, float64(10+30*i), colorWhite)
	}
	return errorImg
}
