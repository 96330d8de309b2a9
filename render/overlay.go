package render

import (
	"image"
	"image/color"
	"image/draw"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Corner anchors a panel.
type Corner int

const (
	TopLeft Corner = iota
	TopRight
	BottomLeft
	BottomRight
)

// Panel is a block of text drawn over the frame. Highlight is the index of
// a line drawn in the accent color, or -1.
type Panel struct {
	Corner    Corner
	Lines     []string
	Highlight int
	MaxChars  int // wrap width, 0 for a third of the frame
}

// Overlay is the text drawn over a frame.
type Overlay struct {
	Panels []Panel
}

const (
	lineHeight = 15
	charWidth  = 7
	padding    = 8
	margin     = 10
)

var (
	panelBackground = color.NRGBA{A: 0xb0}
	textColor       = color.NRGBA{R: 0xf0, G: 0xf0, B: 0xf0, A: 0xff}
	accentColor     = color.NRGBA{R: 0xff, G: 0xc8, B: 0x3c, A: 0xff}
)

func (o *Overlay) draw(dst *image.RGBA) {
	for _, p := range o.Panels {
		p.draw(dst)
	}
}

func (p Panel) draw(dst *image.RGBA) {
	b := dst.Bounds()
	maxChars := p.MaxChars
	if maxChars <= 0 {
		maxChars = (b.Dx()/3 - 2*padding) / charWidth
	}
	if maxChars < 8 {
		maxChars = 8
	}

	var lines []string
	var accent []bool
	for i, l := range p.Lines {
		for _, w := range wrap(l, maxChars) {
			lines = append(lines, w)
			accent = append(accent, i == p.Highlight)
		}
	}
	if len(lines) == 0 {
		return
	}

	width := 0
	for _, l := range lines {
		if len(l) > width {
			width = len(l)
		}
	}
	w := width*charWidth + 2*padding
	h := len(lines)*lineHeight + 2*padding

	var origin image.Point
	switch p.Corner {
	case TopLeft:
		origin = image.Pt(b.Min.X+margin, b.Min.Y+margin)
	case TopRight:
		origin = image.Pt(b.Max.X-margin-w, b.Min.Y+margin)
	case BottomLeft:
		origin = image.Pt(b.Min.X+margin, b.Max.Y-margin-h)
	case BottomRight:
		origin = image.Pt(b.Max.X-margin-w, b.Max.Y-margin-h)
	}
	rect := image.Rectangle{Min: origin, Max: origin.Add(image.Pt(w, h))}.Intersect(b)
	draw.Draw(dst, rect, image.NewUniform(panelBackground), image.Point{}, draw.Over)

	d := font.Drawer{Dst: dst, Face: basicfont.Face7x13}
	for i, l := range lines {
		d.Src = image.NewUniform(textColor)
		if accent[i] {
			d.Src = image.NewUniform(accentColor)
		}
		d.Dot = fixed.P(origin.X+padding, origin.Y+padding+(i+1)*lineHeight-3)
		d.DrawString(l)
	}
}

// wrap breaks s on spaces into lines of at most n characters; longer words
// are cut.
func wrap(s string, n int) []string {
	var out []string
	var cur strings.Builder
	for _, word := range strings.Fields(s) {
		for len(word) > n {
			if cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
			}
			out = append(out, word[:n])
			word = word[n:]
		}
		if cur.Len() > 0 && cur.Len()+1+len(word) > n {
			out = append(out, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(word)
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}
