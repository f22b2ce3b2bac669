package style

import (
	"math"

	"weft/css"
)

// Viewport is the cascade stage's only environmental parameter, used to
// resolve viewport-relative units.
type Viewport struct {
	Width  float64
	Height float64
}

// DefaultFontSize is the root font size in pixels ("medium").
const DefaultFontSize = 16.0

// absoluteFontSizes maps the CSS absolute-size keywords to pixels.
var absoluteFontSizes = map[string]float64{
	"xx-small": 9,
	"x-small":  10,
	"small":    13,
	"medium":   DefaultFontSize,
	"large":    18,
	"x-large":  24,
	"xx-large": 32,
}

// ResolveLength converts a numeric value to pixels. fontSize supplies the
// em reference; percentages and unknown units pass through numerically, as
// their reference depends on the property and is the layout engine's call.
func ResolveLength(v css.Value, fontSize float64, vp Viewport) float64 {
	switch v.Unit {
	case "", "px":
		return v.Value
	case "em":
		return v.Value * fontSize
	case "rem":
		return v.Value * DefaultFontSize
	case "pt":
		return v.Value * 96 / 72
	case "pc":
		return v.Value * 16
	case "in":
		return v.Value * 96
	case "cm":
		return v.Value * 96 / 2.54
	case "mm":
		return v.Value * 96 / 25.4
	case "vw":
		return v.Value / 100 * vp.Width
	case "vh":
		return v.Value / 100 * vp.Height
	case "vmin":
		return v.Value / 100 * math.Min(vp.Width, vp.Height)
	case "vmax":
		return v.Value / 100 * math.Max(vp.Width, vp.Height)
	default:
		return v.Value
	}
}

// FontSize resolves the node's font-size to pixels, following the parent
// chain for relative units.
func (sn *StyledNode) FontSize(vp Viewport) float64 {
	parentSize := DefaultFontSize
	if sn.Parent != nil {
		parentSize = sn.Parent.FontSize(vp)
	}
	v, ok := sn.Values["font-size"]
	if !ok {
		return parentSize
	}
	switch {
	case v.IsKeyword():
		if px, ok := absoluteFontSizes[v.Keyword]; ok {
			return px
		}
		return parentSize
	case v.Unit == "%":
		return v.Value / 100 * parentSize
	case v.Unit == "em":
		return v.Value * parentSize
	default:
		return ResolveLength(v, parentSize, vp)
	}
}

// Length resolves a property's value to pixels, using the node's own font
// size as the em reference.
func (sn *StyledNode) Length(name string, vp Viewport) (float64, bool) {
	v, ok := sn.Values[name]
	if !ok || !v.IsNumeric() {
		return 0, false
	}
	return ResolveLength(v, sn.FontSize(vp), vp), true
}
