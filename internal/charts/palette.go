package charts

import (
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/wonny/dqbreaks/internal/contracts"
)

// palette is the fixed status color map (hex, no #)
var palette = map[contracts.Status]string{
	contracts.StatusPassing:   "4caf50",
	contracts.StatusBreaking:  "f44336",
	contracts.StatusException: "ff9800",
	contracts.StatusUnknown:   "9e9e9e",
}

// Color returns the CSS color of s
func Color(s contracts.Status) string {
	hex, ok := palette[s]
	if !ok {
		hex = palette[contracts.StatusUnknown]
	}
	return "#" + hex
}

func drawingColor(s contracts.Status) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(Color(s), "#"))
}
