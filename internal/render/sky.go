package render

import (
	"image/color"

	"github.com/jusunglee/mta-ridership/internal/encode"
	"github.com/jusunglee/mta-ridership/internal/models"
)

var (
	skyPink     = models.MustParseHex("#C63CBC")
	skyOrange   = models.MustParseHex("#FF4500")
	skyDarkBlue = models.MustParseHex("#141233")
	skyBlack    = models.RGB{}
)

// horizonHeight is how far the dawn and dusk glow reaches up from the bottom edge
const horizonHeight = 100

// SkyPaint returns the background for an hour of the day. Dawn (06-07)
// and dusk (18-19) glow from the bottom edge; daytime is dark blue and
// night is black.
func SkyPaint(hour int, extent models.CanvasExtent) Paint {
	switch {
	case hour > 5 && hour <= 7:
		ratio := float64(hour-5) / 2
		return horizon(extent,
			encode.LerpRGB(skyPink, skyOrange, ratio),
			encode.LerpRGB(skyBlack, skyDarkBlue, ratio))
	case hour > 7 && hour < 18:
		return solid(skyDarkBlue)
	case hour >= 18 && hour < 20:
		ratio := float64(hour-18) / 2
		return horizon(extent,
			encode.LerpRGB(skyOrange, skyPink, ratio),
			encode.LerpRGB(skyDarkBlue, skyBlack, ratio))
	}
	return solid(skyBlack)
}

func horizon(extent models.CanvasExtent, low, high models.RGB) Paint {
	return VerticalGradient{
		Y0: extent.Height,
		Y1: extent.Height - horizonHeight,
		Stops: []ColorStop{
			{Offset: 0, Color: NRGBA(low, 1)},
			{Offset: 1, Color: NRGBA(high, 1)},
		},
	}
}

func solid(c models.RGB) Solid {
	return Solid{Color: color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}}
}
