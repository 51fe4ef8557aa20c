package ui

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

var fallbackColor = color.RGBA{200, 200, 200, 255}

// ParseHexColor 解析 #RGB / #RRGGBB / #RRGGBBAA
func ParseHexColor(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(h) {
	case 3:
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]}) + "ff"
	case 6:
		h += "ff"
	case 8:
	default:
		return color.RGBA{}, fmt.Errorf("无效颜色 %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("无效颜色 %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// colorCache 服务器下发的颜色字符串只解析一次
type colorCache map[string]color.RGBA

func (c colorCache) get(s string) color.RGBA {
	if clr, ok := c[s]; ok {
		return clr
	}
	clr, err := ParseHexColor(s)
	if err != nil {
		clr = fallbackColor
	}
	c[s] = clr
	return clr
}

func withAlpha(c color.RGBA, a uint8) color.RGBA {
	// 预乘 alpha
	return color.RGBA{
		R: uint8(uint16(c.R) * uint16(a) / 255),
		G: uint8(uint16(c.G) * uint16(a) / 255),
		B: uint8(uint16(c.B) * uint16(a) / 255),
		A: a,
	}
}
