package service

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var svgElements = []string{
	"svg", "g", "defs", "symbol", "use", "title", "desc", "style",
	"path", "rect", "circle", "ellipse", "line", "polyline", "polygon",
	"text", "tspan", "textPath", "image",
	"linearGradient", "radialGradient", "stop",
	"clipPath", "mask", "pattern", "marker",
}

var svgAttrs = []string{
	"id", "class", "style", "transform", "opacity",
	"fill", "fill-rule", "fill-opacity",
	"stroke", "stroke-width", "stroke-linecap", "stroke-linejoin",
	"stroke-dasharray", "stroke-opacity",
	"d", "x", "y", "x1", "y1", "x2", "y2", "cx", "cy", "r", "rx", "ry",
	"dx", "dy", "points", "width", "height", "viewBox", "preserveAspectRatio",
	"xmlns", "xmlns:xlink", "href", "xlink:href",
	"offset", "stop-color", "stop-opacity", "gradientUnits", "gradientTransform",
	"clip-path", "mask", "patternUnits",
	"font-family", "font-size", "font-weight", "text-anchor", "dominant-baseline",
}

// svgPolicy 只放行绘图相关的元素与属性，script、foreignObject
// 以及 on* 事件属性在清洗时全部丢弃。
var (
	svgPolicy  = newSVGPolicy()
	svgCaseFix = newSVGCaseFix()
)

func newSVGPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(svgElements...)
	p.AllowNoAttrs().OnElements(svgElements...)
	p.AllowAttrs(svgAttrs...).Globally()
	return p
}

// newSVGCaseFix 构建小写名到驼峰名的回写表。HTML 词法器会把元素与属性名
// 统一压成小写，而 XML 解析大小写敏感，viewBox、linearGradient 这类名字
// 必须原样送回展示端。清洗后的文本里 < 与 " 在正文和属性值中都已转义，
// 因此只会命中真正的标签名与属性名。
func newSVGCaseFix() *strings.Replacer {
	var pairs []string
	for _, el := range svgElements {
		lower := strings.ToLower(el)
		if lower == el {
			continue
		}
		pairs = append(pairs,
			"<"+lower+">", "<"+el+">",
			"<"+lower+" ", "<"+el+" ",
			"<"+lower+"/>", "<"+el+"/>",
			"</"+lower+">", "</"+el+">",
		)
	}
	for _, attr := range svgAttrs {
		lower := strings.ToLower(attr)
		if lower == attr {
			continue
		}
		pairs = append(pairs, " "+lower+`="`, " "+attr+`="`)
	}
	return strings.NewReplacer(pairs...)
}

// SanitizeSVG 过滤上传 SVG 中的脚本与事件属性，保留绘图结构，
// 并恢复被词法器压成小写的驼峰名。
func SanitizeSVG(content string) string {
	return svgCaseFix.Replace(svgPolicy.Sanitize(content))
}

// LooksLikeSVG 粗略判断文本是否为 SVG 文档。
func LooksLikeSVG(content string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(content))
	if !strings.Contains(trimmed, "<svg") {
		return false
	}
	return strings.HasPrefix(trimmed, "<svg") ||
		strings.HasPrefix(trimmed, "<?xml") ||
		strings.HasPrefix(trimmed, "<!doctype svg") ||
		strings.HasPrefix(trimmed, "<!--")
}
