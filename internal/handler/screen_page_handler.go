package handler

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/screenvault/internal/db"
	"github.com/screenvault/internal/service"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	changelogEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	changelogSanitizer = bluemonday.UGCPolicy()
)

// screenVersionView 供历史页模板使用的版本视图。
type screenVersionView struct {
	Screen    db.Screen
	Changelog template.HTML
}

// ShowScreenManagement 渲染大屏管理页与上传对话框。
func (a *API) ShowScreenManagement(c *gin.Context) {
	page := parsePositiveInt(c.DefaultQuery("page", "1"), 1)
	result, err := a.screens.List(service.ScreenFilter{
		Search: c.Query("search"),
		Page:   page,
	})
	if err != nil {
		c.Error(err)
		c.HTML(http.StatusInternalServerError, "screens.html", gin.H{
			"title": "大屏管理",
			"error": "加载大屏列表失败",
		})
		return
	}

	c.HTML(http.StatusOK, "screens.html", gin.H{
		"title":      "大屏管理",
		"items":      result.Items,
		"total":      result.Total,
		"page":       result.Page,
		"totalPages": result.TotalPages,
	})
}

// ShowScreenHistory 渲染指定名称的版本历史页，changes 按 Markdown 渲染。
func (a *API) ShowScreenHistory(c *gin.Context) {
	name := c.Param("name")

	items, err := a.screens.History(name)
	if err != nil {
		if errors.Is(err, service.ErrScreenNotFound) {
			c.HTML(http.StatusNotFound, "screen_history.html", gin.H{
				"title": "版本历史",
				"error": "大屏不存在",
			})
			return
		}
		c.Error(err)
		c.HTML(http.StatusInternalServerError, "screen_history.html", gin.H{
			"title": "版本历史",
			"error": "加载版本历史失败",
		})
		return
	}

	views := make([]screenVersionView, 0, len(items))
	for _, item := range items {
		views = append(views, screenVersionView{
			Screen:    item,
			Changelog: renderChangelog(item.Changes),
		})
	}

	c.HTML(http.StatusOK, "screen_history.html", gin.H{
		"title":    "版本历史",
		"name":     name,
		"versions": views,
	})
}

// renderChangelog 将版本说明渲染为经过清洗的 HTML。
func renderChangelog(changes string) template.HTML {
	if strings.TrimSpace(changes) == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := changelogEngine.Convert([]byte(changes), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(changes))
	}

	return template.HTML(changelogSanitizer.SanitizeBytes(buf.Bytes()))
}
