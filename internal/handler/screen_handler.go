package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/screenvault/internal/service"
)

// UploadScreen 处理大屏 SVG 上传：首次出现的名称创建第一版，
// 已存在的名称追加版本快照并刷新当前内容。
func (a *API) UploadScreen(c *gin.Context) {
	name := c.PostForm("name")
	changes := c.PostForm("changes")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "未找到上传的 SVG 文件")
		return
	}

	if fileHeader.Size > service.MaxScreenFileBytes {
		respondError(c, http.StatusBadRequest, "SVG 文件超过 10MB 上限")
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/svg") {
		respondError(c, http.StatusBadRequest, "只允许上传 SVG 文件")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "读取上传文件失败")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, service.MaxScreenFileBytes+1))
	if err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "读取上传文件失败")
		return
	}

	screen, err := a.screens.Upload(service.ScreenUploadInput{
		Name:    name,
		Content: string(content),
		Changes: changes,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrScreenNameTooShort):
			respondError(c, http.StatusBadRequest, "名称至少需要 2 个字符")
		case errors.Is(err, service.ErrScreenFileMissing):
			respondError(c, http.StatusBadRequest, "SVG 内容不能为空")
		case errors.Is(err, service.ErrScreenFileTooLarge):
			respondError(c, http.StatusBadRequest, "SVG 文件超过 10MB 上限")
		case errors.Is(err, service.ErrScreenFileNotSVG):
			respondError(c, http.StatusBadRequest, "文件内容不是有效的 SVG")
		default:
			c.Error(err)
			respondError(c, http.StatusInternalServerError, "保存大屏失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "大屏已保存", "screen": screen})
}

// ListScreens 返回当前大屏列表（每个名称一行），支持搜索与分页。
func (a *API) ListScreens(c *gin.Context) {
	filter := service.ScreenFilter{
		Search:  c.Query("search"),
		Page:    parsePositiveInt(c.DefaultQuery("page", "1"), 1),
		PerPage: parsePositiveInt(c.DefaultQuery("per_page", "12"), 12),
	}

	result, err := a.screens.List(filter)
	if err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "获取大屏列表失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":      result.Items,
		"total":      result.Total,
		"page":       result.Page,
		"totalPages": result.TotalPages,
	})
}

// GetScreen 返回单行大屏记录。
func (a *API) GetScreen(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的大屏ID")
		return
	}

	screen, err := a.screens.Get(id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrScreenNotFound):
			respondError(c, http.StatusNotFound, "大屏不存在")
		default:
			c.Error(err)
			respondError(c, http.StatusInternalServerError, "获取大屏失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"screen": screen})
}

// GetScreenVersions 返回指定行所属名称的全部版本，按版本号升序。
func (a *API) GetScreenVersions(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的大屏ID")
		return
	}

	items, err := a.screens.HistoryByID(id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrScreenNotFound):
			respondError(c, http.StatusNotFound, "大屏不存在")
		default:
			c.Error(err)
			respondError(c, http.StatusInternalServerError, "获取版本历史失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// ViewScreen 向展示端输出指定名称的当前 SVG 内容。
func (a *API) ViewScreen(c *gin.Context) {
	screen, err := a.screens.Current(c.Param("name"))
	if err != nil {
		if errors.Is(err, service.ErrScreenNotFound) {
			c.String(http.StatusNotFound, "screen not found")
			return
		}
		c.Error(err)
		c.String(http.StatusInternalServerError, "")
		return
	}

	c.Data(http.StatusOK, "image/svg+xml; charset=utf-8", []byte(screen.HTMLFile))
}
