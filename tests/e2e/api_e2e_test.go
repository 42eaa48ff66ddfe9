package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/screenvault/internal/db"
	"github.com/screenvault/internal/router"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	e2eAdminUser = "e2e-admin"
	e2eAdminPass = "e2e-secret"
	e2eSVG       = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 200 100"><rect width="200" height="100" fill="#0b3d91"/><text x="100" y="55" fill="#fff" text-anchor="middle">机房总览</text></svg>`
)

type httpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type localClient struct {
	handler http.Handler
	jar     http.CookieJar
}

func newLocalClient(handler http.Handler, withJar bool) *localClient {
	var jar http.CookieJar
	if withJar {
		if j, err := cookiejar.New(nil); err == nil {
			jar = j
		}
	}
	return &localClient{handler: handler, jar: jar}
}

func (c *localClient) Do(req *http.Request) (*http.Response, error) {
	if c.jar != nil {
		for _, cookie := range c.jar.Cookies(req.URL) {
			req.AddCookie(cookie)
		}
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	resp := w.Result()
	if c.jar != nil {
		c.jar.SetCookies(req.URL, resp.Cookies())
	}
	return resp, nil
}

type e2eSuite struct {
	public  httpClient
	admin   httpClient
	baseURL string
}

func setupSuite(t *testing.T) *e2eSuite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := gdb.AutoMigrate(&db.User{}, &db.Screen{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	db.DB = gdb
	t.Cleanup(func() {
		sqlDB, err := db.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	hashed, err := bcrypt.GenerateFromPassword([]byte(e2eAdminPass), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("failed to hash admin password: %v", err)
	}
	if err := db.DB.Create(&db.User{Username: e2eAdminUser, Password: string(hashed)}).Error; err != nil {
		t.Fatalf("failed to seed admin user: %v", err)
	}

	engine := router.SetupRouter("test-session-secret", "../../web/template/admin/*.html")

	return &e2eSuite{
		public:  newLocalClient(engine, false),
		admin:   newLocalClient(engine, true),
		baseURL: "http://example.test",
	}
}

func (s *e2eSuite) mustRequest(t *testing.T, client httpClient, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, s.baseURL+path, body)
	if err != nil {
		t.Fatalf("failed to create request %s %s: %v", method, path, err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}
	return resp
}

func (s *e2eSuite) login(t *testing.T) {
	t.Helper()
	form := url.Values{
		"username": {e2eAdminUser},
		"password": {e2eAdminPass},
	}
	resp := s.mustRequest(t, s.admin, http.MethodPost, "/admin/login",
		strings.NewReader(form.Encode()),
		map[string]string{"Content-Type": "application/x-www-form-urlencoded"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("login failed, status %d", resp.StatusCode)
	}
}

func (s *e2eSuite) uploadScreen(t *testing.T, name, changes, content string) *http.Response {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("name", name); err != nil {
		t.Fatalf("failed to write name field: %v", err)
	}
	if changes != "" {
		if err := writer.WriteField("changes", changes); err != nil {
			t.Fatalf("failed to write changes field: %v", err)
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="screen.svg"`)
	header.Set("Content-Type", "image/svg+xml")
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("failed to create file part: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write file content: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	return s.mustRequest(t, s.admin, http.MethodPost, "/admin/api/screens", body,
		map[string]string{"Content-Type": writer.FormDataContentType()})
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(data)
}

func decodeJSON(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func TestScreenUploadLifecycle(t *testing.T) {
	s := setupSuite(t)

	// 未登录访问后台 API 会被重定向到登录页
	resp := s.mustRequest(t, s.public, http.MethodGet, "/admin/api/screens", nil, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected anonymous redirect, got %d", resp.StatusCode)
	}

	s.login(t)

	// 首次上传创建第一版
	resp = s.uploadScreen(t, "机房总览", "初始版本", e2eSVG)
	var created struct {
		Screen db.Screen `json:"screen"`
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first upload failed, status %d: %s", resp.StatusCode, readBody(t, resp))
	}
	decodeJSON(t, resp, &created)
	resp.Body.Close()
	if created.Screen.Version != 1 {
		t.Fatalf("expected version 1, got %d", created.Screen.Version)
	}

	// 展示端立即能拉到当前内容
	viewPath := "/view/" + url.PathEscape("机房总览")
	resp = s.mustRequest(t, s.public, http.MethodGet, viewPath, nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("view failed, status %d", resp.StatusCode)
	}
	if contentType := resp.Header.Get("Content-Type"); !strings.HasPrefix(contentType, "image/svg+xml") {
		t.Fatalf("unexpected view content type %q", contentType)
	}
	if body := readBody(t, resp); !strings.Contains(body, "#0b3d91") {
		t.Fatalf("view body missing expected fill: %s", body)
	}
	resp.Body.Close()

	// 再次上传追加版本并刷新当前内容
	updated := strings.Replace(e2eSVG, "#0b3d91", "#7a1f1f", 1)
	resp = s.uploadScreen(t, "机房总览", "改为红色主题", updated)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("second upload failed, status %d: %s", resp.StatusCode, readBody(t, resp))
	}
	resp.Body.Close()

	resp = s.mustRequest(t, s.public, http.MethodGet, viewPath, nil, nil)
	if body := readBody(t, resp); !strings.Contains(body, "#7a1f1f") {
		t.Fatalf("view body not refreshed: %s", body)
	}
	resp.Body.Close()

	// 列表只展示当前行
	resp = s.mustRequest(t, s.admin, http.MethodGet, "/admin/api/screens", nil, nil)
	var list struct {
		Items []db.Screen `json:"items"`
		Total int64       `json:"total"`
	}
	decodeJSON(t, resp, &list)
	resp.Body.Close()
	if list.Total != 1 || len(list.Items) != 1 {
		t.Fatalf("expected a single current screen, got total %d items %d", list.Total, len(list.Items))
	}
	if list.Items[0].Version != 1 {
		t.Fatalf("expected current row to keep version 1, got %d", list.Items[0].Version)
	}

	// 版本接口返回完整历史
	resp = s.mustRequest(t, s.admin, http.MethodGet,
		"/admin/api/screens/"+idStr(list.Items[0].ID)+"/versions", nil, nil)
	var versions struct {
		Items []db.Screen `json:"items"`
	}
	decodeJSON(t, resp, &versions)
	resp.Body.Close()
	if len(versions.Items) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(versions.Items))
	}
	if versions.Items[0].Version != 1 || versions.Items[1].Version != 2 {
		t.Fatalf("unexpected version order: %d, %d", versions.Items[0].Version, versions.Items[1].Version)
	}

	// 校验失败的上传不会写入任何行
	resp = s.uploadScreen(t, "x", "", e2eSVG)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected short name rejection, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// 管理页与历史页可以正常渲染
	resp = s.mustRequest(t, s.admin, http.MethodGet, "/admin/screens", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("screens page failed, status %d", resp.StatusCode)
	}
	if body := readBody(t, resp); !strings.Contains(body, "大屏管理") {
		t.Fatalf("screens page missing heading: %s", body)
	}
	resp.Body.Close()

	historyPath := "/admin/screens/" + url.PathEscape("机房总览") + "/history"
	resp = s.mustRequest(t, s.admin, http.MethodGet, historyPath, nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("history page failed, status %d", resp.StatusCode)
	}
	if body := readBody(t, resp); !strings.Contains(body, "v2") {
		t.Fatalf("history page missing version entry: %s", body)
	}
	resp.Body.Close()

	// 仪表盘计数
	resp = s.mustRequest(t, s.admin, http.MethodGet, "/admin/dashboard", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dashboard failed, status %d", resp.StatusCode)
	}
	resp.Body.Close()

	// 健康检查与登出
	resp = s.mustRequest(t, s.public, http.MethodGet, "/health", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health check failed, status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = s.mustRequest(t, s.admin, http.MethodGet, "/admin/logout", nil, nil)
	resp.Body.Close()

	resp = s.mustRequest(t, s.admin, http.MethodGet, "/admin/api/screens", nil, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected redirect after logout, got %d", resp.StatusCode)
	}
}

func idStr(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
