package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) Response {
	var resp Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	return resp
}

func serve(handler gin.HandlerFunc) *httptest.ResponseRecorder {
	router := gin.New()
	router.GET("/test", handler)

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSuccess(t *testing.T) {
	w := serve(func(c *gin.Context) {
		Success(c, gin.H{"key": "value"})
	})

	assert.Equal(t, http.StatusOK, w.Code)

	resp := parseResponse(t, w)
	assert.Equal(t, CodeSuccess, resp.Code)
	assert.Equal(t, "success", resp.Message)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "value", data["key"])
}

func TestSuccess_NilData(t *testing.T) {
	w := serve(func(c *gin.Context) {
		Success(c, nil)
	})

	resp := parseResponse(t, w)
	assert.Equal(t, CodeSuccess, resp.Code)
	assert.Nil(t, resp.Data)
}

func TestSuccessWithMessage(t *testing.T) {
	w := serve(func(c *gin.Context) {
		SuccessWithMessage(c, "操作成功", gin.H{"result": true})
	})

	resp := parseResponse(t, w)
	assert.Equal(t, CodeSuccess, resp.Code)
	assert.Equal(t, "操作成功", resp.Message)
}

func TestCreated(t *testing.T) {
	w := serve(func(c *gin.Context) {
		Created(c, "创建成功", gin.H{"id": 1})
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := parseResponse(t, w)
	assert.Equal(t, "创建成功", resp.Message)
}

func TestSuccessPage(t *testing.T) {
	w := serve(func(c *gin.Context) {
		SuccessPage(c, 100, 2, 10, []string{"a", "b"})
	})

	resp := parseResponse(t, w)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(100), data["total"])
	assert.Equal(t, float64(2), data["page"])
	assert.Equal(t, float64(10), data["page_size"])
	assert.Len(t, data["items"], 2)
}

func TestErrors_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		fn         func(c *gin.Context)
		wantStatus int
		wantCode   int
		wantMsg    string
	}{
		{"param", func(c *gin.Context) { ParamError(c, "") }, http.StatusBadRequest, CodeParamError, "参数错误"},
		{"auth", func(c *gin.Context) { AuthError(c, "token 过期") }, http.StatusUnauthorized, CodeAuthFailed, "token 过期"},
		{"permission", func(c *gin.Context) { PermissionError(c, "") }, http.StatusForbidden, CodePermissionDenied, "权限不足"},
		{"not found", func(c *gin.Context) { NotFoundError(c, "学员不存在") }, http.StatusNotFound, CodeResourceNotFound, "学员不存在"},
		{"conflict", func(c *gin.Context) { ConflictError(c, "") }, http.StatusConflict, CodeConflict, "状态冲突"},
		{"server", func(c *gin.Context) { ServerError(c, "") }, http.StatusInternalServerError, CodeServerError, "服务器内部错误"},
		{"unknown code", func(c *gin.Context) { Error(c, 4242, "x") }, http.StatusInternalServerError, 4242, "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(tt.fn)
			assert.Equal(t, tt.wantStatus, w.Code)

			resp := parseResponse(t, w)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.Equal(t, tt.wantMsg, resp.Message)
			assert.Nil(t, resp.Data)
		})
	}
}

func TestServerErrorWithDetail_HiddenOutsideDebug(t *testing.T) {
	w := serve(func(c *gin.Context) {
		ServerErrorWithDetail(c, "", errors.New("dial tcp: refused"))
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := parseResponse(t, w)
	assert.Equal(t, CodeServerError, resp.Code)
	assert.Empty(t, resp.Error)
}

func TestServerErrorWithDetail_DebugMode(t *testing.T) {
	gin.SetMode(gin.DebugMode)
	defer gin.SetMode(gin.TestMode)

	w := serve(func(c *gin.Context) {
		ServerErrorWithDetail(c, "数据库错误", errors.New("dial tcp: refused"))
	})

	resp := parseResponse(t, w)
	assert.Equal(t, "数据库错误", resp.Message)
	assert.Equal(t, "dial tcp: refused", resp.Error)
}
