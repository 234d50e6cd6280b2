package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ashwinyue/next-assist/internal/pkg/zlog"
	"github.com/ashwinyue/next-assist/internal/service/archive"
	"github.com/ashwinyue/next-assist/internal/service/assistant"
	"github.com/ashwinyue/next-assist/internal/service/feedback"
	"github.com/ashwinyue/next-assist/internal/service/tenant"
)

// SuccessResponse 成功响应
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// Success 成功响应 (200)
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: data})
}

// Created 创建成功响应 (201)
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, SuccessResponse{Success: true, Data: data})
}

// NoContent 无内容响应 (204)
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest 400 错误响应
func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Code: 400, Msg: msg})
}

// Forbidden 403 错误响应
func Forbidden(c *gin.Context, msg string) {
	c.JSON(http.StatusForbidden, ErrorResponse{Code: 403, Msg: msg})
}

// NotFound 404 错误响应
func NotFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Code: 404, Msg: msg})
}

// Conflict 409 错误响应
func Conflict(c *gin.Context, msg string) {
	c.JSON(http.StatusConflict, ErrorResponse{Code: 409, Msg: msg})
}

// InternalServerError 500 错误响应
func InternalServerError(c *gin.Context, msg string) {
	c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Msg: msg})
}

// Error 根据错误类型返回相应的错误响应
func Error(c *gin.Context, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, assistant.ErrEmptyMessage), errors.Is(err, assistant.ErrInvalidAction),
		errors.Is(err, tenant.ErrInvalidConfig):
		BadRequest(c, err.Error())
	case errors.Is(err, assistant.ErrAssistantUnavailable):
		Forbidden(c, err.Error())
	case errors.Is(err, archive.ErrEntryNotFound), errors.Is(err, tenant.ErrTenantNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, assistant.ErrNoActiveSession), errors.Is(err, feedback.ErrNoDurableSession):
		Conflict(c, err.Error())
	default:
		zlog.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		InternalServerError(c, "internal server error")
	}
}
