package common

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vioaki/prompt-manager/internal/apperr"
)

type Response struct {
	Status string      `json:"status"`
	Msg    string      `json:"msg"`
	Data   interface{} `json:"data,omitempty"`
}

func Respond(c *gin.Context, httpStatus int, status string, message string, data interface{}) {
	c.JSON(httpStatus, Response{
		Status: status,
		Msg:    message,
		Data:   data,
	})
}

// RespondSuccess sends a success response with data.
func RespondSuccess(c *gin.Context, data interface{}) {
	Respond(c, http.StatusOK, "success", "", data)
}

// RespondSuccessMessage sends a success response with message and data.
func RespondSuccessMessage(c *gin.Context, message string, data interface{}) {
	Respond(c, http.StatusOK, "success", message, data)
}

// RespondError sends an error response with message.
func RespondError(c *gin.Context, httpStatus int, message string) {
	Respond(c, httpStatus, "error", message, nil)
}

// RespondAppError 按错误分类映射 HTTP 状态码
func RespondAppError(c *gin.Context, err error) {
	switch {
	case apperr.IsValidation(err):
		RespondError(c, http.StatusBadRequest, err.Error())
	case apperr.IsDecode(err):
		RespondError(c, http.StatusUnsupportedMediaType, err.Error())
	case apperr.IsNotFound(err):
		RespondError(c, http.StatusNotFound, err.Error())
	case apperr.IsStorage(err):
		RespondError(c, http.StatusInternalServerError, "storage backend failure")
	default:
		RespondError(c, http.StatusInternalServerError, "internal server error")
	}
}
