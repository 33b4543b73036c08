package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"
)

// ErrorCode 错误码类型
type ErrorCode int

// 错误码定义（按模块分组）
const (
	// 通用错误 (1000-1999)
	ErrUnknown          ErrorCode = 1000
	ErrInvalidParam     ErrorCode = 1001
	ErrNotFound         ErrorCode = 1002
	ErrAlreadyExists    ErrorCode = 1003
	ErrPermissionDenied ErrorCode = 1004
	ErrTimeout          ErrorCode = 1005
	ErrCanceled         ErrorCode = 1006
	ErrNotImplemented   ErrorCode = 1007

	// 引擎错误 (2000-2999)
	ErrIllegalPhase        ErrorCode = 2000
	ErrInvalidTarget       ErrorCode = 2001
	ErrMissingRole         ErrorCode = 2002
	ErrActorDisabled       ErrorCode = 2003
	ErrInvariantViolation  ErrorCode = 2004
	ErrInteractionPending  ErrorCode = 2005
	ErrNoInteraction       ErrorCode = 2006
	ErrInteractionMismatch ErrorCode = 2007
	ErrHistoryEmpty        ErrorCode = 2008
	ErrNominationRejected  ErrorCode = 2009
	ErrScriptNotFound      ErrorCode = 2010
	ErrSeatNotFound        ErrorCode = 2011
	ErrGameOver            ErrorCode = 2012

	// 会话错误 (3000-3999)
	ErrSessionNotFound ErrorCode = 3000
	ErrSessionLimit    ErrorCode = 3001
	ErrSessionExpired  ErrorCode = 3002

	// 通信错误 (4000-4999)
	ErrWebSocketConnect ErrorCode = 4000
	ErrWebSocketSend    ErrorCode = 4001
	ErrWebSocketClosed  ErrorCode = 4003
	ErrMessageFormat    ErrorCode = 4007

	// 数据库错误 (5000-5999)
	ErrDatabaseConnect ErrorCode = 5000
	ErrDatabaseQuery   ErrorCode = 5001
	ErrDatabaseInsert  ErrorCode = 5002
	ErrDatabaseUpdate  ErrorCode = 5003
	ErrDatabaseDelete  ErrorCode = 5004
	ErrTransaction     ErrorCode = 5005
	ErrDataIntegrity   ErrorCode = 5006

	// 配置错误 (6000-6999)
	ErrConfigLoad     ErrorCode = 6000
	ErrConfigParse    ErrorCode = 6001
	ErrConfigValidate ErrorCode = 6002
	ErrConfigMissing  ErrorCode = 6003

	// 安全错误 (7000-7999)
	ErrAuthentication    ErrorCode = 7000
	ErrAuthorization     ErrorCode = 7001
	ErrTokenExpired      ErrorCode = 7002
	ErrTokenInvalid      ErrorCode = 7003
	ErrRateLimitExceeded ErrorCode = 7004
	ErrEncryption        ErrorCode = 7005
)

// 错误码消息映射
var errorMessages = map[ErrorCode]string{
	// 通用错误
	ErrUnknown:          "未知错误",
	ErrInvalidParam:     "无效的参数",
	ErrNotFound:         "资源未找到",
	ErrAlreadyExists:    "资源已存在",
	ErrPermissionDenied: "权限不足",
	ErrTimeout:          "操作超时",
	ErrCanceled:         "操作已取消",
	ErrNotImplemented:   "功能未实现",

	// 引擎错误
	ErrIllegalPhase:        "当前阶段不允许该操作",
	ErrInvalidTarget:       "无效的目标选择",
	ErrMissingRole:         "角色未定义",
	ErrActorDisabled:       "行动者能力失效",
	ErrInvariantViolation:  "状态不变量被破坏",
	ErrInteractionPending:  "存在待处理的交互",
	ErrNoInteraction:       "没有待处理的交互",
	ErrInteractionMismatch: "交互类型不匹配",
	ErrHistoryEmpty:        "没有可回退的历史",
	ErrNominationRejected:  "提名被拒绝",
	ErrScriptNotFound:      "剧本不存在",
	ErrSeatNotFound:        "座位不存在",
	ErrGameOver:            "游戏已结束",

	// 会话错误
	ErrSessionNotFound: "会话不存在",
	ErrSessionLimit:    "会话数量超限",
	ErrSessionExpired:  "会话已过期",

	// 通信错误
	ErrWebSocketConnect: "WebSocket连接失败",
	ErrWebSocketSend:    "WebSocket发送失败",
	ErrWebSocketClosed:  "WebSocket连接已关闭",
	ErrMessageFormat:    "消息格式错误",

	// 数据库错误
	ErrDatabaseConnect: "数据库连接失败",
	ErrDatabaseQuery:   "数据库查询失败",
	ErrDatabaseInsert:  "数据库插入失败",
	ErrDatabaseUpdate:  "数据库更新失败",
	ErrDatabaseDelete:  "数据库删除失败",
	ErrTransaction:     "事务处理失败",
	ErrDataIntegrity:   "数据完整性错误",

	// 配置错误
	ErrConfigLoad:     "配置加载失败",
	ErrConfigParse:    "配置解析失败",
	ErrConfigValidate: "配置验证失败",
	ErrConfigMissing:  "配置项缺失",

	// 安全错误
	ErrAuthentication:    "认证失败",
	ErrAuthorization:     "授权失败",
	ErrTokenExpired:      "令牌已过期",
	ErrTokenInvalid:      "无效的令牌",
	ErrRateLimitExceeded: "请求频率超限",
	ErrEncryption:        "加密失败",
}

// AppError 应用错误结构
type AppError struct {
	Code    ErrorCode    `json:"code"`            // 错误码
	Message string       `json:"message"`         // 错误消息
	Details string       `json:"details"`         // 详细信息
	Cause   error        `json:"-"`               // 原始错误
	Stack   []StackFrame `json:"stack,omitempty"` // 调用栈
}

// StackFrame 调用栈帧
type StackFrame struct {
	Function string `json:"function"`
	File     string `json:"file"`
	Line     int    `json:"line"`
}

// Error 实现error接口
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%d] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 返回原始错误
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails 添加详细信息
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithCause 添加原因错误
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	if cause != nil && e.Details == "" {
		e.Details = cause.Error()
	}
	return e
}

// New 创建新的应用错误
func New(code ErrorCode, details ...string) *AppError {
	message, ok := errorMessages[code]
	if !ok {
		message = errorMessages[ErrUnknown]
	}

	err := &AppError{
		Code:    code,
		Message: message,
	}

	if len(details) > 0 {
		err.Details = strings.Join(details, "; ")
	}

	// 捕获调用栈
	err.captureStack(2)

	return err
}

// Newf 创建格式化的应用错误
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	details := fmt.Sprintf(format, args...)
	return New(code, details)
}

// Wrap 包装错误
func Wrap(err error, code ErrorCode, details ...string) *AppError {
	if err == nil {
		return nil
	}

	// 如果已经是AppError，保留原始错误码
	if appErr, ok := err.(*AppError); ok {
		if len(details) > 0 {
			appErr.Details = strings.Join(details, "; ") + "; " + appErr.Details
		}
		return appErr
	}

	appErr := New(code, details...)
	appErr.Cause = err
	if appErr.Details == "" {
		appErr.Details = err.Error()
	}

	return appErr
}

// Wrapf 包装格式化错误
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	details := fmt.Sprintf(format, args...)
	return Wrap(err, code, details)
}

// Is 判断错误是否为指定错误码
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}

	var appErr *AppError
	return stderrors.As(err, &appErr) && appErr.Code == code
}

// GetCode 获取错误码
func GetCode(err error) ErrorCode {
	if err == nil {
		return 0
	}

	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}

	return ErrUnknown
}

// maxStackFrames 保留的最大栈帧数
const maxStackFrames = 10

const pkgPath = "github.com/wfunc/grimoire/internal/errors"

// captureStack 捕获调用栈，跳过运行时与本包的帧
func (e *AppError) captureStack(skip int) {
	var pcs [32]uintptr
	n := runtime.Callers(skip+1, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	for len(e.Stack) < maxStackFrames {
		frame, more := frames.Next()
		if frame.Function != "" &&
			!strings.HasPrefix(frame.Function, "runtime.") &&
			!strings.HasPrefix(frame.Function, pkgPath+".") {
			e.Stack = append(e.Stack, StackFrame{
				Function: frame.Function,
				File:     frame.File,
				Line:     frame.Line,
			})
		}
		if !more {
			break
		}
	}
}

// GetStack 获取格式化的调用栈
func (e *AppError) GetStack() string {
	var b strings.Builder
	for i, f := range e.Stack {
		fmt.Fprintf(&b, "%d. %s\n   %s:%d\n", i+1, f.Function, f.File, f.Line)
	}
	return b.String()
}

// HTTPStatus 返回对应的HTTP状态码
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case ErrNotFound, ErrSessionNotFound, ErrScriptNotFound:
		return http.StatusNotFound
	case ErrInvalidParam, ErrAlreadyExists:
		return http.StatusBadRequest
	case ErrPermissionDenied:
		return http.StatusForbidden
	case ErrTimeout:
		return http.StatusRequestTimeout
	case ErrInvalidTarget, ErrSeatNotFound, ErrInteractionMismatch:
		return http.StatusUnprocessableEntity
	case ErrAuthentication, ErrAuthorization, ErrTokenExpired, ErrTokenInvalid:
		return http.StatusUnauthorized
	case ErrRateLimitExceeded:
		return http.StatusTooManyRequests
	}

	switch {
	case e.Code >= 2000 && e.Code < 4000:
		// 引擎与会话状态冲突
		return http.StatusConflict
	case e.Code >= 5000 && e.Code < 6000:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

var (
	retryableCodes = map[ErrorCode]bool{
		ErrTimeout:            true,
		ErrWebSocketConnect:   true,
		ErrDatabaseConnect:    true,
		ErrInvariantViolation: true,
	}
	criticalCodes = map[ErrorCode]bool{
		ErrDatabaseConnect: true,
		ErrConfigLoad:      true,
		ErrConfigMissing:   true,
		ErrDataIntegrity:   true,
	}
)

// IsRetryable 判断错误是否可重试
func IsRetryable(err error) bool {
	return err != nil && retryableCodes[GetCode(err)]
}

// IsCritical 判断是否为严重错误
func IsCritical(err error) bool {
	return err != nil && criticalCodes[GetCode(err)]
}

// ErrorResponse API错误响应结构
type ErrorResponse struct {
	Success   bool      `json:"success"`
	Error     *AppError `json:"error,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(err *AppError, requestID string) *ErrorResponse {
	return &ErrorResponse{
		Success:   false,
		Error:     err,
		RequestID: requestID,
		Timestamp: time.Now().Unix(),
	}
}
