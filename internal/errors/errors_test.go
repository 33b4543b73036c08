package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// AppErrorSuite 应用错误测试套件
type AppErrorSuite struct {
	suite.Suite
}

func TestAppErrorSuite(t *testing.T) {
	suite.Run(t, new(AppErrorSuite))
}

// TestMessages 每个错误码都有消息
func (s *AppErrorSuite) TestMessages() {
	for code, msg := range errorMessages {
		s.NotEmpty(msg, "code %d", code)
		s.Equal(msg, New(code).Message)
	}

	s.Equal("当前阶段不允许该操作", New(ErrIllegalPhase).Message)
	s.Equal("会话不存在", New(ErrSessionNotFound).Message)
	s.Equal("未知错误", New(ErrorCode(4242)).Message)
}

// TestFormat 错误文本格式
func (s *AppErrorSuite) TestFormat() {
	s.Equal("[2011] 座位不存在", New(ErrSeatNotFound).Error())
	s.Equal("[2011] 座位不存在: seat 16", Newf(ErrSeatNotFound, "seat %d", 16).Error())
	s.Equal("[2001] 无效的目标选择: 已死亡; 自身", New(ErrInvalidTarget, "已死亡", "自身").Error())
	s.Equal("[2005] 存在待处理的交互: 投毒者", New(ErrInteractionPending).WithDetails("投毒者").Error())
}

// TestWrapEngineError 引擎错误经过多层包装后仍可识别
func (s *AppErrorSuite) TestWrapEngineError() {
	engineErr := New(ErrHistoryEmpty)
	wrapped := fmt.Errorf("session abc: %w", engineErr)

	s.True(Is(wrapped, ErrHistoryEmpty))
	s.False(Is(wrapped, ErrIllegalPhase))
	s.Equal(ErrHistoryEmpty, GetCode(wrapped))

	var target *AppError
	s.Require().True(stderrors.As(wrapped, &target))
	s.Same(engineErr, target)
}

// TestWrapKeepsCode 包装AppError时保留原错误码
func (s *AppErrorSuite) TestWrapKeepsCode() {
	inner := New(ErrNominationRejected, "座位3今天已提名")
	outer := Wrap(inner, ErrUnknown, "nominate")

	s.Same(inner, outer)
	s.Equal(ErrNominationRejected, outer.Code)
	s.Equal("nominate; 座位3今天已提名", outer.Details)
}

// TestWrapForeignError 包装普通错误
func (s *AppErrorSuite) TestWrapForeignError() {
	cause := stderrors.New("database is locked")

	err := Wrap(cause, ErrDatabaseInsert)
	s.Equal(ErrDatabaseInsert, err.Code)
	s.Equal("database is locked", err.Details)
	s.True(stderrors.Is(err, cause))

	err = Wrapf(cause, ErrDatabaseQuery, "record %s", "r-1")
	s.Equal("record r-1", err.Details)
	s.Equal(cause, err.Unwrap())

	s.Nil(Wrap(nil, ErrDatabaseQuery))
}

// TestWithCause 原因只在无详情时填充详情
func (s *AppErrorSuite) TestWithCause() {
	cause := stderrors.New("token signature invalid")

	s.Equal(cause.Error(), New(ErrTokenInvalid).WithCause(cause).Details)
	s.Equal("expired", New(ErrTokenInvalid, "expired").WithCause(cause).Details)
	s.Empty(New(ErrTokenInvalid).WithCause(nil).Details)
}

// TestNilHandling nil错误
func (s *AppErrorSuite) TestNilHandling() {
	s.False(Is(nil, ErrUnknown))
	s.Equal(ErrorCode(0), GetCode(nil))
	s.Equal(ErrUnknown, GetCode(stderrors.New("plain")))
	s.False(IsRetryable(nil))
	s.False(IsCritical(nil))
}

// TestStack 捕获调用栈
func (s *AppErrorSuite) TestStack() {
	err := New(ErrGameOver)
	s.Require().NotEmpty(err.Stack)
	s.LessOrEqual(len(err.Stack), 10)
	s.NotEmpty(err.GetStack())

	s.Empty((&AppError{Code: ErrGameOver}).GetStack())
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		code ErrorCode
		want int
	}{
		{"资源不存在", ErrNotFound, http.StatusNotFound},
		{"会话不存在", ErrSessionNotFound, http.StatusNotFound},
		{"剧本不存在", ErrScriptNotFound, http.StatusNotFound},
		{"参数错误", ErrInvalidParam, http.StatusBadRequest},
		{"资源已存在", ErrAlreadyExists, http.StatusBadRequest},
		{"权限不足", ErrPermissionDenied, http.StatusForbidden},
		{"超时", ErrTimeout, http.StatusRequestTimeout},
		{"目标非法", ErrInvalidTarget, http.StatusUnprocessableEntity},
		{"座位不存在", ErrSeatNotFound, http.StatusUnprocessableEntity},
		{"交互不匹配", ErrInteractionMismatch, http.StatusUnprocessableEntity},
		{"阶段非法", ErrIllegalPhase, http.StatusConflict},
		{"无历史", ErrHistoryEmpty, http.StatusConflict},
		{"会话超限", ErrSessionLimit, http.StatusConflict},
		{"令牌过期", ErrTokenExpired, http.StatusUnauthorized},
		{"认证失败", ErrAuthentication, http.StatusUnauthorized},
		{"频率超限", ErrRateLimitExceeded, http.StatusTooManyRequests},
		{"数据库", ErrDatabaseQuery, http.StatusServiceUnavailable},
		{"配置", ErrConfigLoad, http.StatusInternalServerError},
		{"未知", ErrUnknown, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.code).HTTPStatus())
		})
	}
}

func TestClassification(t *testing.T) {
	retryable := []ErrorCode{ErrTimeout, ErrWebSocketConnect, ErrDatabaseConnect, ErrInvariantViolation}
	for _, code := range retryable {
		assert.True(t, IsRetryable(fmt.Errorf("op: %w", New(code))), "code %d", code)
	}
	assert.False(t, IsRetryable(New(ErrIllegalPhase)))

	critical := []ErrorCode{ErrDatabaseConnect, ErrConfigLoad, ErrConfigMissing, ErrDataIntegrity}
	for _, code := range critical {
		assert.True(t, IsCritical(New(code)), "code %d", code)
	}
	assert.False(t, IsCritical(New(ErrSessionExpired)))
}

func TestErrorResponseJSON(t *testing.T) {
	resp := NewErrorResponse(New(ErrSessionNotFound, "s-1"), "req-7")
	assert.False(t, resp.Success)
	assert.Positive(t, resp.Timestamp)

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "req-7", decoded["request_id"])

	body, ok := decoded["error"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(ErrSessionNotFound), body["code"])
	assert.Equal(t, "s-1", body["details"])
	assert.NotContains(t, body, "Cause")
}
