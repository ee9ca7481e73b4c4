// Package errors 提供统一的错误处理框架
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
)

// Code 错误码
type Code string

const (
	// 通用错误码
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeNotFound     Code = "NOT_FOUND"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeTimeout      Code = "TIMEOUT"
	CodeCancelled    Code = "CANCELLED"
	CodeRateLimited  Code = "RATE_LIMITED"

	// 输入数据相关
	CodeInvalidSnapshot  Code = "INVALID_SNAPSHOT"
	CodeInvalidProfile   Code = "INVALID_PROFILE"
	CodeUnknownPolicyKey Code = "UNKNOWN_POLICY_KEY"
	CodeInvalidTimeRange Code = "INVALID_TIME_RANGE"
	CodeValidationFail   Code = "VALIDATION_FAILED"

	// 资源相关
	CodeProfileNotFound    Code = "PROFILE_NOT_FOUND"
	CodePlanNotFound       Code = "PLAN_NOT_FOUND"
	CodeSnapshotNotFound   Code = "SNAPSHOT_NOT_FOUND"
	CodeAssignmentNotFound Code = "ASSIGNMENT_NOT_FOUND"

	// 存储相关
	CodeDatabaseError Code = "DATABASE_ERROR"
	CodeStorageError  Code = "STORAGE_ERROR"
)

// AppError 应用错误
type AppError struct {
	Code       Code                   `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	HTTPStatus int                    `json:"-"`
	Cause      error                  `json:"-"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails 添加详细信息
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithField 添加字段
func (e *AppError) WithField(key string, value interface{}) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	e.Fields[key] = value
	return e
}

// New 创建新错误
func New(code Code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Wrap 包装错误
func Wrap(err error, code Code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func codeToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput, CodeValidationFail, CodeInvalidTimeRange,
		CodeInvalidSnapshot, CodeInvalidProfile, CodeUnknownPolicyKey:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound, CodeProfileNotFound, CodePlanNotFound,
		CodeSnapshotNotFound, CodeAssignmentNotFound:
		return http.StatusNotFound
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeCancelled:
		// nginx 约定的 499
		return 499
	default:
		return http.StatusInternalServerError
	}
}

// Is 检查错误是否为特定类型
func Is(err error, code Code) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// As 提取 AppError
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetCode 获取错误码
func GetCode(err error) Code {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return CodeUnknown
}

// InvalidInput 创建输入无效错误
func InvalidInput(field, reason string) *AppError {
	return New(CodeInvalidInput, fmt.Sprintf("字段 '%s' 无效: %s", field, reason))
}

// InvalidTimeRange 创建时间范围无效错误
func InvalidTimeRange(from, to, reason string) *AppError {
	return New(CodeInvalidTimeRange, fmt.Sprintf("时间范围 %s ~ %s 无效: %s", from, to, reason))
}

// UnknownPolicyKeys 创建未知策略键错误
func UnknownPolicyKeys(profile string, keys []string) *AppError {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	return New(CodeUnknownPolicyKey, fmt.Sprintf("配置 '%s' 包含未知策略键", profile)).
		WithField("keys", sorted)
}

// Cancelled 创建计算被取消错误
func Cancelled(cause error) *AppError {
	return Wrap(cause, CodeCancelled, "分配计算已取消, 不产生方案")
}

// ValidationErrors 验证错误集合
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// ValidationError 单个验证错误
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error 实现 error 接口
func (ve *ValidationErrors) Error() string {
	if len(ve.Errors) == 0 {
		return "验证失败"
	}
	return fmt.Sprintf("验证失败: %s - %s", ve.Errors[0].Field, ve.Errors[0].Message)
}

// Add 添加验证错误
func (ve *ValidationErrors) Add(field, message string) {
	ve.Errors = append(ve.Errors, ValidationError{Field: field, Message: message})
}

// Addf 添加格式化的验证错误
func (ve *ValidationErrors) Addf(field, format string, args ...interface{}) {
	ve.Add(field, fmt.Sprintf(format, args...))
}

// HasErrors 检查是否有错误
func (ve *ValidationErrors) HasErrors() bool {
	return len(ve.Errors) > 0
}

// ToAppErrorWithCode 以指定错误码转换为 AppError
// 同一字段出现多次时保留第一条信息
func (ve *ValidationErrors) ToAppErrorWithCode(code Code, message string) *AppError {
	err := New(code, message)
	err.Fields = make(map[string]interface{})
	for _, e := range ve.Errors {
		if _, exists := err.Fields[e.Field]; !exists {
			err.Fields[e.Field] = e.Message
		}
	}
	if len(ve.Errors) > 0 {
		err.Details = fmt.Sprintf("%s: %s", ve.Errors[0].Field, ve.Errors[0].Message)
	}
	return err
}
