package errors

import (
	"context"
	"fmt"
	"net/http"
	"testing"
)

func TestCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeInvalidSnapshot, http.StatusBadRequest},
		{CodeUnknownPolicyKey, http.StatusBadRequest},
		{CodeInvalidTimeRange, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodePlanNotFound, http.StatusNotFound},
		{CodeAssignmentNotFound, http.StatusNotFound},
		{CodeRateLimited, http.StatusTooManyRequests},
		{CodeTimeout, http.StatusGatewayTimeout},
		{CodeCancelled, 499},
		{CodeStorageError, http.StatusInternalServerError},
		{Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := New(tt.code, "x").HTTPStatus; got != tt.want {
				t.Errorf("HTTPStatus = %d, 期望 %d", got, tt.want)
			}
		})
	}
}

func TestWrapAndAs(t *testing.T) {
	err := fmt.Errorf("外层: %w", Cancelled(context.Canceled))

	appErr, ok := As(err)
	if !ok {
		t.Fatal("应能提取 AppError")
	}
	if appErr.Code != CodeCancelled {
		t.Errorf("Code = %s", appErr.Code)
	}
	if !Is(err, CodeCancelled) || Is(err, CodeTimeout) {
		t.Error("Is 判断错误")
	}
	if GetCode(fmt.Errorf("普通错误")) != CodeUnknown {
		t.Error("普通错误应返回 UNKNOWN")
	}
	if appErr.Unwrap() != context.Canceled {
		t.Error("Unwrap 应返回原始错误")
	}
}

func TestUnknownPolicyKeys(t *testing.T) {
	keys := []string{"zeta", "alpha"}
	err := UnknownPolicyKeys("march", keys)

	sorted, ok := err.Fields["keys"].([]string)
	if !ok || len(sorted) != 2 || sorted[0] != "alpha" {
		t.Fatalf("keys = %v", err.Fields["keys"])
	}
	if keys[0] != "zeta" {
		t.Error("不应修改调用方的切片")
	}
	if err.HTTPStatus != http.StatusBadRequest {
		t.Errorf("HTTPStatus = %d", err.HTTPStatus)
	}
}

func TestValidationErrors(t *testing.T) {
	var ve ValidationErrors
	if ve.HasErrors() {
		t.Fatal("初始不应有错误")
	}
	ve.Add("employees[0].employee_id", "不能为空")
	ve.Addf("open_shifts[1].end", "%s 早于开始时间", "09:00")
	ve.Add("employees[0].employee_id", "重复")

	appErr := ve.ToAppErrorWithCode(CodeInvalidSnapshot, "快照无效")
	if appErr.Code != CodeInvalidSnapshot {
		t.Errorf("Code = %s", appErr.Code)
	}
	if got := appErr.Fields["employees[0].employee_id"]; got != "不能为空" {
		t.Errorf("同一字段应保留第一条, 得到 %v", got)
	}
	if len(appErr.Fields) != 2 {
		t.Errorf("Fields = %v", appErr.Fields)
	}
	if appErr.Details != "employees[0].employee_id: 不能为空" {
		t.Errorf("Details = %q", appErr.Details)
	}
}
