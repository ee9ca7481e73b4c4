// Package builtin 提供内置阻断约束
package builtin

import (
	"github.com/paiban/allocator/pkg/scheduler/constraint"
)

// BaseBlocker 约束基类, 名称和类别取自约束目录
type BaseBlocker struct {
	code     constraint.Code
	name     string
	category constraint.Category
}

// NewBaseBlocker 创建基础约束
func NewBaseBlocker(code constraint.Code) *BaseBlocker {
	b := &BaseBlocker{code: code, name: string(code), category: constraint.CategoryObligatory}
	if d, ok := constraint.Describe(code); ok {
		b.name = d.Name
		b.category = d.Category
	}
	return b
}

// Code 返回约束编码
func (b *BaseBlocker) Code() constraint.Code { return b.code }

// Name 返回约束名称
func (b *BaseBlocker) Name() string { return b.name }

// Category 返回约束类别
func (b *BaseBlocker) Category() constraint.Category { return b.category }
