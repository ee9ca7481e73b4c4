package constraint

import (
	"sort"
	"sync"

	"github.com/paiban/allocator/pkg/model"
)

// Evaluator 阻断约束评估器
type Evaluator struct {
	blockers []Blocker
	mu       sync.RWMutex
}

// NewEvaluator 创建空评估器
func NewEvaluator() *Evaluator {
	return &Evaluator{blockers: make([]Blocker, 0)}
}

// Register 注册约束, 同编码的约束会被替换
func (e *Evaluator) Register(b Blocker) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, existing := range e.blockers {
		if existing.Code() == b.Code() {
			e.blockers[i] = b
			return
		}
	}
	e.blockers = append(e.blockers, b)

	// obligatory 在前, 同类按编码排序
	sort.Slice(e.blockers, func(i, j int) bool {
		bi, bj := e.blockers[i], e.blockers[j]
		if bi.Category() != bj.Category() {
			return bi.Category() == CategoryObligatory
		}
		return bi.Code() < bj.Code()
	})
}

// Unregister 注销约束
func (e *Evaluator) Unregister(code Code) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, b := range e.blockers {
		if b.Code() == code {
			e.blockers = append(e.blockers[:i], e.blockers[i+1:]...)
			return
		}
	}
}

// Get 按编码获取约束
func (e *Evaluator) Get(code Code) Blocker {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, b := range e.blockers {
		if b.Code() == code {
			return b
		}
	}
	return nil
}

// GetAll 获取全部约束
func (e *Evaluator) GetAll() []Blocker {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]Blocker, len(e.blockers))
	copy(out, e.blockers)
	return out
}

// GetByCategory 按类别获取约束
func (e *Evaluator) GetByCategory(cat Category) []Blocker {
	var out []Blocker
	for _, b := range e.GetAll() {
		if b.Category() == cat {
			out = append(out, b)
		}
	}
	return out
}

// Count 约束数量
func (e *Evaluator) Count() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.blockers)
}

// Evaluate 检查全部约束, 不短路, 返回排序去重后的违反编码
func (e *Evaluator) Evaluate(ctx *Context, state *RunningState, cand *Candidate, slot *model.Slot) []string {
	return evaluate(e.GetAll(), ctx, state, cand, slot)
}

// EvaluateCategory 只检查某一类约束
func (e *Evaluator) EvaluateCategory(cat Category, ctx *Context, state *RunningState, cand *Candidate, slot *model.Slot) []string {
	return evaluate(e.GetByCategory(cat), ctx, state, cand, slot)
}

func evaluate(blockers []Blocker, ctx *Context, state *RunningState, cand *Candidate, slot *model.Slot) []string {
	seen := make(map[Code]bool)
	violations := make([]string, 0)
	for _, b := range blockers {
		if seen[b.Code()] {
			continue
		}
		if b.Blocks(ctx, state, cand, slot) {
			seen[b.Code()] = true
			violations = append(violations, string(b.Code()))
		}
	}
	sort.Strings(violations)
	return violations
}

// Summary 约束摘要
func (e *Evaluator) Summary() map[string]interface{} {
	obligatory, soft := 0, 0
	for _, b := range e.GetAll() {
		if b.Category() == CategoryObligatory {
			obligatory++
		} else {
			soft++
		}
	}
	return map[string]interface{}{
		"total":      obligatory + soft,
		"obligatory": obligatory,
		"soft":       soft,
	}
}
