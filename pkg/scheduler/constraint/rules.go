package constraint

import (
	"sort"

	"github.com/paiban/allocator/pkg/model"
)

// MatchTier 规则匹配层级
type MatchTier string

const (
	MatchNone      MatchTier = ""
	MatchFullName  MatchTier = "full_name"
	MatchFirstName MatchTier = "first_name"
	MatchAlias     MatchTier = "alias"
)

// RuleIndex 以规范化姓名为键的规则索引
type RuleIndex struct {
	rules map[string]*model.EmployeeRule
	raw   map[string]string // 规范化键 → 原始键
}

// NewRuleIndex 构建索引; 多个原始键规范化后相同时, 字典序最小的原始键生效
func NewRuleIndex(rules map[string]model.EmployeeRule) *RuleIndex {
	keys := make([]string, 0, len(rules))
	for k := range rules {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ix := &RuleIndex{
		rules: make(map[string]*model.EmployeeRule, len(rules)),
		raw:   make(map[string]string, len(rules)),
	}
	for _, k := range keys {
		canon := model.CanonicalName(k)
		if canon == "" {
			continue
		}
		if _, exists := ix.rules[canon]; exists {
			continue
		}
		rule := rules[k]
		ix.rules[canon] = &rule
		ix.raw[canon] = k
	}
	return ix
}

// Lookup 依次按全名、名、用户名查找
func (ix *RuleIndex) Lookup(emp *model.Employee) (*model.EmployeeRule, string, MatchTier) {
	tiers := []struct {
		key  string
		tier MatchTier
	}{
		{emp.NameKey(), MatchFullName},
		{emp.FirstNameKey(), MatchFirstName},
		{emp.AliasKey(), MatchAlias},
	}
	for _, t := range tiers {
		if t.key == "" {
			continue
		}
		if rule, ok := ix.rules[t.key]; ok {
			return rule, ix.raw[t.key], t.tier
		}
	}
	return nil, "", MatchNone
}

// Len 索引中的规则数
func (ix *RuleIndex) Len() int {
	return len(ix.rules)
}

// Unmatched 没有匹配到任何员工的原始规则键
func (ix *RuleIndex) Unmatched(employees []model.Employee) []string {
	used := map[string]bool{}
	for i := range employees {
		if _, raw, tier := ix.Lookup(&employees[i]); tier != MatchNone {
			used[raw] = true
		}
	}
	var out []string
	for _, raw := range ix.raw {
		if !used[raw] {
			out = append(out, raw)
		}
	}
	sort.Strings(out)
	return out
}
