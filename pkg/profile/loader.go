// Package profile 加载命名约束配置集合 (YAML 或 JSON)
package profile

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/paiban/allocator/pkg/errors"
	"github.com/paiban/allocator/pkg/logger"
	"github.com/paiban/allocator/pkg/model"
)

// DefaultName 默认配置名, 请求的配置不存在时回退到它
const DefaultName = "default"

// Mode 未知策略键的处理方式
type Mode int

const (
	// Permissive 记录并忽略未知策略键
	Permissive Mode = iota
	// Strict 出现未知策略键即拒绝
	Strict
)

// policyKeys 已知策略键
var policyKeys = map[string]bool{
	"prefer_applicants":       true,
	"max_consecutive_days":    true,
	"distribute_across_month": true,
	"prefer_type_variation":   true,
	"targets_are_caps":        true,
}

// policyAliases 旧版配置文件中的键名
var policyAliases = map[string]string{
	"distribute_applications_across_month": "distribute_across_month",
	"prefer_shift_type_variation":          "prefer_type_variation",
}

type rawProfile struct {
	Description   string                        `yaml:"description"`
	Policy        yaml.Node                     `yaml:"policy"`
	EmployeeRules map[string]model.EmployeeRule `yaml:"employee_rules"`
}

// Parse 解析配置集合, JSON 作为 YAML 的子集同样可以解析
func Parse(data []byte, mode Mode) (*Set, error) {
	var raw map[string]rawProfile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidProfile, "配置文件解析失败")
	}

	set := NewSet()
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		p, err := buildProfile(name, raw[name], mode)
		if err != nil {
			return nil, err
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if len(p.UnknownPolicyKeys) > 0 {
			logger.Warn().
				Str("profile", name).
				Strs("keys", p.UnknownPolicyKeys).
				Msg("忽略未知策略键")
		}
		set.Add(p)
	}
	return set, nil
}

// inlineProfile 单个配置, 名称写在对象内
type inlineProfile struct {
	Name          string                        `yaml:"name"`
	Description   string                        `yaml:"description"`
	Policy        yaml.Node                     `yaml:"policy"`
	EmployeeRules map[string]model.EmployeeRule `yaml:"employee_rules"`
}

// ParseProfile 解析单个配置 (如请求体中的内联配置).
// 与配置集合使用相同的规则: 未出现的策略键取默认值, 未知策略键按 mode 处理.
func ParseProfile(data []byte, fallbackName string, mode Mode) (*model.Profile, error) {
	var raw inlineProfile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidProfile, "配置解析失败")
	}
	name := strings.TrimSpace(raw.Name)
	if name == "" {
		name = fallbackName
	}
	p, err := buildProfile(name, rawProfile{
		Description:   raw.Description,
		Policy:        raw.Policy,
		EmployeeRules: raw.EmployeeRules,
	}, mode)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// LoadFile 从文件加载配置集合
func LoadFile(path string, mode Mode) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidProfile, fmt.Sprintf("读取配置文件 %s 失败", path))
	}
	set, err := Parse(data, mode)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("path", path).Int("profiles", set.Len()).Msg("配置集合已加载")
	return set, nil
}

func buildProfile(name string, raw rawProfile, mode Mode) (*model.Profile, error) {
	p := model.NewProfile(name)
	p.Description = raw.Description
	if raw.EmployeeRules != nil {
		p.EmployeeRules = raw.EmployeeRules
	}

	if raw.Policy.Kind == 0 {
		return p, nil
	}
	if raw.Policy.Kind != yaml.MappingNode {
		return nil, errors.New(errors.CodeInvalidProfile, fmt.Sprintf("配置 '%s' 的 policy 必须是对象", name))
	}

	var unknown []string
	known := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	seen := make(map[string]string)
	for i := 0; i+1 < len(raw.Policy.Content); i += 2 {
		key, value := raw.Policy.Content[i], raw.Policy.Content[i+1]
		field := key.Value
		if alias, ok := policyAliases[field]; ok {
			field = alias
		}
		if !policyKeys[field] {
			unknown = append(unknown, key.Value)
			continue
		}
		if prev, dup := seen[field]; dup {
			return nil, errors.New(errors.CodeInvalidProfile,
				fmt.Sprintf("配置 '%s' 的 policy 同时包含 %s 和 %s", name, prev, key.Value)).
				WithField("key", field)
		}
		seen[field] = key.Value
		known.Content = append(known.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: field}, value)
	}

	if len(unknown) > 0 {
		sort.Strings(unknown)
		if mode == Strict {
			return nil, errors.UnknownPolicyKeys(name, unknown)
		}
		p.UnknownPolicyKeys = unknown
	}

	// 在默认策略上覆盖, 未出现的键保持默认值
	if err := known.Decode(&p.Policy); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidProfile, fmt.Sprintf("配置 '%s' 的 policy 无效", name))
	}
	return p, nil
}

// Set 命名配置集合
type Set struct {
	profiles map[string]*model.Profile
}

// NewSet 创建配置集合
func NewSet(profiles ...*model.Profile) *Set {
	s := &Set{profiles: make(map[string]*model.Profile, len(profiles))}
	for _, p := range profiles {
		s.Add(p)
	}
	return s
}

// DefaultSet 只包含默认配置的集合
func DefaultSet() *Set {
	p := model.NewProfile(DefaultName)
	p.Description = "默认策略, 无员工规则"
	return NewSet(p)
}

// Add 添加或替换配置
func (s *Set) Add(p *model.Profile) {
	if p == nil {
		return
	}
	s.profiles[p.Name] = p
}

// Get 按名称精确查找
func (s *Set) Get(name string) (*model.Profile, error) {
	p, ok := s.profiles[name]
	if !ok {
		return nil, errors.New(errors.CodeProfileNotFound, fmt.Sprintf("配置 '%s' 不存在", name)).
			WithField("available", s.Names())
	}
	return p, nil
}

// Resolve 查找配置, 不存在时回退到默认配置
func (s *Set) Resolve(name string) (*model.Profile, error) {
	if name == "" {
		name = DefaultName
	}
	if p, ok := s.profiles[name]; ok {
		return p, nil
	}
	p, ok := s.profiles[DefaultName]
	if !ok {
		return s.Get(name)
	}
	logger.Warn().Str("profile", name).Msg("配置不存在, 回退到默认配置")
	return p, nil
}

// Names 排序后的配置名
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.profiles))
	for name := range s.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len 配置数量
func (s *Set) Len() int {
	return len(s.profiles)
}

// Summary 配置摘要
type Summary struct {
	Name              string       `json:"name"`
	Description       string       `json:"description,omitempty"`
	Policy            model.Policy `json:"policy"`
	EmployeeRules     int          `json:"employee_rules"`
	UnknownPolicyKeys []string     `json:"unknown_policy_keys,omitempty"`
}

// Summaries 按名称排序的配置摘要
func (s *Set) Summaries() []Summary {
	out := make([]Summary, 0, len(s.profiles))
	for _, name := range s.Names() {
		p := s.profiles[name]
		out = append(out, Summary{
			Name:              p.Name,
			Description:       p.Description,
			Policy:            p.Policy,
			EmployeeRules:     len(p.EmployeeRules),
			UnknownPolicyKeys: p.UnknownPolicyKeys,
		})
	}
	return out
}

// ParseMode 解析 "strict" / "permissive"
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "permissive":
		return Permissive, nil
	case "strict":
		return Strict, nil
	default:
		return Permissive, errors.InvalidInput("mode", fmt.Sprintf("未知模式 %q", s))
	}
}
