// Package metrics 提供 Prometheus 文本格式的进程内指标
package metrics

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// 指标名称
const (
	HTTPRequestsTotal   = "allocator_http_requests_total"
	HTTPRequestDuration = "allocator_http_request_duration_seconds"
	RunsTotal           = "allocator_runs_total"
	RunDuration         = "allocator_run_duration_seconds"
	SlotsTotal          = "allocator_slots_total"
	BlockersTotal       = "allocator_blockers_total"
	FillRate            = "allocator_fill_rate"
	FairnessGini        = "allocator_fairness_gini"
	ActiveRuns          = "allocator_active_runs"
)

// Registry 指标注册表
type Registry struct {
	counters   map[string]*Counter
	gauges     map[string]*Gauge
	histograms map[string]*Histogram
	mu         sync.RWMutex
}

// Counter 计数器
type Counter struct {
	Name   string
	Help   string
	Labels []string
	values map[string]float64
	mu     sync.RWMutex
}

// Gauge 仪表盘
type Gauge struct {
	Name   string
	Help   string
	Labels []string
	values map[string]float64
	mu     sync.RWMutex
}

// Histogram 直方图
type Histogram struct {
	Name    string
	Help    string
	Labels  []string
	Buckets []float64
	counts  map[string][]uint64
	sums    map[string]float64
	mu      sync.RWMutex
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// Default 全局注册表, 首次调用时注册分配器指标
func Default() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry 创建已注册分配器指标的注册表
func NewRegistry() *Registry {
	r := &Registry{
		counters:   make(map[string]*Counter),
		gauges:     make(map[string]*Gauge),
		histograms: make(map[string]*Histogram),
	}

	r.NewCounter(HTTPRequestsTotal, "HTTP请求总数", []string{"method", "path", "status"})
	r.NewHistogram(HTTPRequestDuration, "HTTP请求延迟",
		[]string{"method", "path"},
		[]float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10})

	r.NewCounter(RunsTotal, "分配计算次数", []string{"profile", "status"})
	r.NewHistogram(RunDuration, "分配计算耗时",
		[]string{"profile"},
		[]float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30})
	r.NewCounter(SlotsTotal, "处理的空缺班次数", []string{"outcome"})
	r.NewCounter(BlockersTotal, "接近候选人上的阻断约束次数", []string{"code"})
	r.NewGauge(FillRate, "最近一次方案的填充率", []string{"profile"})
	r.NewGauge(FairnessGini, "最近一次方案的工时基尼系数", []string{"profile"})
	r.NewGauge(ActiveRuns, "正在进行的分配计算数", nil)
	return r
}

// NewCounter 创建计数器
func (r *Registry) NewCounter(name, help string, labels []string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := &Counter{Name: name, Help: help, Labels: labels, values: make(map[string]float64)}
	r.counters[name] = c
	return c
}

// NewGauge 创建仪表盘
func (r *Registry) NewGauge(name, help string, labels []string) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()

	g := &Gauge{Name: name, Help: help, Labels: labels, values: make(map[string]float64)}
	r.gauges[name] = g
	return g
}

// NewHistogram 创建直方图
func (r *Registry) NewHistogram(name, help string, labels []string, buckets []float64) *Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()

	h := &Histogram{
		Name:    name,
		Help:    help,
		Labels:  labels,
		Buckets: buckets,
		counts:  make(map[string][]uint64),
		sums:    make(map[string]float64),
	}
	r.histograms[name] = h
	return h
}

// Counter 按名称获取计数器
func (r *Registry) Counter(name string) *Counter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.counters[name]
}

// Gauge 按名称获取仪表盘
func (r *Registry) Gauge(name string) *Gauge {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gauges[name]
}

// Histogram 按名称获取直方图
func (r *Registry) Histogram(name string) *Histogram {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.histograms[name]
}

// Inc 加一
func (c *Counter) Inc(labelValues ...string) {
	c.Add(1, labelValues...)
}

// Add 增加指定值
func (c *Counter) Add(value float64, labelValues ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[labelKey(labelValues)] += value
}

// Value 读取当前值
func (c *Counter) Value(labelValues ...string) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.values[labelKey(labelValues)]
}

// Set 设置值
func (g *Gauge) Set(value float64, labelValues ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.values[labelKey(labelValues)] = value
}

// Inc 加一
func (g *Gauge) Inc(labelValues ...string) {
	g.Add(1, labelValues...)
}

// Dec 减一
func (g *Gauge) Dec(labelValues ...string) {
	g.Add(-1, labelValues...)
}

// Add 增加指定值
func (g *Gauge) Add(value float64, labelValues ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.values[labelKey(labelValues)] += value
}

// Value 读取当前值
func (g *Gauge) Value(labelValues ...string) float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.values[labelKey(labelValues)]
}

// Observe 记录观测值
func (h *Histogram) Observe(value float64, labelValues ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := labelKey(labelValues)
	counts, ok := h.counts[key]
	if !ok {
		counts = make([]uint64, len(h.Buckets)+1)
		h.counts[key] = counts
	}
	// 非累计计数, 输出时再累加; 最后一格为 +Inf
	idx := sort.SearchFloat64s(h.Buckets, value)
	counts[idx]++
	h.sums[key] += value
}

// Count 某组标签的观测次数
func (h *Histogram) Count(labelValues ...string) uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var total uint64
	for _, c := range h.counts[labelKey(labelValues)] {
		total += c
	}
	return total
}

// labelKey 标签值之间用不可见字符分隔, 避免与标签内容冲突
const labelSep = "\x1f"

func labelKey(values []string) string {
	return strings.Join(values, labelSep)
}

func formatLabels(names []string, key string, extra ...string) string {
	var vals []string
	if key != "" || len(names) > 0 {
		vals = strings.Split(key, labelSep)
	}
	parts := make([]string, 0, len(names)+len(extra)/2)
	for i, name := range names {
		val := ""
		if i < len(vals) {
			val = vals[i]
		}
		parts = append(parts, fmt.Sprintf("%s=%q", name, val))
	}
	for i := 0; i+1 < len(extra); i += 2 {
		parts = append(parts, fmt.Sprintf("%s=%q", extra[i], extra[i+1]))
	}
	if len(parts) == 0 {
		return ""
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// WriteText 以 Prometheus 文本格式输出全部指标, 名称和标签排序
func (r *Registry) WriteText(w io.Writer) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range sortedKeys(r.counters) {
		c := r.counters[name]
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n", c.Name, c.Help, c.Name)
		c.mu.RLock()
		for _, key := range sortedKeys(c.values) {
			fmt.Fprintf(w, "%s%s %s\n", c.Name, formatLabels(c.Labels, key), formatFloat(c.values[key]))
		}
		c.mu.RUnlock()
	}

	for _, name := range sortedKeys(r.gauges) {
		g := r.gauges[name]
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s gauge\n", g.Name, g.Help, g.Name)
		g.mu.RLock()
		for _, key := range sortedKeys(g.values) {
			fmt.Fprintf(w, "%s%s %s\n", g.Name, formatLabels(g.Labels, key), formatFloat(g.values[key]))
		}
		g.mu.RUnlock()
	}

	for _, name := range sortedKeys(r.histograms) {
		h := r.histograms[name]
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s histogram\n", h.Name, h.Help, h.Name)
		h.mu.RLock()
		for _, key := range sortedKeys(h.counts) {
			counts := h.counts[key]
			var cumulative uint64
			for i, bucket := range h.Buckets {
				cumulative += counts[i]
				fmt.Fprintf(w, "%s_bucket%s %d\n", h.Name, formatLabels(h.Labels, key, "le", formatFloat(bucket)), cumulative)
			}
			cumulative += counts[len(h.Buckets)]
			fmt.Fprintf(w, "%s_bucket%s %d\n", h.Name, formatLabels(h.Labels, key, "le", "+Inf"), cumulative)
			fmt.Fprintf(w, "%s_sum%s %s\n", h.Name, formatLabels(h.Labels, key), formatFloat(h.sums[key]))
			fmt.Fprintf(w, "%s_count%s %d\n", h.Name, formatLabels(h.Labels, key), cumulative)
		}
		h.mu.RUnlock()
	}
}

// Handler 返回 Prometheus 格式的指标处理器
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		r.WriteText(w)
	})
}

// RecordRequest 记录HTTP请求
func (r *Registry) RecordRequest(method, path string, status int, duration time.Duration) {
	r.Counter(HTTPRequestsTotal).Inc(method, path, strconv.Itoa(status))
	r.Histogram(HTTPRequestDuration).Observe(duration.Seconds(), method, path)
}

// RecordRun 记录一次分配计算, status 为 success/invalid/cancelled/error
func (r *Registry) RecordRun(profile, status string, duration time.Duration) {
	r.Counter(RunsTotal).Inc(profile, status)
	r.Histogram(RunDuration).Observe(duration.Seconds(), profile)
}

// RecordPlan 记录方案结果: 班次去向, 接近候选人的阻断约束, 填充率和基尼系数
func (r *Registry) RecordPlan(profile string, assigned, unassigned int, blockers map[string]int, fillRate, gini float64) {
	slots := r.Counter(SlotsTotal)
	slots.Add(float64(assigned), "assigned")
	slots.Add(float64(unassigned), "unassigned")

	bc := r.Counter(BlockersTotal)
	for code, n := range blockers {
		bc.Add(float64(n), code)
	}
	r.Gauge(FillRate).Set(fillRate, profile)
	r.Gauge(FairnessGini).Set(gini, profile)
}

// TrackRun 活动计算数加一, 返回的函数减一
func (r *Registry) TrackRun() func() {
	g := r.Gauge(ActiveRuns)
	g.Inc()
	return func() { g.Dec() }
}
