// Package commands allocctl 的子命令
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/paiban/allocator/internal/config"
	"github.com/paiban/allocator/internal/planner"
	"github.com/paiban/allocator/pkg/model"
)

// 输出格式
const (
	FormatText = "text"
	FormatJSON = "json"
)

// AppContext 子命令共享的依赖, 在根命令的 PersistentPreRunE 中初始化
type AppContext struct {
	Ctx     context.Context
	Cfg     *config.Config
	Service *planner.Service
	Format  string

	closer io.Closer
}

// Init 按配置加载配置集合和存储, 创建服务
func (a *AppContext) Init(ctx context.Context, cfg *config.Config) error {
	profiles, err := planner.LoadProfiles(cfg.Allocator)
	if err != nil {
		return err
	}
	store, _, closer, err := planner.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}

	a.Ctx = ctx
	a.Cfg = cfg
	a.closer = closer
	a.Service = planner.NewService(profiles, store, nil, planner.OptionsFromConfig(cfg.Allocator))
	return nil
}

// Close 释放存储
func (a *AppContext) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

func (a *AppContext) jsonOutput() bool {
	return a.Format == FormatJSON
}

// Register 添加全部子命令
func Register(root *cobra.Command, app *AppContext) {
	root.AddCommand(AllocateCmd(app))
	root.AddCommand(ExplainCmd(app))
	root.AddCommand(AuditCmd(app))
	root.AddCommand(EvaluateCmd(app))
	root.AddCommand(CompareCmd(app))
	root.AddCommand(ProfilesCmd(app))
	root.AddCommand(ConstraintsCmd(app))
	root.AddCommand(PlansCmd(app))
	root.AddCommand(SnapshotsCmd(app))
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readSnapshot 读取 JSON 快照文件, "-" 表示标准输入
func readSnapshot(path string) (*model.Snapshot, error) {
	var snap model.Snapshot
	if err := readJSONFile(path, &snap); err != nil {
		return nil, fmt.Errorf("读取快照失败: %w", err)
	}
	return &snap, nil
}

func readJSONFile(path string, v interface{}) error {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	return json.NewDecoder(r).Decode(v)
}
