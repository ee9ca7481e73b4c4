// allocctl 班次分配命令行工具
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/paiban/allocator/cmd/allocctl/commands"
	"github.com/paiban/allocator/internal/config"
	"github.com/paiban/allocator/pkg/logger"
)

type rootFlags struct {
	configPath  string
	format      string
	storage     string
	artifactDir string
	profiles    string
	logLevel    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags rootFlags
	app := &commands.AppContext{}

	root := &cobra.Command{
		Use:           "allocctl",
		Short:         "为空缺班次分配员工",
		Long:          "读取排班快照, 按配置为空缺班次分配员工, 并对方案进行解释、审计、评估和对比.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp(cmd.Context(), app, flags)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if err := app.Close(); err != nil {
				logger.Warn().Err(err).Msg("关闭存储失败")
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "YAML 配置文件")
	pf.StringVarP(&flags.format, "format", "f", commands.FormatText, "输出格式: text 或 json")
	pf.StringVar(&flags.storage, "storage", "", "存储后端: file, database 或 none")
	pf.StringVar(&flags.artifactDir, "artifact-dir", "", "文件存储目录")
	pf.StringVar(&flags.profiles, "profiles", "", "配置集合 YAML 文件")
	pf.StringVar(&flags.logLevel, "log-level", "", "日志级别")

	commands.Register(root, app)
	return root
}

// initApp 加载配置并应用命令行覆盖项
func initApp(ctx context.Context, app *commands.AppContext, flags rootFlags) error {
	switch flags.format {
	case commands.FormatText, commands.FormatJSON:
	default:
		return fmt.Errorf("未知的输出格式 %q", flags.format)
	}

	var (
		cfg *config.Config
		err error
	)
	if flags.configPath != "" {
		cfg, err = config.LoadFromPath(flags.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}

	if flags.storage != "" {
		cfg.Storage.Backend = flags.storage
	}
	if flags.artifactDir != "" {
		cfg.Storage.ArtifactDir = flags.artifactDir
	}
	if flags.profiles != "" {
		cfg.Allocator.ProfilesPath = flags.profiles
	}
	if flags.logLevel != "" {
		cfg.App.LogLevel = flags.logLevel
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	// 命令行输出占用 stdout, 日志写到 stderr
	logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Format: "console",
		Output: "stderr",
	})

	if ctx == nil {
		ctx = context.Background()
	}
	app.Format = flags.format
	return app.Init(ctx, cfg)
}
