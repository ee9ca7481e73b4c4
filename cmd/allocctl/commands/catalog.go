package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/paiban/allocator/internal/constraints"
	"github.com/paiban/allocator/internal/repository"
	"github.com/paiban/allocator/pkg/model"
	"github.com/paiban/allocator/pkg/scheduler/constraint"
)

// ProfilesCmd 列出已加载的配置
func ProfilesCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "列出已加载的配置",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles := app.Service.Profiles()
			out := cmd.OutOrStdout()
			if app.jsonOutput() {
				return writeJSON(out, profiles)
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "名称\t员工规则\t说明")
			for _, p := range profiles {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", p.Name, p.EmployeeRules, p.Description)
				if len(p.UnknownPolicyKeys) > 0 {
					fmt.Fprintf(tw, "\t\t未识别的策略键: %s\n", strings.Join(p.UnknownPolicyKeys, ", "))
				}
			}
			return tw.Flush()
		},
	}
}

// ConstraintsCmd 阻断约束目录
func ConstraintsCmd(app *AppContext) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "constraints",
		Short: "列出阻断约束及其参数来源",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := constraint.Category(category)
			switch cat {
			case "", constraint.CategoryObligatory, constraint.CategorySoft:
			default:
				return fmt.Errorf("未知的类别 %q, 只能是 obligatory 或 soft", category)
			}
			resp := constraints.NewLibraryResponse(constraints.GetByCategory(cat))

			out := cmd.OutOrStdout()
			if app.jsonOutput() {
				return writeJSON(out, resp)
			}
			fmt.Fprintf(out, "共 %d 个约束 (强制 %d, 软 %d)\n\n", resp.Total, resp.Obligatory, resp.Soft)
			for _, def := range resp.Library {
				fmt.Fprintf(out, "%-40s [%s] %s\n", def.Code, def.Category, def.Name)
				for _, p := range def.Params {
					line := fmt.Sprintf("    %s (%s, %s)", p.Name, p.Type, p.Source)
					if p.Default != "" {
						line += " = " + p.Default
					}
					fmt.Fprintln(out, line)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "只显示 obligatory 或 soft")
	return cmd
}

// SnapshotsCmd 快照管理
func SnapshotsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "已保存的快照",
	}

	var (
		limit int
		venue string
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "列出已保存的快照",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := repository.DefaultListFilter().WithLimit(limit)
			filter.Venue = venue
			snaps, err := app.Service.ListSnapshots(app.Ctx, filter)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if app.jsonOutput() {
				if snaps == nil {
					snaps = []model.SnapshotSummary{}
				}
				return writeJSON(out, snaps)
			}
			if len(snaps) == 0 {
				fmt.Fprintln(out, "没有已保存的快照")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "快照\t门店\t范围\t员工\t空缺班次\t保存时间")
			for _, s := range snaps {
				fmt.Fprintf(tw, "%s\t%s\t%s~%s\t%d\t%d\t%s\n",
					s.SnapshotID, s.Venue, s.Range.From, s.Range.To,
					s.Employees, s.OpenSlots, s.StoredAt.Format("2006-01-02 15:04:05"))
			}
			return tw.Flush()
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", 20, "最多显示条数")
	list.Flags().StringVar(&venue, "venue", "", "按门店过滤")

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "校验并保存快照, - 表示标准输入",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := readSnapshot(args[0])
			if err != nil {
				return err
			}
			summary, err := app.Service.ImportSnapshot(app.Ctx, snap)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if app.jsonOutput() {
				return writeJSON(out, summary)
			}
			fmt.Fprintf(out, "已保存快照 %s (%d 名员工, %d 个空缺班次)\n",
				summary.SnapshotID, summary.Employees, summary.OpenSlots)
			return nil
		},
	}

	cmd.AddCommand(list, importCmd)
	return cmd
}
