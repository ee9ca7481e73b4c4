package commands

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/paiban/allocator/internal/planner"
	"github.com/paiban/allocator/pkg/model"
	"github.com/paiban/allocator/pkg/profile"
)

// AllocateCmd 生成分配方案
func AllocateCmd(app *AppContext) *cobra.Command {
	var (
		snapshotPath string
		snapshotID   string
		from, to     string
		profileName  string
		profileFile  string
		noPersist    bool
		outPath      string
	)

	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "为空缺班次生成分配方案",
		Long:  "读取快照 (文件或已保存的快照ID, 都未给出时使用最近的快照), 按配置运行分配引擎并保存方案",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := planner.AllocateRequest{
				SnapshotID:  snapshotID,
				Range:       model.DateRange{From: from, To: to},
				ProfileName: profileName,
				Persist:     !noPersist,
			}
			if snapshotPath != "" {
				snap, err := readSnapshot(snapshotPath)
				if err != nil {
					return err
				}
				req.Snapshot = snap
			}
			if profileFile != "" {
				p, err := inlineProfile(profileFile, profileName, app.Cfg.Allocator.StrictProfiles)
				if err != nil {
					return err
				}
				req.Profile = p
			}

			plan, err := app.Service.Allocate(app.Ctx, req)
			if err != nil {
				return fmt.Errorf("分配失败: %w", err)
			}

			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer f.Close()
				if err := writeJSON(f, plan); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if app.jsonOutput() {
				return writeJSON(out, plan)
			}
			printPlan(out, plan, req.Persist)
			return nil
		},
	}

	cmd.Flags().StringVarP(&snapshotPath, "snapshot", "s", "", "快照 JSON 文件, - 表示标准输入")
	cmd.Flags().StringVar(&snapshotID, "snapshot-id", "", "已保存的快照ID")
	cmd.Flags().StringVar(&from, "from", "", "开始日期 YYYY-MM-DD, 默认使用快照范围")
	cmd.Flags().StringVar(&to, "to", "", "结束日期 YYYY-MM-DD")
	cmd.Flags().StringVarP(&profileName, "profile", "p", "", "配置名称")
	cmd.Flags().StringVar(&profileFile, "profile-file", "", "从 YAML 文件读取配置, 与 --profile 一起使用时选择其中一个")
	cmd.Flags().BoolVar(&noPersist, "no-persist", false, "不保存快照和方案")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "把方案 JSON 写入文件")
	cmd.MarkFlagsMutuallyExclusive("snapshot", "snapshot-id")
	return cmd
}

// inlineProfile 从配置文件中取一个配置. 未指定名称时文件中只能有一个配置.
func inlineProfile(path, name string, strict bool) (*model.Profile, error) {
	mode := profile.Permissive
	if strict {
		mode = profile.Strict
	}
	set, err := profile.LoadFile(path, mode)
	if err != nil {
		return nil, err
	}
	if name == "" {
		names := set.Names()
		if len(names) != 1 {
			return nil, fmt.Errorf("%s 包含 %d 个配置, 需要用 --profile 指定", path, len(names))
		}
		name = names[0]
	}
	return set.Get(name)
}

func printPlan(w io.Writer, plan *model.Plan, persisted bool) {
	fmt.Fprintf(w, "方案:     %s\n", plan.PlanID)
	fmt.Fprintf(w, "快照:     %s\n", plan.SnapshotID)
	fmt.Fprintf(w, "范围:     %s ~ %s\n", plan.Range.From, plan.Range.To)
	fmt.Fprintf(w, "配置:     %s\n", plan.Profile)
	fmt.Fprintf(w, "分配:     %d/%d (%.1f%%)\n", plan.Metrics.AssignedSlots, plan.Metrics.TotalSlots, plan.Metrics.FillRate)
	if persisted {
		fmt.Fprintln(w, "状态:     已保存")
	}
	fmt.Fprintln(w)

	if len(plan.Assignments) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "日期\t时间\t班次\t员工\t类型\t得分")
		for _, a := range plan.Assignments {
			fmt.Fprintf(tw, "%s\t%s-%s\t%s\t%s\t%s\t%.2f\n",
				a.Date, a.Start, a.End, a.SlotID, a.EmployeeName, a.Kind, a.Score)
		}
		tw.Flush()
	}

	if len(plan.Unassigned) > 0 {
		fmt.Fprintf(w, "\n未分配 (%d):\n", len(plan.Unassigned))
		for _, u := range plan.Unassigned {
			fmt.Fprintf(w, "  %s %s %s-%s  %s\n", u.SlotID, u.Date, u.Start, u.End, u.Reason)
			for _, c := range u.TopCandidates {
				fmt.Fprintf(w, "    - %s (%.2f) %v\n", c.EmployeeName, c.PotentialScore, c.BlockedReasons)
			}
		}
	}
}
