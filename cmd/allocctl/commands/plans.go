package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/paiban/allocator/internal/planner"
	"github.com/paiban/allocator/internal/repository"
	"github.com/paiban/allocator/pkg/model"
	"github.com/paiban/allocator/pkg/stats"
)

// ExplainCmd 解释一次分配
func ExplainCmd(app *AppContext) *cobra.Command {
	var planID string

	cmd := &cobra.Command{
		Use:   "explain <assignment_id>",
		Short: "解释方案中的一次分配",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, err := app.Service.Explain(app.Ctx, planID, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if app.jsonOutput() {
				return writeJSON(out, exp)
			}

			fmt.Fprintf(out, "分配:   %s\n", exp.AssignmentID)
			fmt.Fprintf(out, "班次:   %s %s %s-%s (%s)\n", exp.Slot.SlotID, exp.Slot.Date, exp.Slot.Start, exp.Slot.End, exp.Slot.ShiftType)
			fmt.Fprintf(out, "员工:   %s (%s)\n", exp.EmployeeName, exp.EmployeeID)
			fmt.Fprintf(out, "类型:   %s\n", exp.Kind)
			fmt.Fprintf(out, "得分:   %.2f\n", exp.Score)
			for _, c := range exp.Breakdown.Components() {
				fmt.Fprintf(out, "  %-10s %6.2f\n", c.Name, c.Value)
			}
			if len(exp.Reasons) > 0 {
				fmt.Fprintln(out, "原因:")
				for _, r := range exp.Reasons {
					fmt.Fprintf(out, "  - %s\n", r)
				}
			}
			if len(exp.Alternatives) > 0 {
				fmt.Fprintln(out, "备选:")
				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				for _, alt := range exp.Alternatives {
					fmt.Fprintf(tw, "  %s\t%.2f\t%v\n", alt.EmployeeName, alt.Score, alt.BlockedReasons)
				}
				tw.Flush()
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&planID, "plan", "", "方案ID, 默认最近的方案")
	return cmd
}

// AuditCmd 审计方案
func AuditCmd(app *AppContext) *cobra.Command {
	var (
		planID      string
		planFile    string
		includeSoft bool
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "检查方案是否违反约束",
		Long:  "按方案对应的快照重新检查每个分配. --plan-file 可以审计手工修改过的方案.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var plan *model.Plan
			if planFile != "" {
				plan = &model.Plan{}
				if err := readJSONFile(planFile, plan); err != nil {
					return fmt.Errorf("读取方案失败: %w", err)
				}
			} else {
				var err error
				if plan, err = app.Service.Plan(app.Ctx, planID); err != nil {
					return err
				}
			}

			report, err := app.Service.Audit(app.Ctx, plan, planner.AuditOptions{IncludeSoft: includeSoft})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if app.jsonOutput() {
				return writeJSON(out, report)
			}

			status := "通过"
			if !report.Valid {
				status = "未通过"
			}
			fmt.Fprintf(out, "方案 %s: 检查 %d 个分配, %s\n", report.PlanID, report.Checked, status)
			for _, f := range report.Findings {
				fmt.Fprintf(out, "  [%s] %s %s %s: %s\n", f.Severity, f.Date, f.SlotID, f.EmployeeID, f.Message)
			}
			if !report.Valid {
				return fmt.Errorf("方案 %s 有 %d 条审计结果", report.PlanID, len(report.Findings))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&planID, "plan", "", "方案ID, 默认最近的方案")
	cmd.Flags().StringVar(&planFile, "plan-file", "", "方案 JSON 文件")
	cmd.Flags().BoolVar(&includeSoft, "include-soft", false, "同时报告软约束")
	cmd.MarkFlagsMutuallyExclusive("plan", "plan-file")
	return cmd
}

// EvaluateCmd 方案质量评估
func EvaluateCmd(app *AppContext) *cobra.Command {
	var planID string

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "评估方案的填充率、评分分布和公平性",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ev, err := app.Service.Evaluate(app.Ctx, planID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if app.jsonOutput() {
				return writeJSON(out, ev)
			}

			fmt.Fprintf(out, "方案:     %s (%s)\n", ev.PlanID, ev.Profile)
			fmt.Fprintf(out, "填充率:   %d/%d (%.1f%%)\n", ev.FillRate.Assigned, ev.FillRate.TotalSlots, ev.FillRate.Pct)
			for _, kind := range model.AssignmentKinds {
				fmt.Fprintf(out, "  %-36s %d\n", kind, ev.Kinds[kind])
			}
			fmt.Fprintf(out, "工时基尼: %.4f\n", ev.Fairness.Gini)
			fmt.Fprintf(out, "公平评分: %.1f\n\n", ev.Fairness.OverallScore)
			fmt.Fprint(out, stats.NewCoverageAnalyzer().GenerateCoverageReport(ev.Coverage))
			return nil
		},
	}
	cmd.Flags().StringVar(&planID, "plan", "", "方案ID, 默认最近的方案")
	return cmd
}

// CompareCmd 对比两个方案
func CompareCmd(app *AppContext) *cobra.Command {
	var diff bool

	cmd := &cobra.Command{
		Use:   "compare <plan_a> <plan_b>",
		Short: "对比两个方案",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if diff {
				text, err := app.Service.Diff(app.Ctx, args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprint(out, text)
				return nil
			}

			cmp, err := app.Service.Compare(app.Ctx, args[0], args[1])
			if err != nil {
				return err
			}
			if app.jsonOutput() {
				return writeJSON(out, cmp)
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "\tA\tB\tA-B")
			fmt.Fprintf(tw, "方案\t%s\t%s\t\n", cmp.PlanA.PlanID, cmp.PlanB.PlanID)
			fmt.Fprintf(tw, "配置\t%s\t%s\t\n", cmp.PlanA.Profile, cmp.PlanB.Profile)
			fmt.Fprintf(tw, "填充率\t%.1f\t%.1f\t%+.1f\n", cmp.PlanA.FillRate, cmp.PlanB.FillRate, cmp.Deltas.FillRate)
			fmt.Fprintf(tw, "平均得分\t%.2f\t%.2f\t%+.2f\n", cmp.PlanA.MeanScore, cmp.PlanB.MeanScore, cmp.Deltas.MeanScore)
			fmt.Fprintf(tw, "基尼系数\t%.4f\t%.4f\t%+.4f\n", cmp.PlanA.Gini, cmp.PlanB.Gini, cmp.Deltas.Gini)
			tw.Flush()
			fmt.Fprintf(out, "\n班次一致率: %.1f%% (相同 %d, 不同 %d)\n",
				cmp.Slots.AgreementRate, cmp.Slots.SameEmployee, cmp.Slots.DifferentEmployee)
			for _, d := range cmp.Slots.TopDivergentSlots {
				fmt.Fprintf(out, "  %s %s: %s -> %s\n", d.SlotID, d.Date, d.EmployeeA, d.EmployeeB)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&diff, "diff", false, "输出统一格式差异")
	return cmd
}

// PlansCmd 方案管理
func PlansCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plans",
		Short: "已保存的方案",
	}

	var (
		limit      int
		snapshotID string
		profile    string
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "列出已保存的方案",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := repository.DefaultListFilter().WithLimit(limit).WithSnapshot(snapshotID).WithProfile(profile)
			plans, err := app.Service.ListPlans(app.Ctx, filter)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if app.jsonOutput() {
				if plans == nil {
					plans = []model.PlanSummary{}
				}
				return writeJSON(out, plans)
			}
			if len(plans) == 0 {
				fmt.Fprintln(out, "没有已保存的方案")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "方案\t快照\t配置\t分配\t填充率\t生成时间")
			for _, p := range plans {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%.1f%%\t%s\n",
					p.PlanID, p.SnapshotID, p.Profile,
					p.Metrics.AssignedSlots, p.Metrics.TotalSlots, p.Metrics.FillRate,
					p.GeneratedAt.Format("2006-01-02 15:04:05"))
			}
			return tw.Flush()
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", 20, "最多显示条数")
	list.Flags().StringVar(&snapshotID, "snapshot-id", "", "按快照过滤")
	list.Flags().StringVar(&profile, "profile", "", "按配置过滤")

	cmd.AddCommand(list)
	return cmd
}
