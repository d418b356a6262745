package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/moyu-x/fotix/internal"
)

func (m *model) View() string {
	switch m.state {
	case StateScanning:
		return m.scanningView()
	case StateHashing:
		return m.hashingView()
	case StateActing:
		return m.actingView()
	case StateComplete:
		return m.completeView()
	default:
		return "未知状态"
	}
}

func (m *model) scanningView() string {
	var b strings.Builder

	b.WriteString(phaseTitleStyle.Render("🔍 正在扫描文件...") + "\n\n")
	b.WriteString(m.spinner.View() + fmt.Sprintf(" 已收集 %d 个文件\n", m.last.Scanned))
	b.WriteString("  扫描目录: " + strings.Join(m.dirs, ", ") + "\n")
	if m.last.CurrentFile != "" {
		b.WriteString(keptPathStyle.Render(m.last.CurrentFile) + "\n")
	}

	return lipgloss.NewStyle().
		Padding(2).
		Render(b.String())
}

func (m *model) hashingView() string {
	var b strings.Builder

	b.WriteString(phaseTitleStyle.Render("🧮 正在比较文件内容...") + "\n\n")
	b.WriteString(m.spinner.View() + fmt.Sprintf(" 共 %d 个文件，按大小和哈希分组中\n", m.last.Scanned))

	return lipgloss.NewStyle().
		Padding(2).
		Render(b.String())
}

func (m *model) actingView() string {
	var b strings.Builder

	title := "🔄 正在处理重复文件..."
	if m.dryRun {
		title = "👀 预览模式，正在生成处理方案..."
	}
	b.WriteString(phaseTitleStyle.Render(title) + "\n\n")

	b.WriteString(sectionStyle.Render("处理进度：") + "\n")
	b.WriteString(m.progressBar.ViewAs(m.percent()) + "\n\n")

	b.WriteString(summaryBoxStyle.Render(m.renderStats()) + "\n\n")

	b.WriteString(sectionStyle.Render("保留文件：") + "\n")
	b.WriteString(keptPathStyle.Render(m.last.CurrentFile) + "\n")

	return lipgloss.NewStyle().
		Padding(2).
		Render(b.String())
}

func (m *model) completeView() string {
	var b strings.Builder

	if m.err != nil {
		b.WriteString(failTitleStyle.Render("❌ 处理失败") + "\n\n")
		b.WriteString(m.err.Error() + "\n\n")
	} else {
		b.WriteString(doneTitleStyle.Render("✅ 处理完成！") + "\n\n")
	}

	if m.result != nil {
		b.WriteString(summaryBoxStyle.Render(m.renderFinalStats()) + "\n\n")
	}

	b.WriteString(ruleStyle.Render(strings.Repeat("─", 60)) + "\n")
	b.WriteString(hintStyle.Render("按 Enter 或 q 退出") + "\n")

	return lipgloss.NewStyle().
		Padding(2).
		Render(b.String())
}

func (m *model) renderStats() string {
	var b strings.Builder
	b.WriteString("📊 实时统计：\n\n")
	b.WriteString(fmt.Sprintf("  扫描文件：    %d\n", m.last.Scanned))
	b.WriteString(fmt.Sprintf("  重复组：      %d / %d\n", m.last.GroupsDone, m.last.GroupsTotal))
	b.WriteString(fmt.Sprintf("  已移除：      %d 个文件\n", m.last.Removed))
	b.WriteString(fmt.Sprintf("  释放空间：    %s\n", internal.FormatBytes(m.last.FreedSpace)))
	return b.String()
}

func (m *model) renderFinalStats() string {
	s := m.result.Stats

	var b strings.Builder
	b.WriteString("📊 最终统计：\n\n")
	b.WriteString(fmt.Sprintf("  • 会话：         %s\n", m.result.SessionID))
	b.WriteString(fmt.Sprintf("  • 操作模式：     %s\n", m.mode))
	b.WriteString(fmt.Sprintf("  • 扫描目录数：   %d 个\n", len(m.dirs)))
	b.WriteString(fmt.Sprintf("  • 总文件数：     %d 个\n", s.TotalScanned))
	b.WriteString(fmt.Sprintf("  • 重复组：       %d 个\n", s.Groups))
	b.WriteString(fmt.Sprintf("  • 重复文件：     %d 个\n", s.Duplicates))
	b.WriteString(fmt.Sprintf("    ├─ 已删除：    %d 个\n", s.Deleted))
	b.WriteString(fmt.Sprintf("    ├─ 已移动：    %d 个\n", s.Moved))
	b.WriteString(fmt.Sprintf("    └─ 已回收：    %d 个\n", s.Trashed))
	b.WriteString(fmt.Sprintf("  • 错误：         %d 个\n", s.Errors))
	b.WriteString(fmt.Sprintf("  • 释放空间：     %s\n", internal.FormatBytes(s.FreedSpace)))
	b.WriteString(fmt.Sprintf("  • 总耗时：       %s\n", s.EndTime.Sub(s.StartTime).String()))
	return b.String()
}
