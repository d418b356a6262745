package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.Color("205")
	muted  = lipgloss.Color("241")

	phaseTitleStyle = lipgloss.NewStyle().Foreground(accent).Bold(true).MarginBottom(1)
	doneTitleStyle  = phaseTitleStyle.Foreground(lipgloss.Color("86"))
	failTitleStyle  = phaseTitleStyle.Foreground(lipgloss.Color("196"))

	sectionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)

	summaryBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 2)

	// 保留文件路径
	keptPathStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("147")).Italic(true)

	ruleStyle = lipgloss.NewStyle().Foreground(muted)
	hintStyle = lipgloss.NewStyle().Foreground(muted).Faint(true)
)
