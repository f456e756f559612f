package main

import "github.com/charmbracelet/lipgloss"

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7aa2f7")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#f7768e"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ece6a"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89"))
	targetStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0af68")).Bold(true)
)
