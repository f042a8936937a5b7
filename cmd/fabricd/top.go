// Copyright (C) 2026 Harc Fabric Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dharc-go/fabric/services/fabric/wire"
)

var topAddr string

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Watch a running fabricd's stats live",
	RunE:  runTop,
}

func init() {
	topCmd.Flags().StringVar(&topAddr, "addr", "localhost:8080", "fabricd address to poll")
}

const topPollInterval = 1 * time.Second

// statsTickMsg requests another poll of /v1/fabric/stats.
type statsTickMsg time.Time

// statsMsg carries a completed poll, success or failure.
type statsMsg struct {
	stats wire.StatsResponse
	err   error
}

// topModel is a bubbletea Elm-architecture dashboard with no direct teacher
// analog (DESIGN.md) — only the Model/Init/Update/View shape and lipgloss
// styling texture are borrowed from services/code_buddy/tui/diff_model.go.
type topModel struct {
	addr     string
	client   *http.Client
	spinner  spinner.Model
	stats    wire.StatsResponse
	lastErr  error
	polls    uint64
	quitting bool
}

func newTopModel(addr string) topModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = topValueStyle
	return topModel{
		addr:    addr,
		client:  &http.Client{Timeout: 2 * time.Second},
		spinner: s,
	}
}

func (m topModel) Init() tea.Cmd {
	return tea.Batch(m.poll(), tickEvery(), m.spinner.Tick)
}

func tickEvery() tea.Cmd {
	return tea.Tick(topPollInterval, func(t time.Time) tea.Msg { return statsTickMsg(t) })
}

func (m topModel) poll() tea.Cmd {
	return func() tea.Msg {
		resp, err := m.client.Get("http://" + m.addr + "/v1/fabric/stats")
		if err != nil {
			return statsMsg{err: err}
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return statsMsg{err: fmt.Errorf("stats request returned %s", resp.Status)}
		}
		var out wire.StatsResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return statsMsg{err: err}
		}
		return statsMsg{stats: out}
	}
}

func (m topModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}
	case statsTickMsg:
		return m, tea.Batch(m.poll(), tickEvery())
	case statsMsg:
		m.polls++
		m.lastErr = msg.err
		if msg.err == nil {
			m.stats = msg.stats
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

var (
	topTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	topLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	topValueStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	topErrStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	topHelpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Italic(true)
)

func (m topModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(topTitleStyle.Render(fmt.Sprintf("fabricd @ %s", m.addr)))
	b.WriteString(" ")
	b.WriteString(m.spinner.View())
	b.WriteString("\n\n")

	if m.lastErr != nil {
		b.WriteString(topErrStyle.Render("last poll failed: " + m.lastErr.Error()))
		b.WriteString("\n\n")
	}

	row := func(label string, value string) {
		b.WriteString(topLabelStyle.Render(fmt.Sprintf("%-18s", label)))
		b.WriteString(topValueStyle.Render(value))
		b.WriteString("\n")
	}

	row("harcs", humanize.Comma(int64(m.stats.HarcCount)))
	row("nodes", humanize.Comma(int64(m.stats.NodeCount)))
	row("ticks", humanize.Comma(int64(m.stats.TickCount)))
	row("pending changes", humanize.Comma(int64(m.stats.PendingChanges)))
	row("uptime", humanize.RelTime(time.Now().Add(-time.Duration(m.stats.UptimeSeconds*float64(time.Second))), time.Now(), "", ""))
	row("polls", humanize.Comma(int64(m.polls)))

	b.WriteString("\n")
	b.WriteString(topHelpStyle.Render("q to quit"))
	return b.String()
}

func runTop(cmd *cobra.Command, args []string) error {
	p := tea.NewProgram(newTopModel(topAddr))
	_, err := p.Run()
	return err
}
