package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/goccy/go-json"

	"github.com/MKhiriev/envelope-sync/internal/service"
	"github.com/MKhiriev/envelope-sync/models"
)

type dashboardTab int

const (
	tabOverview dashboardTab = iota
	tabHistory
	tabBackups
	tabCount
)

var tabTitles = [tabCount]string{"Overview", "History", "Backups"}

const noticeTTL = 3 * time.Second

// writeClipboard is swapped in tests; there is no clipboard on CI.
var writeClipboard = clipboard.WriteAll

type dashboardModel struct {
	ctx      context.Context
	services *service.ClientServices
	build    models.AppBuildInfo
	refresh  time.Duration

	status  models.QuickStatus
	history []models.SyncAttempt
	backups []models.BackupInfo
	loaded  bool

	tab           dashboardTab
	sync          syncModel
	confirm       *confirmModel
	errOverlay    *errorOverlayModel
	notice        string
	showBuildInfo bool
}

func newDashboardModel(ctx context.Context, services *service.ClientServices, build models.AppBuildInfo, refresh time.Duration) dashboardModel {
	if refresh <= 0 {
		refresh = DefaultRefreshInterval
	}
	return dashboardModel{
		ctx:      ctx,
		services: services,
		build:    build,
		refresh:  refresh,
		sync:     newSyncModel(),
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(m.cmdLoad(), m.cmdTick())
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		return m, tea.Batch(m.cmdLoad(), m.cmdTick())

	case snapshotMsg:
		if msg.err != nil {
			m.errOverlay = &errorOverlayModel{message: humanizeServerUnavailableError(msg.err.Error())}
			return m, nil
		}
		m.status, m.history, m.backups = msg.status, msg.history, msg.backups
		m.loaded = true
		return m, nil

	case syncDoneMsg:
		m.sync.running = false
		res := msg.result
		switch {
		case res.Reason == models.ReasonSyncInProgress:
			m.notice = "A sync is already running"
		case res.Success:
			m.notice = fmt.Sprintf("Sync completed (%s, %d records)", directionLabel(res.Direction), res.Counts.Total())
		default:
			m.errOverlay = &errorOverlayModel{title: "Sync failed", message: fmt.Sprintf("[%s] %s", res.Category, humanizeServerUnavailableError(res.Error))}
		}
		return m, tea.Batch(m.cmdLoad(), m.cmdClearNotice())

	case resetDoneMsg:
		m.sync.running = false
		res := msg.result
		switch {
		case res.Success:
			m.notice = msg.action.String() + " completed"
		case res.SafetyAbort:
			m.errOverlay = &errorOverlayModel{title: "Refused", message: msg.action.String() + " aborted: the local store is empty.\nRestore a backup or sync from the remote first."}
		default:
			m.errOverlay = &errorOverlayModel{message: msg.action.String() + " failed: " + humanizeServerUnavailableError(res.Error)}
		}
		return m, tea.Batch(m.cmdLoad(), m.cmdClearNotice())

	case copiedMsg:
		if msg.err != nil {
			m.errOverlay = &errorOverlayModel{message: msg.err.Error()}
			return m, nil
		}
		m.notice = "Status copied to clipboard"
		return m, m.cmdClearNotice()

	case clearStatusMsg:
		m.notice = ""
		return m, nil

	case spinner.TickMsg:
		if !m.sync.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.sync.spinner, cmd = m.sync.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m dashboardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.quit) && (msg.String() == "ctrl+c" || m.confirm == nil) {
		return m, tea.Quit
	}

	// overlays swallow everything else
	switch {
	case m.errOverlay != nil:
		if key.Matches(msg, keys.esc) || msg.String() == "enter" {
			m.errOverlay = nil
		}
		return m, nil
	case m.confirm != nil:
		action := m.confirm.action
		switch {
		case key.Matches(msg, keys.yes):
			m.confirm = nil
			return m.startRemoteAction(action)
		case key.Matches(msg, keys.no):
			m.confirm = nil
		}
		return m, nil
	case m.showBuildInfo:
		if key.Matches(msg, keys.esc) || key.Matches(msg, keys.buildInfo) {
			m.showBuildInfo = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.sync):
		if m.sync.running {
			return m, nil
		}
		m.sync.running = true
		m.sync.label = "Syncing"
		return m, tea.Batch(m.sync.spinner.Tick, m.cmdForceSync())
	case key.Matches(msg, keys.reset):
		if !m.sync.running {
			m.confirm = &confirmModel{action: actionReset}
		}
	case key.Matches(msg, keys.clearRemote):
		if !m.sync.running {
			m.confirm = &confirmModel{action: actionClearRemote}
		}
	case key.Matches(msg, keys.copy):
		return m, m.cmdCopyStatus()
	case key.Matches(msg, keys.refresh):
		return m, m.cmdLoad()
	case key.Matches(msg, keys.tab):
		m.tab = (m.tab + 1) % tabCount
	case key.Matches(msg, keys.backtab):
		m.tab = (m.tab + tabCount - 1) % tabCount
	case key.Matches(msg, keys.buildInfo):
		m.showBuildInfo = true
	}

	return m, nil
}

func (m dashboardModel) startRemoteAction(action pendingAction) (tea.Model, tea.Cmd) {
	m.sync.running = true
	m.sync.label = action.String()
	return m, tea.Batch(m.sync.spinner.Tick, m.cmdRemoteAction(action))
}

func (m dashboardModel) View() string {
	if m.showBuildInfo {
		return appStyle.Render(renderBuildInfoWindow(m.build))
	}

	var body string
	switch {
	case !m.loaded:
		body = "Loading..."
	case m.tab == tabHistory:
		body = renderHistory(m.history)
	case m.tab == tabBackups:
		body = renderBackups(m.backups)
	default:
		body = renderOverview(m.status)
	}

	footer := dashboardHelp
	if s := m.sync.View(); s != "" {
		footer = s + "\n  " + footer
	} else if m.notice != "" {
		footer = m.notice + "\n  " + footer
	}

	page := renderPage("BUDGET SYNC  "+m.renderTabs(), body, footer)

	switch {
	case m.errOverlay != nil:
		page += "\n\n" + m.errOverlay.View()
	case m.confirm != nil:
		page += "\n\n" + m.confirm.View()
	}
	return appStyle.Render(page)
}

func (m dashboardModel) renderTabs() string {
	parts := make([]string, 0, tabCount)
	for i, title := range tabTitles {
		if dashboardTab(i) == m.tab {
			parts = append(parts, activeTabStyle.Render(title))
			continue
		}
		parts = append(parts, tabStyle.Render(title))
	}
	return strings.Join(parts, " | ")
}

func (m dashboardModel) cmdTick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m dashboardModel) cmdClearNotice() tea.Cmd {
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg { return clearStatusMsg{} })
}

func (m dashboardModel) cmdLoad() tea.Cmd {
	ctx, services := m.ctx, m.services
	return func() tea.Msg {
		msg := snapshotMsg{
			status:  services.Diagnostics.QuickStatus(ctx),
			history: services.Health.History(),
		}
		backups, err := services.Backups.List(ctx)
		if err != nil {
			msg.err = fmt.Errorf("list backups: %w", err)
			return msg
		}
		msg.backups = backups
		return msg
	}
}

func (m dashboardModel) cmdForceSync() tea.Cmd {
	ctx, orchestrator := m.ctx, m.services.Orchestrator
	return func() tea.Msg {
		return syncDoneMsg{result: orchestrator.ForceSync(ctx)}
	}
}

func (m dashboardModel) cmdRemoteAction(action pendingAction) tea.Cmd {
	ctx, diagnostics := m.ctx, m.services.Diagnostics
	return func() tea.Msg {
		var res models.ResetResult
		switch action {
		case actionReset:
			res = diagnostics.ForceReset(ctx)
		case actionClearRemote:
			res = diagnostics.ClearRemote(ctx)
		}
		return resetDoneMsg{action: action, result: res}
	}
}

func (m dashboardModel) cmdCopyStatus() tea.Cmd {
	status := m.status
	return func() tea.Msg {
		body, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return copiedMsg{err: fmt.Errorf("encode status: %w", err)}
		}
		if err := writeClipboard(string(body)); err != nil {
			return copiedMsg{err: fmt.Errorf("copy to clipboard: %w", err)}
		}
		return copiedMsg{}
	}
}

func directionLabel(d models.SyncDirection) string {
	if d == models.DirectionNone {
		return "no changes"
	}
	return string(d)
}
