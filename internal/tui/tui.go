package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/MKhiriev/envelope-sync/internal/logger"
	"github.com/MKhiriev/envelope-sync/internal/service"
	"github.com/MKhiriev/envelope-sync/models"
)

// DefaultRefreshInterval is how often the dashboard reloads its data.
const DefaultRefreshInterval = 2 * time.Second

// TUI is the interactive watch dashboard of the sync client.
type TUI struct {
	services *service.ClientServices
	build    models.AppBuildInfo
	refresh  time.Duration
	logger   *logger.Logger
}

func New(services *service.ClientServices, build models.AppBuildInfo, logger *logger.Logger) *TUI {
	return &TUI{
		services: services,
		build:    build,
		refresh:  DefaultRefreshInterval,
		logger:   logger,
	}
}

// Watch runs the dashboard until the user quits or ctx is done.
func (t *TUI) Watch(ctx context.Context) error {
	model := newDashboardModel(ctx, t.services, t.build, t.refresh)

	_, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil && ctx.Err() == nil {
		t.logger.Err(err).Str("func", "*TUI.Watch").Msg("dashboard stopped with error")
		return err
	}
	return nil
}
