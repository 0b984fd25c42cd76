package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/envelope-sync/internal/logger"
	"github.com/MKhiriev/envelope-sync/models"
)

func TestNewAppInfoService(t *testing.T) {
	svc, err := NewAppInfoService(models.NewAppBuildInfo("1.4.0", "2026-06-01", "abc123"), logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, "1.4.0", svc.GetAppVersion(context.Background()))

	// linker values missing entirely
	svc, err = NewAppInfoService(models.NewAppBuildInfo("", "", ""), logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, "N/A", svc.GetAppVersion(context.Background()))

	svc, err = NewAppInfoService(models.AppBuildInfo{}, logger.Nop())
	assert.Nil(t, svc)
	assert.ErrorIs(t, err, ErrVersionIsNotSpecified)
}
