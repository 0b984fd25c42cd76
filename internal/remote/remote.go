package remote

import (
	"context"
	"fmt"

	"github.com/MKhiriev/envelope-sync/internal/config"
	"github.com/MKhiriev/envelope-sync/internal/logger"
)

// NewDocumentStore builds the client-side backend selected by
// remoteCfg.Backend.
func NewDocumentStore(ctx context.Context, remoteCfg config.ClientRemote, log *logger.Logger) (DocumentStore, error) {
	switch remoteCfg.Backend {
	case config.BackendMemory, "":
		log.Warn().Str("func", "NewDocumentStore").Msg("using in-memory remote store; documents are lost on exit")
		return NewMemoryStore(), nil
	case config.BackendHTTP:
		return NewHTTPStore(remoteCfg, log)
	case config.BackendS3:
		return NewS3Store(ctx, remoteCfg.S3)
	}
	return nil, fmt.Errorf("%w: unknown remote backend %q", config.ErrInvalidRemoteConfigs, remoteCfg.Backend)
}
