package worker

import (
	"github.com/zapfit/messaging-service/internal/service"
)

// StartSideEffectWorker registers the post-ingest side-effect handlers.
func StartSideEffectWorker(sideEffects *service.SideEffectService) {
	if sideEffects == nil {
		return
	}
	sideEffects.RegisterHandlers()
}
