package ws

import (
	"context"
	"net/http"

	"github.com/jdy4236/mask/internal/auth"
	"github.com/jdy4236/mask/pkg/logger"
	"github.com/jdy4236/mask/service"
)

type WSConfig struct {
	ChatService service.ChatService
	Verifier    *auth.Verifier
	RootCtx     context.Context
}

func SetupWebSocketRoutes(cfg WSConfig) http.Handler {
	mux := http.NewServeMux()
	log := logger.FromContext(cfg.RootCtx).WithModule("websocket")
	mux.HandleFunc("/ws", HandleWebSocket(cfg, log))
	return mux
}
