package ws

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	gws "github.com/gorilla/websocket"

	"github.com/jdy4236/mask/internal/websocket"
	"github.com/jdy4236/mask/pkg/logger"
)

var upgrader = gws.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for testing; restrict in production.
	},
}

// HandleWebSocket upgrades the connection, verifies the bearer token from
// the handshake query, and starts the session pumps. Verification happens
// once, before any room command is read; a failed check closes the socket
// with an unauthorized close frame and no session state is created.
func HandleWebSocket(cfg WSConfig, logg logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already written the HTTP error response.
			logg.Errorf("upgrade error: %v", err)
			return
		}

		token := r.URL.Query().Get("token")
		principal, err := cfg.Verifier.Verify(r.Context(), token)
		if err != nil {
			logg.Warnf("unauthorized connection attempt from %s", conn.RemoteAddr())
			_ = conn.WriteControl(gws.CloseMessage,
				gws.FormatCloseMessage(gws.ClosePolicyViolation, "unauthorized"),
				time.Now().Add(time.Second))
			conn.Close()
			return
		}

		client := websocket.NewConnection(cfg.RootCtx, conn, uuid.NewString(), principal, cfg.ChatService, logg)
		if err := cfg.ChatService.Connect(client); err != nil {
			logg.Errorf("failed to register session: %v", err)
			conn.Close()
			return
		}

		logg.Infof("new connection from %s (user=%s)", conn.RemoteAddr(), principal.Nickname)
		go client.ReadPump()
		go client.WritePump()
	}
}
