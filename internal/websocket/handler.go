package websocket

import (
	"log/slog"
	"net/http"
	"strings"

	ws "github.com/coder/websocket"
)

// HandleWebSocket upgrades the request and runs it as a Hub client. The
// optional "entities" query parameter is a comma-separated subscription list.
// originPatterns restricts cross-origin upgrades; nil allows same-origin only.
func HandleWebSocket(hub *Hub, originPatterns []string, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}

		client := NewClient(hub, conn, parseEntities(r.URL.Query().Get("entities")))
		client.Run(r.Context())
	}
}

func parseEntities(raw string) []string {
	var entities []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			entities = append(entities, part)
		}
	}
	return entities
}
