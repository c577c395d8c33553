package models

// Server status values maintained by the health monitor.
const (
	ServerStatusActive  = "active"
	ServerStatusOffline = "offline"
)

// ChatServer is one registered Ollama backend endpoint.
type ChatServer struct {
	ServerID     int64  `json:"server_id"`
	EndpointURL  string `json:"endpoint_url"`
	EndpointPort int    `json:"endpoint_port"`
	Status       string `json:"status"`
	Token        string `json:"token,omitempty"`
}
