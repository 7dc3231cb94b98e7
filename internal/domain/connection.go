package domain

import "time"

// ConnectionStatus enumerates lifecycle states for a messaging channel.
type ConnectionStatus string

const (
	ConnectionStatusDisconnected ConnectionStatus = "DISCONNECTED"
	ConnectionStatusPairing      ConnectionStatus = "PAIRING"
	ConnectionStatusConnecting   ConnectionStatus = "CONNECTING"
	ConnectionStatusConnected    ConnectionStatus = "CONNECTED"
)

// Connection identifies a tenant messaging channel toward one upstream provider.
// A connection carries either hub credentials (InstanceID + APIToken) or official
// Cloud API credentials (AccessToken + PhoneNumberID); the send path branches on
// whichever is present.
type Connection struct {
	ID               string
	CompanyID        string
	Name             string
	Status           ConnectionStatus
	InstanceID       *string
	LegacyInstanceID *string
	DefaultQueueID   *string
	IsDefault        bool
	AccessToken      *string
	PhoneNumberID    *string
	WabaID           *string
	APIToken         *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasHubCredentials reports whether the connection can send through the hub gateway.
func (c *Connection) HasHubCredentials() bool {
	return c.InstanceID != nil && *c.InstanceID != ""
}

// HasCloudCredentials reports whether the connection can send through the official Cloud API.
func (c *Connection) HasCloudCredentials() bool {
	return c.AccessToken != nil && *c.AccessToken != "" &&
		c.PhoneNumberID != nil && *c.PhoneNumberID != ""
}
