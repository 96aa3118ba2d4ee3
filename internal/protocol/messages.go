package protocol

// EntitySummary is the flat broadcast projection of one entity: the common
// fields every Thing declares plus whatever type-specific fields the entity
// adds (hunger, state, value, ...). Removed entities carry "removed": true.
type EntitySummary map[string]any

// HELLO (client -> server)
type HelloMsg struct {
	Type            string            `json:"type"`
	ProtocolVersion string            `json:"protocol_version"`
	Username        string            `json:"username,omitempty"`
	Capabilities    HelloCapabilities `json:"capabilities,omitempty"`
}

type HelloCapabilities struct {
	MaxQueue int `json:"max_queue,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	Username        string      `json:"username"`
	Money           float64     `json:"money"`
	WorldParams     WorldParams `json:"world_params"`
}

type WorldParams struct {
	WorldID     string  `json:"world_id"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	TickMs      int     `json:"tick_ms"`
	FullSyncMs  int     `json:"full_sync_ms"`
}

// CMD (client -> server): one player intent. Verbs: tap, pickup, use,
// contribute, store, resync. The acting username is taken from the session,
// never from the payload.
type CmdMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	Verb            string  `json:"verb"`
	X               float64 `json:"x,omitempty"`
	Y               float64 `json:"y,omitempty"`
	TargetID        string  `json:"target_id,omitempty"`
	Tool            string  `json:"tool,omitempty"`
	ItemID          string  `json:"item_id,omitempty"`
	Amount          float64 `json:"amount,omitempty"`
}

// SYNC (server -> client): full world state.
type SyncMsg struct {
	Type       string          `json:"type"`
	UpdateTime int64           `json:"update_time"` // ms since epoch
	Width      float64         `json:"width"`
	Height     float64         `json:"height"`
	Objects    []EntitySummary `json:"objects"`
}

// UPDATE (server -> client): one changed (or removed) entity.
type UpdateMsg struct {
	Type   string        `json:"type"`
	Object EntitySummary `json:"object"`
}

// USER_UPDATE (server -> client): a balance changed.
type UserUpdateMsg struct {
	Type     string  `json:"type"`
	Username string  `json:"username"`
	Money    float64 `json:"money"`
}

// STORE (server -> client): current listings, fully funded items omitted.
type StoreMsg struct {
	Type  string             `json:"type"`
	Items []StoreItemSummary `json:"items"`
}

type StoreItemSummary struct {
	Label       string  `json:"label"`
	Name        string  `json:"name"`
	Image       string  `json:"image,omitempty"`
	Price       float64 `json:"price"`
	MoneyRaised float64 `json:"money_raised"`
	Stock       int     `json:"stock"`
}

// ACK (server -> client): outcome of a rejected or charged command.
type AckMsg struct {
	Type     string `json:"type"`
	AckFor   string `json:"ack_for"`
	Accepted bool   `json:"accepted"`
	Code     string `json:"code,omitempty"`
	Message  string `json:"message,omitempty"`
}
