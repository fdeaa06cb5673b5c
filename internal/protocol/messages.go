package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string            `json:"type"`
	ProtocolVersion string            `json:"protocol_version"`
	ClientName      string            `json:"client_name"`
	Capabilities    HelloCapabilities `json:"capabilities"`
}

type HelloCapabilities struct {
	// MeshFeed subscribes the session to CHUNK messages.
	MeshFeed bool `json:"mesh_feed,omitempty"`
	MaxQueue int  `json:"max_queue,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	SessionID       string      `json:"session_id"`
	WorldParams     WorldParams `json:"world_params"`
}

type WorldParams struct {
	TickRateHz int    `json:"tick_rate_hz"`
	ChunkSize  int    `json:"chunk_size"`
	Grid       [3]int `json:"grid"`
	Seed       int64  `json:"seed"`
}

// Ray is a pick ray in world voxel units.
type Ray struct {
	Origin      [3]float32 `json:"origin"`
	Dir         [3]float32 `json:"dir"`
	MaxDistance float32    `json:"max_distance,omitempty"`
}

// EDIT (client -> server). Exactly one of Pos or Ray names the target. With a
// ray, BREAK hits the picked voxel and PLACE fills the cell in front of the
// picked face.
type EditMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	ID              string  `json:"id"`
	Op              string  `json:"op"`
	Pos             *[3]int `json:"pos,omitempty"`
	Block           uint8   `json:"block,omitempty"`
	Ray             *Ray    `json:"ray,omitempty"`
}

// PICK (client -> server)
type PickMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id"`
	Ray             Ray    `json:"ray"`
}

// RESULT (server -> client), one per EDIT or PICK.
type ResultMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	ID              string  `json:"id"`
	OK              bool    `json:"ok"`
	Code            string  `json:"code,omitempty"`
	Message         string  `json:"message,omitempty"`
	Tick            uint64  `json:"tick"`
	Pos             *[3]int `json:"pos,omitempty"`
	Normal          *[3]int `json:"normal,omitempty"`
	Block           *uint8  `json:"block,omitempty"`
}

// CHUNK (server -> mesh feed subscribers). Voxels and Light are RLE over the
// chunk's raster order; Light carries the packed R,G,B,S nibbles.
type ChunkMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	Tick            uint64  `json:"tick"`
	Index           int     `json:"index"`
	Chunk           [3]int  `json:"chunk"`
	Neighbours      [27]int `json:"neighbours"`
	VoxelsRLE       string  `json:"voxels_rle"`
	LightRLE        string  `json:"light_rle"`
}

func NewResult(id string, tick uint64) ResultMsg {
	return ResultMsg{Type: TypeResult, ProtocolVersion: Version, ID: id, Tick: tick}
}

func (r ResultMsg) Fail(code, msg string) ResultMsg {
	r.OK = false
	r.Code = code
	r.Message = msg
	return r
}
