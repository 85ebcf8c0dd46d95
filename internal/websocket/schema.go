package websocket

// Actions (Client -> Server)

type Action string

const (
	ActionTick     Action = "tick"
	ActionNavigate Action = "navigate"
	ActionPause    Action = "pause"
	ActionResume   Action = "resume"
	ActionSection  Action = "section"
	ActionPing     Action = "ping"
)

// RequestPayload is the single client message shape. Index is the question
// slot for tick/navigate and the section index for section switches.
type RequestPayload struct {
	Action Action `json:"action"`
	Index  int    `json:"index"`
}

// Events (Server -> Client)

type Event string

const (
	EventState Event = "state"
	EventPong  Event = "pong"
	EventError Event = "error"
)

// StateResponse reports the authoritative clock after every action: seconds
// left on the session deadline and on the active section's countdown.
type StateResponse struct {
	Event               Event `json:"event"`
	RemainingSec        int   `json:"remaining_sec"`
	SectionRemainingSec int   `json:"section_remaining_sec"`
	CurrentIndex        int   `json:"current_index"`
	CurrentSectionIndex int   `json:"current_section_index"`
	Paused              bool  `json:"paused"`
}

type PongResponse struct {
	Event Event `json:"event"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}
