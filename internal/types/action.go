package types

// Entity is an entity extracted from the latest user message
type Entity struct {
	Entity string `json:"entity"`
	Value  any    `json:"value"`
	Start  int    `json:"start,omitempty"`
	End    int    `json:"end,omitempty"`
}

// Intent is the classified intent of the latest user message
type Intent struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// Message is the latest user message as seen by the dialogue framework
type Message struct {
	Text     string   `json:"text"`
	Intent   Intent   `json:"intent"`
	Entities []Entity `json:"entities"`
}

// Tracker is the conversation state the dialogue framework sends with every action call
type Tracker struct {
	SenderID      string         `json:"sender_id"`
	Slots         map[string]any `json:"slots"`
	LatestMessage Message        `json:"latest_message"`
	ActiveLoop    map[string]any `json:"active_loop,omitempty"`
}

// ActionRequest is the body of a webhook call
type ActionRequest struct {
	NextAction string         `json:"next_action" binding:"required"`
	SenderID   string         `json:"sender_id"`
	Tracker    Tracker        `json:"tracker"`
	Domain     map[string]any `json:"domain,omitempty"`
	Version    string         `json:"version,omitempty"`
}

// Event is a conversation event returned by an action. Only slot events are produced.
type Event struct {
	Event string `json:"event"`
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// SlotSet builds a slot event. A nil value resets the slot.
func SlotSet(name string, value any) Event {
	return Event{Event: "slot", Name: name, Value: value}
}

// BotMessage is a text reply sent back to the user
type BotMessage struct {
	Text string `json:"text"`
}

// ActionResponse is the body returned from a webhook call
type ActionResponse struct {
	Events    []Event      `json:"events"`
	Responses []BotMessage `json:"responses"`
}

// ActionError is returned when the action cannot run at all
type ActionError struct {
	Error      string `json:"error"`
	ActionName string `json:"action_name"`
}

// ActionInfo describes a registered action
type ActionInfo struct {
	Name string `json:"name"`
}

// LookupResponse is the body of the direct lookup endpoints
type LookupResponse struct {
	Text string `json:"text"`
}
