package feed

// Action is the verb of a client control frame.
type Action string

const (
	ActionSubscribe   Action = "subscribe"
	ActionUnsubscribe Action = "unsubscribe"
	ActionPing        Action = "ping"
)

// ControlFrame is sent by clients to change their subscriptions.
type ControlFrame struct {
	Action Action `json:"action"`
	Topic  string `json:"topic,omitempty"`
}

// Reply types sent by the server outside any topic sequence.
const (
	ReplyWelcome      = "WELCOME"
	ReplySubscribed   = "SUBSCRIBED"
	ReplyUnsubscribed = "UNSUBSCRIBED"
	ReplyPong         = "PONG"
	ReplyError        = "ERROR"
)

// Reply is a control-plane frame addressed to a single connection.
type Reply struct {
	Type         string  `json:"type"`
	ConnectionID string  `json:"connectionId,omitempty"`
	Action       Action  `json:"action,omitempty"`
	Topic        string  `json:"topic,omitempty"`
	Topics       []Topic `json:"topics,omitempty"`
	Error        string  `json:"error,omitempty"`
}
