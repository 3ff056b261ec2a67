package llm

// Role says who authored a conversation entry.
type Role string

const (
	// RoleInstruction carries system guidance for the model.
	RoleInstruction Role = "instruction"
	// RoleQuery carries the user's question.
	RoleQuery Role = "query"
	// RoleAssistant carries an earlier model answer.
	RoleAssistant Role = "assistant"
)

// Message is one entry of a Conversation.
type Message struct {
	Role    Role
	Content string
}

// Conversation is the ordered list of entries sent to a model. For a
// diagnosis it always holds the instruction followed by the query.
type Conversation []Message

// NewConversation builds the two-entry instruction+query conversation.
func NewConversation(instruction, query string) Conversation {
	return Conversation{
		{Role: RoleInstruction, Content: instruction},
		{Role: RoleQuery, Content: query},
	}
}

// chatMessage is the OpenAI-compatible message shape shared by the hosted
// and local adapters.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// wireRole maps a Role onto the chat-completion role vocabulary. Anything
// unrecognised is sent as a user message.
func wireRole(r Role) string {
	switch r {
	case RoleInstruction:
		return "system"
	case RoleAssistant:
		return "assistant"
	default:
		return "user"
	}
}

// toChatMessages translates conv entry by entry; the result always has the
// same length and order as conv.
func toChatMessages(conv Conversation) []chatMessage {
	out := make([]chatMessage, len(conv))
	for i, m := range conv {
		out[i] = chatMessage{Role: wireRole(m.Role), Content: m.Content}
	}
	return out
}
