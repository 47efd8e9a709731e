package domain

// ActionRequest is something the host must do on the engine's behalf, such as
// speaking a prompt to the candidate.
type ActionRequest struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Standard Action Types
const (
	// ActionRenderPrompt requests the host to speak or display a stage prompt.
	// Payload: PromptPayload
	ActionRenderPrompt = "RENDER_PROMPT"

	// ActionRequestInput requests the host to collect the candidate's reply.
	// Payload: InputRequest
	ActionRequestInput = "REQUEST_INPUT"

	// ActionSystemMessage represents a meta-message from the system (re-prompt notice, status).
	// Payload: string
	ActionSystemMessage = "SYSTEM_MESSAGE"
)

// PromptPayload carries a rendered prompt.
type PromptPayload struct {
	Stage    StageID `json:"stage"`
	Text     string  `json:"text"`
	Terminal bool    `json:"terminal,omitempty"`
}

// InputRequest describes the reply the host should collect.
type InputRequest struct {
	Stage   StageID `json:"stage"`
	Expects Shape   `json:"expects"`
	Attempt int     `json:"attempt"`
}
