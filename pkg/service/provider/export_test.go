package provider

var (
	AnthropicMessages = anthropicMessages
	RenderHistory     = renderHistory
)
