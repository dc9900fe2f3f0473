package driven

// PromptStore provides access to LLM prompt templates.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptRAGSystem is the system prompt for retrieval-augmented answers.
	// The template expects one %s placeholder for the retrieved context.
	PromptRAGSystem = "rag_system"

	// PromptChatSystem is the system prompt for caller-supplied context chat.
	// The template expects one %s placeholder for the context.
	PromptChatSystem = "chat_system"
)
