package domain

import "fmt"

// Role is the author of a conversation turn.
type Role string

// Conversation roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid returns true if the role is recognised.
func (r Role) IsValid() bool {
	return r == RoleSystem || r == RoleUser || r == RoleAssistant
}

// Turn is one message of a caller-held conversation. The core never persists turns.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ValidateHistory rejects turns with unknown roles.
func ValidateHistory(history []Turn) error {
	for i, t := range history {
		if !t.Role.IsValid() {
			return fmt.Errorf("%w: turn %d has unknown role %q", ErrInvalidInput, i, t.Role)
		}
	}
	return nil
}

// UnknownDocument is the provenance name used when a chunk's document cannot be resolved.
const UnknownDocument = "unknown"

// Source is the provenance of one chunk used to answer a query.
type Source struct {
	ChunkID      string        `json:"chunkId"`
	DocumentID   string        `json:"documentId,omitempty"`
	DocumentName string        `json:"documentName"`
	URL          string        `json:"url,omitempty"`
	Text         string        `json:"text"`
	Score        float64       `json:"score"`
	Metadata     ChunkMetadata `json:"metadata"`
}

// Answer is a generated response and the sources it was conditioned on.
type Answer struct {
	Query    string
	Response string
	Sources  []Source
	Mode     RetrievalMode
}
