package memory

// Entry is one prior message in a conversation, most-recent-last when
// returned in a history slice.
type Entry struct {
	Role     string         `json:"role"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// SimilarConversation is a semantic-search hit against past conversations.
type SimilarConversation struct {
	ID         string            `json:"id"`
	Similarity float64           `json:"similarity"`
	Metadata   map[string]string `json:"metadata"`
}

// UserPatterns summarizes cross-session behavior for a user.
type UserPatterns struct {
	TotalSessions        int      `json:"total_sessions"`
	EmotionalProgression []string `json:"emotional_progression"`
}

// RelationshipContext describes how established the relationship with a
// user is, derived from the relation graph.
type RelationshipContext struct {
	Connections          int      `json:"connections"`
	RelationshipStrength float64  `json:"relationship_strength"`
	ConnectionTypes      []string `json:"connection_types,omitempty"`
}

// SemanticContext carries vector-recall results for the current message.
type SemanticContext struct {
	SimilarConversations []SimilarConversation `json:"similar_conversations"`
	ContextStrength      float64               `json:"context_strength"`
}

// EnhancedContext is the full memory context handed to the orchestrator.
// Every field may be empty: collaborators degrade, they never fail the turn.
type EnhancedContext struct {
	RecentHistory []Entry             `json:"recent_history"`
	UserPatterns  UserPatterns        `json:"user_patterns"`
	Semantic      SemanticContext     `json:"semantic_context"`
	Relationship  RelationshipContext `json:"relationship_context"`
}
