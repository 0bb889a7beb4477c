package dialog

// stagePrompts maps each stage to its conversational guidance template.
var stagePrompts = map[Stage]string{
	StageInitial:               "Welcome! I'm Solace, your adaptive companion. How are you feeling today?",
	StageGreeting:              "Hello! It's nice to meet you. I'm here to provide support and companionship.",
	StagePersonalityAssessment: "I'd like to get to know you better. What kind of things do you enjoy talking about?",
	StageMoodCheck:             "How has your day been so far? I'm here to listen.",
	StageCrisisIntervention:    "I can hear that you're going through a really difficult time right now. Your safety and wellbeing are important to me. Can you tell me more about how you're feeling?",
	StageCompanion:             "I'm glad we can chat together. What's on your mind today?",
	StageCoaching:              "Let's work together on your goals. What would you like to focus on?",
	StageAssessment:            "I'd like to understand better how you've been feeling lately. Can you share more about your experiences?",
	StageClosure:               "Thank you for sharing with me today. Remember, I'm always here when you need support.",
	StageFollowUp:              "How are you feeling after our conversation? Is there anything else I can help you with?",
}

// PromptHint returns the guidance template for a stage. The therapeutic
// stage branches internally on mood and anxiety thresholds rather than
// exposing separate graph nodes.
func PromptHint(stage Stage, state *TurnState) string {
	if stage == StageTherapeutic {
		return therapeuticHint(state)
	}
	if p, ok := stagePrompts[stage]; ok {
		return p
	}
	return "How can I help you today?"
}

func therapeuticHint(state *TurnState) string {
	mood := state.Assessment.MoodScore
	anxiety := state.Assessment.AnxietyLevel
	switch {
	case mood < 3.0:
		return "I can sense you're going through a really tough time. Depression can feel overwhelming, but you don't have to face this alone. What's been weighing on you most heavily?"
	case anxiety > 8.0:
		return "It sounds like you're experiencing a lot of anxiety right now. Let's try to work through this together. Can you tell me what's making you feel most anxious?"
	case mood < 5.0:
		return "I notice you might be feeling down today. It's okay to have difficult days. What's been on your mind?"
	default:
		return "I'm here to support you. What would be most helpful for you right now?"
	}
}
