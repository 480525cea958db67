package chat

import (
	"fmt"

	"innerlog/internal/domain"
)

// Keyword cues mirror the original empathetic fallback: a direct reaction to
// what the user just said beats a canned open-ended prompt.
var keywordCues = []struct {
	keywords []string
	response string
}{
	{
		keywords: []string{"sad", "depressed", "down", "unhappy"},
		response: "I hear that you're feeling down. What's been on your mind lately?",
	},
	{
		keywords: []string{"happy", "excited", "good", "great"},
		response: "That's wonderful! What's contributing to your positive mood?",
	},
	{
		keywords: []string{"stress", "anxious", "worried", "nervous"},
		response: "Stress can be really challenging. Can you tell me more about what's causing you concern?",
	},
	{
		keywords: []string{"work", "job", "career"},
		response: "Work can be a significant part of our lives. How are things going for you professionally?",
	},
	{
		keywords: []string{"relationship", "friend", "family"},
		response: "Relationships are so important. What's happening in your relationships right now?",
	},
}

var promptBanks = map[domain.ConversationType][]string{
	domain.ConversationGeneral: {
		"I'm here to listen and support you. What would you like to talk about today?",
		"How has your week been so far?",
		"Is there anything you're looking forward to?",
		"What's been the highlight of your day?",
		"What would feel like a small win for you right now?",
	},
	domain.ConversationSocratic: {
		"What do you think is really at the heart of this for you?",
		"If a close friend described this same situation, what would you notice about it?",
		"What assumption are you making here that might be worth questioning?",
		"When have you felt this way before, and what was different then?",
		"What would it mean for you if the opposite were true?",
	},
	domain.ConversationCBT: {
		"What thought went through your mind right before that feeling showed up?",
		"What evidence do you have for that thought, and what evidence goes against it?",
		"Is there a more balanced way to look at this situation?",
		"If the worst case happened, how would you cope with it?",
		"How would you rate how strongly you believe that thought, from 0 to 100?",
	},
}

var themeBanks = map[string][]string{
	"work":          {"What part of your work feels most within your control right now?"},
	"relationships": {"What do you need from the people close to you at the moment?"},
	"stress":        {"Where do you feel that stress in your body when it shows up?"},
	"sleep":         {"What does your wind-down routine look like on a typical evening?"},
}

var openingMessages = map[domain.ConversationType]string{
	domain.ConversationSocratic: "I'd like to explore this topic with you through some thoughtful questions. What's your initial thought about this?",
	domain.ConversationCBT:      "Let's take a moment to examine your thoughts and feelings about this. What's going through your mind right now?",
	domain.ConversationGeneral:  "I'm here to listen and support you. What would you like to talk about today?",
}

// OpeningMessage returns the scripted first line for a new session,
// prefixed with the theme when one was chosen.
func OpeningMessage(convType domain.ConversationType, theme string) string {
	opening, ok := openingMessages[convType]
	if !ok {
		opening = openingMessages[domain.ConversationGeneral]
	}
	if theme != "" {
		return fmt.Sprintf("Let's focus on %s. %s", theme, opening)
	}
	return opening
}

// ConversationTypes is the catalog exposed by the gateway.
func ConversationTypes() []map[string]string {
	return []map[string]string{
		{"type": "general", "description": "General supportive conversation", "best_for": "Daily check-ins and general support"},
		{"type": "socratic", "description": "Socratic dialogue with thoughtful questions", "best_for": "Deep reflection and self-discovery"},
		{"type": "cbt", "description": "Cognitive Behavioral Therapy style", "best_for": "Identifying thought patterns and cognitive distortions"},
	}
}

// ConversationThemes is the catalog of suggested session themes.
func ConversationThemes() []string {
	return []string{
		"personal growth",
		"relationships",
		"work and career",
		"stress and anxiety",
		"self-esteem",
		"goals and motivation",
		"emotional awareness",
		"mindfulness",
		"life transitions",
		"creativity",
		"health and wellness",
		"social connections",
	}
}
