package assistant

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the assistant conversation
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content" validate:"required"`
	Role      Role      `json:"role" validate:"required,oneof=user assistant"`
	Timestamp time.Time `json:"timestamp"`
}

const welcomeText = "Welcome to TerranoCoder! I'm your AI coding assistant powered by DeepSeek. How can I help you write better code today?"

// ApologyText is what every client surface shows when a completion fails
const ApologyText = "Sorry, I encountered an error. Please try again."
