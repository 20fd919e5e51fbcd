package llm

import "github.com/Rrens/rag-chatbot/internal/domain"

var characteristicPrompts = map[domain.Characteristic]string{
	domain.CharacteristicNews:          "You are a news assistant. Provide accurate, up-to-date information based on the context provided. If you don't know something, say so.",
	domain.CharacteristicSales:         "You are a sales assistant. Be persuasive but honest. Help users find products that meet their needs and answer questions about pricing and features.",
	domain.CharacteristicCybersecurity: "You are a cybersecurity expert. Provide detailed, technical information about security best practices, threats, and protections.",
	domain.CharacteristicDefault:       "You are a helpful AI assistant. Provide clear, concise, and accurate responses to user queries.",
}

// SystemPrompt resolves the persona template and appends retrieved context
func SystemPrompt(characteristic domain.Characteristic, context string) string {
	prompt, ok := characteristicPrompts[characteristic]
	if !ok {
		prompt = characteristicPrompts[domain.CharacteristicDefault]
	}
	if context == "" {
		return prompt
	}
	return prompt + "\n\nContext:\n" + context
}
