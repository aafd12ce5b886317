package adapter

import "fmt"

const systemPrompt = `You are a helpful financial assistant. Your task is to answer the user's question based *only* on the provided 'Context'. Do not use any external knowledge or information you might have. If the context does not contain the information needed to answer the question, state clearly that the information is not available in the provided knowledge base. Keep your answer concise and directly address the user's question.`

// BuildPrompt returns the system and user messages for one question
func BuildPrompt(contextText, query string) (string, string) {
	userMsg := fmt.Sprintf(`Context:
---
%s
---

User Question: %s

Answer:`, contextText, query)
	return systemPrompt, userMsg
}
