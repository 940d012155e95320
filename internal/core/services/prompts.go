package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/atlas-core/internal/core/domain"
)

const databaseSystemPrompt = `You are an archaeology assistant for an interactive map of archaeological sites.
Answer the question using only the listed sites. Do not mention sites that are not listed.
Refer to sites by the exact names given. If none of the listed sites answer the question, say so plainly.
Keep the answer under 200 words.`

const knowledgeSystemPrompt = `You are an archaeology assistant. Answer questions about archaeology,
ancient history and cultural heritage clearly and concisely, in under 200 words.`

const groundedInstruction = `Base your answer on the search results below and prefer them over prior knowledge.`

const ungroundedInstruction = `No reference material is available. Only answer if you are confident the answer is correct; otherwise say that you do not know.`

const resolverSystemPrompt = `You identify which archaeological site a follow-up question refers to.
Reply with the site name only. If the question does not refer to a specific site from the previous answer, reply NO_REFERENCE.`

// Fallback texts streamed when generation is unavailable
const (
	apologyAnswer   = "Sorry, I couldn't process that right now. Please try again in a moment."
	noResultsAnswer = "I couldn't find any sites matching that question. Try a broader place, period or site type."
)

func databasePrompt(query string, block ContextBlock) string {
	var sb strings.Builder
	sb.WriteString("Sites:\n\n")
	sb.WriteString(block.Text)
	sb.WriteString("\nQuestion: ")
	sb.WriteString(query)
	return sb.String()
}

func knowledgePrompt(query string, history []domain.ChatMessage) string {
	var sb strings.Builder
	if turns := recentHistory(history, 4); turns != "" {
		sb.WriteString("Conversation so far:\n")
		sb.WriteString(turns)
		sb.WriteString("\n")
	}
	sb.WriteString("Question: ")
	sb.WriteString(query)
	return sb.String()
}

func groundedPrompt(query string, block ContextBlock) string {
	var sb strings.Builder
	sb.WriteString("Search results:\n\n")
	sb.WriteString(block.Text)
	sb.WriteString("Question: ")
	sb.WriteString(query)
	return sb.String()
}

func resolverPrompt(query, lastAnswer string) string {
	return fmt.Sprintf("Previous answer:\n%s\n\nFollow-up question: %s\n\nSite name:", truncateRunes(lastAnswer, 1500), query)
}

func recentHistory(history []domain.ChatMessage, n int) string {
	if len(history) > n {
		history = history[len(history)-n:]
	}
	var sb strings.Builder
	for _, m := range history {
		if m.Role != domain.RoleUser && m.Role != domain.RoleAssistant {
			continue
		}
		fmt.Fprintf(&sb, "%s: %s\n", m.Role, truncateRunes(m.Content, 500))
	}
	return sb.String()
}

// templateAnswer describes search results without a generation backend
func templateAnswer(sites []*domain.Site, superlative bool) string {
	if len(sites) == 0 {
		return noResultsAnswer
	}
	n := len(sites)
	if superlative && n > domain.SuperlativeHighlightLimit {
		n = domain.SuperlativeHighlightLimit
	}
	names := make([]string, 0, n)
	for _, s := range sites[:n] {
		names = append(names, s.Name)
	}
	noun := "sites"
	if len(sites) == 1 {
		noun = "site"
	}
	return fmt.Sprintf("I found %d matching %s, including %s. They are highlighted on the map.",
		len(sites), noun, strings.Join(names, ", "))
}
