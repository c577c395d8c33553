package fileai

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Per-kind content ceilings, characters of document text embedded before
// truncation.
const (
	questionLimit    = 15000
	withContextLimit = 12000
	summaryLimit     = 18000
	analysisLimit    = 18000
)

const truncationMarker = "\n\n[Content truncated due to length...]"

// truncate cuts the document content at the limit, backing up to a rune
// boundary, and marks the cut.
func truncate(content string, limit int) string {
	if len(content) <= limit {
		return content
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut] + truncationMarker
}

// questionPrompt embeds the document and asks the user's question against it.
func questionPrompt(content, question, fileName string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "I have uploaded a file named %q with the following content:\n\n", fileName)
	sb.WriteString("--- FILE CONTENT START ---\n")
	sb.WriteString(truncate(content, questionLimit))
	sb.WriteString("\n--- FILE CONTENT END ---\n\n")
	sb.WriteString("Based on this file content, please answer the following question:\n")
	sb.WriteString(question)
	sb.WriteString("\n\nPlease provide a detailed and accurate response based on the file content. ")
	sb.WriteString("If the question cannot be answered from the file content, please mention that clearly.")
	return sb.String()
}

// questionWithContextPrompt prepends prior conversation context before the
// document and question.
func questionWithContextPrompt(content, question, conversationContext, fileName string) string {
	var sb strings.Builder
	if strings.TrimSpace(conversationContext) != "" {
		sb.WriteString("Previous conversation context:\n")
		sb.WriteString(conversationContext)
		sb.WriteString("\n\n")
	}
	fmt.Fprintf(&sb, "I have uploaded a file named %q with the following content:\n\n", fileName)
	sb.WriteString("--- FILE CONTENT START ---\n")
	sb.WriteString(truncate(content, withContextLimit))
	sb.WriteString("\n--- FILE CONTENT END ---\n\n")
	sb.WriteString("Based on both the previous conversation and this file content, please answer:\n")
	sb.WriteString(question)
	return sb.String()
}

// summaryPrompt asks for a structured summary of the document.
func summaryPrompt(content, fileName string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Please provide a comprehensive summary of the following document %q:\n\n", fileName)
	sb.WriteString("--- DOCUMENT CONTENT ---\n")
	sb.WriteString(truncate(content, summaryLimit))
	sb.WriteString("\n--- END DOCUMENT CONTENT ---\n\n")
	sb.WriteString("Please provide:\n")
	sb.WriteString("1. A brief overview of the document\n")
	sb.WriteString("2. Key points and main topics covered\n")
	sb.WriteString("3. Important conclusions or findings (if any)\n")
	sb.WriteString("4. Any notable structure or organization\n\n")
	sb.WriteString("Keep the summary clear, concise, and well-organized.")
	return sb.String()
}

// analysisPrompt asks for a structural analysis of the document.
func analysisPrompt(content, fileName, contentType string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Please perform a detailed analysis of the following document %q (%s):\n\n", fileName, contentType)
	sb.WriteString("--- DOCUMENT CONTENT ---\n")
	sb.WriteString(truncate(content, analysisLimit))
	sb.WriteString("\n--- END DOCUMENT CONTENT ---\n\n")
	sb.WriteString("Please provide an analysis including:\n")
	sb.WriteString("1. Document type and purpose\n")
	sb.WriteString("2. Content structure and organization\n")
	sb.WriteString("3. Key themes and topics\n")
	sb.WriteString("4. Writing style and tone\n")
	sb.WriteString("5. Any data, statistics, or evidence presented\n")
	sb.WriteString("6. Main arguments or conclusions\n")
	sb.WriteString("7. Target audience (if apparent)\n\n")
	sb.WriteString("Be thorough but concise in your analysis.")
	return sb.String()
}
