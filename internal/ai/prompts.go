package ai

import "strings"

// framing is shared by every task prompt.
const framing = `You are reading an article, web page or video transcript. Disregard anything that is not part of the main content:
- notices that JavaScript is disabled or required
- cookie banners and privacy notices
- navigation menus, headers, footers and sidebars
- advertisements and promotional copy
- social sharing buttons and embedded widgets
- newsletter or subscription prompts
- breadcrumbs and menu entries
- copyright lines and legal disclaimers
- comment threads
- boilerplate repeated on every page

Output rules:
1. Plain text only. Do not use markdown: no # headings, no * or _ emphasis, no [links](...), no lists.
2. No conversational framing. Do not greet, offer help, refer to yourself, or describe what you are doing. Begin directly with the answer.`

const shortSummaryTask = `Task: write a short summary of the content in at most 200 characters (two or three sentences). State the core message only.`

const extendedSummaryTask = `Task: write a thorough summary of the content in 5 to 10 sentences. Cover the main ideas, key points and conclusions.`

const tagsTask = `Task: list up to 10 tags describing the main topics of the content.
Return only a comma-separated list. Each tag is a single word or a short phrase of at most three words. Prefer specific topics over generic ones.`

// ShortSummaryPrompt builds the prompt for the short summary.
func ShortSummaryPrompt(content string) string {
	return buildPrompt(shortSummaryTask, content)
}

// ExtendedSummaryPrompt builds the prompt for the extended summary.
func ExtendedSummaryPrompt(content string) string {
	return buildPrompt(extendedSummaryTask, content)
}

// TagsPrompt builds the prompt for tag extraction.
func TagsPrompt(content string) string {
	return buildPrompt(tagsTask, content)
}

func buildPrompt(task, content string) string {
	var sb strings.Builder
	sb.Grow(len(framing) + len(task) + len(content) + 16)
	sb.WriteString(framing)
	sb.WriteString("\n\n")
	sb.WriteString(task)
	sb.WriteString("\n\nContent:\n")
	sb.WriteString(content)
	return sb.String()
}
