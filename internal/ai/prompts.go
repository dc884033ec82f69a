package ai

import (
	"fmt"
	"strings"
)

func summaryPrompt(sender, subject, body string) string {
	return fmt.Sprintf(`Summarize the following email in 2-3 sentences. Be concise and highlight the key points.

From: %s
Subject: %s
Body: %s

Summary:`, sender, subject, body)
}

func replyPrompt(sender, subject, body string) string {
	return fmt.Sprintf(`Generate a professional and contextually appropriate email reply. The reply should be:
- Professional and courteous
- Contextually aware of the original email
- Ready to send (complete and well-formatted)
- Appropriate in tone

Original Email:
From: %s
Subject: %s
Body: %s

Generate a professional reply:`, sender, subject, body)
}

func digestPrompt(emails []DigestEmail) string {
	var entries []string
	for _, e := range emails {
		entries = append(entries, fmt.Sprintf("From: %s\nSubject: %s\n%s", e.Sender, e.Subject, e.Summary))
	}

	return fmt.Sprintf(`Create a daily email digest summarizing the key emails and suggesting actions or follow-ups.

Emails:
%s

Generate a concise daily digest with:
1. Key emails summary
2. Suggested actions or follow-ups

Digest:`, strings.Join(entries, "\n\n"))
}

func categorizePrompt(emails []DigestEmail) string {
	var entries []string
	for i, e := range emails {
		entries = append(entries, fmt.Sprintf("%d. From: %s\n   Subject: %s\n   Summary: %s", i+1, e.Sender, e.Subject, e.Summary))
	}

	return fmt.Sprintf(`Categorize the following emails into groups: Work, Promotions, Personal, Urgent, or Other.
Return JSON with categories as keys and arrays of email numbers (1-indexed) as values.

Emails:
%s

Return only valid JSON:`, strings.Join(entries, "\n\n"))
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
