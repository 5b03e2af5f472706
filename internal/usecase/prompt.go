package usecase

import (
	"fmt"
	"strings"
	"time"
)

const noWatchItems = "(no specific watch-items)"

func watchItemList(items []string) string {
	var b strings.Builder
	for _, item := range items {
		if item = strings.TrimSpace(item); item == "" {
			continue
		}
		b.WriteString("- ")
		b.WriteString(item)
		b.WriteByte('\n')
	}
	if b.Len() == 0 {
		return noWatchItems
	}
	return strings.TrimRight(b.String(), "\n")
}

func assessmentPrompt(subject string, items []string, day time.Time, language string) string {
	return fmt.Sprintf(`You are a professional financial analysis assistant. Answer in %s.

Subject: "%s"
Today: %s

Watch-items to pay attention to:
%s

Task: review the most important news about "%s" from the last 24-48 hours and
assess how it affects the subject and the watch-items above.

Respond with a single JSON object and nothing else, with exactly these fields:
{
  "points": ["3 to 5 short bullet points"],
  "sentiment": "POSITIVE" | "NEGATIVE" | "NEUTRAL",
  "summary": "one sentence"
}`, language, subject, day.Format("2006-01-02"), watchItemList(items), subject)
}

func reportPrompt(subject string, items []string, day time.Time, language string) string {
	return fmt.Sprintf(`You are a professional financial analysis assistant. Answer in %s.

Subject: "%s"
Today: %s

Watch-items to pay attention to:
%s

Tasks:
1. Search for the most important news, press releases or financial updates about "%s" from the last 24-48 hours.
2. Summarize the key information concisely.
3. Analyze whether any of the news directly affects or mentions the watch-items above.

Output format (Markdown):
## Daily Summary
[news summary]

## Watch-item Impact
- **[watch-item]**: [impact, or "no related news"]

Sources: [list sources if any]`, language, subject, day.Format("2006-01-02"), watchItemList(items), subject)
}

func overallAnalysisPrompt(subject string, items []string, day time.Time, language string) string {
	return fmt.Sprintf(`You are a senior equity and industry analyst. Answer in %s.

Subject: "%s"
Today: %s

Long-term watch-items:
%s

Write an overall analysis of "%s" covering the business or industry position,
recent developments of the last quarter, the main bull and bear arguments, and
how each watch-item could move the outlook.

Output format (Markdown):
## Overview
## Recent Developments
## Bull Case
## Bear Case
## Watch-item Outlook
- **[watch-item]**: [outlook]`, language, subject, day.Format("2006-01-02"), watchItemList(items), subject)
}
