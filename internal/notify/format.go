package notify

import (
	"fmt"
	"strconv"
)

// maxBodyLen is the rune limit for quoted message content inside a
// notification body. Longer content is cut and suffixed with an ellipsis.
const maxBodyLen = 100

// Format renders the deterministic title/body pair for an event.
// Both delivery channels (the in-app record and the external push) use the
// same output, so the template table lives here and nowhere else.
func Format(event Event) (title, body string) {
	switch e := event.(type) {
	case MessageSent:
		title = "New Message"
		body = fmt.Sprintf(
			"👤 From: %s\n📝 Message: %s\n\nReply in your messages section.",
			e.SenderName, truncate(e.Message.Content),
		)

	case ApplicationStatusChanged:
		title = applicationStatusEmoji(e.Status) + " Application Update"
		body = fmt.Sprintf(
			"📝 Deal: %s\n🏢 Brand: %s\n📊 Status: %s\n\nView details in your dashboard.",
			e.DealTitle, e.BrandName, e.Status,
		)

	case PaymentStatusChanged:
		typeEmoji := "💰"
		if e.Type == "DEPOSIT" {
			typeEmoji = "💳"
		}
		tail := "Processing your payment..."
		if e.Status == "COMPLETED" {
			tail = "Payment processed successfully!"
		}
		title = fmt.Sprintf("%s Payment %s", typeEmoji, e.Type)
		body = fmt.Sprintf(
			"💵 Amount: $%s\n📊 Status: %s\n\n%s",
			formatAmount(e.Amount), e.Status, tail,
		)

	case DealPosted:
		title = "New Deal Available"
		body = fmt.Sprintf(
			"📝 %s\n🏢 Brand: %s\n💰 Budget: $%s\n\nCheck it out in your dashboard!",
			e.DealTitle, e.BrandName, formatAmount(e.Budget),
		)
	}

	return title, body
}

func applicationStatusEmoji(status string) string {
	switch status {
	case "APPROVED":
		return "✅"
	case "REJECTED":
		return "❌"
	case "IN_PROGRESS":
		return "🚀"
	case "COMPLETED":
		return "🎉"
	default:
		return "📝"
	}
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}

func truncate(content string) string {
	runes := []rune(content)
	if len(runes) <= maxBodyLen {
		return content
	}
	return string(runes[:maxBodyLen]) + "..."
}
