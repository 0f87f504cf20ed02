package checkout

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/happyfeet/storefront/internal/models"
)

const (
	messageHeader    = "*New Order - Happy Happy Feet*"
	messageSeparator = "------------------------------"
	messagePrompt    = "Please confirm my order. Thank you!"
	shortIDLen       = 8
)

var printer = message.NewPrinter(language.English)

// FormatPrice renders whole currency units, e.g. "KSh 4,999".
func FormatPrice(amount int64) string {
	return printer.Sprintf("KSh %d", amount)
}

func ShortID(o models.Order) string {
	id := o.ID.String()
	if len(id) > shortIDLen {
		id = id[:shortIDLen]
	}
	return "#" + id
}

// ComposeMessage renders the plain-text order summary sent to the shop's chat.
func ComposeMessage(o models.Order, items []models.OrderItem) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line(messageHeader)
	line(messageSeparator)
	line("Order: %s", ShortID(o))
	line("Name: %s", o.CustomerName)
	line("Phone: %s", o.Phone)
	line("Location: %s", o.Location)
	if o.Notes != "" {
		line("Notes: %s", o.Notes)
	}
	line("")

	var subtotal int64
	for i, it := range items {
		lineTotal := it.Price * int64(it.Quantity)
		subtotal += lineTotal
		line("%d. %s (Size: %s) x %d - %s", i+1, it.ProductName, it.Size, it.Quantity, FormatPrice(lineTotal))
	}
	line("")
	line("Subtotal: %s", FormatPrice(subtotal))
	line(messageSeparator)
	b.WriteString(messagePrompt)

	return b.String()
}

// DeepLink builds base/<phone digits>?text=<message>. Spaces are encoded as
// %20 since chat clients do not all decode "+".
func DeepLink(base, phone, text string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)
	if digits == "" {
		return "", fmt.Errorf("chat phone %q has no digits", phone)
	}

	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", fmt.Errorf("parse chat base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("chat base url %q is not absolute", base)
	}

	encoded := strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
	return u.String() + "/" + digits + "?text=" + encoded, nil
}
