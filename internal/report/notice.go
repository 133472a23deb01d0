package report

import (
	"fmt"
	"net/url"
	"strings"

	"gitlab.com/yelinaung/repair-ledger/internal/models"
)

// Currency is the suffix used for money in customer-facing text.
const Currency = "ج.م"

// DefaultCountryCode replaces the leading zero of local mobile numbers.
const DefaultCountryCode = "20"

// CustomerNotice is the status message sent to a customer about a repair.
func CustomerNotice(shopName string, client models.Client, device models.Device, r models.Repair) string {
	ref := r.ID
	if len(ref) > 6 {
		ref = ref[:6]
	}
	lines := []string{
		fmt.Sprintf("مرحباً %s،", client.Name),
		fmt.Sprintf("جهازك: %s %s", device.Brand, device.Model),
		"رقم الأمر: " + ref,
		"العطل: " + r.Problem,
		"الحالة: " + r.Status.Label(),
		fmt.Sprintf("التكلفة: %s %s", r.TotalCost.String(), Currency),
	}
	if due := r.BalanceDue(); due.IsPositive() && r.PaidAmount.IsPositive() {
		lines = append(lines, fmt.Sprintf("المتبقي: %s %s", due.String(), Currency))
	}
	lines = append(lines, fmt.Sprintf("شكراً لاختياركم %s.", shopName))
	return strings.Join(lines, "\n")
}

// NormalizePhone strips everything but digits and rewrites a local mobile
// number ("01...") to international form using countryCode. Arabic-Indic
// digits are accepted.
func NormalizePhone(phone, countryCode string) string {
	digits := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9':
			return r
		case r >= '٠' && r <= '٩':
			return '0' + (r - '٠')
		case r >= '۰' && r <= '۹':
			return '0' + (r - '۰')
		}
		return -1
	}, phone)
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	if strings.HasPrefix(digits, "01") {
		digits = countryCode + digits[1:]
	}
	return digits
}

// WhatsAppLink builds a click-to-chat link carrying message.
func WhatsAppLink(phone, countryCode, message string) string {
	text := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return "https://wa.me/" + NormalizePhone(phone, countryCode) + "?text=" + text
}
