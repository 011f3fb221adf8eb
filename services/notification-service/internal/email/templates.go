package email

import (
	"fmt"
	"strings"
	"time"
)

// Message is a rendered subject and plain-text body.
type Message struct {
	Subject string
	Body    string
}

// TemplateData carries the booking fields the templates interpolate.
type TemplateData struct {
	ShopName     string
	ShopAddress  string
	ShopPhone    string
	BookingID    string
	CustomerName string
	Date         string // YYYY-MM-DD
	Time         string
	EndTime      string
	Services     []string
	Price        int
	ManageURL    string
	CalendarURL  string
	BookingURL   string
}

func Confirmation(d TemplateData) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", d.CustomerName)
	fmt.Fprintf(&b, "Your appointment at %s is confirmed.\n\n", d.ShopName)
	fmt.Fprintf(&b, "Date: %s\n", longDate(d.Date))
	fmt.Fprintf(&b, "Time: %s - %s\n", d.Time, d.EndTime)
	fmt.Fprintf(&b, "Services: %s\n", strings.Join(d.Services, ", "))
	if d.Price > 0 {
		fmt.Fprintf(&b, "Total: $%d\n", d.Price)
	}
	b.WriteString("\nPlease arrive 5 minutes early.\n")
	if d.ManageURL != "" {
		fmt.Fprintf(&b, "\nNeed to cancel? Manage your booking here:\n%s\n", d.ManageURL)
	}
	if d.CalendarURL != "" {
		fmt.Fprintf(&b, "\nAdd to your calendar:\n%s\n", d.CalendarURL)
	}
	fmt.Fprintf(&b, "\nSee you soon,\n%s\n%s\nPhone: %s\n", d.ShopName, d.ShopAddress, d.ShopPhone)

	return Message{
		Subject: fmt.Sprintf("Booking Confirmed - Appointment #%s", d.BookingID),
		Body:    b.String(),
	}
}

func Cancellation(d TemplateData) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", d.CustomerName)
	fmt.Fprintf(&b, "You have successfully cancelled your appointment #%s.\n\n", d.BookingID)
	fmt.Fprintf(&b, "Date: %s\n", longDate(d.Date))
	fmt.Fprintf(&b, "Time: %s - %s\n", d.Time, d.EndTime)
	fmt.Fprintf(&b, "Services: %s\n", strings.Join(d.Services, ", "))
	fmt.Fprintf(&b, "\nWe're sorry to see you cancel. To book a new appointment, visit our website or call %s.\n", d.ShopPhone)
	fmt.Fprintf(&b, "\nThank you,\n%s Team\n", d.ShopName)

	return Message{
		Subject: fmt.Sprintf("Booking Cancelled - Appointment #%s", d.BookingID),
		Body:    b.String(),
	}
}

func FollowUp(d TemplateData) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", d.CustomerName)
	b.WriteString("We hope you enjoyed your experience!\n\n")
	fmt.Fprintf(&b, "Thank you for choosing %s for your grooming needs.\n\n", d.ShopName)
	b.WriteString("Your visit:\n")
	fmt.Fprintf(&b, "Date: %s\n", longDate(d.Date))
	fmt.Fprintf(&b, "Services: %s\n", strings.Join(d.Services, ", "))
	b.WriteString("\nYour satisfaction is our top priority. We'd love to hear about your experience!\n")
	if d.BookingURL != "" {
		fmt.Fprintf(&b, "\nBook again:\n%s\n", d.BookingURL)
	}
	fmt.Fprintf(&b, "\nSee you again soon at %s!\n%s\nPhone: %s\n", d.ShopName, d.ShopAddress, d.ShopPhone)

	return Message{
		Subject: fmt.Sprintf("Thank You for Visiting %s!", d.ShopName),
		Body:    b.String(),
	}
}

// longDate renders YYYY-MM-DD as "Monday, March 2, 2026". Unparseable input
// is returned as-is.
func longDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.Format("Monday, January 2, 2006")
}
