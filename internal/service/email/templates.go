// internal/service/email/templates.go
package email

import (
	"fmt"
	"html"
	"time"
)

// Templates builds the transactional messages. Links point at baseURL.
type Templates struct {
	baseURL string
}

func NewTemplates(baseURL string) *Templates {
	return &Templates{baseURL: baseURL}
}

func (t *Templates) TrialStarted(to, name string, trialEnd time.Time) Message {
	body := fmt.Sprintf(`
		<h2>Your free trial has started</h2>
		<p>Hi %s,</p>
		<p>Welcome to Inboker! Your 14-day free trial is active until <strong>%s</strong>.</p>
		<p>Set up your workspace, add your services and share your booking page with customers.</p>
		<p><a class="button" href="%s/dashboard/business">Open your dashboard</a></p>
		<p>You will not be charged until your trial ends. You can cancel at any time from your billing settings.</p>
	`, html.EscapeString(name), trialEnd.UTC().Format("January 2, 2006"), t.baseURL)

	return Message{To: to, Subject: "Your Inboker trial has started", HTMLBody: body, Tag: "trial-started"}
}

func (t *Templates) TrialEnded(to, name string) Message {
	body := fmt.Sprintf(`
		<h2>Your trial has ended</h2>
		<p>Hi %s,</p>
		<p>Your free trial is over and your subscription is now active. Thanks for choosing Inboker!</p>
		<p>Your first payment has been processed successfully.</p>
		<p><a class="button" href="%s/dashboard/business/billing">Manage billing</a></p>
	`, html.EscapeString(name), t.baseURL)

	return Message{To: to, Subject: "Your Inboker trial has ended", HTMLBody: body, Tag: "trial-ended"}
}

func (t *Templates) TrialReminder(to, name string, daysRemaining int) Message {
	dayWord := "days"
	if daysRemaining == 1 {
		dayWord = "day"
	}
	body := fmt.Sprintf(`
		<h2>Your trial ends in %d %s</h2>
		<p>Hi %s,</p>
		<p>Just a reminder that your Inboker free trial ends in <strong>%d %s</strong>.</p>
		<p>Your subscription will start automatically when the trial ends. No action is needed to keep your bookings running.</p>
		<p><a class="button" href="%s/dashboard/business/billing">Review your plan</a></p>
	`, daysRemaining, dayWord, html.EscapeString(name), daysRemaining, dayWord, t.baseURL)

	return Message{
		To:       to,
		Subject:  fmt.Sprintf("Your Inboker trial ends in %d %s", daysRemaining, dayWord),
		HTMLBody: body,
		Tag:      "trial-reminder",
	}
}

// BookingDetails is what booking emails render.
type BookingDetails struct {
	Reference     string
	WorkspaceName string
	ServiceName   string
	CustomerName  string
	CustomerEmail string
	StartsAt      time.Time
	Timezone      string
	Status        string
}

func (d BookingDetails) when() string {
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		loc = time.UTC
	}
	return d.StartsAt.In(loc).Format("Mon, Jan 2 2006 at 15:04 MST")
}

// BookingReceived goes to the workspace owner.
func (t *Templates) BookingReceived(to string, d BookingDetails) Message {
	body := fmt.Sprintf(`
		<h2>New booking</h2>
		<p><strong>%s</strong> (%s) booked <strong>%s</strong> for %s.</p>
		<p>Reference: %s</p>
		<p><a class="button" href="%s/dashboard/business/bookings">View bookings</a></p>
	`, html.EscapeString(d.CustomerName), html.EscapeString(d.CustomerEmail),
		html.EscapeString(d.ServiceName), d.when(), d.Reference, t.baseURL)

	return Message{To: to, Subject: "New booking: " + d.ServiceName, HTMLBody: body, Tag: "booking-received"}
}

// BookingConfirmation goes to the person who booked.
func (t *Templates) BookingConfirmation(d BookingDetails) Message {
	body := fmt.Sprintf(`
		<h2>Booking request received</h2>
		<p>Hi %s,</p>
		<p>Your booking for <strong>%s</strong> with %s on %s has been received.</p>
		<p>Reference: <strong>%s</strong></p>
		<p>You will get another email once the business confirms it.</p>
	`, html.EscapeString(d.CustomerName), html.EscapeString(d.ServiceName),
		html.EscapeString(d.WorkspaceName), d.when(), d.Reference)

	return Message{To: d.CustomerEmail, Subject: "Your booking with " + d.WorkspaceName, HTMLBody: body, Tag: "booking-confirmation"}
}

func (t *Templates) BookingStatusChanged(d BookingDetails) Message {
	body := fmt.Sprintf(`
		<h2>Your booking is %s</h2>
		<p>Hi %s,</p>
		<p>Your booking <strong>%s</strong> for %s with %s on %s is now <strong>%s</strong>.</p>
	`, d.Status, html.EscapeString(d.CustomerName), d.Reference,
		html.EscapeString(d.ServiceName), html.EscapeString(d.WorkspaceName), d.when(), d.Status)

	return Message{To: d.CustomerEmail, Subject: fmt.Sprintf("Booking %s: %s", d.Reference, d.Status), HTMLBody: body, Tag: "booking-status"}
}
