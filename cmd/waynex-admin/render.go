package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/waynex/admin/internal/adminapi"
	"github.com/waynex/admin/internal/session"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func header(tw *tabwriter.Writer, cols ...string) {
	fmt.Fprintln(tw, strings.Join(cols, "\t"))
	under := make([]string, len(cols))
	for i, c := range cols {
		under[i] = strings.Repeat("-", len(c))
	}
	fmt.Fprintln(tw, strings.Join(under, "\t"))
}

func renderSession(w io.Writer, sess *session.Session) {
	if !sess.Authenticated() {
		fmt.Fprintln(w, "Not signed in")
		return
	}
	name := strings.TrimSpace(sess.FirstName + " " + sess.LastName)
	if name == "" {
		name = sess.DisplayName()
	}
	role := "user"
	if sess.IsAdmin {
		role = "admin"
	}
	fmt.Fprintf(w, "Name:   %s\n", name)
	fmt.Fprintf(w, "Email:  %s\n", sess.Email)
	fmt.Fprintf(w, "Role:   %s\n", role)
}

func renderDashboard(w io.Writer, s adminapi.DashboardStats) {
	fmt.Fprintln(w, "Dashboard")
	fmt.Fprintln(w, "---------")
	fmt.Fprintf(w, "Total orders:      %d\n", s.TotalOrders)
	fmt.Fprintf(w, "Total revenue:     %s\n", formatINR(s.TotalRevenue, 0))
	fmt.Fprintf(w, "Average order:     %s\n", formatINR(s.AvgRevenue, 0))
	fmt.Fprintf(w, "Customers:         %d\n", s.TotalUsers)
	fmt.Fprintf(w, "Employees:         %d\n", s.TotalEmployees)
	fmt.Fprintf(w, "Pending payments:  %d\n", s.PendingPayments)

	if len(s.ShipmentsByStatus) > 0 {
		fmt.Fprintln(w)
		tw := newTable(w)
		header(tw, "STATUS", "SHIPMENTS")
		for _, c := range s.ShipmentsByStatus {
			fmt.Fprintf(tw, "%s\t%d\n", c.Status, c.Count)
		}
		tw.Flush()
	}

	if len(s.RecentShipments) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Recent shipments")
		tw := newTable(w)
		header(tw, "SHIPMENT", "RECEIVER", "CITY", "STATUS", "TOTAL", "BOOKED")
		for _, r := range s.RecentShipments {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				r.ShipmentIDStr, r.ReceiverName, r.ReceiverCity, r.Status,
				formatINR(r.Total, 2), formatDateString(r.BookingDate))
		}
		tw.Flush()
	}
}

// renderUsers lists customers or employees. noun is the plural used in the
// footer and the empty message.
func renderUsers(w io.Writer, resp adminapi.UsersResponse, limit int, noun string) {
	if len(resp.Users) == 0 {
		fmt.Fprintf(w, "No %s found\n", noun)
		return
	}
	tw := newTable(w)
	header(tw, "ID", "NAME", "EMAIL", "BALANCE", "SHIPMENTS", "JOINED")
	for _, u := range resp.Users {
		balance, shipments := "-", "-"
		if u.Balance != nil {
			balance = formatINR(*u.Balance, 2)
		}
		if u.ShipmentCount != nil {
			shipments = strconv.Itoa(*u.ShipmentCount)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			u.ID, u.FullName(), u.Email, balance, shipments, formatDateString(u.CreatedAt))
	}
	tw.Flush()
	renderPageFooter(w, resp.Page, limit, noun)
}

func renderUserDetail(w io.Writer, d adminapi.UserDetail) {
	u := d.User
	fmt.Fprintf(w, "Customer #%d\n", u.ID)
	fmt.Fprintf(w, "Name:    %s\n", u.FullName())
	fmt.Fprintf(w, "Email:   %s\n", u.Email)
	if u.Balance != nil {
		fmt.Fprintf(w, "Balance: %s\n", formatINR(*u.Balance, 2))
	}
	fmt.Fprintf(w, "Joined:  %s\n", formatDateString(u.CreatedAt))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Shipments")
	if len(d.Shipments) == 0 {
		fmt.Fprintln(w, "No shipments found")
	} else {
		tw := newTable(w)
		header(tw, "SHIPMENT", "RECEIVER", "SERVICE", "STATUS", "TOTAL", "BOOKED")
		for _, s := range d.Shipments {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				s.ShipmentIDStr, s.ReceiverName, s.ServiceType, s.Status,
				formatINR(s.TotalWithTax, 2), formatDateString(s.BookingDate))
		}
		tw.Flush()
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Payments")
	renderPayments(w, d.Payments)
}

func renderShipments(w io.Writer, resp adminapi.ShipmentsResponse, limit int) {
	if len(resp.Shipments) == 0 {
		fmt.Fprintln(w, "No shipments found")
		return
	}
	tw := newTable(w)
	header(tw, "SHIPMENT", "SENDER", "RECEIVER", "DESTINATION", "SERVICE", "STATUS", "TOTAL", "BOOKED")
	for _, s := range resp.Shipments {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			s.ShipmentIDStr, s.SenderName, s.ReceiverName, s.ReceiverAddressCity,
			s.ServiceType, s.Status, formatINR(s.TotalWithTax, 2), formatDateString(s.BookingDate))
	}
	tw.Flush()
	renderPageFooter(w, resp.Page, limit, "shipments")
}

func renderPayments(w io.Writer, payments []adminapi.PaymentRequest) {
	if len(payments) == 0 {
		fmt.Fprintln(w, "No payment requests found")
		return
	}
	tw := newTable(w)
	header(tw, "ID", "ORDER", "CUSTOMER", "AMOUNT", "UTR", "STATUS", "REQUESTED")
	for _, p := range payments {
		name := strings.TrimSpace(p.FirstName + " " + p.LastName)
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ID, p.OrderID, name, formatINR(p.Amount, 2), p.UTR, p.Status, formatDateString(p.CreatedAt))
	}
	tw.Flush()
}

func renderCodes(w io.Writer, codes []adminapi.BalanceCode) {
	if len(codes) == 0 {
		fmt.Fprintln(w, "No balance codes found")
		return
	}
	tw := newTable(w)
	header(tw, "ID", "CODE", "AMOUNT", "STATUS", "CREATED", "REDEEMED", "REDEEMED BY")
	for _, c := range codes {
		status, redeemedAt, redeemedBy := "Active", "-", "-"
		if c.IsRedeemed {
			status = "Redeemed"
		}
		if c.RedeemedAt != nil {
			redeemedAt = formatDateString(*c.RedeemedAt)
		}
		if c.RedeemedBy != nil && *c.RedeemedBy != "" {
			redeemedBy = *c.RedeemedBy
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.Code, formatINR(c.Amount, 2), status, formatDateString(c.CreatedAt), redeemedAt, redeemedBy)
	}
	tw.Flush()
}

func renderRateUpload(w io.Writer, r *adminapi.RateUploadResult) {
	msg := r.Message
	if msg == "" {
		msg = "Rates uploaded"
	}
	fmt.Fprintln(w, msg)
	fmt.Fprintf(w, "Destinations:     %d\n", r.TotalDestinations)
	fmt.Fprintf(w, "Services:         %d\n", r.TotalServices)
	fmt.Fprintf(w, "Active services:  %d\n", r.ActiveServices)
}

func renderPageFooter(w io.Writer, p adminapi.Page, limit int, noun string) {
	from, to := p.Range(limit)
	fmt.Fprintf(w, "\nShowing %d to %d of %d %s", from, to, p.TotalCount, noun)
	if p.TotalPages > 1 {
		fmt.Fprintf(w, " (page %d of %d)", p.CurrentPage, p.TotalPages)
	}
	fmt.Fprintln(w)
}

// formatINR renders an amount in rupees with Indian digit grouping
// (12,34,567.50). Trailing zero decimals are dropped.
func formatINR(v float64, decimals int) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := strconv.FormatFloat(v, 'f', decimals, 64)
	intPart, frac, _ := strings.Cut(s, ".")
	frac = strings.TrimRight(frac, "0")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString("₹")
	b.WriteString(groupIndian(intPart))
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}

// groupIndian groups the last three digits, then every two.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return strings.Join(parts, ",") + "," + tail
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02 Jan 2006")
}

// dateLayouts are the timestamp shapes the API is known to send, with and
// without a zone.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	time.RFC1123,
	"2006-01-02",
}

// formatDateString formats an API date that may be a timestamp or a plain
// date, falling back to the raw value.
func formatDateString(s string) string {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return formatDate(t)
		}
	}
	if s == "" {
		return "-"
	}
	return s
}
