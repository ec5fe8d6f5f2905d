// Package adminapi describes the Waynex admin API: resource types, fetch
// keys for the list and detail views, and the write operations.
package adminapi

// User is a customer or employee account.
type User struct {
	ID            int       `json:"id"`
	Email         string    `json:"email"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	IsAdmin       bool      `json:"is_admin"`
	IsEmployee    bool      `json:"is_employee"`
	CreatedAt     string    `json:"created_at"`
	Balance       *float64  `json:"balance,omitempty"`
	ShipmentCount *int      `json:"shipment_count,omitempty"`
}

// FullName returns "First Last".
func (u User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Shipment statuses.
const (
	ShipmentPendingPayment = "Pending Payment"
	ShipmentBooked         = "Booked"
	ShipmentInTransit      = "In Transit"
	ShipmentOutForDelivery = "Out for Delivery"
	ShipmentDelivered      = "Delivered"
	ShipmentCancelled      = "Cancelled"
)

// TrackingEntry is one step of a shipment's history.
type TrackingEntry struct {
	Stage    string `json:"stage"`
	Date     string `json:"date"`
	Location string `json:"location"`
	Activity string `json:"activity"`
}

// GoodItem is a declared item inside a package.
type GoodItem struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	Value       float64 `json:"value"`
	HSNCode     string  `json:"hsn_code"`
}

// Shipment is a booked consignment.
type Shipment struct {
	ID            int    `json:"id"`
	ShipmentIDStr string `json:"shipment_id_str"`

	SenderName             string `json:"sender_name"`
	SenderAddressStreet    string `json:"sender_address_street"`
	SenderAddressCity      string `json:"sender_address_city"`
	SenderAddressState     string `json:"sender_address_state"`
	SenderAddressPincode   string `json:"sender_address_pincode"`
	SenderAddressCountry   string `json:"sender_address_country"`
	SenderPhone            string `json:"sender_phone"`
	ReceiverName           string `json:"receiver_name"`
	ReceiverAddressStreet  string `json:"receiver_address_street"`
	ReceiverAddressCity    string `json:"receiver_address_city"`
	ReceiverAddressState   string `json:"receiver_address_state"`
	ReceiverAddressPincode string `json:"receiver_address_pincode"`
	ReceiverAddressCountry string `json:"receiver_address_country"`
	ReceiverPhone          string `json:"receiver_phone"`

	PackageWeightKg float64 `json:"package_weight_kg"`
	PackageLengthCm float64 `json:"package_length_cm"`
	PackageWidthCm  float64 `json:"package_width_cm"`
	PackageHeightCm float64 `json:"package_height_cm"`

	BookingDate string `json:"booking_date"`
	ServiceType string `json:"service_type"`
	Status      string `json:"status"`

	PriceWithoutTax float64 `json:"price_without_tax"`
	TaxAmount       float64 `json:"tax_amount_18_percent"`
	TotalWithTax    float64 `json:"total_with_tax_18_percent"`

	TrackingHistory []TrackingEntry `json:"tracking_history"`
	GoodsDetails    []GoodItem      `json:"goods_details"`
	UserType        string          `json:"user_type,omitempty"`
	PaymentStatus   *string         `json:"payment_status,omitempty"`
}

// PaymentStatus is the review state of a payment request.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "Pending"
	PaymentApproved PaymentStatus = "Approved"
	PaymentRejected PaymentStatus = "Rejected"
)

// PaymentRequest is a manual payment awaiting admin review.
type PaymentRequest struct {
	ID        int           `json:"id"`
	OrderID   string        `json:"order_id"`
	FirstName string        `json:"first_name"`
	LastName  string        `json:"last_name"`
	Amount    float64       `json:"amount"`
	UTR       string        `json:"utr"`
	Status    PaymentStatus `json:"status"`
	CreatedAt string        `json:"created_at"`
}

// BalanceCode is a one-time balance top-up code.
type BalanceCode struct {
	ID         int        `json:"id"`
	Code       string     `json:"code"`
	Amount     float64    `json:"amount"`
	IsRedeemed bool       `json:"is_redeemed"`
	CreatedAt  string  `json:"created_at"`
	RedeemedAt *string `json:"redeemed_at"`
	RedeemedBy *string `json:"redeemed_by"`
}

// StatusCount is a count grouped by shipment status.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// ServiceCount is a count grouped by service type.
type ServiceCount struct {
	Service string `json:"service"`
	Count   int    `json:"count"`
}

// MonthlyRevenue is one month of orders and revenue.
type MonthlyRevenue struct {
	Month   string  `json:"month"`
	Orders  int     `json:"orders"`
	Revenue float64 `json:"revenue"`
}

// DestinationCount is a count grouped by receiver city.
type DestinationCount struct {
	City  string `json:"city"`
	Count int    `json:"count"`
}

// RecentShipment is a condensed shipment row on the dashboard.
type RecentShipment struct {
	ShipmentIDStr string  `json:"shipment_id_str"`
	ReceiverName  string  `json:"receiver_name"`
	ReceiverCity  string  `json:"receiver_city"`
	Status        string  `json:"status"`
	Total         float64 `json:"total"`
	BookingDate   string  `json:"booking_date"`
}

// DashboardStats is returned by the analytics endpoint.
type DashboardStats struct {
	TotalOrders        int                `json:"total_orders"`
	TotalRevenue       float64            `json:"total_revenue"`
	AvgRevenue         float64            `json:"avg_revenue"`
	TotalUsers         int                `json:"total_users"`
	TotalEmployees     int                `json:"total_employees"`
	PendingPayments    int                `json:"pending_payments"`
	ShipmentsByStatus  []StatusCount      `json:"shipments_by_status"`
	ShipmentsByService []ServiceCount     `json:"shipments_by_service"`
	RevenueOverTime    []MonthlyRevenue   `json:"revenue_over_time"`
	TopDestinations    []DestinationCount `json:"top_destinations"`
	RecentShipments    []RecentShipment   `json:"recent_shipments"`
}

// Page is the pagination block shared by list responses.
type Page struct {
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
	TotalCount  int `json:"totalCount"`
}

// Range returns the 1-based positions of the first and last rows shown on
// the current page, as in "Showing 11 to 20 of 35". A page past the end
// shows nothing and returns 0, 0.
func (p Page) Range(limit int) (from, to int) {
	if p.TotalCount == 0 || limit <= 0 {
		return 0, 0
	}
	page := p.CurrentPage
	if page < 1 {
		page = 1
	}
	from = (page-1)*limit + 1
	if from > p.TotalCount {
		return 0, 0
	}
	to = min(page*limit, p.TotalCount)
	return from, to
}

// HasPrev reports whether a previous page exists.
func (p Page) HasPrev() bool {
	return p.CurrentPage > 1
}

// HasNext reports whether a next page exists.
func (p Page) HasNext() bool {
	return p.CurrentPage < p.TotalPages
}

// UsersResponse lists customers or employees.
type UsersResponse struct {
	Users []User `json:"users"`
	Page
}

// ShipmentsResponse lists shipments.
type ShipmentsResponse struct {
	Shipments []Shipment `json:"shipments"`
	Page
}

// UserDetail is a customer with their shipments and payments.
type UserDetail struct {
	User      User             `json:"user"`
	Shipments []Shipment       `json:"shipments"`
	Payments  []PaymentRequest `json:"payments"`
}

// RateUploadResult is returned after uploading an international rate sheet.
type RateUploadResult struct {
	Message           string `json:"message"`
	TotalDestinations int    `json:"total_destinations"`
	TotalServices     int    `json:"total_services"`
	ActiveServices    int    `json:"active_services"`
}
