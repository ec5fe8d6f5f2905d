package adminapi

import (
	"fmt"
	"net/url"
	"strconv"
)

// Resource paths.
const (
	AnalyticsPath    = "/admin/web_analytics"
	UsersPath        = "/admin/users"
	EmployeesPath    = "/admin/employees"
	ShipmentsPath    = "/admin/shipments"
	PaymentsPath     = "/admin/payments"
	BalanceCodesPath = "/admin/balance-codes"
	RatesUploadPath  = "/admin/international-rates/upload"
	LoginPath        = "/auth/login"

	// DefaultPageLimit is the page size used by the dashboard lists.
	DefaultPageLimit = 10
)

// ListParams is the pagination and search state of a list view.
type ListParams struct {
	Page  int
	Limit int
	Query string
}

// Normalized fills in the first page and the default limit.
func (p ListParams) Normalized() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	return p
}

// encode renders page, limit and q in a fixed order so equal params always
// yield the same key.
func (p ListParams) encode() string {
	p = p.Normalized()
	s := "page=" + strconv.Itoa(p.Page) + "&limit=" + strconv.Itoa(p.Limit)
	if p.Query != "" {
		s += "&q=" + url.QueryEscape(p.Query)
	}
	return s
}

// UsersKey is the fetch key of the customer list.
func UsersKey(p ListParams) string {
	return UsersPath + "?" + p.encode()
}

// UserKey is the fetch key of one customer's detail view.
func UserKey(id int) string {
	return fmt.Sprintf("%s/%d", UsersPath, id)
}

// EmployeesKey is the fetch key of the employee list.
func EmployeesKey(p ListParams) string {
	return EmployeesPath + "?" + p.encode()
}

// ShipmentsKey is the fetch key of the shipment list.
func ShipmentsKey(p ListParams) string {
	return ShipmentsPath + "?" + p.encode()
}

// PaymentsKey is the fetch key of the payment request list.
func PaymentsKey() string {
	return PaymentsPath
}

// AnalyticsKey is the fetch key of the dashboard statistics.
func AnalyticsKey() string {
	return AnalyticsPath
}

// CodeStatus filters the balance code list.
type CodeStatus string

const (
	CodesAll      CodeStatus = ""
	CodesActive   CodeStatus = "active"
	CodesRedeemed CodeStatus = "redeemed"
)

// ParseCodeStatus accepts "", "all", "active" or "redeemed".
func ParseCodeStatus(s string) (CodeStatus, error) {
	switch s {
	case "", "all":
		return CodesAll, nil
	case string(CodesActive):
		return CodesActive, nil
	case string(CodesRedeemed):
		return CodesRedeemed, nil
	default:
		return "", fmt.Errorf("unknown balance code status %q (want all, active or redeemed)", s)
	}
}

// BalanceCodesKey is the fetch key of the balance code list.
func BalanceCodesKey(status CodeStatus) string {
	if status == CodesAll {
		return BalanceCodesPath
	}
	return BalanceCodesPath + "?status=" + string(status)
}
