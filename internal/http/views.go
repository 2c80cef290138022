// View DTOs returned inside the response envelope. Money is rendered as
// rupee floats and dates as "YYYY-MM-DD"; the core types stay tag-free.
package http

import (
	"time"

	"opsledger/internal/core"
)

type paymentView struct {
	ID            string  `json:"id"`
	InternID      string  `json:"intern_id,omitempty"`
	ClientID      string  `json:"client_id,omitempty"`
	ProjectID     string  `json:"project_id,omitempty"`
	Amount        float64 `json:"amount"`
	PaymentDate   string  `json:"payment_date"`
	PaymentMethod string  `json:"payment_method"`
	TransactionID string  `json:"transaction_id,omitempty"`
	Status        string  `json:"status"`
	Type          string  `json:"type"`
	Origin        string  `json:"origin"`
	CreatedAt     string  `json:"created_at,omitempty"`
}

func newPaymentView(p core.PaymentRecord) paymentView {
	return paymentView{
		ID:            p.ID,
		InternID:      p.InternID,
		ClientID:      p.ClientID,
		ProjectID:     p.ProjectID,
		Amount:        p.Amount.Rupees(),
		PaymentDate:   formatDate(p.PaymentDate),
		PaymentMethod: p.PaymentMethod,
		TransactionID: p.TransactionID,
		Status:        string(p.Status),
		Type:          string(p.Type),
		Origin:        string(p.Origin),
		CreatedAt:     formatTime(p.CreatedAt),
	}
}

type internView struct {
	ID            string  `json:"id"`
	CustomID      string  `json:"custom_id,omitempty"`
	FullName      string  `json:"full_name"`
	Email         string  `json:"email,omitempty"`
	Phone         string  `json:"phone,omitempty"`
	College       string  `json:"college,omitempty"`
	Domain        string  `json:"domain,omitempty"`
	Batch         string  `json:"batch,omitempty"`
	Status        string  `json:"status"`
	TotalFee      float64 `json:"total_fee"`
	PaidFee       float64 `json:"paid_fee"`
	PaymentStatus string  `json:"payment_status"`
	Version       int64   `json:"version"`
	CreatedAt     string  `json:"created_at,omitempty"`
}

func newInternView(i core.Intern) internView {
	return internView{
		ID:            i.ID,
		CustomID:      i.CustomID,
		FullName:      i.FullName,
		Email:         i.Email,
		Phone:         i.Phone,
		College:       i.College,
		Domain:        i.Domain,
		Batch:         i.Batch,
		Status:        string(i.Status),
		TotalFee:      i.TotalFee.Rupees(),
		PaidFee:       i.PaidFee.Rupees(),
		PaymentStatus: string(i.PaymentStatus),
		Version:       i.Version,
		CreatedAt:     formatTime(i.CreatedAt),
	}
}

type projectView struct {
	ID         string  `json:"id"`
	ClientID   string  `json:"client_id,omitempty"`
	Title      string  `json:"title"`
	Domain     string  `json:"domain,omitempty"`
	Value      float64 `json:"value"`
	Status     string  `json:"status"`
	StartDate  string  `json:"start_date,omitempty"`
	EndDate    string  `json:"end_date,omitempty"`
	PaidAmount float64 `json:"paid_amount"`
	Version    int64   `json:"version"`
	CreatedAt  string  `json:"created_at,omitempty"`
}

func newProjectView(p core.Project) projectView {
	return projectView{
		ID:         p.ID,
		ClientID:   p.ClientID,
		Title:      p.Title,
		Domain:     p.Domain,
		Value:      p.Value.Rupees(),
		Status:     string(p.Status),
		StartDate:  formatDate(p.StartDate),
		EndDate:    formatDate(p.EndDate),
		PaidAmount: p.PaidAmount.Rupees(),
		Version:    p.Version,
		CreatedAt:  formatTime(p.CreatedAt),
	}
}

type clientView struct {
	ID            string `json:"id"`
	CompanyName   string `json:"company_name"`
	ContactPerson string `json:"contact_person,omitempty"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	ClientType    string `json:"client_type,omitempty"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at,omitempty"`
}

func newClientView(c core.Client) clientView {
	return clientView{
		ID:            c.ID,
		CompanyName:   c.CompanyName,
		ContactPerson: c.ContactPerson,
		Email:         c.Email,
		Phone:         c.Phone,
		ClientType:    c.ClientType,
		Status:        string(c.Status),
		CreatedAt:     formatTime(c.CreatedAt),
	}
}

type productView struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Category  string  `json:"category,omitempty"`
	Status    string  `json:"status,omitempty"`
	CreatedAt string  `json:"created_at,omitempty"`
}

func newProductView(p core.Product) productView {
	return productView{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price.Rupees(),
		Category:  p.Category,
		Status:    p.Status,
		CreatedAt: formatTime(p.CreatedAt),
	}
}

type profileView struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name,omitempty"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at,omitempty"`
}

func newProfileView(p core.Profile) profileView {
	return profileView{
		ID:        p.ID,
		Email:     p.Email,
		FullName:  p.FullName,
		Role:      p.Role,
		CreatedAt: formatTime(p.CreatedAt),
	}
}

type dashboardView struct {
	ActiveInterns  int     `json:"active_interns"`
	ActiveProjects int     `json:"active_projects"`
	TotalRevenue   float64 `json:"total_revenue"`
	Outstanding    float64 `json:"outstanding"`
}

func newDashboardView(m core.DashboardMetrics) dashboardView {
	return dashboardView{
		ActiveInterns:  m.ActiveInterns,
		ActiveProjects: m.ActiveProjects,
		TotalRevenue:   m.TotalRevenue.Rupees(),
		Outstanding:    m.Outstanding.Rupees(),
	}
}

type monthBucketView struct {
	Year        int     `json:"year"`
	Month       int     `json:"month"`
	Revenue     float64 `json:"revenue"`
	Unaccounted float64 `json:"unaccounted"`
}

func newMonthBucketViews(buckets []core.MonthBucket) []monthBucketView {
	out := make([]monthBucketView, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, monthBucketView{
			Year:        b.Year,
			Month:       b.Month,
			Revenue:     b.Revenue.Rupees(),
			Unaccounted: b.Unaccounted.Rupees(),
		})
	}
	return out
}

type domainStatView struct {
	Domain  string  `json:"domain"`
	Interns int     `json:"interns"`
	Revenue float64 `json:"revenue"`
}

func newDomainStatViews(stats []core.DomainStat) []domainStatView {
	out := make([]domainStatView, 0, len(stats))
	for _, s := range stats {
		out = append(out, domainStatView{
			Domain:  s.Domain,
			Interns: s.Interns,
			Revenue: s.Revenue.Rupees(),
		})
	}
	return out
}

type repairView struct {
	Repaired int `json:"repaired"`
}

func formatDate(d core.Date) string {
	if d.IsEmpty() {
		return ""
	}
	return d.Format("2006-01-02")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
