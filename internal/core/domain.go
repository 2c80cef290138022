package core

import (
	"errors"
	"strings"
	"time"
)

const (
	ClientActive   ClientStatus = "Active"
	ClientInactive ClientStatus = "Inactive"
)

const (
	InternActive    InternStatus = "Active"
	InternPending   InternStatus = "Pending"
	InternCompleted InternStatus = "Completed"
	InternDropped   InternStatus = "Dropped"
)

const (
	PaymentUnpaid  PaymentStatus = "Unpaid"
	PaymentPartial PaymentStatus = "Partial"
	PaymentPaid    PaymentStatus = "Paid"
)

const (
	ProjectInProgress  ProjectStatus = "In Progress"
	ProjectDelivered   ProjectStatus = "Delivered"
	ProjectMaintenance ProjectStatus = "Maintenance"
	ProjectOnHold      ProjectStatus = "On Hold"
)

const (
	RecordCompleted RecordStatus = "Completed"
	RecordPending   RecordStatus = "Pending"
)

const (
	TypeInternshipFee    PaymentType = "Internship Fee"
	TypeProjectMilestone PaymentType = "Project Milestone"
	TypeProductSale      PaymentType = "Product Sale"
)

const (
	OriginManual      PaymentOrigin = "manual"
	OriginAutoIntern  PaymentOrigin = "auto_intern"
	OriginAutoProject PaymentOrigin = "auto_project"
)

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleViewer  = "viewer"
)

type (
	ClientStatus  string
	InternStatus  string
	PaymentStatus string
	ProjectStatus string
	RecordStatus  string
	PaymentType   string
	PaymentOrigin string

	// Date is a calendar date; the time-of-day part is always midnight UTC.
	Date struct {
		time.Time
	}

	// Money is an amount in paise. All ledger arithmetic is integer sums.
	Money struct {
		Paise int64
	}

	Client struct {
		ID            string
		CompanyName   string
		ContactPerson string
		Email         string
		Phone         string
		ClientType    string
		Status        ClientStatus
		CreatedAt     time.Time
	}

	Intern struct {
		ID       string
		CustomID string
		FullName string
		Email    string
		Phone    string
		College  string
		Domain   string
		Batch    string
		Status   InternStatus
		TotalFee Money

		// Derived from the ledger, never hand-edited.
		PaidFee       Money
		PaymentStatus PaymentStatus

		Version   int64
		CreatedAt time.Time
	}

	Project struct {
		ID        string
		ClientID  string // empty for internal projects
		Title     string
		Domain    string
		Value     Money
		Status    ProjectStatus
		StartDate Date
		EndDate   Date

		// Derived from the ledger.
		PaidAmount Money

		Version   int64
		CreatedAt time.Time
	}

	Product struct {
		ID        string
		Name      string
		Price     Money
		Category  string
		Status    string
		CreatedAt time.Time
	}

	Profile struct {
		ID        string
		Email     string
		FullName  string
		Role      string
		CreatedAt time.Time
	}

	// PaymentRecord is one row of the ledger, the source of truth for money
	// received.
	PaymentRecord struct {
		ID            string
		InternID      string
		ClientID      string
		ProjectID     string
		Amount        Money
		PaymentDate   Date
		PaymentMethod string
		TransactionID string
		Status        RecordStatus
		Type          PaymentType
		Origin        PaymentOrigin
		CreatedAt     time.Time
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrEmptyName       = errors.New("empty name")
	ErrMissingOwner    = errors.New("payment references no intern, client or project")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidType     = errors.New("invalid payment type")
	ErrTypeOwnerFields = errors.New("payment type does not match its foreign keys")
)

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// IsEmpty reports whether the date was never set. Optional dates (project
// end dates, internal-project start dates) are represented by the zero value.
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return NewDate(y, int(m), d)
}

func (m Money) Validate() error {
	if m.Paise <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (c Client) Validate() error {
	if strings.TrimSpace(c.CompanyName) == "" {
		return ErrEmptyName
	}
	switch c.Status {
	case ClientActive, ClientInactive:
	default:
		return ErrInvalidStatus
	}
	return nil
}

func (i Intern) Validate() error {
	if strings.TrimSpace(i.FullName) == "" {
		return ErrEmptyName
	}
	switch i.Status {
	case InternActive, InternPending, InternCompleted, InternDropped:
	default:
		return ErrInvalidStatus
	}
	if i.TotalFee.Paise < 0 || i.PaidFee.Paise < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (p Project) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return ErrEmptyName
	}
	switch p.Status {
	case ProjectInProgress, ProjectDelivered, ProjectMaintenance, ProjectOnHold:
	default:
		return ErrInvalidStatus
	}
	if p.Value.Paise < 0 || p.PaidAmount.Paise < 0 {
		return ErrInvalidAmount
	}
	if !p.StartDate.IsEmpty() && !p.EndDate.IsEmpty() && p.EndDate.Before(p.StartDate.Time) {
		return errors.New("end date before start date")
	}
	return nil
}

func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if p.Price.Paise < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (p PaymentRecord) Validate() error {
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	if err := p.PaymentDate.Validate(); err != nil {
		return err
	}
	switch p.Status {
	case RecordCompleted, RecordPending:
	default:
		return ErrInvalidStatus
	}
	if p.InternID == "" && p.ClientID == "" && p.ProjectID == "" {
		return ErrMissingOwner
	}
	switch p.Type {
	case TypeInternshipFee:
		if p.InternID == "" || p.ProjectID != "" {
			return ErrTypeOwnerFields
		}
	case TypeProjectMilestone:
		if p.InternID != "" || p.ProjectID == "" {
			return ErrTypeOwnerFields
		}
	case TypeProductSale:
		if p.InternID != "" || p.ProjectID != "" {
			return ErrTypeOwnerFields
		}
	default:
		return ErrInvalidType
	}
	return nil
}
