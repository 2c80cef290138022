// This file holds the request DTOs and their conversion into core types.
// Amounts arrive as rupee numbers and dates as "YYYY-MM-DD" strings; both
// are normalized here so handlers and services only see paise and core.Date.
package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"opsledger/internal/core"
)

const maxBodyBytes = 1 << 20 // 1 MiB

func decodeBody(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

type paymentRequest struct {
	InternID      string  `json:"intern_id"`
	ClientID      string  `json:"client_id"`
	ProjectID     string  `json:"project_id"`
	Amount        float64 `json:"amount"`
	PaymentDate   string  `json:"payment_date"`
	PaymentMethod string  `json:"payment_method"`
	TransactionID string  `json:"transaction_id"`
	Status        string  `json:"status"`
	Type          string  `json:"type"`
}

func (req paymentRequest) toRecord() (core.PaymentRecord, error) {
	date, err := parseOptionalDate(req.PaymentDate)
	if err != nil {
		return core.PaymentRecord{}, err
	}
	status := core.RecordStatus(req.Status)
	if req.Status == "" {
		status = core.RecordCompleted
	}
	method := sanitizeInput(req.PaymentMethod)
	if method == "" {
		method = "UPI"
	}
	return core.PaymentRecord{
		InternID:      sanitizeInput(req.InternID),
		ClientID:      sanitizeInput(req.ClientID),
		ProjectID:     sanitizeInput(req.ProjectID),
		Amount:        core.Money{Paise: core.PaiseFromRupees(req.Amount)},
		PaymentDate:   date,
		PaymentMethod: method,
		TransactionID: sanitizeInput(req.TransactionID),
		Status:        status,
		Type:          core.PaymentType(req.Type),
	}, nil
}

type internRequest struct {
	CustomID string  `json:"custom_id"`
	FullName string  `json:"full_name"`
	Email    string  `json:"email"`
	Phone    string  `json:"phone"`
	College  string  `json:"college"`
	Domain   string  `json:"domain"`
	Batch    string  `json:"batch"`
	Status   string  `json:"status"`
	TotalFee float64 `json:"total_fee"`
	PaidFee  float64 `json:"paid_fee"`
	Version  int64   `json:"version"`
}

func (req internRequest) toIntern() core.Intern {
	status := core.InternStatus(req.Status)
	if req.Status == "" {
		status = core.InternActive
	}
	return core.Intern{
		CustomID: sanitizeInput(req.CustomID),
		FullName: sanitizeInput(req.FullName),
		Email:    sanitizeInput(req.Email),
		Phone:    sanitizeInput(req.Phone),
		College:  sanitizeInput(req.College),
		Domain:   sanitizeInput(req.Domain),
		Batch:    sanitizeInput(req.Batch),
		Status:   status,
		TotalFee: core.Money{Paise: core.PaiseFromRupees(req.TotalFee)},
		PaidFee:  core.Money{Paise: core.PaiseFromRupees(req.PaidFee)},
		Version:  req.Version,
	}
}

type projectRequest struct {
	ClientID   string  `json:"client_id"`
	Title      string  `json:"title"`
	Domain     string  `json:"domain"`
	Value      float64 `json:"value"`
	Status     string  `json:"status"`
	StartDate  string  `json:"start_date"`
	EndDate    string  `json:"end_date"`
	PaidAmount float64 `json:"paid_amount"`
	Version    int64   `json:"version"`
}

func (req projectRequest) toProject() (core.Project, error) {
	start, err := parseOptionalDate(req.StartDate)
	if err != nil {
		return core.Project{}, err
	}
	end, err := parseOptionalDate(req.EndDate)
	if err != nil {
		return core.Project{}, err
	}
	status := core.ProjectStatus(req.Status)
	if req.Status == "" {
		status = core.ProjectInProgress
	}
	return core.Project{
		ClientID:   sanitizeInput(req.ClientID),
		Title:      sanitizeInput(req.Title),
		Domain:     sanitizeInput(req.Domain),
		Value:      core.Money{Paise: core.PaiseFromRupees(req.Value)},
		Status:     status,
		StartDate:  start,
		EndDate:    end,
		PaidAmount: core.Money{Paise: core.PaiseFromRupees(req.PaidAmount)},
		Version:    req.Version,
	}, nil
}

type clientRequest struct {
	CompanyName   string `json:"company_name"`
	ContactPerson string `json:"contact_person"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	ClientType    string `json:"client_type"`
	Status        string `json:"status"`
}

func (req clientRequest) toClient() core.Client {
	status := core.ClientStatus(req.Status)
	if req.Status == "" {
		status = core.ClientActive
	}
	return core.Client{
		CompanyName:   sanitizeInput(req.CompanyName),
		ContactPerson: sanitizeInput(req.ContactPerson),
		Email:         sanitizeInput(req.Email),
		Phone:         sanitizeInput(req.Phone),
		ClientType:    sanitizeInput(req.ClientType),
		Status:        status,
	}
}

type productRequest struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
	Status   string  `json:"status"`
}

func (req productRequest) toProduct() core.Product {
	return core.Product{
		Name:     sanitizeInput(req.Name),
		Price:    core.Money{Paise: core.PaiseFromRupees(req.Price)},
		Category: sanitizeInput(req.Category),
		Status:   sanitizeInput(req.Status),
	}
}

type profileRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

type roleRequest struct {
	Role string `json:"role"`
}
