package core

import (
	"testing"
	"time"
)

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Paise: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Paise: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
	if err := (Money{Paise: -500}).Validate(); err == nil {
		t.Fatalf("expected error for negative")
	}
}

func TestDateValidate(t *testing.T) {
	if err := NewDate(2025, 6, 1).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Date{Time: time.Time{}}).Validate(); err == nil {
		t.Fatalf("expected error for zero date")
	}
}

func TestPaymentRecordValidate(t *testing.T) {
	good := PaymentRecord{
		InternID:    "i1",
		Amount:      Money{Paise: 400000},
		PaymentDate: NewDate(2025, 6, 1),
		Status:      RecordCompleted,
		Type:        TypeInternshipFee,
		Origin:      OriginManual,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		mut  func(p *PaymentRecord)
	}{
		{"zero amount", func(p *PaymentRecord) { p.Amount = Money{} }},
		{"no date", func(p *PaymentRecord) { p.PaymentDate = Date{} }},
		{"bad status", func(p *PaymentRecord) { p.Status = "Done" }},
		{"no owner", func(p *PaymentRecord) { p.InternID = "" }},
		{"bad type", func(p *PaymentRecord) { p.Type = "Donation" }},
		{"internship fee with project fk", func(p *PaymentRecord) { p.ProjectID = "pr1" }},
	}
	for _, tc := range cases {
		p := good
		tc.mut(&p)
		if err := p.Validate(); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}

	milestone := PaymentRecord{
		ClientID:    "c1",
		ProjectID:   "pr1",
		Amount:      Money{Paise: 100000},
		PaymentDate: NewDate(2025, 6, 2),
		Status:      RecordCompleted,
		Type:        TypeProjectMilestone,
		Origin:      OriginManual,
	}
	if err := milestone.Validate(); err != nil {
		t.Fatalf("milestone: expected ok, got %v", err)
	}
	milestone.InternID = "i1"
	if err := milestone.Validate(); err == nil {
		t.Fatalf("milestone with intern fk: expected error")
	}
}

func TestProjectValidate(t *testing.T) {
	p := Project{
		Title:     "CRM revamp",
		Status:    ProjectInProgress,
		Value:     Money{Paise: 5000000},
		StartDate: NewDate(2025, 1, 10),
		EndDate:   NewDate(2025, 3, 1),
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	p.EndDate = NewDate(2024, 12, 1)
	if err := p.Validate(); err == nil {
		t.Fatalf("expected error for end before start")
	}
}

func TestInternValidate(t *testing.T) {
	i := Intern{FullName: "Asha", Status: InternActive}
	if err := i.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	i.FullName = "  "
	if err := i.Validate(); err == nil {
		t.Fatalf("expected error for blank name")
	}
}
