package notify_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"realty-listings/internal/models"
	"realty-listings/internal/notify"
	"realty-listings/internal/testutil"
)

func TestParseVisitDate(t *testing.T) {
	tests := []struct {
		message string
		want    string
		ok      bool
	}{
		{"Hi\nPreferred Date: 2024-05-01\nThanks", "2024-05-01", true},
		{"preferred date:2024/05/01", "2024-05-01", true},
		{"Preferred Date: 01/05/2024", "2024-05-01", true},
		{"Preferred Date: 2024-13-40", "", false},
		{"no date here", "", false},
	}
	for _, tt := range tests {
		got, ok := notify.ParseVisitDate(tt.message)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseVisitDate(%q) = %q, %v, want %q, %v", tt.message, got, ok, tt.want, tt.ok)
		}
	}
}

func TestValidEmail(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"buyer@example.com", true},
		{"", false},
		{"not-an-email", false},
	}
	for _, tt := range tests {
		if got := notify.ValidEmail(tt.addr); got != tt.want {
			t.Errorf("ValidEmail(%q) = %v, want %v", tt.addr, got, tt.want)
		}
	}
}

func TestPrepareInquiry(t *testing.T) {
	visit := &models.ContactInquiry{Name: " Asha ", Subject: "Schedule Visit", Message: "Preferred Date: 2024-05-01"}
	notify.PrepareInquiry(visit)
	if visit.VisitDate == nil || *visit.VisitDate != "2024-05-01" {
		t.Errorf("visit date = %v, want 2024-05-01", visit.VisitDate)
	}
	if visit.Status != models.InquiryStatusNew || visit.Name != "Asha" {
		t.Errorf("inquiry not normalised: %+v", visit)
	}

	general := &models.ContactInquiry{Subject: "Pricing", Message: "Preferred Date: 2024-05-01"}
	notify.PrepareInquiry(general)
	if general.VisitDate != nil {
		t.Errorf("visit date set on non-visit subject: %v", *general.VisitDate)
	}
}

func TestInquiryNotifier(t *testing.T) {
	db := testutil.NewDB(t)
	mailer := &notify.LogMailer{}
	n := notify.NewInquiryNotifier(db, mailer, "office@example.com")

	inq := models.ContactInquiry{Name: "Asha", Email: "asha@example.com", Subject: "Schedule Visit", Message: "Preferred Date: 2024-05-01"}
	notify.PrepareInquiry(&inq)
	if err := db.Create(&inq).Error; err != nil {
		t.Fatalf("create inquiry: %v", err)
	}

	if err := n.Notify(context.Background(), inq.ID); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	// already emailed, no second message
	if err := n.Notify(context.Background(), inq.ID); err != nil {
		t.Fatalf("second Notify() error = %v", err)
	}

	sent := mailer.Sent()
	if len(sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sent))
	}
	if sent[0].To != "office@example.com" || sent[0].ReplyTo != "asha@example.com" {
		t.Errorf("addressing wrong: %+v", sent[0])
	}
	if !strings.Contains(sent[0].Subject, "2024-05-01") || !strings.Contains(sent[0].Text, "Visit date: 2024-05-01") {
		t.Errorf("visit date missing from message: %+v", sent[0])
	}

	var stored models.ContactInquiry
	db.First(&stored, inq.ID)
	if stored.EmailedAt == nil {
		t.Error("emailed_at not set")
	}
}

type failingMailer struct{}

func (failingMailer) Send(context.Context, notify.Message) error {
	return errors.New("smtp down")
}

func TestInquiryNotifierSurfacesFailures(t *testing.T) {
	db := testutil.NewDB(t)
	inq := models.ContactInquiry{Name: "A", Email: "a@example.com", Status: models.InquiryStatusNew}
	db.Create(&inq)

	n := notify.NewInquiryNotifier(db, failingMailer{}, "office@example.com")
	if err := n.Notify(context.Background(), inq.ID); err == nil {
		t.Fatal("Notify() error = nil, want mailer error")
	}
	var stored models.ContactInquiry
	db.First(&stored, inq.ID)
	if stored.EmailedAt != nil {
		t.Error("emailed_at set after failed send")
	}
}
