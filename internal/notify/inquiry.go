package notify

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"realty-listings/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var (
	validate = validator.New()

	preferredDate = regexp.MustCompile(`(?i)preferred\s+date\s*:\s*([0-9]{1,4}[-/.][0-9]{1,2}[-/.][0-9]{1,4})`)

	visitDateLayouts = []string{"2006-01-02", "2006/01/02", "02-01-2006", "02/01/2006", "02.01.2006"}
)

// ValidEmail reports whether addr is a syntactically valid address
func ValidEmail(addr string) bool {
	return validate.Var(addr, "required,email") == nil
}

// IsVisitRequest reports whether an inquiry subject asks for a site visit
func IsVisitRequest(subject string) bool {
	return strings.Contains(strings.ToLower(subject), "schedule visit")
}

// ParseVisitDate extracts "Preferred Date: ..." from a message and returns
// it as YYYY-MM-DD
func ParseVisitDate(message string) (string, bool) {
	m := preferredDate.FindStringSubmatch(message)
	if m == nil {
		return "", false
	}
	for _, layout := range visitDateLayouts {
		if t, err := time.Parse(layout, m[1]); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

// InquiryNotifier emails the office about new contact inquiries
type InquiryNotifier struct {
	db     *gorm.DB
	mailer Mailer
	to     string
}

func NewInquiryNotifier(db *gorm.DB, mailer Mailer, notifyAddress string) *InquiryNotifier {
	return &InquiryNotifier{db: db, mailer: mailer, to: notifyAddress}
}

// Compose builds the notification for an inquiry
func Compose(inq *models.ContactInquiry, to string) Message {
	subject := "New inquiry: " + inq.Subject
	if inq.Subject == "" {
		subject = "New inquiry from " + inq.Name
	}
	if inq.VisitDate != nil {
		subject = fmt.Sprintf("Site visit requested for %s by %s", *inq.VisitDate, inq.Name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\nEmail: %s\nPhone: %s\n", inq.Name, inq.Email, inq.Phone)
	if inq.PropertyID != nil {
		fmt.Fprintf(&b, "Property: %d\n", *inq.PropertyID)
	}
	if inq.VisitDate != nil {
		fmt.Fprintf(&b, "Visit date: %s\n", *inq.VisitDate)
	}
	fmt.Fprintf(&b, "\n%s\n", inq.Message)
	text := b.String()

	return Message{
		To:      to,
		Subject: subject,
		Text:    text,
		HTML:    "<pre>" + html.EscapeString(text) + "</pre>",
		ReplyTo: inq.Email,
	}
}

// Notify sends the email for inquiry id and stamps emailed_at
func (n *InquiryNotifier) Notify(ctx context.Context, id uint) error {
	if n.to == "" {
		log.Debug().Uint("inquiry_id", id).Msg("no notify address configured, skipping inquiry email")
		return nil
	}

	var inq models.ContactInquiry
	if err := n.db.WithContext(ctx).First(&inq, id).Error; err != nil {
		return fmt.Errorf("load inquiry %d: %w", id, err)
	}
	if inq.EmailedAt != nil {
		return nil
	}

	if err := n.mailer.Send(ctx, Compose(&inq, n.to)); err != nil {
		return err
	}

	now := time.Now().UTC()
	return n.db.WithContext(ctx).Model(&inq).Update("emailed_at", now).Error
}

// PrepareInquiry normalises a submitted inquiry: trims fields, sets the
// initial status and, for visit requests, the parsed visit date
func PrepareInquiry(inq *models.ContactInquiry) {
	inq.Name = strings.TrimSpace(inq.Name)
	inq.Email = strings.TrimSpace(inq.Email)
	inq.Phone = strings.TrimSpace(inq.Phone)
	inq.Subject = strings.TrimSpace(inq.Subject)
	if inq.Status == "" {
		inq.Status = models.InquiryStatusNew
	}
	if inq.VisitDate == nil && IsVisitRequest(inq.Subject) {
		if date, ok := ParseVisitDate(inq.Message); ok {
			inq.VisitDate = &date
		}
	}
}
