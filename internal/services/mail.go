package services

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"net/smtp"
	"os"
	"strings"

	"cinetalk/internal/db"
	"cinetalk/internal/models"
)

// MailService sends best-effort notification mails. It is fully env-gated:
// without a complete SMTP_* configuration every send is a no-op, so local
// setups and tests run without a mail server.
type MailService struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	Enabled  bool
}

func NewMailService() *MailService {
	host := os.Getenv("SMTP_HOST")
	port := os.Getenv("SMTP_PORT")
	user := os.Getenv("SMTP_USER")
	pass := os.Getenv("SMTP_PASS")
	from := os.Getenv("SMTP_FROM")

	enabled := host != "" && port != "" && user != "" && pass != "" && from != ""
	if !enabled {
		log.Println("MailService disabled: missing SMTP environment variables")
	}

	return &MailService{
		Host:     host,
		Port:     port,
		Username: user,
		Password: pass,
		From:     from,
		Enabled:  enabled,
	}
}

func (s *MailService) sendAsync(to []string, subject string, body string) {
	if !s.Enabled {
		return
	}

	go func() {
		auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)
		addr := fmt.Sprintf("%s:%s", s.Host, s.Port)

		mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
		msg := []byte(fmt.Sprintf("To: %s\r\n"+
			"From: CineTalk <%s>\r\n"+
			"Subject: %s\r\n"+
			"%s\r\n%s", strings.Join(to, ","), s.From, subject, mime, body))

		err := smtp.SendMail(addr, auth, s.From, to, msg)
		if err != nil {
			log.Printf("Failed to send email to %v: %v", to, err)
		}
	}()
}

var replyMailTmpl = template.Must(template.New("reply").Parse(`<p>Hi {{.Recipient}},</p>
<p><strong>{{.ActiveUser}}</strong> replied to your discussion &quot;{{.DiscussionTitle}}&quot;.</p>
<p>Open the app to read the reply.</p>`))

// SendReplyNotification mails the thread author about a new reply. Safe to
// call on a nil or disabled service.
func (s *MailService) SendReplyNotification(recipientUID, activeUser, discussionTitle string) {
	if s == nil || !s.Enabled {
		return
	}
	if db.DB == nil {
		return
	}
	var user models.User
	if err := db.DB.Where("uid = ?", recipientUID).First(&user).Error; err != nil {
		log.Printf("reply mail: recipient %s not found: %v", recipientUID, err)
		return
	}

	var buf bytes.Buffer
	err := replyMailTmpl.Execute(&buf, map[string]string{
		"Recipient":       user.DisplayName(),
		"ActiveUser":      activeUser,
		"DiscussionTitle": discussionTitle,
	})
	if err != nil {
		log.Printf("Error rendering reply email: %v", err)
		return
	}
	s.sendAsync([]string{user.Email}, activeUser+" replied to your discussion", buf.String())
}
