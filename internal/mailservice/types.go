package mailservice

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/go-mail/mail/v2"

	"github.com/sushihentaime/blogify/internal/common"
)

const welcomeTemplate = "welcome_email.html"

type MailService struct {
	mb         common.MessageConsumer
	m          Mailer
	logger     MailLogger
	siteURL    string
	maxRetries int
	baseDelay  time.Duration
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
	SiteURL  string
}

type MailLogger interface {
	Error(msg string, args ...any)
	Info(msg string, args ...any)
}

type Mail struct {
	mu     sync.Mutex
	dialer Dialer
	parser TemplateParser
	sender string
}

type Mailer interface {
	send(recipient string, data any, templateFile string) error
}

type Template struct{}

type Dialer interface {
	DialAndSend(m ...*mail.Message) error
}

type TemplateParser interface {
	ParseTemplate(name string, data any) (*bytes.Buffer, *bytes.Buffer, *bytes.Buffer, error)
}

type welcomeData struct {
	Name    string
	SiteURL string
}
