package mailservice

import (
	"bytes"
	"sync"

	"github.com/go-mail/mail/v2"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/mock"
	"github.com/sushihentaime/blogify/internal/common"
)

type MockTemplate struct {
	mock.Mock
}

func (m *MockTemplate) ParseTemplate(name string, data any) (*bytes.Buffer, *bytes.Buffer, *bytes.Buffer, error) {
	args := m.Called(name, data)
	return args.Get(0).(*bytes.Buffer), args.Get(1).(*bytes.Buffer), args.Get(2).(*bytes.Buffer), args.Error(3)
}

type MockDialer struct {
	mock.Mock
}

func (d *MockDialer) DialAndSend(m ...*mail.Message) error {
	args := d.Called(m)
	return args.Error(0)
}

// MockMailer fails the first failures sends.
type MockMailer struct {
	mu       sync.Mutex
	failures int
	calls    int
	email    string
	data     any
	err      error
}

func (m *MockMailer) send(recipient string, data any, templateFile string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.calls <= m.failures {
		return m.err
	}

	m.email = recipient
	m.data = data
	return nil
}

func (m *MockMailer) IsCalled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.email != ""
}

func (m *MockMailer) GetEmail() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.email
}

func (m *MockMailer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type MockLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (l *MockLogger) Info(msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, msg)
}

func (l *MockLogger) Error(msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func (l *MockLogger) Errors() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.errors...)
}

type MockMessageConsumer struct {
	mock.Mock
	bodies []string
}

func (m *MockMessageConsumer) Consume(key common.BindingKey, exchange common.Exchange, queue common.Queue) (<-chan amqp.Delivery, error) {
	m.Called(key, exchange, queue)

	msgsChan := make(chan amqp.Delivery)

	go func() {
		defer close(msgsChan)

		for _, body := range m.bodies {
			msgsChan <- amqp.Delivery{Body: []byte(body)}
		}
	}()

	return msgsChan, nil
}
