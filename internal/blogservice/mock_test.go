package blogservice

import (
	"context"
	"io"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/mock"
	"github.com/sushihentaime/blogify/internal/aiservice"
	"github.com/sushihentaime/blogify/internal/common"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCache() *common.Cache {
	return common.NewCache(5*time.Minute, 10*time.Minute)
}

type MockPostStore struct {
	mock.Mock
}

func (m *MockPostStore) Insert(ctx context.Context, post *Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockPostStore) Get(ctx context.Context, id string) (*Post, error) {
	args := m.Called(ctx, id)
	post, _ := args.Get(0).(*Post)
	return post, args.Error(1)
}

func (m *MockPostStore) Update(ctx context.Context, id string, update *PostUpdate) (*Post, error) {
	args := m.Called(ctx, id, update)
	post, _ := args.Get(0).(*Post)
	return post, args.Error(1)
}

func (m *MockPostStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPostStore) List(ctx context.Context, filter ListFilter) (*PostList, error) {
	args := m.Called(ctx, filter)
	list, _ := args.Get(0).(*PostList)
	return list, args.Error(1)
}

type MockFileStore struct {
	mock.Mock
}

func (m *MockFileStore) Upload(ctx context.Context, owner, name, contentType string, data []byte) (string, error) {
	args := m.Called(ctx, owner, name, contentType, data)
	return args.String(0), args.Error(1)
}

func (m *MockFileStore) Owner(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockFileStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockFileStore) PreviewURL(id string) (string, error) {
	args := m.Called(id)
	return args.String(0), args.Error(1)
}

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Complete(ctx context.Context, messages []aiservice.Message, maxTokens int) (string, error) {
	args := m.Called(ctx, messages, maxTokens)
	return args.String(0), args.Error(1)
}

type MockCleaner struct {
	mock.Mock
}

func (m *MockCleaner) Schedule(ctx context.Context, fileID string) error {
	args := m.Called(ctx, fileID)
	return args.Error(0)
}

type MockMessageProducer struct {
	mock.Mock
}

func (m *MockMessageProducer) Publish(ctx context.Context, msg []byte, key common.BindingKey, exchange common.Exchange) error {
	args := m.Called(ctx, msg, key, exchange)
	return args.Error(0)
}

// MockMessageConsumer delivers the given bodies and then closes the channel.
type MockMessageConsumer struct {
	mock.Mock
	bodies []string
}

func (m *MockMessageConsumer) Consume(key common.BindingKey, exchange common.Exchange, queue common.Queue) (<-chan amqp.Delivery, error) {
	m.Called(key, exchange, queue)

	msgs := make(chan amqp.Delivery)
	go func() {
		defer close(msgs)
		for _, body := range m.bodies {
			msgs <- amqp.Delivery{Body: []byte(body)}
		}
	}()

	return msgs, nil
}
