package blogservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sushihentaime/blogify/internal/common"
	"golang.org/x/exp/rand"
)

// InlineCleaner deletes files synchronously.
type InlineCleaner struct {
	files  FileStore
	logger *slog.Logger
}

func NewInlineCleaner(files FileStore, logger *slog.Logger) *InlineCleaner {
	return &InlineCleaner{files: files, logger: logger}
}

// Schedule deletes the file now. A file that is already gone is not an error.
func (c *InlineCleaner) Schedule(ctx context.Context, fileID string) error {
	err := c.files.Delete(ctx, fileID)
	if err != nil && !errors.Is(err, ErrRecordNotFound) {
		c.logger.Error("could not delete file", slog.String("file_id", fileID), slog.String("error", err.Error()))
		return err
	}

	return nil
}

type FileOrphanedMessage struct {
	FileID string `json:"file_id"`
}

// BrokerCleaner hands deletions to a CleanupWorker through the message broker.
type BrokerCleaner struct {
	mb common.MessageProducer
}

func NewBrokerCleaner(mb common.MessageProducer) *BrokerCleaner {
	return &BrokerCleaner{mb: mb}
}

func (c *BrokerCleaner) Schedule(ctx context.Context, fileID string) error {
	msg, err := json.Marshal(FileOrphanedMessage{FileID: fileID})
	if err != nil {
		return fmt.Errorf("could not marshal file message: %w", err)
	}

	return c.mb.Publish(ctx, msg, common.FileOrphanedKey, common.FileExchange)
}

// CleanupWorker consumes orphaned file messages and deletes the files.
type CleanupWorker struct {
	mb         common.MessageConsumer
	files      FileStore
	logger     *slog.Logger
	maxRetries int
	baseDelay  time.Duration
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

func NewCleanupWorker(mb common.MessageConsumer, files FileStore, logger *slog.Logger) *CleanupWorker {
	ctx, cancel := context.WithCancel(context.Background())
	return &CleanupWorker{
		mb:         mb,
		files:      files,
		logger:     logger,
		maxRetries: 5,
		baseDelay:  500 * time.Millisecond,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start consumes the cleanup queue until Close is called or the delivery channel closes.
func (w *CleanupWorker) Start() error {
	msgs, err := w.mb.Consume(common.FileOrphanedKey, common.FileExchange, common.FileCleanupQueue)
	if err != nil {
		return err
	}

	w.done = make(chan struct{})

	go func() {
		defer close(w.done)

		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}

				var data FileOrphanedMessage
				if err := json.Unmarshal(msg.Body, &data); err != nil || data.FileID == "" {
					w.logger.Error("could not read file cleanup message", slog.String("body", string(msg.Body)))
					msg.Ack(false)
					continue
				}

				w.deleteWithRetry(data.FileID)
				msg.Ack(false)

			case <-w.ctx.Done():
				w.logger.Info("stopping file cleanup worker")
				return
			}
		}
	}()

	return nil
}

// deleteWithRetry uses exponential backoff with jitter.
func (w *CleanupWorker) deleteWithRetry(fileID string) bool {
	for attempt := 0; attempt < w.maxRetries; attempt++ {
		err := w.files.Delete(w.ctx, fileID)
		if err == nil || errors.Is(err, ErrRecordNotFound) {
			w.logger.Info("orphaned file deleted", slog.String("file_id", fileID))
			return true
		}

		delay := time.Duration(rand.Int63n(int64(w.baseDelay) << uint(attempt)))
		w.logger.Info("delaying file deletion", slog.String("file_id", fileID), slog.Int("attempt", attempt), slog.Duration("delay", delay))

		select {
		case <-time.After(delay):
		case <-w.ctx.Done():
			return false
		}
	}

	w.logger.Error("could not delete orphaned file", slog.String("file_id", fileID))
	return false
}

// Close stops the worker and waits for the current message to finish.
func (w *CleanupWorker) Close() {
	w.cancel()
	if w.done != nil {
		<-w.done
	}
}
