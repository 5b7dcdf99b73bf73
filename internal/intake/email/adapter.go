// Package email turns requester emails into task requests. The intake
// mailbox is polled; each unseen message becomes one NOT_STARTED task and
// is then marked seen.
package email

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/prdesk/prdesk/internal/model"
	"github.com/prdesk/prdesk/internal/store"
)

// fetchTimeout bounds a single mailbox poll.
const fetchTimeout = 30 * time.Second

// Intake polls the mailbox and files task requests.
type Intake struct {
	client   *IMAPClient
	tasks    *store.TaskStore
	interval time.Duration
	stopCh   chan struct{}
}

// NewIntake creates an email intake over the given client and task store.
func NewIntake(client *IMAPClient, tasks *store.TaskStore, interval time.Duration) *Intake {
	if interval <= 0 {
		interval = 2 * time.Minute
	}
	return &Intake{
		client:   client,
		tasks:    tasks,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start runs the polling loop until Stop is called.
func (in *Intake) Start() {
	go func() {
		ticker := time.NewTicker(in.interval)
		defer ticker.Stop()

		in.poll()
		for {
			select {
			case <-in.stopCh:
				return
			case <-ticker.C:
				in.poll()
			}
		}
	}()
}

// Stop halts the polling loop.
func (in *Intake) Stop() {
	close(in.stopCh)
}

// poll fetches unseen messages and files each as a task request.
// Failures are logged and left for the next poll; messages are marked
// seen only after the task is persisted.
func (in *Intake) poll() {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	messages, err := in.client.FetchUnseen(ctx)
	if err != nil {
		log.Printf("email intake: fetching mailbox: %v", err)
		return
	}

	for _, msg := range messages {
		task := TaskFromMessage(msg)
		if _, err := in.tasks.CreateRequest(ctx, []model.Task{task}, ""); err != nil {
			log.Printf("email intake: filing request from %s: %v", msg.FromAddr, err)
			continue
		}
		if err := in.client.MarkSeen(ctx, msg.UID); err != nil {
			log.Printf("email intake: marking message %d seen: %v", msg.UID, err)
		}
	}
}

// TaskFromMessage maps a requester email onto a task request. The sender
// becomes the requester, the subject the title, and the body the
// description. Emails carry no task type, so the request files as "other".
func TaskFromMessage(msg Message) model.Task {
	title := strings.TrimSpace(msg.Subject)
	if title == "" {
		title = "คำขอจากอีเมล"
	}

	name := strings.TrimSpace(msg.FromName)
	if name == "" {
		name = msg.FromAddr
	}

	return model.Task{
		RequesterName:     name,
		RequesterEmail:    msg.FromAddr,
		TaskType:          model.TaskTypeOther,
		OtherTaskTypeName: "อีเมล",
		Title:             title,
		Description:       strings.TrimSpace(msg.TextBody),
	}
}
