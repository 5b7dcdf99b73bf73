package email

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message/mail"
)

// Message is a requester email pulled from the intake mailbox.
type Message struct {
	UID       uint32
	MessageID string
	FromName  string
	FromAddr  string
	Subject   string
	Date      time.Time
	TextBody  string
}

// IMAPClient wraps go-imap v2 for polling the intake mailbox.
type IMAPClient struct {
	host     string
	port     string
	username string
	password string
	mailbox  string
	tls      bool
}

// NewIMAPClient creates a new IMAP client configuration.
func NewIMAPClient(host, port, username, password, mailbox string, tls bool) *IMAPClient {
	if mailbox == "" {
		mailbox = "INBOX"
	}
	return &IMAPClient{
		host:     host,
		port:     port,
		username: username,
		password: password,
		mailbox:  mailbox,
		tls:      tls,
	}
}

// connect establishes a connection, authenticates, and selects the
// intake mailbox. The caller logs out the returned client.
func (c *IMAPClient) connect(_ context.Context) (*imapclient.Client, error) {
	addr := c.host + ":" + c.port

	var client *imapclient.Client
	var err error
	if c.tls {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := client.Login(c.username, c.password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("authenticating %s: %w", c.username, err)
	}

	if _, err := client.Select(c.mailbox, nil).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("selecting %s: %w", c.mailbox, err)
	}

	return client, nil
}

// FetchUnseen returns the unseen messages in the intake mailbox with
// their plain-text bodies parsed.
func (c *IMAPClient) FetchUnseen(ctx context.Context) ([]Message, error) {
	client, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Logout().Wait() }()

	criteria := &imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
	}
	searchData, err := client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching unseen messages: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchOpts := &imap.FetchOptions{
		Envelope:    true,
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	fetchCmd := client.Fetch(imap.UIDSetNum(uids...), fetchOpts)

	var messages []Message
	for {
		raw := fetchCmd.Next()
		if raw == nil {
			break
		}
		buf, err := raw.Collect()
		if err != nil {
			continue
		}

		msg := Message{UID: uint32(buf.UID)}
		if env := buf.Envelope; env != nil {
			msg.MessageID = env.MessageID
			msg.Subject = env.Subject
			msg.Date = env.Date
			if len(env.From) > 0 {
				msg.FromName = env.From[0].Name
				msg.FromAddr = env.From[0].Addr()
			}
		}
		if rawBody := buf.FindBodySection(bodySection); rawBody != nil {
			msg.TextBody = parseTextBody(rawBody)
		}
		messages = append(messages, msg)
	}

	if err := fetchCmd.Close(); err != nil {
		return messages, fmt.Errorf("fetching messages: %w", err)
	}
	return messages, nil
}

// MarkSeen flags a message as seen so the next poll skips it.
func (c *IMAPClient) MarkSeen(ctx context.Context, uid uint32) error {
	client, err := c.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Logout().Wait() }()

	storeCmd := client.Store(imap.UIDSetNum(imap.UID(uid)), &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagSeen},
	}, nil)

	return storeCmd.Close()
}

// parseTextBody extracts the first plain-text part of a MIME message.
func parseTextBody(raw []byte) string {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		// Not MIME; treat the whole payload as text.
		return strings.TrimSpace(string(raw))
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		header, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := header.ContentType()
		if contentType != "text/plain" {
			continue
		}
		body, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}
		return strings.TrimSpace(string(body))
	}

	return ""
}
