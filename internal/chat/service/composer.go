package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"gochat/internal/common"
	"gochat/internal/dbmysql"
	"gochat/internal/dlp"
	"gochat/internal/logger"
	"gochat/internal/media"
	"gochat/internal/metrics"
)

//go:generate mockgen -source=composer.go -destination=mocks/composer_mock.go -package=mocks

var (
	ErrAttemptInFlight = errors.New("attempt is already submitting")
	ErrNoThread        = errors.New("thread is required")
)

// MessageWriter is the part of the chat repository the composer writes through.
type MessageWriter interface {
	CreateMessage(ctx context.Context, msg *dbmysql.Message) error
	CreateMessageCCs(ctx context.Context, orgID string, ccs []*dbmysql.MessageCC) error
	ProfilesByIDs(ctx context.Context, orgID string, ids []string) ([]*dbmysql.Profile, error)
}

type AttachmentUploader interface {
	Upload(ctx context.Context, uploaderID, messageID string, f media.File) (*dbmysql.Attachment, error)
}

type CCNotifier interface {
	NotifyCC(ctx context.Context, sender common.AuthContext, messageID, threadID string, recipients []string) error
}

// LocalStore receives the sent message before the next reload confirms it.
type LocalStore interface {
	UpsertLocal(entity interface{}) error
}

// Draft is what the user typed and picked. It is never modified by a send.
type Draft struct {
	ThreadID string
	Body     string
	ReplyTo  *string
	TTLHours *int
	Files    []media.File
	CC       []string
}

type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type Composer struct {
	writer     MessageWriter
	uploader   AttachmentUploader
	notifier   CCNotifier
	scanner    *dlp.Scanner
	maskOnSend bool
	local      LocalStore
}

func NewComposer(writer MessageWriter, uploader AttachmentUploader, notifier CCNotifier, scanner *dlp.Scanner, maskOnSend bool) *Composer {
	if scanner == nil {
		scanner = dlp.Default()
	}
	return &Composer{
		writer:     writer,
		uploader:   uploader,
		notifier:   notifier,
		scanner:    scanner,
		maskOnSend: maskOnSend,
	}
}

// WithLocalStore echoes created messages into s.
func (c *Composer) WithLocalStore(s LocalStore) *Composer {
	cp := *c
	cp.local = s
	return &cp
}

// Screen applies the content rules to a body: blocking hits reject it, masking hits are
// redacted when mask-on-send is enabled. Nothing is sent.
func (c *Composer) Screen(body string) (string, dlp.Warnings, error) {
	warnings := c.scanner.Scan(body)
	for _, tag := range warnings.Tags() {
		metrics.DLPWarnings.WithLabelValues(tag).Inc()
	}
	if warnings.Blocking() {
		return "", warnings, common.NewValidationError("body", common.ErrBlockedContent, strings.Join(warnings.Advisories(), "; "))
	}
	if warnings.Masking() && c.maskOnSend {
		body = c.scanner.Mask(body)
	}
	return body, warnings, nil
}

func (c *Composer) NewAttempt(auth common.AuthContext, draft Draft) *Attempt {
	return &Attempt{composer: c, auth: auth, draft: draft}
}

// Send is NewAttempt followed by one Submit. The attempt is returned even on failure so the
// caller can resume it.
func (c *Composer) Send(ctx context.Context, auth common.AuthContext, draft Draft) (*Attempt, error) {
	a := c.NewAttempt(auth, draft)
	return a, a.Submit(ctx)
}

// Attempt tracks one send through create message, upload attachments and record CC.
// A failed attempt resumes where it stopped; the message is created at most once.
type Attempt struct {
	composer *Composer
	auth     common.AuthContext
	draft    Draft

	mu          sync.Mutex
	state       State
	err         error
	warnings    dlp.Warnings
	body        string
	ccIDs       []string
	message     *dbmysql.Message
	attachments []*dbmysql.Attachment
	uploaded    int
	ccDone      bool
}

func (a *Attempt) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Attempt) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

// Warnings are the DLP hits found while validating the body.
func (a *Attempt) Warnings() dlp.Warnings {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.warnings
}

// Message returns the stored message, or nil before step one succeeded.
func (a *Attempt) Message() *dbmysql.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.message == nil {
		return nil
	}
	msg := *a.message
	return &msg
}

func (a *Attempt) Attachments() []dbmysql.Attachment {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]dbmysql.Attachment, 0, len(a.attachments))
	for _, att := range a.attachments {
		out = append(out, *att)
	}
	return out
}

// Remaining describes the work a further Submit would perform.
func (a *Attempt) Remaining() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.remainingLocked()
}

func (a *Attempt) remainingLocked() []string {
	var out []string
	if a.message == nil {
		out = append(out, string(common.StepMessage))
	}
	for _, f := range a.draft.Files[a.uploaded:] {
		out = append(out, "attachment:"+f.Name)
	}
	if !a.ccDone && (len(a.ccIDs) > 0 || (a.message == nil && len(a.draft.CC) > 0)) {
		out = append(out, string(common.StepCC))
	}
	return out
}

// Submit runs the steps still outstanding. Submitting a succeeded attempt is a no-op.
func (a *Attempt) Submit(ctx context.Context) error {
	a.mu.Lock()
	switch a.state {
	case StateSucceeded:
		a.mu.Unlock()
		return nil
	case StateSubmitting:
		a.mu.Unlock()
		return ErrAttemptInFlight
	}
	a.state = StateSubmitting
	a.err = nil
	a.mu.Unlock()

	err := a.run(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		a.state = StateFailed
		a.err = err
		return err
	}
	a.state = StateSucceeded
	return nil
}

// run is only entered by the goroutine that moved the attempt to StateSubmitting.
func (a *Attempt) run(ctx context.Context) error {
	c := a.composer

	if a.message == nil {
		if err := a.validate(ctx); err != nil {
			return err
		}

		msg := &dbmysql.Message{
			ThreadID: a.draft.ThreadID,
			UserID:   a.auth.ProfileID,
			Body:     a.body,
			ReplyTo:  a.draft.ReplyTo,
			TTLHours: a.draft.TTLHours,
		}
		if err := c.writer.CreateMessage(ctx, msg); err != nil {
			return common.Transient("create message", err)
		}
		a.setMessage(msg)

		if c.local != nil {
			if err := c.local.UpsertLocal(msg); err != nil {
				logger.Log.Debug("local echo skipped", zap.String("message_id", msg.ID), zap.Error(err))
			}
		}
	}

	for a.uploaded < len(a.draft.Files) {
		f := a.draft.Files[a.uploaded]
		att, err := c.uploader.Upload(ctx, a.auth.ProfileID, a.message.ID, f)
		if err != nil {
			return a.partial(common.StepAttachments, err)
		}
		a.addAttachment(att)
	}

	if !a.ccDone && len(a.ccIDs) > 0 {
		ccs := make([]*dbmysql.MessageCC, 0, len(a.ccIDs))
		for _, id := range a.ccIDs {
			ccs = append(ccs, &dbmysql.MessageCC{MessageID: a.message.ID, UserID: id, AddedBy: a.auth.ProfileID})
		}
		if err := c.writer.CreateMessageCCs(ctx, a.auth.OrgID, ccs); err != nil {
			return a.partial(common.StepCC, common.Transient("record cc", err))
		}
		a.mu.Lock()
		a.ccDone = true
		a.mu.Unlock()

		if c.notifier != nil {
			if err := c.notifier.NotifyCC(ctx, a.auth, a.message.ID, a.message.ThreadID, a.ccIDs); err != nil {
				logger.Log.Warn("cc notifications not recorded",
					zap.String("message_id", a.message.ID),
					zap.Error(err))
			}
		}
	}

	logger.Log.Info("message sent",
		zap.String("message_id", a.message.ID),
		zap.String("thread_id", a.message.ThreadID),
		zap.Int("attachments", len(a.draft.Files)),
		zap.Int("cc", len(a.ccIDs)))
	return nil
}

// validate has no side effects besides a read-only profile lookup for CC.
func (a *Attempt) validate(ctx context.Context) error {
	c := a.composer
	if a.auth.ProfileID == "" || a.auth.OrgID == "" {
		return common.NewValidationError("auth", common.ErrNoAuthContext, "")
	}
	if strings.TrimSpace(a.draft.ThreadID) == "" {
		return common.NewValidationError("thread", ErrNoThread, "")
	}
	if strings.TrimSpace(a.draft.Body) == "" && len(a.draft.Files) == 0 {
		return common.NewValidationError("body", common.ErrEmptyMessage, "")
	}
	for _, f := range a.draft.Files {
		if err := media.CheckSize(f); err != nil {
			return err
		}
	}

	body, warnings, err := c.Screen(a.draft.Body)
	a.mu.Lock()
	a.warnings = warnings
	a.mu.Unlock()
	if err != nil {
		return err
	}

	ccIDs, err := a.resolveCC(ctx)
	if err != nil {
		return err
	}

	a.body = body
	a.ccIDs = ccIDs
	return nil
}

func (a *Attempt) resolveCC(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(a.draft.CC))
	seen := make(map[string]struct{}, len(a.draft.CC))
	for _, id := range a.draft.CC {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	profiles, err := a.composer.writer.ProfilesByIDs(ctx, a.auth.OrgID, ids)
	if err != nil {
		return nil, common.Transient("lookup cc profiles", err)
	}
	found := make(map[string]struct{}, len(profiles))
	for _, p := range profiles {
		found[p.ID] = struct{}{}
	}
	var missing []string
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, common.NewValidationError("cc", common.ErrInvalidCC, "unknown profiles: "+strings.Join(missing, ", "))
	}
	return ids, nil
}

func (a *Attempt) setMessage(msg *dbmysql.Message) {
	a.mu.Lock()
	a.message = msg
	a.mu.Unlock()
}

func (a *Attempt) addAttachment(att *dbmysql.Attachment) {
	a.mu.Lock()
	a.attachments = append(a.attachments, att)
	a.uploaded++
	a.mu.Unlock()
}

func (a *Attempt) partial(step common.CompositionStep, err error) error {
	a.mu.Lock()
	remaining := a.remainingLocked()
	a.mu.Unlock()

	logger.Log.Warn("message sent with failed step",
		zap.String("message_id", a.message.ID),
		zap.String("step", string(step)),
		zap.Strings("remaining", remaining),
		zap.Error(err))
	return &common.PartialCompositionError{
		Step:      step,
		MessageID: a.message.ID,
		Remaining: remaining,
		Err:       err,
	}
}
