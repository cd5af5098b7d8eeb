// Package search runs one query across messages and attachments of an organization.
package search

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gochat/internal/common"
	"gochat/internal/logger"
	"gochat/internal/metrics"
)

// PerCategoryLimit caps each result category independently.
const PerCategoryLimit = 20

type Kind string

const (
	KindMessage    Kind = "message"
	KindAttachment Kind = "attachment"
)

type MessageHit struct {
	ID          string
	ThreadID    string
	UserID      string
	Body        string
	ChannelID   string
	ChannelName string
	ThreadTitle *string
	CreatedAt   time.Time
	Relevance   float64
}

type AttachmentHit struct {
	ID           string
	MessageID    string
	OriginalName string
	ContentType  string
	SizeBytes    int64
	StoragePath  string
	UploadedBy   string
	CreatedAt    time.Time
	// ThreadID is nil when the owning message could not be joined.
	ThreadID *string
}

// Source performs the per-category lookups, already scoped to an organization.
type Source interface {
	SearchMessages(ctx context.Context, orgID, query string, limit int) ([]MessageHit, error)
	SearchAttachments(ctx context.Context, orgID, query, contentTypeHint string, limit int) ([]AttachmentHit, error)
}

type Filter struct {
	IncludeMessages    bool
	IncludeAttachments bool
	// ContentTypeHint narrows attachments by a content type fragment such as "pdf" or "image".
	ContentTypeHint string
}

func DefaultFilter() Filter {
	return Filter{IncludeMessages: true, IncludeAttachments: true}
}

type Result struct {
	Kind       Kind
	ID         string
	Message    *MessageHit
	Attachment *AttachmentHit
}

// Target returns the thread a result navigates to. Attachments whose thread is unknown
// are listed but cannot be opened.
func (r Result) Target() (string, bool) {
	switch r.Kind {
	case KindMessage:
		if r.Message != nil && r.Message.ThreadID != "" {
			return r.Message.ThreadID, true
		}
	case KindAttachment:
		if r.Attachment != nil && r.Attachment.ThreadID != nil && *r.Attachment.ThreadID != "" {
			return *r.Attachment.ThreadID, true
		}
	}
	return "", false
}

// Family classifies attachment results for display. Messages report FileFamilyOther.
func (r Result) Family() common.FileFamily {
	if r.Kind != KindAttachment || r.Attachment == nil {
		return common.FileFamilyOther
	}
	return common.DetectFileFamily(r.Attachment.ContentType)
}

// Title is the short label shown for a result.
func (r Result) Title() string {
	switch r.Kind {
	case KindMessage:
		if r.Message == nil {
			return ""
		}
		title := "#" + r.Message.ChannelName
		if r.Message.ThreadTitle != nil && *r.Message.ThreadTitle != "" {
			title += " / " + *r.Message.ThreadTitle
		}
		return title
	case KindAttachment:
		if r.Attachment != nil {
			return r.Attachment.OriginalName
		}
	}
	return ""
}

type Aggregator struct {
	source Source
	limit  int
}

func NewAggregator(source Source) *Aggregator {
	return &Aggregator{source: source, limit: PerCategoryLimit}
}

// Search returns message results followed by attachment results, each deduplicated by id
// and capped at PerCategoryLimit. If any enabled category fails the whole call fails.
func (a *Aggregator) Search(ctx context.Context, auth common.AuthContext, query string, filter Filter) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, common.NewValidationError("query", common.ErrQueryEmpty, "")
	}
	if auth.OrgID == "" {
		return nil, common.NewValidationError("auth", common.ErrNoAuthContext, "")
	}

	var (
		messages    []MessageHit
		attachments []AttachmentHit
	)

	g, gctx := errgroup.WithContext(ctx)
	if filter.IncludeMessages {
		g.Go(func() error {
			hits, err := a.source.SearchMessages(gctx, auth.OrgID, query, a.limit)
			if err != nil {
				return a.fail(string(KindMessage), err)
			}
			messages = hits
			return nil
		})
	}
	if filter.IncludeAttachments {
		g.Go(func() error {
			hits, err := a.source.SearchAttachments(gctx, auth.OrgID, query, filter.ContentTypeHint, a.limit)
			if err != nil {
				return a.fail(string(KindAttachment), err)
			}
			attachments = hits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(messages)+len(attachments))
	results = appendMessages(results, messages, a.limit)
	results = appendAttachments(results, attachments, a.limit)
	return results, nil
}

func (a *Aggregator) fail(category string, err error) error {
	metrics.SearchFailures.WithLabelValues(category).Inc()
	logger.Log.Warn("search category failed", zap.String("category", category), zap.Error(err))
	return common.Transient("search "+category+"s", err)
}

func appendMessages(results []Result, hits []MessageHit, limit int) []Result {
	seen := make(map[string]struct{}, len(hits))
	added := 0
	for i := range hits {
		if added == limit {
			break
		}
		if _, dup := seen[hits[i].ID]; dup {
			continue
		}
		seen[hits[i].ID] = struct{}{}
		hit := hits[i]
		results = append(results, Result{Kind: KindMessage, ID: hit.ID, Message: &hit})
		added++
	}
	return results
}

func appendAttachments(results []Result, hits []AttachmentHit, limit int) []Result {
	seen := make(map[string]struct{}, len(hits))
	added := 0
	for i := range hits {
		if added == limit {
			break
		}
		if _, dup := seen[hits[i].ID]; dup {
			continue
		}
		seen[hits[i].ID] = struct{}{}
		hit := hits[i]
		results = append(results, Result{Kind: KindAttachment, ID: hit.ID, Attachment: &hit})
		added++
	}
	return results
}
