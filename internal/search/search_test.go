package search

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gochat/internal/common"
)

type MockSource struct {
	mock.Mock
}

func (m *MockSource) SearchMessages(ctx context.Context, orgID, query string, limit int) ([]MessageHit, error) {
	args := m.Called(ctx, orgID, query, limit)
	hits, _ := args.Get(0).([]MessageHit)
	return hits, args.Error(1)
}

func (m *MockSource) SearchAttachments(ctx context.Context, orgID, query, hint string, limit int) ([]AttachmentHit, error) {
	args := m.Called(ctx, orgID, query, hint, limit)
	hits, _ := args.Get(0).([]AttachmentHit)
	return hits, args.Error(1)
}

var testAuth = common.AuthContext{ProfileID: "p1", OrgID: "org-1", Handle: "anna"}

func strPtr(s string) *string { return &s }

func TestAggregator_EmptyQuery(t *testing.T) {
	for _, q := range []string{"", "   ", "\t\n"} {
		src := new(MockSource)
		agg := NewAggregator(src)

		_, err := agg.Search(context.Background(), testAuth, q, DefaultFilter())

		assert.ErrorIs(t, err, common.ErrQueryEmpty)
		assert.True(t, common.IsValidation(err))
		src.AssertNotCalled(t, "SearchMessages", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		src.AssertNotCalled(t, "SearchAttachments", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	}
}

func TestAggregator_MessagesFirstThenAttachments(t *testing.T) {
	src := new(MockSource)
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	src.On("SearchMessages", mock.Anything, "org-1", "budget", PerCategoryLimit).Return([]MessageHit{
		{ID: "m1", ThreadID: "t1", Body: "budget draft", ChannelName: "finance", CreatedAt: now},
	}, nil)
	src.On("SearchAttachments", mock.Anything, "org-1", "budget", "", PerCategoryLimit).Return([]AttachmentHit{
		{ID: "a1", MessageID: "m9", OriginalName: "budget.xlsx", ContentType: "application/vnd.ms-excel", ThreadID: strPtr("t9")},
		{ID: "a2", MessageID: "m8", OriginalName: "budget-old.pdf", ContentType: "application/pdf"},
	}, nil)

	results, err := NewAggregator(src).Search(context.Background(), testAuth, "  budget ", DefaultFilter())
	require.NoError(t, err)

	type view struct {
		Kind   Kind
		ID     string
		Target string
		OK     bool
		Family common.FileFamily
	}
	var got []view
	for _, r := range results {
		target, ok := r.Target()
		got = append(got, view{r.Kind, r.ID, target, ok, r.Family()})
	}
	want := []view{
		{KindMessage, "m1", "t1", true, common.FileFamilyOther},
		{KindAttachment, "a1", "t9", true, common.FileFamilyExcel},
		{KindAttachment, "a2", "", false, common.FileFamilyPDF},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}
	src.AssertExpectations(t)
}

func TestAggregator_DedupAndCapPerCategory(t *testing.T) {
	src := new(MockSource)

	var msgs []MessageHit
	for i := 0; i < 30; i++ {
		msgs = append(msgs, MessageHit{ID: fmt.Sprintf("m%d", i%25), ThreadID: "t1"})
	}
	var atts []AttachmentHit
	for i := 0; i < 3; i++ {
		atts = append(atts, AttachmentHit{ID: "a1", OriginalName: "same.pdf"})
	}
	src.On("SearchMessages", mock.Anything, "org-1", "x", PerCategoryLimit).Return(msgs, nil)
	src.On("SearchAttachments", mock.Anything, "org-1", "x", "", PerCategoryLimit).Return(atts, nil)

	results, err := NewAggregator(src).Search(context.Background(), testAuth, "x", DefaultFilter())
	require.NoError(t, err)

	counts := map[Kind]int{}
	ids := map[string]int{}
	for _, r := range results {
		counts[r.Kind]++
		ids[r.ID]++
	}
	assert.Equal(t, PerCategoryLimit, counts[KindMessage])
	assert.Equal(t, 1, counts[KindAttachment])
	for id, n := range ids {
		assert.Equal(t, 1, n, "duplicate id %s", id)
	}
}

func TestAggregator_CategoryFailureFailsWhole(t *testing.T) {
	src := new(MockSource)
	src.On("SearchMessages", mock.Anything, "org-1", "q", PerCategoryLimit).Return([]MessageHit{{ID: "m1"}}, nil)
	src.On("SearchAttachments", mock.Anything, "org-1", "q", "", PerCategoryLimit).Return(nil, errors.New("connection refused"))

	results, err := NewAggregator(src).Search(context.Background(), testAuth, "q", DefaultFilter())

	assert.Nil(t, results)
	assert.True(t, common.IsTransient(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestAggregator_FilterSkipsDisabledCategory(t *testing.T) {
	src := new(MockSource)
	src.On("SearchAttachments", mock.Anything, "org-1", "plan", "pdf", PerCategoryLimit).Return([]AttachmentHit{
		{ID: "a1", OriginalName: "plan.pdf", ContentType: "application/pdf"},
	}, nil)

	filter := Filter{IncludeAttachments: true, ContentTypeHint: "pdf"}
	results, err := NewAggregator(src).Search(context.Background(), testAuth, "plan", filter)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "plan.pdf", results[0].Title())
	src.AssertNotCalled(t, "SearchMessages", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAggregator_RequiresOrganization(t *testing.T) {
	src := new(MockSource)
	_, err := NewAggregator(src).Search(context.Background(), common.AuthContext{ProfileID: "p1"}, "q", DefaultFilter())

	assert.True(t, common.IsValidation(err))
}

func TestResult_Title(t *testing.T) {
	r := Result{Kind: KindMessage, Message: &MessageHit{ChannelName: "general", ThreadTitle: strPtr("Kickoff")}}
	assert.Equal(t, "#general / Kickoff", r.Title())

	r = Result{Kind: KindMessage, Message: &MessageHit{ChannelName: "general"}}
	assert.Equal(t, "#general", r.Title())
}
