package pipeline

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/studioluxe/leadflow/internal/config"
	"github.com/studioluxe/leadflow/internal/crm"
	"github.com/studioluxe/leadflow/internal/model"
	"github.com/studioluxe/leadflow/internal/monitoring"
	"github.com/studioluxe/leadflow/internal/notify"
	"github.com/studioluxe/leadflow/internal/resilience"
	"github.com/studioluxe/leadflow/internal/validate"
	"github.com/studioluxe/leadflow/pkg/sendgrid"
)

type mockAnalyzer struct {
	mock.Mock
}

func (m *mockAnalyzer) Analyze(ctx context.Context, sub model.LeadSubmission) (*model.LeadAnalysis, error) {
	args := m.Called(ctx, sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LeadAnalysis), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Ready() error {
	return m.Called().Error(0)
}

func (m *mockNotifier) Notify(ctx context.Context, sub model.LeadSubmission, analysis *model.LeadAnalysis) error {
	return m.Called(ctx, sub, analysis).Error(0)
}

type mockSink struct {
	mock.Mock
}

func (m *mockSink) CreateLead(ctx context.Context, rec crm.Record) (string, error) {
	args := m.Called(ctx, rec)
	return args.String(0), args.Error(1)
}

func (m *mockSink) Name() string { return "mock" }

type fixture struct {
	analyzer *mockAnalyzer
	notifier *mockNotifier
	sink     *mockSink
	metrics  *monitoring.LeadMetrics
}

func newFixture() *fixture {
	return &fixture{
		analyzer: new(mockAnalyzer),
		notifier: new(mockNotifier),
		sink:     new(mockSink),
		metrics:  monitoring.NewLeadMetrics(prometheus.NewRegistry()),
	}
}

func (f *fixture) pipeline(withCRM bool) *Pipeline {
	var sink crm.Sink
	if withCRM {
		sink = f.sink
	}
	return New(validate.New(), f.analyzer, f.notifier, sink, f.metrics)
}

func janeDoe() model.LeadSubmission {
	return model.LeadSubmission{
		Name:   "Jane Doe",
		Email:  "jane@co.com",
		Budget: model.Budget50kPlus,
		Goals:  "Redesign our SaaS marketing site",
	}
}

func janeAnalysis() *model.LeadAnalysis {
	return &model.LeadAnalysis{
		LeadScore:    82,
		Intent:       model.IntentHiring,
		Sentiment:    "eager",
		EmailSubject: "Let's build it",
		EmailBody:    "<p>Book a call: https://cal.com/studioluxe/intro</p>",
		IsHighTicket: true,
	}
}

func TestProcess_HappyPathWithCRM(t *testing.T) {
	f := newFixture()
	sub := janeDoe()
	analysis := janeAnalysis()

	f.notifier.On("Ready").Return(nil)
	f.analyzer.On("Analyze", mock.Anything, sub).Return(analysis, nil).Once()
	f.notifier.On("Notify", mock.Anything, sub, analysis).Return(nil).Once()
	f.sink.On("CreateLead", mock.Anything, crm.Record{
		Name:   "Jane Doe",
		Email:  "jane@co.com",
		Budget: "50k+",
		Score:  82,
		Status: "Lead",
		Goals:  "Redesign our SaaS marketing site",
	}).Return("page-1", nil).Once()

	rep := f.pipeline(true).Process(context.Background(), sub)

	assert.Equal(t, model.Result{Success: true}, rep.Result)
	assert.Equal(t, StageDone, rep.Stage)
	assert.Empty(t, rep.FailedAt)
	assert.Equal(t, []Stage{StageValidating, StageAnalyzing, StageNotifying, StageSyncing, StageDone}, rep.Trace)
	assert.Equal(t, "page-1", rep.CRMID)
	assert.NotEmpty(t, rep.SubmissionID)
	f.analyzer.AssertNumberOfCalls(t, "Analyze", 1)
	f.notifier.AssertNumberOfCalls(t, "Notify", 1)
	f.sink.AssertNumberOfCalls(t, "CreateLead", 1)
}

// recordingSender is a sendgrid.Client that accepts every message.
type recordingSender struct {
	mu   sync.Mutex
	sent []sendgrid.Message
}

func (r *recordingSender) Send(_ context.Context, msg sendgrid.Message) (*sendgrid.Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return &sendgrid.Receipt{StatusCode: 202}, nil
}

func TestProcess_RealNotifierSendsBothEmailsThenSyncs(t *testing.T) {
	f := newFixture()
	sub := janeDoe()
	sender := &recordingSender{}
	cfg := &config.Config{Email: config.EmailConfig{
		FromEmail:       "hello@studioluxe.design",
		SystemFromEmail: "system@studioluxe.design",
		OperatorEmail:   "ops@studioluxe.design",
	}}

	f.analyzer.On("Analyze", mock.Anything, sub).Return(janeAnalysis(), nil).Once()
	f.sink.On("CreateLead", mock.Anything, mock.MatchedBy(func(rec crm.Record) bool {
		return rec.Budget == "50k+" && rec.Score == 82
	})).Return("page-9", nil).Once()

	p := New(validate.New(), f.analyzer, notify.New(sender, cfg), f.sink, f.metrics)
	rep := p.Process(context.Background(), sub)

	assert.Equal(t, model.Result{Success: true}, rep.Result)
	assert.Equal(t, "page-9", rep.CRMID)
	require.Len(t, sender.sent, 2)
	assert.Equal(t, "jane@co.com", sender.sent[0].To.Email)
	assert.Equal(t, "Let's build it", sender.sent[0].Subject)
	assert.Equal(t, "ops@studioluxe.design", sender.sent[1].To.Email)
	assert.Equal(t, notify.OperatorSubject(sub, janeAnalysis()), sender.sent[1].Subject)
	f.sink.AssertExpectations(t)
}

func TestProcess_HappyPathWithoutCRM(t *testing.T) {
	f := newFixture()
	sub := janeDoe()

	f.notifier.On("Ready").Return(nil)
	f.analyzer.On("Analyze", mock.Anything, sub).Return(janeAnalysis(), nil)
	f.notifier.On("Notify", mock.Anything, sub, mock.Anything).Return(nil)

	p := f.pipeline(false)
	rep := p.Process(context.Background(), sub)

	assert.True(t, rep.Result.Success)
	assert.False(t, p.CRMEnabled())
	assert.NotContains(t, rep.Trace, StageSyncing)
	f.sink.AssertNotCalled(t, "CreateLead", mock.Anything, mock.Anything)
}

func TestProcess_InvalidSubmission(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*model.LeadSubmission)
	}{
		{"short name", func(s *model.LeadSubmission) { s.Name = "J" }},
		{"bad email", func(s *model.LeadSubmission) { s.Email = "not-an-email" }},
		{"short goals", func(s *model.LeadSubmission) { s.Goals = "too short" }},
		{"unknown budget", func(s *model.LeadSubmission) { s.Budget = "1M" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			sub := janeDoe()
			tt.modify(&sub)

			rep := f.pipeline(true).Process(context.Background(), sub)

			assert.Equal(t, model.Result{Success: false, Error: "Invalid fields"}, rep.Result)
			assert.Equal(t, StageFailed, rep.Stage)
			assert.Equal(t, StageValidating, rep.FailedAt)
			assert.Equal(t, KindValidation, rep.Kind)
			assert.ErrorIs(t, rep.Err, validate.ErrInvalidFields)
			f.analyzer.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
			f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything)
			f.sink.AssertNotCalled(t, "CreateLead", mock.Anything, mock.Anything)
		})
	}
}

func TestProcess_OperatorMissing(t *testing.T) {
	f := newFixture()
	f.notifier.On("Ready").Return(notify.ErrOperatorMissing)

	rep := f.pipeline(true).Process(context.Background(), janeDoe())

	assert.False(t, rep.Result.Success)
	assert.Equal(t, MsgConfigError, rep.Result.Error)
	assert.Equal(t, KindConfig, rep.Kind)
	f.analyzer.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcess_AnalyzerFailure(t *testing.T) {
	f := newFixture()
	f.notifier.On("Ready").Return(nil)
	f.analyzer.On("Analyze", mock.Anything, mock.Anything).
		Return(nil, eris.New("analyzer: completion: service unavailable")).Once()

	rep := f.pipeline(true).Process(context.Background(), janeDoe())

	assert.False(t, rep.Result.Success)
	assert.Equal(t, "analyzer: completion: service unavailable", rep.Result.Error)
	assert.Equal(t, StageAnalyzing, rep.FailedAt)
	assert.Equal(t, KindUpstream, rep.Kind)
	f.analyzer.AssertNumberOfCalls(t, "Analyze", 1)
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything)
	f.sink.AssertNotCalled(t, "CreateLead", mock.Anything, mock.Anything)
}

func TestProcess_NotifyFailureSkipsCRM(t *testing.T) {
	f := newFixture()
	f.notifier.On("Ready").Return(nil)
	f.analyzer.On("Analyze", mock.Anything, mock.Anything).Return(janeAnalysis(), nil)
	f.notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything).
		Return(eris.New("notify: lead reply: bounced")).Once()

	rep := f.pipeline(true).Process(context.Background(), janeDoe())

	assert.False(t, rep.Result.Success)
	assert.Equal(t, "notify: lead reply: bounced", rep.Result.Error)
	assert.Equal(t, StageNotifying, rep.FailedAt)
	f.sink.AssertNotCalled(t, "CreateLead", mock.Anything, mock.Anything)
}

func TestProcess_CRMFailureFailsSubmission(t *testing.T) {
	f := newFixture()
	f.notifier.On("Ready").Return(nil)
	f.analyzer.On("Analyze", mock.Anything, mock.Anything).Return(janeAnalysis(), nil)
	f.notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	f.sink.On("CreateLead", mock.Anything, mock.Anything).
		Return("", eris.New("crm: create notion page: validation_error")).Once()

	rep := f.pipeline(true).Process(context.Background(), janeDoe())

	assert.False(t, rep.Result.Success)
	assert.Equal(t, "crm: create notion page: validation_error", rep.Result.Error)
	assert.Equal(t, StageSyncing, rep.FailedAt)
	f.notifier.AssertNumberOfCalls(t, "Notify", 1)
}

type emptyErr struct{}

func (emptyErr) Error() string { return "" }

func TestProcess_EmptyErrorMessage(t *testing.T) {
	f := newFixture()
	f.notifier.On("Ready").Return(nil)
	f.analyzer.On("Analyze", mock.Anything, mock.Anything).Return(nil, emptyErr{})

	rep := f.pipeline(false).Process(context.Background(), janeDoe())

	assert.Equal(t, model.Result{Success: false, Error: "Unknown error"}, rep.Result)
}

func TestProcess_TransientClassification(t *testing.T) {
	f := newFixture()
	f.notifier.On("Ready").Return(nil)
	f.analyzer.On("Analyze", mock.Anything, mock.Anything).
		Return(nil, resilience.NewTransientError(eris.New("rate limited"), 429))

	rep := f.pipeline(false).Process(context.Background(), janeDoe())

	assert.True(t, rep.Transient())
}

func TestProcess_FormAndPipelineAgreeOnValidity(t *testing.T) {
	f := newFixture()
	f.notifier.On("Ready").Return(nil)
	f.analyzer.On("Analyze", mock.Anything, mock.Anything).Return(janeAnalysis(), nil)
	f.notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	v := validate.New()
	p := f.pipeline(false)
	for _, sub := range []model.LeadSubmission{
		janeDoe(),
		{Name: "Al", Email: "al@x.io", Budget: model.BudgetBelow5k, Goals: "0123456789"},
		{Name: "A", Email: "al@x.io", Budget: model.BudgetBelow5k, Goals: "0123456789"},
		{Name: "Al", Email: "al@x.io", Budget: model.BudgetBelow5k, Goals: "012345678"},
	} {
		_, verr := v.Submission(sub)
		rep := p.Process(context.Background(), sub)
		assert.Equal(t, verr == nil, rep.Result.Success, sub.Name)
	}
}

func TestProcess_SubmissionIDsAreUnique(t *testing.T) {
	f := newFixture()

	p := f.pipeline(false)
	a := p.Process(context.Background(), model.LeadSubmission{})
	b := p.Process(context.Background(), model.LeadSubmission{})

	require.NotEmpty(t, a.SubmissionID)
	assert.NotEqual(t, a.SubmissionID, b.SubmissionID)
}
