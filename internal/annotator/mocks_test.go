package annotator

import (
	"context"
	"sync"
	"time"

	"golang.org/x/image/draw"

	"pdf-layout-annotator/internal/domain"
)

// Mock logger used by annotator package tests.
type mockLogger struct{}

func (mockLogger) Info(msg string, fields ...interface{})             {}
func (mockLogger) Error(msg string, err error, fields ...interface{}) {}
func (mockLogger) Debug(msg string, fields ...interface{})            {}
func (mockLogger) Warn(msg string, fields ...interface{})             {}

// mockBackend records calls and serves canned documents.
type mockBackend struct {
	mu sync.Mutex

	annotations domain.PdfAnnotations
	tokens      domain.PagesTokens
	labels      []domain.Label
	annErr      error
	tokensErr   error
	saveErr     error

	saves []domain.PdfAnnotations

	reorderResult domain.PdfAnnotations
	reorderErr    error
	regions       []domain.Annotation
	positioned    []domain.Annotation
	positions     []int
}

func (m *mockBackend) Annotations(ctx context.Context, ref domain.DocumentRef) (domain.PdfAnnotations, error) {
	if m.annErr != nil {
		return domain.PdfAnnotations{}, m.annErr
	}
	return m.annotations, nil
}

func (m *mockBackend) SaveAnnotations(ctx context.Context, ref domain.DocumentRef, annotations domain.PdfAnnotations) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves = append(m.saves, annotations)
	return m.saveErr
}

func (m *mockBackend) Tokens(ctx context.Context, name string) (domain.PagesTokens, error) {
	if m.tokensErr != nil {
		return domain.PagesTokens{}, m.tokensErr
	}
	return m.tokens, nil
}

func (m *mockBackend) Labels(ctx context.Context, task string) ([]domain.Label, error) {
	return m.labels, nil
}

func (m *mockBackend) ReorderRegion(ctx context.Context, ref domain.DocumentRef, region domain.Annotation) (domain.PdfAnnotations, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.regions = append(m.regions, region)
	return m.reorderResult, m.reorderErr
}

func (m *mockBackend) ReorderToPosition(ctx context.Context, ref domain.DocumentRef, annotation domain.Annotation, position int) (domain.PdfAnnotations, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positioned = append(m.positioned, annotation)
	m.positions = append(m.positions, position)
	return m.reorderResult, m.reorderErr
}

func (m *mockBackend) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saves)
}

// manualClock replaces time.AfterFunc; timers fire only when told to.
type manualClock struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	delay   time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, delay: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// fireAll runs every pending timer and returns how many fired.
func (c *manualClock) fireAll() int {
	c.mu.Lock()
	pending := make([]*manualTimer, 0)
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			pending = append(pending, t)
		}
	}
	c.mu.Unlock()
	for _, t := range pending {
		t.f()
	}
	return len(pending)
}

func (c *manualClock) armed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// recordingNotifier keeps every notification.
type recordingNotifier struct {
	mu   sync.Mutex
	errs []error
}

func (n *recordingNotifier) Notify(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errs = append(n.errs, err)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.errs)
}

// mockTask is a render task that completes when released.
type mockTask struct {
	once      sync.Once
	done      chan struct{}
	err       error
	cancelled bool
	mu        sync.Mutex
}

func newMockTask(err error) *mockTask {
	return &mockTask{done: make(chan struct{}), err: err}
}

func (t *mockTask) Cancel() {
	t.mu.Lock()
	t.cancelled = true
	t.err = domain.ErrRenderCancelled
	t.mu.Unlock()
	t.release()
}

func (t *mockTask) release() {
	t.once.Do(func() { close(t.done) })
}

func (t *mockTask) Wait() error {
	<-t.done
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *mockTask) wasCancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// mockPage hands out queued render tasks.
type mockPage struct {
	mu     sync.Mutex
	width  float64
	height float64
	tasks  []*mockTask
	scales []float64
}

func (p *mockPage) Size() (float64, float64) { return p.width, p.height }

func (p *mockPage) Render(ctx context.Context, scale float64, surface draw.Image) RenderTask {
	p.mu.Lock()
	defer p.mu.Unlock()
	t := p.tasks[len(p.scales)]
	p.scales = append(p.scales, scale)
	return t
}

// mockInteraction is a fixed Interaction.
type mockInteraction struct {
	label   *domain.Label
	mode    Mode
	options Options
}

func (m *mockInteraction) ActiveLabel() (domain.Label, bool) {
	if m.label == nil {
		return domain.Label{}, false
	}
	return *m.label, true
}

func (m *mockInteraction) Mode() Mode       { return m.mode }
func (m *mockInteraction) Options() Options { return m.options }

// memoryStore is a Store without persistence.
type memoryStore struct {
	mu        sync.Mutex
	set       domain.PdfAnnotations
	installed int
}

func (s *memoryStore) Current() domain.PdfAnnotations {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set
}

func (s *memoryStore) Apply(update func(domain.PdfAnnotations) domain.PdfAnnotations) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set = update(s.set)
}

func (s *memoryStore) Install(p domain.PdfAnnotations) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set = domain.NewPdfAnnotations(p.Annotations)
	s.installed++
}

var (
	testRef   = domain.DocumentRef{Task: "token_type", Dataset: "train", Name: "doc-1"}
	titleLbl  = domain.Label{Name: "Title", Color: "#ff0000"}
	textLbl   = domain.Label{Name: "Text", Color: "#00ff00"}
	testPages = domain.PagesTokens{Pages: []domain.PageTokens{
		{
			Index: 0, Width: 600, Height: 800,
			Tokens: []domain.Token{
				{X: 10, Y: 10, Width: 40, Height: 10, Text: "Hello"},
				{X: 60, Y: 10, Width: 40, Height: 10, Text: "world"},
				{X: 10, Y: 200, Width: 40, Height: 10, Text: "Body"},
			},
		},
		{
			Index: 1, Width: 600, Height: 800,
			Tokens: []domain.Token{
				{X: 10, Y: 10, Width: 40, Height: 10, Text: "Second"},
			},
		},
	}}
)
