package importer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"time"

	"pdf-layout-annotator/internal/annotator"
	"pdf-layout-annotator/internal/domain"
)

// pageGap separates stacked pages on the virtual screen.
const pageGap = 16.0

// Backend is what a replay needs from the annotation backend.
type Backend interface {
	annotator.Backend
	PDF(ctx context.Context, name string) (io.ReadCloser, error)
	SetStatus(ctx context.Context, ref domain.DocumentRef, flag domain.StatusFlag, value bool) error
}

// RunnerConfig wires a Runner. Loader is only needed for scripts that set
// render; PreviewDir, when set, receives one PNG per rendered page.
type RunnerConfig struct {
	Backend       Backend
	Loader        annotator.DocumentLoader
	Logger        domain.Logger
	SaveDebounce  time.Duration
	UnloadTimeout time.Duration
	PreviewDir    string
}

// Runner replays scripts one document at a time.
type Runner struct {
	cfg RunnerConfig
}

func NewRunner(cfg RunnerConfig) *Runner {
	return &Runner{cfg: cfg}
}

// DocumentReport summarizes the replay of one document.
type DocumentReport struct {
	Ref         domain.DocumentRef
	Annotations int
	Steps       int
	Err         error
}

// Run replays every document of script. A failing document is reported and
// the remaining documents still run; the returned error joins all failures.
func (r *Runner) Run(ctx context.Context, script *Script) ([]DocumentReport, error) {
	reports := make([]DocumentReport, 0, len(script.Documents))
	var errs []error
	for _, doc := range script.Documents {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		report := r.RunDocument(ctx, doc)
		if report.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", report.Ref, report.Err))
			r.cfg.Logger.Error("Replay failed", report.Err, "document", report.Ref.String(), "step", report.Steps)
		} else {
			r.cfg.Logger.Info("Replay finished", "document", report.Ref.String(), "annotations", report.Annotations)
		}
		reports = append(reports, report)
	}
	return reports, errors.Join(errs...)
}

// RunDocument opens a session, replays the steps, closes the session (which
// saves) and optionally marks the document finished.
func (r *Runner) RunDocument(ctx context.Context, doc DocumentScript) DocumentReport {
	report := DocumentReport{Ref: doc.Ref()}
	mode, err := doc.mode()
	if err != nil {
		report.Err = err
		return report
	}

	session, err := r.open(ctx, doc)
	if err != nil {
		report.Err = err
		return report
	}
	if view, _ := session.View(); view == annotator.ViewNotFound {
		_ = session.Close(ctx)
		report.Err = domain.ErrDocumentNotFound
		return report
	}

	session.SetMode(mode)
	session.SetOptions(annotator.Options{Freeform: doc.Freeform})

	if err := r.layout(ctx, session, doc); err != nil {
		_ = session.Close(ctx)
		report.Err = err
		return report
	}

	for i, step := range doc.Steps {
		if err := r.step(ctx, session, step); err != nil {
			_ = session.Close(ctx)
			report.Steps = i
			report.Err = err
			return report
		}
		report.Steps = i + 1
	}

	report.Annotations = session.Current().Len()
	if err := session.Close(ctx); err != nil {
		report.Err = fmt.Errorf("save: %w", err)
		return report
	}

	if doc.Finish {
		if err := r.cfg.Backend.SetStatus(ctx, report.Ref, domain.StatusFinished, true); err != nil {
			report.Err = fmt.Errorf("mark finished: %w", err)
		}
	}
	return report
}

func (r *Runner) open(ctx context.Context, doc DocumentScript) (*annotator.Session, error) {
	cfg := annotator.SessionConfig{
		Ref:           doc.Ref(),
		Backend:       r.cfg.Backend,
		Logger:        r.cfg.Logger,
		SaveDebounce:  r.cfg.SaveDebounce,
		UnloadTimeout: r.cfg.UnloadTimeout,
	}
	if doc.Render {
		if r.cfg.Loader == nil {
			return nil, fmt.Errorf("render requested but no document loader is configured")
		}
		source, err := r.fetchPDF(ctx, doc.Name)
		if err != nil {
			return nil, err
		}
		cfg.Loader = r.cfg.Loader
		cfg.Source = source
	}
	return annotator.Open(ctx, cfg)
}

func (r *Runner) fetchPDF(ctx context.Context, name string) ([]byte, error) {
	rc, err := r.cfg.Backend.PDF(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("fetch pdf: %w", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	return data, nil
}

// layout stacks pages top to bottom at the script scale. Rendered documents
// are drawn into fresh surfaces and, with a preview directory, written out.
func (r *Runner) layout(ctx context.Context, session *annotator.Session, doc DocumentScript) error {
	scale := doc.scale()
	y := 0.0
	for _, page := range session.Pages() {
		w, h := page.Size()
		placement := domain.Bounds{Left: 0, Top: y, Right: w * scale, Bottom: y + h*scale}
		y = placement.Bottom + pageGap

		if !doc.Render {
			<-page.Resize(ctx, placement, nil)
			continue
		}

		surface := image.NewRGBA(image.Rect(0, 0, int(w*scale+0.5), int(h*scale+0.5)))
		if err := <-page.Resize(ctx, placement, surface); err != nil {
			return fmt.Errorf("render page %d: %w", page.Page(), err)
		}
		if r.cfg.PreviewDir != "" {
			if err := writePreview(r.cfg.PreviewDir, doc.Name, page.Page(), surface); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Runner) step(ctx context.Context, session *annotator.Session, step Step) error {
	switch {
	case step.Label != "":
		if !session.SetActiveLabel(step.Label) {
			return fmt.Errorf("unknown label %q", step.Label)
		}
	case step.Draw != nil:
		page, err := pageOf(session, step.Draw.Page)
		if err != nil {
			return err
		}
		screen := page.Transform().ToScreen(step.Draw.bounds())
		if err := page.PointerDown(screen.Left, screen.Top); err != nil {
			return err
		}
		page.PointerMove(screen.Right, screen.Bottom)
		return page.PointerUp(ctx)
	case step.Select != nil:
		page, err := pageOf(session, step.Select.Page)
		if err != nil {
			return err
		}
		t := page.Transform()
		screen := t.ToScreen(domain.Bounds{Left: step.Select.X, Top: step.Select.Y, Right: step.Select.X, Bottom: step.Select.Y})
		if _, ok := page.ShiftClick(screen.Left, screen.Top); !ok {
			return fmt.Errorf("no annotation at page %d (%.1f, %.1f)", step.Select.Page, step.Select.X, step.Select.Y)
		}
	case step.Position != "":
		assigner := session.ReadingOrder()
		if assigner.Picker() != nil {
			return assigner.Select(ctx, step.Position)
		}
		return assigner.Commit(ctx, step.Position)
	case step.Key != nil:
		return session.Key(ctx, annotator.KeyEvent{Key: step.Key.Name, Ctrl: step.Key.Ctrl, Meta: step.Key.Meta})
	case step.Delete != "":
		if _, ok := session.Current().Find(step.Delete); !ok {
			return fmt.Errorf("delete %s: %w", step.Delete, domain.ErrAnnotationMissing)
		}
		session.DeleteAnnotation(step.Delete)
	case step.Undo:
		session.Undo()
	}
	return nil
}

func pageOf(session *annotator.Session, index int) (*annotator.PageController, error) {
	page, ok := session.Page(index)
	if !ok {
		return nil, fmt.Errorf("page %d: %w", index, domain.ErrNoPagePlacement)
	}
	return page, nil
}

func writePreview(dir, name string, page int, img image.Image) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(dir, fmt.Sprintf("%s-%03d.png", name, page+1)))
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
