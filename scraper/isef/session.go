package isef

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"isef-scraper/utils"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// Driver is one exclusive browser session against the remote site.
// Every method may fail with ErrNavigation, ErrTimeout or ErrElementNotFound.
type Driver interface {
	Open(ctx context.Context) error
	// Navigate loads url and blocks until the load event fires
	Navigate(ctx context.Context, url string) error
	// WaitUntil polls cond until it holds, failing with ErrTimeout after timeout
	WaitUntil(ctx context.Context, cond Condition, timeout time.Duration) error
	// ClickForce clicks through the page's scripting context, ignoring visibility and occlusion
	ClickForce(ctx context.Context, selector string) error
	ScrollIntoView(ctx context.Context, selector string) error
	// SelectOption sets a <select> to the option with the given value
	SelectOption(ctx context.Context, selector, value string) error
	// SelectOptionByText sets a <select> to the option whose visible label equals text
	SelectOptionByText(ctx context.Context, selector, text string) error
	IsChecked(ctx context.Context, selector string) (bool, error)
	Count(ctx context.Context, selector string) (int, error)
	// HTML returns the serialized live document
	HTML(ctx context.Context) (string, error)
	Close() error
}

// SessionOptions configures a ChromeSession
type SessionOptions struct {
	Headless          bool
	UserAgent         string
	PollInterval      time.Duration
	NavigationTimeout time.Duration
	ActionTimeout     time.Duration
}

// ChromeSession drives a single headless Chrome tab through chromedp
type ChromeSession struct {
	opts   SessionOptions
	logger *utils.Logger

	mu          sync.Mutex
	browserCtx  context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	closeOnce   sync.Once
}

// NewChromeSession creates an unopened session
func NewChromeSession(opts SessionOptions, logger *utils.Logger) *ChromeSession {
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = 30 * time.Second
	}
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = 10 * time.Second
	}
	return &ChromeSession{opts: opts, logger: logger}
}

// Open launches the browser in a sandboxed headless configuration
func (s *ChromeSession) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.browserCtx != nil {
		return ErrSessionOpenTwice
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.opts.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("log-level", "3"), // suppress Chrome logs
		chromedp.WindowSize(1280, 900),
	)
	if s.opts.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(s.opts.UserAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) { s.logger.Debug("chromedp: "+format, args...) }),
		chromedp.WithErrorf(func(format string, args ...interface{}) { s.logger.Debug("chromedp error: "+format, args...) }),
	)

	// an empty Run starts the browser and its first tab
	if err := chromedp.Run(browserCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return fmt.Errorf("failed to start browser: %w", err)
	}

	s.browserCtx = browserCtx
	s.cancelTab = cancelTab
	s.cancelAlloc = cancelAlloc
	s.logger.Debug("Browser session opened (headless=%v)", s.opts.Headless)
	return nil
}

// Close tears the browser down; only the first call has any effect
func (s *ChromeSession) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.browserCtx == nil {
			return
		}
		err = chromedp.Cancel(s.browserCtx)
		s.cancelTab()
		s.cancelAlloc()
		s.logger.Debug("Browser session closed")
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	return nil
}

func (s *ChromeSession) context() (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.browserCtx == nil {
		return nil, ErrSessionNotOpen
	}
	return s.browserCtx, nil
}

// run executes actions on the tab, bounded by timeout and by the caller's ctx
func (s *ChromeSession) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	bctx, err := s.context()
	if err != nil {
		return err
	}
	opCtx, cancel := context.WithTimeout(bctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err = chromedp.Run(opCtx, actions...)
	if err != nil && errors.Is(opCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%w after %v: %w", ErrTimeout, timeout, err)
	}
	return err
}

func (s *ChromeSession) evaluate(ctx context.Context, js string, res interface{}, opts ...chromedp.EvaluateOption) error {
	return s.run(ctx, s.opts.ActionTimeout, chromedp.Evaluate(js, res, opts...))
}

// asUserGesture marks the evaluation as user-initiated so click handlers behave as for a real click
func asUserGesture(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithUserGesture(true)
}

func (s *ChromeSession) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("Navigating to %s", url)
	if err := s.run(ctx, s.opts.NavigationTimeout, chromedp.Navigate(url)); err != nil {
		if errors.Is(err, ErrTimeout) {
			return fmt.Errorf("navigate %s: %w", url, err)
		}
		return fmt.Errorf("%w: %s: %w", ErrNavigation, url, err)
	}
	return nil
}

func (s *ChromeSession) WaitUntil(ctx context.Context, cond Condition, timeout time.Duration) error {
	return poll(ctx, cond, timeout, s.opts.PollInterval)
}

func (s *ChromeSession) ClickForce(ctx context.Context, selector string) error {
	var found bool
	js := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) return false;
		el.click();
		return true;
	})()`, selector)
	if err := s.evaluate(ctx, js, &found, asUserGesture); err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return nil
}

func (s *ChromeSession) ScrollIntoView(ctx context.Context, selector string) error {
	var found bool
	js := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) return false;
		el.scrollIntoView(true);
		return true;
	})()`, selector)
	if err := s.evaluate(ctx, js, &found); err != nil {
		return fmt.Errorf("scroll to %s: %w", selector, err)
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return nil
}

// selectJS picks the first option satisfying match and fires a bubbling change event.
// It yields 0 on success, 1 when the select is missing and 2 when no option matched.
const selectJS = `(() => {
	const sel = document.querySelector(%q);
	if (!sel) return 1;
	const want = %q;
	const opt = Array.from(sel.options).find(o => %s);
	if (!opt) return 2;
	sel.value = opt.value;
	opt.selected = true;
	sel.dispatchEvent(new Event('input', { bubbles: true }));
	sel.dispatchEvent(new Event('change', { bubbles: true }));
	return 0;
})()`

func (s *ChromeSession) selectBy(ctx context.Context, selector, want, match string) error {
	var code int
	if err := s.evaluate(ctx, fmt.Sprintf(selectJS, selector, want, match), &code, asUserGesture); err != nil {
		return fmt.Errorf("select %q in %s: %w", want, selector, err)
	}
	switch code {
	case 1:
		return fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	case 2:
		return fmt.Errorf("%w: option %q in %s", ErrElementNotFound, want, selector)
	}
	return nil
}

func (s *ChromeSession) SelectOption(ctx context.Context, selector, value string) error {
	return s.selectBy(ctx, selector, value, "o.value === want")
}

func (s *ChromeSession) SelectOptionByText(ctx context.Context, selector, text string) error {
	return s.selectBy(ctx, selector, text, "o.text.trim() === want")
}

func (s *ChromeSession) IsChecked(ctx context.Context, selector string) (bool, error) {
	var state int
	js := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) return -1;
		return el.checked ? 1 : 0;
	})()`, selector)
	if err := s.evaluate(ctx, js, &state); err != nil {
		return false, fmt.Errorf("read %s: %w", selector, err)
	}
	if state < 0 {
		return false, fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return state == 1, nil
}

func (s *ChromeSession) Count(ctx context.Context, selector string) (int, error) {
	var n int
	if err := s.evaluate(ctx, fmt.Sprintf(`document.querySelectorAll(%q).length`, selector), &n); err != nil {
		return 0, fmt.Errorf("count %s: %w", selector, err)
	}
	return n, nil
}

func (s *ChromeSession) HTML(ctx context.Context) (string, error) {
	var html string
	if err := s.evaluate(ctx, `document.documentElement.outerHTML`, &html); err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	return html, nil
}
