// Package iseftest provides an in-memory isef.Driver that serves canned HTML
// and applies clicks and selections to the document the way a browser would.
package iseftest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"isef-scraper/scraper/isef"

	"github.com/PuerkitoBio/goquery"
)

// Driver is a fake browser session over static pages
type Driver struct {
	mu sync.Mutex

	// Pages maps a URL to the document Navigate loads for it
	Pages map[string]string
	// NavFailures makes the next n navigations to a URL fail with isef.ErrNavigation
	NavFailures map[string]int
	// OnClick runs after a successful ClickForce on the selector
	OnClick map[string]func(d *Driver)
	// OnSelect runs after a successful SelectOption on the selector
	OnSelect map[string]func(d *Driver, value string)

	html    string
	Opened  int
	Closed  int
	Clicks  []string
	Visited []string
}

// New creates a Driver serving pages
func New(pages map[string]string) *Driver {
	return &Driver{
		Pages:       pages,
		NavFailures: map[string]int{},
		OnClick:     map[string]func(d *Driver){},
		OnSelect:    map[string]func(d *Driver, value string){},
	}
}

// SetHTML replaces the current document
func (d *Driver) SetHTML(html string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.html = html
}

func (d *Driver) Open(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Opened > 0 {
		return isef.ErrSessionOpenTwice
	}
	d.Opened++
	return nil
}

func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Closed++
	return nil
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Visited = append(d.Visited, url)
	if d.NavFailures[url] > 0 {
		d.NavFailures[url]--
		return fmt.Errorf("%w: %s: connection reset", isef.ErrNavigation, url)
	}
	page, ok := d.Pages[url]
	if !ok {
		return fmt.Errorf("%w: %s: 404", isef.ErrNavigation, url)
	}
	d.html = page
	return nil
}

func (d *Driver) WaitUntil(ctx context.Context, cond isef.Condition, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if ok, err := cond.Check(ctx); err == nil && ok {
			return nil
		}
		if !time.Now().Before(deadline) {
			return fmt.Errorf("%w after %v: %s", isef.ErrTimeout, timeout, cond.Desc)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
}

func (d *Driver) ClickForce(ctx context.Context, selector string) error {
	d.mu.Lock()
	err := d.mutate(selector, func(el *goquery.Selection) error {
		switch el.AttrOr("type", "") {
		case "checkbox":
			if _, on := el.Attr("checked"); on {
				el.RemoveAttr("checked")
			} else {
				el.SetAttr("checked", "checked")
			}
		case "radio":
			if name, ok := el.Attr("name"); ok {
				el.Parents().Last().Find(fmt.Sprintf(`input[type="radio"][name=%q]`, name)).RemoveAttr("checked")
			}
			el.SetAttr("checked", "checked")
		}
		return nil
	})
	if err == nil {
		d.Clicks = append(d.Clicks, selector)
	}
	hook := d.OnClick[selector]
	d.mu.Unlock()

	if err != nil {
		return err
	}
	if hook != nil {
		hook(d)
	}
	return nil
}

func (d *Driver) ScrollIntoView(ctx context.Context, selector string) error {
	n, err := d.Count(ctx, selector)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", isef.ErrElementNotFound, selector)
	}
	return nil
}

func (d *Driver) SelectOption(ctx context.Context, selector, value string) error {
	err := d.selectBy(selector, value, func(o *goquery.Selection) bool {
		return o.AttrOr("value", "") == value
	})
	if err != nil {
		return err
	}
	d.mu.Lock()
	hook := d.OnSelect[selector]
	d.mu.Unlock()
	if hook != nil {
		hook(d, value)
	}
	return nil
}

func (d *Driver) SelectOptionByText(ctx context.Context, selector, text string) error {
	return d.selectBy(selector, text, func(o *goquery.Selection) bool {
		return strings.TrimSpace(o.Text()) == text
	})
}

func (d *Driver) selectBy(selector, want string, match func(*goquery.Selection) bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mutate(selector, func(el *goquery.Selection) error {
		opt := el.Find("option").FilterFunction(func(_ int, o *goquery.Selection) bool { return match(o) }).First()
		if opt.Length() == 0 {
			return fmt.Errorf("%w: option %q in %s", isef.ErrElementNotFound, want, selector)
		}
		el.Find("option").RemoveAttr("selected")
		opt.SetAttr("selected", "selected")
		return nil
	})
}

func (d *Driver) IsChecked(ctx context.Context, selector string) (bool, error) {
	doc, err := d.doc()
	if err != nil {
		return false, err
	}
	el := doc.Find(selector).First()
	if el.Length() == 0 {
		return false, fmt.Errorf("%w: %s", isef.ErrElementNotFound, selector)
	}
	_, on := el.Attr("checked")
	return on, nil
}

func (d *Driver) Count(ctx context.Context, selector string) (int, error) {
	doc, err := d.doc()
	if err != nil {
		return 0, err
	}
	return doc.Find(selector).Length(), nil
}

func (d *Driver) HTML(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.html, nil
}

func (d *Driver) doc() (*goquery.Document, error) {
	d.mu.Lock()
	html := d.html
	d.mu.Unlock()
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// mutate applies fn to the first match of selector and re-serializes the
// document. The caller holds d.mu.
func (d *Driver) mutate(selector string, fn func(el *goquery.Selection) error) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(d.html))
	if err != nil {
		return err
	}
	el := doc.Find(selector).First()
	if el.Length() == 0 {
		return fmt.Errorf("%w: %s", isef.ErrElementNotFound, selector)
	}
	if err := fn(el); err != nil {
		return err
	}
	html, err := doc.Html()
	if err != nil {
		return err
	}
	d.html = html
	return nil
}

var _ isef.Driver = (*Driver)(nil)
