//go:build e2e

package e2e

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chromedp/chromedp"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"

	"github.com/frk/httpmock"
	"github.com/frk/httpmock/cdproute"
	pm "github.com/frk/httpmock/pizzamock"
	"github.com/frk/httpmock/rodroute"
)

// menuPage renders the menu fetched from its own server, or the
// error with which the fetch failed.
const menuPage = `<!doctype html>
<html><head><title>menu</title></head>
<body><ul id="menu"></ul><p id="status">loading</p>
<script>
fetch("/api/order/menu")
  .then(res => res.json())
  .then(items => {
    for (const it of items) {
      const li = document.createElement("li");
      li.textContent = it.title;
      document.getElementById("menu").appendChild(li);
    }
    document.getElementById("status").textContent = "ok";
  })
  .catch(() => { document.getElementById("status").textContent = "failed"; });
</script>
</body></html>`

// newMenuServer returns a server that serves only the menu page, its
// API is expected to be served by the router.
func newMenuServer(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, menuPage)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// menuScenarios returns the scenarios run with each of the drivers, status
// reads the text of the given element.
func menuScenarios[P any](url string, status func(ctx context.Context, p P, sel string) (string, error), nav func(ctx context.Context, p P, url string) error) []*httpmock.Scenario[P] {
	check := func(sel, want string) httpmock.Step[P] {
		return httpmock.Step[P]{Name: sel, Do: func(ctx context.Context, p P) error {
			got, err := status(ctx, p, sel)
			if err != nil {
				return err
			}
			if strings.TrimSpace(got) != want {
				return fmt.Errorf("%s got=%q, want=%q", sel, got, want)
			}
			return nil
		}}
	}
	open := httpmock.Step[P]{Name: "goto", Do: func(ctx context.Context, p P) error {
		return nav(ctx, p, url)
	}}

	return []*httpmock.Scenario[P]{{
		Name: "fulfilled",
		Script: func(r *httpmock.Router) []httpmock.Step[P] {
			pm.Menu(r, pm.DefaultMenu())
			return []httpmock.Step[P]{open, check("#status", "ok"), check("#menu li:first-child", "Veggie")}
		},
	}, {
		Name: "aborted",
		Script: func(r *httpmock.Router) []httpmock.Step[P] {
			r.Route(pm.MenuPattern, func(rt *httpmock.Route) error {
				return rt.Abort(httpmock.AbortConnectionReset)
			})
			return []httpmock.Step[P]{open, check("#status", "failed")}
		},
	}}
}

func TestRodDriver(t *testing.T) {
	bin, ok := launcher.LookPath()
	if !ok {
		t.Skip("no chromium binary found")
	}
	u, err := launcher.New().Bin(bin).Headless(cfg.Headless).Launch()
	if err != nil {
		t.Skipf("chromium not launched: %v", err)
	}
	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		t.Fatal(err)
	}
	defer browser.MustClose()

	srv := newMenuServer(t)
	s := &httpmock.Suite[*rod.Page]{Driver: &rodroute.Driver{Browser: browser}, Logger: logger}
	s.Run(t, menuScenarios(srv.URL+"/",
		func(ctx context.Context, p *rod.Page, sel string) (string, error) {
			p = p.Timeout(cfg.Timeout)
			if _, err := p.ElementR("#status", "^(ok|failed)$"); err != nil {
				return "", err
			}
			el, err := p.Element(sel)
			if err != nil {
				return "", err
			}
			return el.Text()
		},
		func(ctx context.Context, p *rod.Page, url string) error {
			if err := p.Navigate(url); err != nil {
				return err
			}
			return p.WaitLoad()
		}))
}

func TestChromedpDriver(t *testing.T) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.Flag("headless", cfg.Headless))
	alloc, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	defer cancelAlloc()

	browser, cancel := chromedp.NewContext(alloc)
	defer cancel()
	if err := chromedp.Run(browser); err != nil {
		t.Skipf("chrome not launched: %v", err)
	}

	srv := newMenuServer(t)
	s := &httpmock.Suite[context.Context]{Driver: &cdproute.Driver{Browser: browser}, Logger: logger}
	s.Run(t, menuScenarios(srv.URL+"/",
		func(_ context.Context, tab context.Context, sel string) (string, error) {
			ctx, cancel := context.WithTimeout(tab, cfg.Timeout)
			defer cancel()

			var text string
			err := chromedp.Run(ctx,
				chromedp.Poll(`["ok", "failed"].includes(document.getElementById("status").textContent)`, nil),
				chromedp.Text(sel, &text, chromedp.ByQuery),
			)
			return text, err
		},
		func(_ context.Context, tab context.Context, url string) error {
			return chromedp.Run(tab, chromedp.Navigate(url))
		}))
}
