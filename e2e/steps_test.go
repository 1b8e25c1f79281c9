//go:build e2e

package e2e

import (
	"context"
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/frk/httpmock"
)

type step = httpmock.Step[playwright.Page]

// do returns a step that runs f with the page.
func do(name string, f func(p playwright.Page) error) step {
	return step{Name: name, Do: func(_ context.Context, p playwright.Page) error { return f(p) }}
}

func visit(path string) step {
	return do("goto "+path, func(p playwright.Page) error {
		_, err := p.Goto(cfg.URL(path))
		return err
	})
}

func button(p playwright.Page, name string) playwright.Locator {
	return p.GetByRole(*playwright.AriaRoleButton, playwright.PageGetByRoleOptions{Name: name})
}

func link(p playwright.Page, name string, exact bool) playwright.Locator {
	return p.GetByRole(*playwright.AriaRoleLink, playwright.PageGetByRoleOptions{Name: name, Exact: playwright.Bool(exact)})
}

func clickButton(name string) step {
	return do("click button "+name, func(p playwright.Page) error {
		return button(p, name).Click()
	})
}

func clickLink(name string, exact bool) step {
	return do("click link "+name, func(p playwright.Page) error {
		return link(p, name, exact).First().Click()
	})
}

// fill fills the input with the given placeholder and tabs out of it.
func fill(placeholder, value string) step {
	return do("fill "+placeholder, func(p playwright.Page) error {
		in := p.GetByPlaceholder(placeholder)
		if err := in.Click(); err != nil {
			return err
		}
		if err := in.Fill(value); err != nil {
			return err
		}
		return in.Press("Tab")
	})
}

func containsText(selector, text string) step {
	return do(fmt.Sprintf("%s contains %q", selector, text), func(p playwright.Page) error {
		return expect.Locator(p.Locator(selector)).ToContainText(text)
	})
}

func tableContains(text string) step {
	return do(fmt.Sprintf("table contains %q", text), func(p playwright.Page) error {
		return expect.Locator(p.GetByRole(*playwright.AriaRoleTable)).ToContainText(text)
	})
}

func tableLacks(text string) step {
	return do(fmt.Sprintf("table lacks %q", text), func(p playwright.Page) error {
		return expect.Locator(p.GetByRole(*playwright.AriaRoleTable)).Not().ToContainText(text)
	})
}

func visibleText(text string) step {
	return do(fmt.Sprintf("%q is visible", text), func(p playwright.Page) error {
		return expect.Locator(p.GetByText(text).First()).ToBeVisible()
	})
}

// closeRow clicks the Close button of the table row that contains text.
func closeRow(text string) step {
	return do("close "+text, func(p playwright.Page) error {
		row := p.GetByRole(*playwright.AriaRoleRow).Filter(playwright.LocatorFilterOptions{HasText: text})
		return row.GetByRole(*playwright.AriaRoleButton).Filter(playwright.LocatorFilterOptions{HasText: "Close"}).Click()
	})
}

// login fills in and submits the login form, which must be open.
func login(email, password string) []step {
	return []step{
		fill("Email address", email),
		fill("Password", password),
		clickButton("Login"),
	}
}

// awaiting returns a step that runs s and then waits for the first exchange,
// dispatched by r, with the given method and pattern.
func awaiting(r *httpmock.Router, method, pattern string, s step) step {
	return step{Name: s.Name, Do: func(ctx context.Context, p playwright.Page) error {
		w := r.Watch(httpmock.MatchExchange(method, pattern))
		if err := s.Do(ctx, p); err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
		if _, err := w.Wait(ctx); err != nil {
			return fmt.Errorf("waiting for %s %s: %w", method, pattern, err)
		}
		return nil
	}}
}

// update returns a step that applies f to v, i.e. a backend state change
// made by the scenario between two interactions.
func update[T any](name string, v *httpmock.Var[T], f func(*T)) step {
	return do(name, func(playwright.Page) error {
		v.Update(f)
		return nil
	})
}

func steps(groups ...[]step) (out []step) {
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
