// Package browser drives a real Chromium instance against the social
// platform. The rest of the system treats it as an opaque capability that
// can log in, post, raise a challenge-required condition, and later accept
// a verification code.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-autopost/internal/config"
	"github.com/go-autopost/internal/domain"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

const (
	loginURL   = "https://x.com/login"
	homeURL    = "https://x.com/home"
	composeURL = "https://x.com/compose/post"

	selUsernameInput  = `input[name="text"]`
	selPasswordInput  = `input[name="password"]`
	selChallengeInput = `input[data-testid="ocfEnterTextTextInput"]`
	selChallengeNext  = `button[data-testid="ocfEnterTextNextButton"]`
	selPostBox        = `div[aria-label="Post text"]`
	selPostButton     = `button[data-testid="tweetButton"]`

	stepTimeout = 15 * time.Second
)

// Driver owns one browser session against the platform.
type Driver struct {
	browser  *rod.Browser
	page     *rod.Page
	username string
	password string
	email    string
	cookies  *cookieJar
}

// NewDriver launches a browser and opens a blank page. Close must be called
// when done.
func NewDriver(cfg *config.Config) (*Driver, error) {
	u, err := launcher.New().Headless(cfg.BrowserHeadless).Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	page, err := b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}
	return &Driver{
		browser:  b,
		page:     page,
		username: cfg.PlatformUsername,
		password: cfg.PlatformPassword,
		email:    cfg.PlatformEmail,
		cookies:  newCookieJar(cfg.CookieFile),
	}, nil
}

// Login restores a saved session when possible, otherwise walks the
// credential flow. Returns domain.ErrChallengeRequired when the platform
// interposes a verification-code screen; the caller resolves it out of band
// and then calls SubmitCode.
func (d *Driver) Login(ctx context.Context) error {
	if ok, err := d.restoreSession(ctx); err != nil {
		slog.Warn("session restore failed, falling back to credential login", "err", err)
	} else if ok {
		return nil
	}

	page := d.page.Context(ctx)
	if err := page.Navigate(loginURL); err != nil {
		return fmt.Errorf("navigate login: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("load login page: %w", err)
	}

	if err := d.typeInto(page, selUsernameInput, d.username); err != nil {
		return fmt.Errorf("enter username: %w", err)
	}
	d.pressEnter(page)

	// The platform sometimes asks for the account email before the
	// password when it finds the login suspicious.
	d.maybeEnterEmail(page)

	if err := d.typeInto(page, selPasswordInput, d.password); err != nil {
		return fmt.Errorf("enter password: %w", err)
	}
	d.pressEnter(page)

	if d.ChallengeScreen() {
		return domain.ErrChallengeRequired
	}

	if err := d.confirmLoggedIn(page); err != nil {
		return err
	}
	d.saveSession()
	return nil
}

// ChallengeScreen reports whether the current page is asking for a
// verification code.
func (d *Driver) ChallengeScreen() bool {
	has, _, err := d.page.Has(selChallengeInput)
	if err != nil {
		slog.Warn("challenge screen probe failed", "err", err)
		return false
	}
	return has
}

// SubmitCode types the operator-supplied code into the challenge screen and
// confirms the login completed.
func (d *Driver) SubmitCode(ctx context.Context, code string) error {
	page := d.page.Context(ctx)
	if err := d.typeInto(page, selChallengeInput, code); err != nil {
		return fmt.Errorf("enter verification code: %w", err)
	}
	if has, btn, err := page.Has(selChallengeNext); err == nil && has {
		if err := btn.Click(proto.InputMouseButtonLeft, 1); err != nil {
			d.pressEnter(page)
		}
	} else {
		d.pressEnter(page)
	}

	if err := d.confirmLoggedIn(page); err != nil {
		return fmt.Errorf("code not accepted: %w", err)
	}
	d.saveSession()
	return nil
}

// Post publishes text to the platform. The session must be logged in.
func (d *Driver) Post(ctx context.Context, text string) error {
	page := d.page.Context(ctx)
	if err := page.Navigate(composeURL); err != nil {
		return fmt.Errorf("navigate compose: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("load compose page: %w", err)
	}
	if err := d.typeInto(page, selPostBox, text); err != nil {
		return fmt.Errorf("enter post text: %w", err)
	}
	btn, err := page.Timeout(stepTimeout).Element(selPostButton)
	if err != nil {
		return fmt.Errorf("find post button: %w", err)
	}
	if err := btn.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click post button: %w", err)
	}
	return nil
}

// Screenshot captures the current page as PNG.
func (d *Driver) Screenshot() ([]byte, error) {
	return d.page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

// Close tears the browser down.
func (d *Driver) Close() error {
	return d.browser.Close()
}

// restoreSession loads saved cookies and verifies they still authenticate.
func (d *Driver) restoreSession(ctx context.Context) (bool, error) {
	cookies, err := d.cookies.load()
	if err != nil || len(cookies) == 0 {
		return false, err
	}
	if err := d.browser.SetCookies(cookies); err != nil {
		return false, fmt.Errorf("set cookies: %w", err)
	}
	page := d.page.Context(ctx)
	if err := page.Navigate(homeURL); err != nil {
		return false, fmt.Errorf("navigate home: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return false, fmt.Errorf("load home: %w", err)
	}
	if err := d.confirmLoggedIn(page); err != nil {
		d.cookies.clear()
		return false, nil
	}
	slog.Info("session restored from saved cookies")
	return true, nil
}

func (d *Driver) saveSession() {
	cookies, err := d.browser.GetCookies()
	if err != nil {
		slog.Warn("could not read cookies for session save", "err", err)
		return
	}
	if err := d.cookies.save(cookies); err != nil {
		slog.Warn("could not save session cookies", "err", err)
	}
}

// confirmLoggedIn waits for the compose box that only renders for an
// authenticated session.
func (d *Driver) confirmLoggedIn(page *rod.Page) error {
	if _, err := page.Timeout(stepTimeout).Element(selPostBox); err != nil {
		return fmt.Errorf("post box not found: %w", domain.ErrUnauthorized)
	}
	return nil
}

// maybeEnterEmail answers the optional "confirm your email" interstitial.
func (d *Driver) maybeEnterEmail(page *rod.Page) {
	has, el, err := page.Has(selChallengeInput)
	if err != nil || !has || d.email == "" {
		return
	}
	// The challenge input doubles as the email prompt; only treat it as the
	// email interstitial when there is still a password step ahead.
	if hasPw, _, _ := page.Has(selPasswordInput); hasPw {
		return
	}
	if err := el.Input(d.email); err != nil {
		slog.Warn("could not enter account email", "err", err)
		return
	}
	d.pressEnter(page)
}

func (d *Driver) typeInto(page *rod.Page, selector, value string) error {
	el, err := page.Timeout(stepTimeout).Element(selector)
	if err != nil {
		return err
	}
	return el.Input(value)
}

func (d *Driver) pressEnter(page *rod.Page) {
	if err := page.Keyboard.Press(input.Enter); err != nil {
		slog.Warn("could not press enter", "err", err)
	}
}
