// Package poster runs one posting cycle end to end: style the message,
// sign in, get past a verification challenge if the platform raises one,
// and publish the post.
package poster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-autopost/internal/domain"
)

// Driver is the piece of browser automation the poster needs. *browser.Driver
// satisfies it.
type Driver interface {
	Login(ctx context.Context) error
	ChallengeScreen() bool
	SubmitCode(ctx context.Context, code string) error
	Post(ctx context.Context, text string) error
	Screenshot() ([]byte, error)
}

// Styler rewrites a raw message for the platform. A nil Styler, or one
// without credentials, passes the message through unchanged.
type Styler interface {
	Style(ctx context.Context, message, platform string) (string, error)
}

// ScreenshotStore persists the challenge screen capture so the operator can
// see what the automation saw.
type ScreenshotStore interface {
	UploadScreenshot(ctx context.Context, key string, png []byte) (string, error)
}

// CodeSource blocks until an operator supplies the verification code for
// this session, or the resolution deadline passes.
type CodeSource interface {
	RequestAndAwait(ctx context.Context, sessionKey string, metadata map[string]string, screenshotKey string) (string, error)
}

type Poster struct {
	driver      Driver
	styler      Styler
	screenshots ScreenshotStore
	codes       CodeSource
	account     string
}

func New(driver Driver, styler Styler, screenshots ScreenshotStore, codes CodeSource, account string) *Poster {
	return &Poster{driver: driver, styler: styler, screenshots: screenshots, codes: codes, account: account}
}

// Run styles and publishes one post. A login challenge suspends the run
// while the operator resolves it; a timed-out or rejected verification
// fails this run but leaves the process able to try again later.
func (p *Poster) Run(ctx context.Context, message, platform string) error {
	text := message
	if p.styler != nil {
		styled, err := p.styler.Style(ctx, message, platform)
		if err != nil {
			slog.Warn("content styling failed, posting raw message", "err", err)
		} else {
			text = styled
		}
	}

	if err := p.login(ctx); err != nil {
		return err
	}

	if err := p.driver.Post(ctx, text); err != nil {
		return fmt.Errorf("publish post: %w", err)
	}
	slog.Info("post published", "account", p.account, "platform", platform)
	return nil
}

func (p *Poster) login(ctx context.Context) error {
	err := p.driver.Login(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrChallengeRequired) {
		return fmt.Errorf("login: %w", err)
	}

	slog.Info("login challenge raised, waiting for operator", "account", p.account)
	code, err := p.codes.RequestAndAwait(ctx, p.sessionKey(), map[string]string{
		"account": p.account,
		"reason":  "login verification challenge",
	}, p.captureChallenge(ctx))
	if err != nil {
		return fmt.Errorf("await verification code: %w", err)
	}

	if err := p.driver.SubmitCode(ctx, code); err != nil {
		return fmt.Errorf("submit verification code: %w", err)
	}
	return nil
}

// sessionKey identifies this account's login flow across process restarts,
// so a bot that crashes mid-challenge resumes the same pending request
// instead of filing a duplicate.
func (p *Poster) sessionKey() string {
	return "login:" + p.account
}

// captureChallenge uploads a screenshot of the challenge screen. Failure is
// tolerated; the verification request simply carries no screenshot.
func (p *Poster) captureChallenge(ctx context.Context) string {
	if p.screenshots == nil {
		return ""
	}
	png, err := p.driver.Screenshot()
	if err != nil {
		slog.Warn("challenge screenshot failed", "err", err)
		return ""
	}
	key := fmt.Sprintf("challenges/%s/%d.png", p.account, time.Now().Unix())
	if _, err := p.screenshots.UploadScreenshot(ctx, key, png); err != nil {
		slog.Warn("challenge screenshot upload failed", "err", err)
		return ""
	}
	return key
}
