package browser

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-rod/rod/lib/proto"
)

// cookieJar persists session cookies between runs so the bot does not walk
// the full credential flow (and risk a fresh challenge) on every start.
type cookieJar struct {
	path string
}

func newCookieJar(path string) *cookieJar {
	return &cookieJar{path: path}
}

func (j *cookieJar) load() ([]*proto.NetworkCookieParam, error) {
	data, err := os.ReadFile(j.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cookie file: %w", err)
	}
	var cookies []*proto.NetworkCookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		// A broken cookie file just forces a full login.
		j.clear()
		return nil, fmt.Errorf("parse cookie file: %w", err)
	}
	return proto.CookiesToParams(cookies), nil
}

func (j *cookieJar) save(cookies []*proto.NetworkCookie) error {
	if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		return fmt.Errorf("create cookie dir: %w", err)
	}
	data, err := json.Marshal(cookies)
	if err != nil {
		return fmt.Errorf("marshal cookies: %w", err)
	}
	if err := os.WriteFile(j.path, data, 0o600); err != nil {
		return fmt.Errorf("write cookie file: %w", err)
	}
	return nil
}

func (j *cookieJar) clear() {
	_ = os.Remove(j.path)
}
