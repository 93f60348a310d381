package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// toID normalizes a display name the way the server does: lowercase
// alphanumerics only.
func toID(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// assertion performs the challstr login handshake and returns the
// signed assertion to present with /trn. Registered accounts log in
// with act=login; unregistered names only need act=getassertion.
func assertion(ctx context.Context, client *http.Client, cfg Config, challstr string) (string, error) {
	form := url.Values{}
	if cfg.Password != "" {
		form.Set("act", "login")
		form.Set("name", cfg.Username)
		form.Set("pass", cfg.Password)
	} else {
		form.Set("act", "getassertion")
		form.Set("userid", toID(cfg.Username))
	}
	form.Set("challstr", challstr)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.LoginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("bot: building login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("bot: login request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("bot: reading login response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bot: login returned status %d", resp.StatusCode)
	}

	if cfg.Password == "" {
		a := string(body)
		if a == "" || a == ";" || strings.HasPrefix(a, ";;") {
			return "", fmt.Errorf("bot: server refused assertion for %q", cfg.Username)
		}
		return a, nil
	}

	// Login responses are JSON prefixed with a ']' guard byte.
	payload := strings.TrimPrefix(string(body), "]")
	var parsed struct {
		ActionSuccess bool   `json:"actionsuccess"`
		Assertion     string `json:"assertion"`
	}
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return "", fmt.Errorf("bot: decoding login response: %w", err)
	}
	if !parsed.ActionSuccess || parsed.Assertion == "" || strings.HasPrefix(parsed.Assertion, ";;") {
		return "", fmt.Errorf("bot: login rejected for %q", cfg.Username)
	}
	return parsed.Assertion, nil
}
