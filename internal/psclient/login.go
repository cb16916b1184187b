package psclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/park285/showdown-battle-bot/internal/dex"
)

// ErrLoginRejected is returned when the login endpoint answers without a
// usable assertion.
var ErrLoginRejected = errors.New("psclient: login rejected")

// LoginClient performs the assertion handshake against the login endpoint.
// The simulator's challstr message supplies the key id and challenge.
type LoginClient struct {
	actionURL string
	http      *fasthttp.Client
}

// NewLoginClient returns a client for the given action endpoint
// (e.g. https://play.pokemonshowdown.com/action.php).
func NewLoginClient(actionURL string) *LoginClient {
	return &LoginClient{
		actionURL: actionURL,
		http: &fasthttp.Client{
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			MaxConnsPerHost: 4,
		},
	}
}

type loginResponse struct {
	ActionSuccess bool   `json:"actionsuccess"`
	Assertion     string `json:"assertion"`
}

// Assert obtains the login assertion for username. A registered account
// needs its password; an unregistered name uses the lighter assertion-only
// action.
func (c *LoginClient) Assert(username, password string, keyID int, challenge string) (string, error) {
	challstr := strconv.Itoa(keyID) + "|" + challenge

	if password == "" {
		body, err := c.post(url.Values{
			"act":      {"getassertion"},
			"userid":   {dex.ToID(username)},
			"challstr": {challstr},
		})
		if err != nil {
			return "", err
		}
		assertion := strings.TrimSpace(string(body))
		if assertion == ";" {
			return "", fmt.Errorf("%w: name %q is registered", ErrLoginRejected, username)
		}
		if assertion == "" || strings.HasPrefix(assertion, ";;") {
			return "", fmt.Errorf("%w: %s", ErrLoginRejected, assertion)
		}
		return assertion, nil
	}

	body, err := c.post(url.Values{
		"act":      {"login"},
		"name":     {username},
		"pass":     {password},
		"challstr": {challstr},
	})
	if err != nil {
		return "", err
	}
	// The login action prefixes its JSON payload with "]".
	payload := strings.TrimPrefix(strings.TrimSpace(string(body)), "]")
	var resp loginResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return "", fmt.Errorf("psclient: decode login response: %w", err)
	}
	if !resp.ActionSuccess || resp.Assertion == "" {
		return "", fmt.Errorf("%w: no assertion for %q", ErrLoginRejected, username)
	}
	return resp.Assertion, nil
}

// TrnCommand formats the trust command that completes the login over the
// websocket.
func TrnCommand(username, assertion string) string {
	return fmt.Sprintf("/trn %s,0,%s", username, assertion)
}

func (c *LoginClient) post(form url.Values) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.SetRequestURI(c.actionURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/x-www-form-urlencoded")
	req.SetBodyString(form.Encode())

	if err := c.http.Do(req, resp); err != nil {
		return nil, fmt.Errorf("psclient: login request: %w", err)
	}
	if code := resp.StatusCode(); code != fasthttp.StatusOK {
		return nil, fmt.Errorf("psclient: login request: status %d", code)
	}
	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return body, nil
}
