package splunkd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// Namespace scopes requests to an owner/app pair. The zero value addresses
// the global services collection; "-" is the server's wildcard for either
// part.
type Namespace struct {
	Owner string
	App   string
}

// Path returns the URL path prefix for the namespace.
func (n Namespace) Path() string {
	if n.Owner == "" && n.App == "" {
		return "/services/"
	}
	owner, app := n.Owner, n.App
	if owner == "" {
		owner = "-"
	}
	if app == "" {
		app = "-"
	}
	return "/servicesNS/" + url.PathEscape(owner) + "/" + url.PathEscape(app) + "/"
}

// Service is a client for one splunkd management endpoint. Transport-level
// retry, backoff and TLS tuning are the caller's business via the injected
// http.Client.
type Service struct {
	Scheme     string
	Host       string
	Port       int
	Namespace  Namespace
	SessionKey string

	HTTP *http.Client
}

// ServiceOption is a functional option type for Service.
type ServiceOption func(s *Service)

// WithScheme is an option setting the URL scheme (default https).
func WithScheme(scheme string) ServiceOption {
	return func(s *Service) { s.Scheme = scheme }
}

// WithPort is an option setting the management port (default 8089).
func WithPort(port int) ServiceOption {
	return func(s *Service) { s.Port = port }
}

// WithNamespace is an option scoping the service to an owner/app namespace.
func WithNamespace(owner, app string) ServiceOption {
	return func(s *Service) { s.Namespace = Namespace{Owner: owner, App: app} }
}

// WithSessionKey is an option installing a previously obtained session key,
// e.g. one recovered from a session cache, instead of calling Login.
func WithSessionKey(key string) ServiceOption {
	return func(s *Service) { s.SessionKey = key }
}

// WithHTTPClient is an option replacing the default http.Client.
func WithHTTPClient(c *http.Client) ServiceOption {
	return func(s *Service) { s.HTTP = c }
}

// NewService creates a Service talking to the given host, applying any
// options.
func NewService(host string, opts ...ServiceOption) *Service {
	s := &Service{
		Scheme: "https",
		Host:   host,
		Port:   8089,
		HTTP:   http.DefaultClient,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// urlFor builds the full URL for an endpoint path. Absolute paths (leading
// slash) bypass the namespace prefix.
func (s *Service) urlFor(path string) string {
	base := fmt.Sprintf("%s://%s:%d", s.Scheme, s.Host, s.Port)
	if strings.HasPrefix(path, "/") {
		return base + path
	}
	return base + s.Namespace.Path() + path
}

// EncodeArgs form-encodes arguments preserving their order, which
// url.Values.Encode would destroy by sorting names.
func EncodeArgs(args []Argument) string {
	var sb strings.Builder
	for i, a := range args {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(a.Name))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(a.Value))
	}
	return sb.String()
}

func (s *Service) do(ctx context.Context, method, rawurl string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequest(method, rawurl, body)
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	req = req.WithContext(ctx)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if s.SessionKey != "" {
		req.Header.Set("Authorization", "Splunk "+s.SessionKey)
	}
	resp, err := s.HTTP.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%v %v", method, rawurl)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, httpError(resp)
	}
	return resp, nil
}

// httpError folds a non-2xx response into an error, using the first server
// message from the body when one can be extracted.
func httpError(resp *http.Response) error {
	body, err := ioutil.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err == nil {
		if msg, ok := firstErrorMessage(body); ok {
			return errors.Errorf("splunkd returned %v: %v", resp.Status, msg)
		}
	}
	return errors.Errorf("splunkd returned %v: %s", resp.Status, strings.TrimSpace(string(body)))
}

// firstErrorMessage pulls the first message text out of an error body. Most
// endpoints report errors as a bare response document carrying a messages
// block; collection endpoints answer with a feed carrying the same block.
func firstErrorMessage(body []byte) (string, bool) {
	if f, err := ReadFeed(bytes.NewReader(body)); err == nil && len(f.Messages) > 0 {
		return f.Messages[0].Text, true
	}
	rd := NewReader(bytes.NewReader(body))
	if ok, err := rd.AdvanceToDocumentElement("response"); err != nil || !ok {
		return "", false
	}
	if err := rd.Next(); err != nil {
		return "", false
	}
	for {
		switch rd.Kind() {
		case NodeStart:
			if rd.Name() == "messages" {
				msgs, err := parseMessages(rd)
				if err != nil || len(msgs) == 0 {
					return "", false
				}
				return msgs[0].Text, true
			}
			if err := rd.Skip(); err != nil {
				return "", false
			}
		case NodeEnd, NodeNone:
			return "", false
		default:
			if err := rd.next(); err != nil {
				return "", false
			}
		}
	}
}

// Get issues a GET to the endpoint path, appending args as a query string.
// The caller owns the response body.
func (s *Service) Get(ctx context.Context, path string, args []Argument) (*http.Response, error) {
	u := s.urlFor(path)
	if len(args) > 0 {
		u += "?" + EncodeArgs(args)
	}
	return s.do(ctx, http.MethodGet, u, nil, "")
}

// Post issues a POST to the endpoint path with args form-encoded in the
// body. The caller owns the response body.
func (s *Service) Post(ctx context.Context, path string, args []Argument) (*http.Response, error) {
	return s.do(ctx, http.MethodPost, s.urlFor(path), strings.NewReader(EncodeArgs(args)),
		"application/x-www-form-urlencoded")
}

// PostRaw issues a POST with an arbitrary body, appending args as a query
// string. Used by the event receiver endpoint, which takes the raw event as
// the body.
func (s *Service) PostRaw(ctx context.Context, path string, args []Argument, body io.Reader) (*http.Response, error) {
	u := s.urlFor(path)
	if len(args) > 0 {
		u += "?" + EncodeArgs(args)
	}
	return s.do(ctx, http.MethodPost, u, body, "")
}

// Delete issues a DELETE to the endpoint path.
func (s *Service) Delete(ctx context.Context, path string) (*http.Response, error) {
	return s.do(ctx, http.MethodDelete, s.urlFor(path), nil, "")
}

// Login obtains a session key for the given credentials and installs it on
// the service. The response is a small XML document with the key in a
// sessionKey element.
func (s *Service) Login(ctx context.Context, username, password string) error {
	args := []Argument{
		{Name: "username", Value: username},
		{Name: "password", Value: password},
	}
	resp, err := s.Post(ctx, "/services/auth/login", args)
	if err != nil {
		return errors.Wrap(err, "logging in")
	}
	defer resp.Body.Close()
	key, err := parseSessionKey(resp.Body)
	if err != nil {
		return err
	}
	s.SessionKey = key
	return nil
}

// parseSessionKey pulls the sessionKey element out of a login response.
func parseSessionKey(r io.Reader) (string, error) {
	rd := NewReader(r)
	ok, err := rd.AdvanceToDocumentElement("response")
	if err != nil {
		return "", err
	}
	if !ok {
		return "", formatErrorf("empty login response")
	}
	if err := rd.Next(); err != nil {
		return "", errors.Wrap(err, "entering login response")
	}
	for {
		switch rd.Kind() {
		case NodeStart:
			if rd.Name() == "sessionKey" {
				key, err := rd.ReadString()
				if err != nil {
					return "", err
				}
				return strings.TrimSpace(key), nil
			}
			if err := rd.Skip(); err != nil {
				return "", err
			}
		case NodeEnd, NodeNone:
			return "", formatErrorf("login response has no sessionKey element")
		default:
			if err := rd.next(); err != nil {
				return "", err
			}
		}
	}
}
