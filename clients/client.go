// Package clients provides the form-encoded HTTP transport used to talk
// to the gateway: POST bodies encoded as application/x-www-form-urlencoded,
// redirects surfaced through the Location header rather than followed, and
// response bodies decoded per their declared character set.
package clients

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httputil"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html/charset"

	appctx "github.com/unionpay-go/unionpay/context"
	"github.com/unionpay-go/unionpay/requestutils"
)

// regular expression mapped to the replacement
var redactHeaders = map[*regexp.Regexp][]byte{
	regexp.MustCompile(`(?i)authorization: .+\n`): []byte("Authorization: <token>\n"),
	regexp.MustCompile(`signature=[^&\s]+`):       []byte("signature=<sig>"),
	regexp.MustCompile(`certId=[^&\s]+`):          []byte("certId=<cert>"),
}

// RedactSensitiveFields from http request dumps
func RedactSensitiveFields(corpus []byte) []byte {
	for k, v := range redactHeaders {
		corpus = k.ReplaceAll(corpus, v)
	}
	return corpus
}

var concurrentClientRequests = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "concurrent_client_requests",
		Help: "Gauge that holds the current number of client requests",
	},
	[]string{
		"host",
		"method",
	},
)

func init() {
	prometheus.MustRegister(concurrentClientRequests)
}

// Response is one decoded gateway reply
type Response struct {
	StatusCode int
	Header     http.Header
	// Body holds the response bytes after character set decoding
	Body []byte
}

// Location returns the redirect target header, empty when absent
func (r *Response) Location() string {
	return r.Header.Get("Location")
}

// SimpleHTTPClient wraps http.Client for making form encoded gateway requests
type SimpleHTTPClient struct {
	BaseURL *url.URL

	client *http.Client
}

// New returns a new SimpleHTTPClient
func New(serverURL string) (*SimpleHTTPClient, error) {
	return NewWithHTTPClient(serverURL, &http.Client{
		Timeout: time.Second * 10,
		// the front channel flow reads the Location header, redirects
		// must never be followed
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	})
}

// NewWithHTTPClient returns a new SimpleHTTPClient, using the provided http.Client
func NewWithHTTPClient(serverURL string, client *http.Client) (*SimpleHTTPClient, error) {
	baseURL, err := url.Parse(serverURL)
	if err != nil {
		return nil, err
	}

	return &SimpleHTTPClient{
		BaseURL: baseURL,
		client:  client,
	}, nil
}

// NewFormRequest creates a POST request carrying the fields form encoded
func (c *SimpleHTTPClient) NewFormRequest(ctx context.Context, path string, fields url.Values) (*http.Request, error) {
	resolvedURL := c.BaseURL.ResolveReference(&url.URL{Path: path})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, resolvedURL.String(), strings.NewReader(fields.Encode()))
	if err != nil {
		switch err.(type) {
		case url.EscapeError:
			return nil, NewHTTPError(err, resolvedURL.String(), ErrUnableToEscapeURL, http.StatusBadRequest, nil)
		case url.InvalidHostError:
			return nil, NewHTTPError(err, resolvedURL.String(), ErrInvalidHost, http.StatusBadRequest, nil)
		default:
			return nil, NewHTTPError(err, resolvedURL.String(), ErrMalformedRequest, http.StatusBadRequest, nil)
		}
	}

	req.Header.Set("content-type", "application/x-www-form-urlencoded")
	requestutils.SetRequestID(ctx, req)
	return req, nil
}

// Do the specified http request, returning the decoded response
func (c *SimpleHTTPClient) Do(ctx context.Context, req *http.Request) (*Response, error) {
	// concurrent client request instrumentation
	concurrentClientRequests.With(
		prometheus.Labels{
			"host": req.URL.Host, "method": req.Method,
		}).Inc()

	defer func() {
		concurrentClientRequests.With(
			prometheus.Labels{
				"host": req.URL.Host, "method": req.Method,
			}).Dec()
	}()

	logger := log.Ctx(ctx)
	debug, _ := appctx.GetBoolFromContext(ctx, appctx.DebugLoggingCTXKey)

	if debug {
		// dump out the full request, right before we submit it
		requestDump, err := httputil.DumpRequestOut(req, true)
		if err != nil {
			logger.Error().Err(err).Str("type", "http.Request").Msg("failed to dump request body")
		} else {
			logger.Debug().Str("type", "http.Request").Msg(string(RedactSensitiveFields(requestDump)))
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		// transport errors propagate to the caller unreinterpreted
		return nil, err
	}

	if debug {
		dump, err := httputil.DumpResponse(resp, false)
		if err != nil {
			logger.Error().Err(err).Str("type", "http.Response").Msg("failed to dump response")
		} else {
			logger.Debug().Str("type", "http.Response").Msg(string(dump))
		}
	}

	raw, err := requestutils.Read(ctx, resp.Body)
	if err != nil {
		return nil, err
	}

	body, err := decodeCharset(raw, resp.Header.Get("content-type"))
	if err != nil {
		return nil, NewHTTPError(err, req.URL.String(), ErrUnableToDecode, resp.StatusCode, string(raw))
	}

	out := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}

	// the front channel create flow answers with a redirect, 3xx is a
	// valid outcome for this gateway
	if resp.StatusCode >= 200 && resp.StatusCode <= 399 {
		return out, nil
	}

	logger.Warn().
		Int("response_status", resp.StatusCode).
		Str("host", req.URL.Host).
		Str("path", req.URL.Path).
		Msg("failed http client call")
	return out, NewHTTPError(nil, req.URL.String(), ErrProtocolError, resp.StatusCode, string(body))
}

// decodeCharset converts the body to utf-8 per the declared content type
func decodeCharset(raw []byte, contentType string) ([]byte, error) {
	if len(raw) == 0 || contentType == "" {
		return raw, nil
	}
	reader, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		return nil, err
	}
	return requestutils.ReadWithLimit(context.Background(), reader, int64(len(raw))*4)
}
