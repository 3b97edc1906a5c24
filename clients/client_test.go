package clients

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	should "github.com/stretchr/testify/assert"
	must "github.com/stretchr/testify/require"

	errorutils "github.com/unionpay-go/unionpay/errors"
)

func TestRedactSensitiveFields(t *testing.T) {
	dump := []byte("POST /gateway/api/appTransReq.do HTTP/1.1\n" +
		"Authorization: Bearer secret-token\n\n" +
		"merId=123&signature=AbC%2F123&certId=456&txnAmt=100")

	redacted := string(RedactSensitiveFields(dump))
	should.NotContains(t, redacted, "secret-token")
	should.NotContains(t, redacted, "AbC%2F123")
	should.Contains(t, redacted, "signature=<sig>")
	should.Contains(t, redacted, "certId=<cert>")
	should.Contains(t, redacted, "txnAmt=100")
}

func TestDoSurfacesRedirects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		should.Equal(t, http.MethodPost, r.Method)
		should.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("content-type"))
		w.Header().Set("Location", "https://gateway.example.com/pay")
		w.WriteHeader(http.StatusFound)
	}))
	defer server.Close()

	client, err := New(server.URL)
	must.NoError(t, err)

	req, err := client.NewFormRequest(context.Background(), "/gateway/api/frontTransReq.do", url.Values{"merId": {"123"}})
	must.NoError(t, err)

	resp, err := client.Do(context.Background(), req)
	must.NoError(t, err)
	should.Equal(t, http.StatusFound, resp.StatusCode)
	should.Equal(t, "https://gateway.example.com/pay", resp.Location())
	should.Empty(t, resp.Body)
}

func TestDoDecodesDeclaredCharset(t *testing.T) {
	// "you hao" in GBK bytes
	gbk := []byte{0xD3, 0xC5, 0xBA, 0xC3}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "text/html; charset=GBK")
		_, _ = w.Write(append([]byte("respMsg="), gbk...))
	}))
	defer server.Close()

	client, err := New(server.URL)
	must.NoError(t, err)

	req, err := client.NewFormRequest(context.Background(), "/", url.Values{})
	must.NoError(t, err)

	resp, err := client.Do(context.Background(), req)
	must.NoError(t, err)
	should.Equal(t, "respMsg=优好", string(resp.Body))
}

func TestDoReturnsProtocolError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := New(server.URL)
	must.NoError(t, err)

	req, err := client.NewFormRequest(context.Background(), "/", url.Values{})
	must.NoError(t, err)

	resp, err := client.Do(context.Background(), req)
	must.Error(t, err)
	must.NotNil(t, resp)
	should.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var bundle *errorutils.ErrorBundle
	must.True(t, errors.As(err, &bundle))
	state, ok := bundle.Data().(HTTPState)
	must.True(t, ok)
	should.Equal(t, http.StatusBadGateway, state.Status)
}
