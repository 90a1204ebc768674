package internal

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	ntlm "github.com/launchdarkly/go-ntlm-proxy-auth"
)

// DefaultHTTPTimeout is used when no timeout is configured.
const DefaultHTTPTimeout = 30 * time.Second

const defaultKeepAlive = time.Minute

// HTTPOptions are the transport settings used to build the engine's HTTP client.
type HTTPOptions struct {
	Timeout  time.Duration
	ProxyURL string

	// NTLM credentials for the proxy. Only used if ProxyURL is set and NTLMUsername is non-empty.
	NTLMUsername string
	NTLMPassword string
	NTLMDomain   string
}

// NewHTTPClient creates an HTTP client based on the engine's configuration.
func NewHTTPClient(opts HTTPOptions) (*http.Client, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	dialer := &net.Dialer{
		Timeout:   timeout,
		KeepAlive: defaultKeepAlive,
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = dialer.DialContext

	if opts.ProxyURL != "" {
		proxyURL, err := url.Parse(opts.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", opts.ProxyURL, err)
		}
		if opts.NTLMUsername != "" {
			if opts.NTLMPassword == "" {
				return nil, errors.New("NTLM proxy authentication requires a password")
			}
			transport.Proxy = nil
			transport.DialContext = ntlm.NewNTLMProxyDialContext(dialer, *proxyURL,
				opts.NTLMUsername, opts.NTLMPassword, opts.NTLMDomain, transport.TLSClientConfig)
		} else {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}, nil
}
