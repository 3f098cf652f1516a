package request

import (
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
)

// Options tunes the shared HTTP client.
type Options struct {
	ConnectTimeout time.Duration // TCP dial timeout
	RequestTimeout time.Duration // whole request, body included
	Proxy          string        // empty uses the environment
	UserAgent      string
}

// Request is the default client used when nothing is configured.
var Request = New(Options{ConnectTimeout: 10 * time.Second, RequestTimeout: 15 * time.Second})

// New builds a resty client whose transport honours the connect timeout and
// the proxy settings. An unparsable proxy falls back to the environment.
func New(opts Options) *resty.Client {
	proxy := http.ProxyFromEnvironment // 通用适配环境变量
	if opts.Proxy != "" {
		if u, err := url.Parse(opts.Proxy); err == nil {
			proxy = http.ProxyURL(u)
		}
	}

	transport := &http.Transport{
		Proxy: proxy,
		DialContext: (&net.Dialer{
			Timeout:   opts.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: opts.ConnectTimeout,
		MaxIdleConns:        20,
		IdleConnTimeout:     90 * time.Second,
	}

	client := resty.New().SetTransport(transport).SetTimeout(opts.RequestTimeout)
	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}
	return client
}
