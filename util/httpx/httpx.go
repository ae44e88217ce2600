// Package httpx builds the outbound HTTP clients used for third-party APIs.
package httpx

import (
	"net"
	"net/http"
	"time"
)

type Options struct {
	// Timeout bounds a whole request including the body read.
	Timeout         time.Duration
	DialTimeout     time.Duration
	MaxConnsPerHost int
}

func defaults(o Options) Options {
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = 5 * time.Second
	}
	if o.MaxConnsPerHost <= 0 {
		o.MaxConnsPerHost = 20
	}
	return o
}

// New returns a client with its own connection pool.
func New(o Options) *http.Client {
	o = defaults(o)
	return &http.Client{
		Timeout: o.Timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   o.DialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout: o.DialTimeout,
			MaxConnsPerHost:     o.MaxConnsPerHost,
			MaxIdleConnsPerHost: o.MaxConnsPerHost / 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
