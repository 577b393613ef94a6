package client

import (
	"net/http"
)

type Option func(*Client)

func WithClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

func WithRequestID(id string) Option {
	return func(c *Client) {
		c.requestID = id
	}
}
