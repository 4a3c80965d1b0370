// Package translate calls the Microsoft Translator text API
package translate

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultEndpoint = "https://api.cognitive.microsofttranslator.com"
	DefaultTimeout  = 10 * time.Second
)

var ErrNotConfigured = errors.New("translation service is not configured")

type Config struct {
	Endpoint string
	Key      string
	Region   string
	Timeout  time.Duration
}

type Client struct {
	config Config
}

func NewClient(config Config) *Client {
	if config.Endpoint == "" {
		config.Endpoint = DefaultEndpoint
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	return &Client{config: config}
}

type request struct {
	Text string `json:"Text"`
}

type response []struct {
	Translations []struct {
		Text string `json:"text"`
		To   string `json:"to"`
	} `json:"translations"`
}

// Translate turns text from the src language into dst
func (c *Client) Translate(text, src, dst string) (string, error) {
	if c.config.Key == "" {
		return "", ErrNotConfigured
	}

	params := url.Values{}
	params.Set("api-version", "3.0")
	params.Set("from", src)
	params.Set("to", dst)

	agent := fiber.Post(c.config.Endpoint + "/translate")
	agent.QueryString(params.Encode())
	agent.Set("Ocp-Apim-Subscription-Key", c.config.Key)
	if c.config.Region != "" {
		agent.Set("Ocp-Apim-Subscription-Region", c.config.Region)
	}
	agent.JSON([]request{{Text: text}})
	agent.Timeout(c.config.Timeout)

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return "", fmt.Errorf("translate request: %w", errors.Join(errs...))
	}
	if code != fiber.StatusOK {
		log.WithFields(log.Fields{
			"status": code,
			"body":   string(body),
		}).Warn("Translation service returned an error")
		return "", fmt.Errorf("translation service status %d", code)
	}

	var out response
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode translation: %w", err)
	}
	if len(out) == 0 || len(out[0].Translations) == 0 {
		return "", errors.New("translation service returned no translations")
	}
	return out[0].Translations[0].Text, nil
}
