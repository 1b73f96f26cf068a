// Package jsearch fetches job postings from the JSearch API on RapidAPI.
package jsearch

import (
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spigell/job-matcher/internal/logger"
	"github.com/spigell/job-matcher/internal/utils"
)

const (
	apiURL  = "https://jsearch.p.rapidapi.com"
	apiHost = "jsearch.p.rapidapi.com"

	defaultMaxRetries = 3
	defaultBaseDelay  = 5 * time.Second
	// Page requests per second.
	defaultRate = 2
)

var wait = utils.WaitFor

type Client struct {
	apiKey string
	logger *zap.Logger

	HTTPClient *http.Client
	APIURL     string
	Host       string
	// MaxRetries is the number of attempts per request, the first one included.
	MaxRetries int
	BaseDelay  time.Duration
	Limiter    *rate.Limiter
}

func New(log *zap.Logger, apiKey string) *Client {
	return &Client{
		apiKey: apiKey,
		logger: logger.WithFields(log, zap.String("source", "jsearch")),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		APIURL:     apiURL,
		Host:       apiHost,
		MaxRetries: defaultMaxRetries,
		BaseDelay:  defaultBaseDelay,
		Limiter:    rate.NewLimiter(rate.Limit(defaultRate), 1),
	}
}

// SetRate changes the page throttle. Zero or less disables it.
func (c *Client) SetRate(perSecond float64) {
	if perSecond <= 0 {
		c.Limiter = rate.NewLimiter(rate.Inf, 1)
		return
	}
	c.Limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
}
