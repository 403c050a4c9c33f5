package tickets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"sync"
	"time"

	"railwatch-service/internal/domain/entity"
	"railwatch-service/internal/domain/repository"
	"railwatch-service/pkg/logger"
	"railwatch-service/pkg/utils"
)

const (
	initURL         = "https://kyfw.12306.cn/otn/leftTicket/init"
	defaultQueryURL = "https://kyfw.12306.cn/otn/leftTicket/query"

	initTimeout  = 5 * time.Second
	queryTimeout = 10 * time.Second

	// pre-request jitter bounds, keeps traffic from looking machine-shaped
	jitterMin = 2 * time.Second
	jitterMax = 5 * time.Second
)

// queryURLPattern extracts the effective query path the init page advertises
var queryURLPattern = regexp.MustCompile(`CLeftTicketUrl\s*=\s*'([^']+)'`)

// Client queries the 12306 left-ticket endpoint. It holds a cookie-jar
// session; the effective query URL is resolved once, on first use, so a
// query stays a single network round trip.
type Client struct {
	httpClient *http.Client
	logger     logger.Logger
	sleep      func(ctx context.Context, d time.Duration)

	initOnce sync.Once
	queryURL string
}

// NewClient creates a left-ticket client with a fresh cookie session
func NewClient(logger logger.Logger) *Client {
	jar, _ := cookiejar.New(nil)

	return &Client{
		httpClient: &http.Client{
			Timeout: queryTimeout,
			Jar:     jar,
		},
		logger:   logger,
		sleep:    sleepCtx,
		queryURL: defaultQueryURL,
	}
}

// QueryLeftTickets performs one availability query for a station pair and
// date. Transport and parse failures come back as an error alongside an
// empty result; the scheduler treats both the same and only logs the error.
func (c *Client) QueryLeftTickets(ctx context.Context, from, to, date string) ([]entity.TrainAvailability, error) {
	c.initOnce.Do(func() { c.initSession(ctx) })

	// forced jitter before every upstream hit
	c.sleep(ctx, jitterMin+time.Duration(rand.Int63n(int64(jitterMax-jitterMin))))

	params := url.Values{}
	params.Set("leftTicketDTO.train_date", date)
	params.Set("leftTicketDTO.from_station", from)
	params.Set("leftTicketDTO.to_station", to)
	params.Set("purpose_codes", "ADULT")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.queryURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	setBrowserHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("left-ticket query returned %d", resp.StatusCode)
	}

	var payload struct {
		Data struct {
			Result []string `json:"result"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}

	// missing nested structure means no data, not an error
	if len(payload.Data.Result) == 0 {
		return nil, nil
	}

	return utils.ParseTrainRecords(payload.Data.Result), nil
}

// initSession primes cookies and resolves the advertised query URL.
// Any failure leaves the fixed default in place.
func (c *Client) initSession(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, initTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, initURL, nil)
	if err != nil {
		return
	}
	setBrowserHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Session init failed, using default query URL", "error", err)
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return
	}

	if m := queryURLPattern.FindSubmatch(body); m != nil {
		c.queryURL = "https://kyfw.12306.cn/otn/" + string(m[1])
		c.logger.Debug("Resolved query URL", "url", c.queryURL)
	}
}

func setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Referer", initURL)
	req.Header.Set("Host", "kyfw.12306.cn")
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

var _ repository.TicketRepository = (*Client)(nil)
