package weather

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/jaehong-maker/Smart-Diffuser-Project/config"
	"github.com/jaehong-maker/Smart-Diffuser-Project/internal/region"
)

// Labels produced from the nowcast, and the fallbacks used when it is unavailable.
const (
	LabelClear         = "맑음"
	LabelPrecipitation = "강수"
	LabelSnow          = "눈"
	LabelCommError     = "통신에러"
	LabelAPIError      = "API에러"
)

var (
	// ErrUnreachable covers transport failures and timeouts.
	ErrUnreachable = errors.New("weather provider unreachable")
	// ErrMalformed covers error envelopes and unparseable bodies.
	ErrMalformed = errors.New("weather provider returned a malformed response")
)

// Observation is one nowcast reading. Values are kept as the provider sends them.
type Observation struct {
	Temperature string `json:"temperature"`
	Label       string `json:"label"`
	Humidity    string `json:"humidity"`
}

// Fallback returns the observation substituted for a failed fetch.
func Fallback(err error) Observation {
	if errors.Is(err, ErrMalformed) {
		return Observation{Temperature: "0", Label: LabelAPIError, Humidity: "0"}
	}
	return Observation{Temperature: "0", Label: LabelCommError, Humidity: "0"}
}

// Fetcher fetches the nowcast for a grid cell and base time.
type Fetcher interface {
	Fetch(ctx context.Context, coords region.Coords, baseDate, baseTime string) (Observation, error)
}

// BaseDateTime returns the latest published nowcast slot for now. Observations
// for hour H are published around H:40, so earlier minutes use the previous hour.
func BaseDateTime(now time.Time) (string, string) {
	if now.Minute() < 40 {
		now = now.Add(-time.Hour)
	}
	return now.Format("20060102"), now.Format("15") + "00"
}

type nowcastResponse struct {
	XMLName xml.Name `xml:"response"`
	Header  struct {
		ResultCode string `xml:"resultCode"`
		ResultMsg  string `xml:"resultMsg"`
	} `xml:"header"`
	Body *struct {
		Items *struct {
			Item []struct {
				Category  string `xml:"category"`
				ObsrValue string `xml:"obsrValue"`
			} `xml:"item"`
		} `xml:"items"`
	} `xml:"body"`
}

// Client queries the KMA ultra-short-term nowcast service.
type Client struct {
	url        string
	serviceKey string
	client     *http.Client
	cache      *cache.Cache
}

// NewClient creates a nowcast client. Successful readings are cached per grid cell
// and base time for cfg.CacheTTLSeconds.
func NewClient(cfg config.WeatherConfig) *Client {
	var transport http.RoundTripper = &http.Transport{}
	if cfg.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.HTTPProxy)
		if err != nil {
			log.Printf("Warning: Invalid proxy URL %q: %v. Weather client will not use a proxy.", cfg.HTTPProxy, err)
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	return &Client{
		url:        cfg.URL,
		serviceKey: cfg.ServiceKey,
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		cache: cache.New(ttl, 2*ttl),
	}
}

// Configured reports whether a service key is available.
func (c *Client) Configured() bool {
	return c.serviceKey != ""
}

// Fetch returns the nowcast for coords. Errors wrap ErrUnreachable or ErrMalformed.
func (c *Client) Fetch(ctx context.Context, coords region.Coords, baseDate, baseTime string) (Observation, error) {
	key := fmt.Sprintf("%s/%s/%s/%s", coords.NX, coords.NY, baseDate, baseTime)
	if cached, found := c.cache.Get(key); found {
		return cached.(Observation), nil
	}

	obs, err := c.fetch(ctx, coords, baseDate, baseTime)
	if err != nil {
		return Observation{}, err
	}
	c.cache.SetDefault(key, obs)
	return obs, nil
}

func (c *Client) fetch(ctx context.Context, coords region.Coords, baseDate, baseTime string) (Observation, error) {
	params := url.Values{}
	params.Set("serviceKey", c.serviceKey)
	params.Set("pageNo", "1")
	params.Set("numOfRows", "10")
	params.Set("dataType", "XML")
	params.Set("base_date", baseDate)
	params.Set("base_time", baseTime)
	params.Set("nx", coords.NX)
	params.Set("ny", coords.NY)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"?"+params.Encode(), nil)
	if err != nil {
		return Observation{}, fmt.Errorf("%w: failed to create request: %v", ErrUnreachable, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Observation{}, fmt.Errorf("%w: http request failed: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Observation{}, fmt.Errorf("%w: received non-200 status code: %d", ErrUnreachable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Observation{}, fmt.Errorf("%w: failed to read response body: %v", ErrUnreachable, err)
	}

	return parseNowcast(body)
}

// parseNowcast reads T1H (temperature), PTY (precipitation type) and REH (humidity).
func parseNowcast(body []byte) (Observation, error) {
	var r nowcastResponse
	if err := xml.Unmarshal(body, &r); err != nil {
		return Observation{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if r.Body == nil || r.Body.Items == nil {
		return Observation{}, fmt.Errorf("%w: no body (result %s %s)", ErrMalformed, r.Header.ResultCode, r.Header.ResultMsg)
	}
	if r.Header.ResultCode != "" && r.Header.ResultCode != "00" {
		return Observation{}, fmt.Errorf("%w: result code %s: %s", ErrMalformed, r.Header.ResultCode, r.Header.ResultMsg)
	}

	obs := Observation{Temperature: "0", Humidity: "0"}
	pty := "0"
	for _, item := range r.Body.Items.Item {
		switch item.Category {
		case "T1H":
			obs.Temperature = item.ObsrValue
		case "PTY":
			pty = item.ObsrValue
		case "REH":
			obs.Humidity = item.ObsrValue
		}
	}
	obs.Label = precipitationLabel(pty)
	return obs, nil
}

// PTY codes: 0 none, 1 rain, 2 rain/snow, 3 snow, 5 drizzle, 6 drizzle/snow flurries, 7 snow flurries.
func precipitationLabel(pty string) string {
	switch pty {
	case "0", "":
		return LabelClear
	case "3", "7":
		return LabelSnow
	default:
		return LabelPrecipitation
	}
}
