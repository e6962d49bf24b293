package dom

import (
	"bytes"
	"context"
	"fmt"
	"net/http/cookiejar"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"github.com/Homebrew-Software/nelnet-tracker/lib/telemetry"
)

// NewFetchClient builds an http client suitable for pulling a rendered
// account page that the operator has exported behind a plain GET (e.g.
// a reverse proxy or a locally served copy).
func NewFetchClient() (*resty.Client, error) {
	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "dom/fetch")
	return client, nil
}

// FetchPage GETs a url and parses the response body into a
// StaticSource.
func FetchPage(ctx context.Context, client *resty.Client, url string) (*StaticSource, error) {
	res, err := client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, err
	}
	if res.StatusCode() != 200 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, res.StatusCode())
	}
	return NewStaticSource(bytes.NewReader(res.Body()))
}
