package source

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"

	"deathmap/internal/config"
	"deathmap/internal/logger"
	"deathmap/internal/models"
	"deathmap/pkg/utils"
)

// ErrInvalidURL is returned for a remote source whose URL is not absolute http(s).
var ErrInvalidURL = errors.New("invalid source url")

// Client resolves a configured source into raw records.
type Client struct {
	scraper *Scraper
	http    *utils.HTTPHelper
	log     *logger.Logger
}

// NewClient creates a client for the given fetch configuration. The Socrata
// app token, if any, is read from the environment variable named by
// fetch.AppTokenEnv.
func NewClient(fetch config.FetchConfig, log *logger.Logger) *Client {
	helper := utils.NewHTTPHelper()

	token := ""
	if fetch.AppTokenEnv != "" {
		token = os.Getenv(fetch.AppTokenEnv)
	}

	return NewClientWithScraper(NewScraper(fetch, helper.BuildHeaders(token, nil)), log)
}

// NewClientWithScraper creates a client around an existing scraper.
func NewClientWithScraper(scraper *Scraper, log *logger.Logger) *Client {
	return &Client{
		scraper: scraper,
		http:    utils.NewHTTPHelper(),
		log:     log,
	}
}

// Load reads and decodes every raw record of src. All errors wrap ErrIngest.
func (c *Client) Load(ctx context.Context, src config.SourceConfig) ([]models.RawRecord, error) {
	if src.IsLocalFile() {
		content, err := c.scraper.ReadLocalFile(src.File)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrIngest, err)
		}

		c.log.Debug("read local source", "source", src.Name, "path", src.File, "bytes", len(content))

		return Decode(content, src.GetFormat())
	}

	if !c.http.IsValidURL(src.URL) {
		return nil, fmt.Errorf("%w: %w: %q", ErrIngest, ErrInvalidURL, src.URL)
	}

	if src.PageSize > 0 && src.GetFormat() == config.FormatJSON {
		return c.loadPaged(ctx, src)
	}

	body, err := c.scraper.Fetch(ctx, src.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIngest, err)
	}

	c.log.Debug("fetched remote source", "source", src.Name, "bytes", len(body))

	return Decode(body, src.GetFormat())
}

// loadPaged walks a Socrata resource with $limit/$offset until a short page.
func (c *Client) loadPaged(ctx context.Context, src config.SourceConfig) ([]models.RawRecord, error) {
	var all []models.RawRecord

	for offset := 0; ; offset += src.PageSize {
		pageURL, err := PageURL(src.URL, src.PageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("%w: %w: %v", ErrIngest, ErrInvalidURL, err)
		}

		body, err := c.scraper.Fetch(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("%w: page at offset %d: %w", ErrIngest, offset, err)
		}

		page, err := DecodeJSON(body)
		if err != nil {
			return nil, fmt.Errorf("page at offset %d: %w", offset, err)
		}

		all = append(all, page...)

		c.log.Debug("fetched page", "source", src.Name, "offset", offset, "records", len(page))

		if len(page) < src.PageSize {
			break
		}
	}

	if all == nil {
		all = []models.RawRecord{}
	}

	return all, nil
}

// PageURL adds Socrata paging parameters to base. Rows are ordered by the
// system :id column so pages are stable.
func PageURL(base string, limit, offset int) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("$limit", strconv.Itoa(limit))
	q.Set("$offset", strconv.Itoa(offset))

	if q.Get("$order") == "" {
		q.Set("$order", ":id")
	}

	u.RawQuery = q.Encode()

	return u.String(), nil
}
