package flickr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	methodInterestingness = "flickr.interestingness.getList"
	methodUserPhotos      = "flickr.people.getPublicPhotos"

	// Extra fields the card renderer needs on every photo element.
	requestExtras = "description,date_upload,date_taken,owner_name,url_t,url_c"
)

var (
	// ErrUpstream means the photo API answered with a non-success status.
	ErrUpstream = errors.New("flickr: upstream request failed")
	// ErrMalformedResponse means the photo list was missing from the body.
	ErrMalformedResponse = errors.New("flickr: malformed response")
	// ErrInsufficientCandidates means the API returned fewer photos than
	// were requested; sampling never repeats a photo to fill the gap.
	ErrInsufficientCandidates = errors.New("flickr: not enough candidate photos")
)

// PhotoRecord is one projected photo, owned by the caller for one turn.
type PhotoRecord struct {
	Title        string
	Description  string
	DateTaken    string
	OwnerName    string
	OwnerID      string
	ThumbnailURL string
	LargeURL     string
}

// Client queries the Flickr REST API for photo listings. Counts are assumed
// to be range-checked by the dialog layer before they reach the client.
type Client struct {
	apiKey   string
	apiURL   string
	pageSize int
	client   *http.Client
}

func NewClient(apiKey, apiURL string, pageSize int) *Client {
	return &Client{
		apiKey:   apiKey,
		apiURL:   apiURL,
		pageSize: pageSize,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// FetchInteresting samples count photos from the interestingness listing.
func (c *Client) FetchInteresting(ctx context.Context, count int) ([]PhotoRecord, error) {
	params := url.Values{}
	params.Set("method", methodInterestingness)
	return c.fetch(ctx, params, count)
}

// FetchForUser samples count photos from a user's public photos.
func (c *Client) FetchForUser(ctx context.Context, count int, userID string) ([]PhotoRecord, error) {
	if userID == "" {
		return nil, errors.New("flickr: user id must not be empty")
	}
	params := url.Values{}
	params.Set("method", methodUserPhotos)
	params.Set("user_id", userID)
	return c.fetch(ctx, params, count)
}

type apiPhoto struct {
	Title       string `json:"title"`
	Description struct {
		Content string `json:"_content"`
	} `json:"description"`
	DateTaken string `json:"datetaken"`
	OwnerName string `json:"ownername"`
	Owner     string `json:"owner"`
	URLT      string `json:"url_t"`
	URLC      string `json:"url_c"`
}

type apiResponse struct {
	Photos *struct {
		Photo []apiPhoto `json:"photo"`
	} `json:"photos"`
	Stat string `json:"stat"`
}

func (c *Client) fetch(ctx context.Context, params url.Values, count int) ([]PhotoRecord, error) {
	params.Set("api_key", c.apiKey)
	params.Set("format", "json")
	params.Set("nojsoncallback", "1")
	params.Set("extras", requestExtras)
	params.Set("per_page", strconv.Itoa(c.pageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	res, err := c.client.Do(req)
	if err != nil {
		log.Printf("flickr request failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		log.Printf("flickr status %d: %s", res.StatusCode, string(body))
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var decoded apiResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		log.Printf("flickr response decode failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if decoded.Photos == nil || decoded.Photos.Photo == nil {
		log.Printf("flickr response missing photo list (stat=%s)", decoded.Stat)
		return nil, fmt.Errorf("%w: missing photos in response", ErrMalformedResponse)
	}

	return samplePhotos(decoded.Photos.Photo, count)
}

// samplePhotos draws count photos uniformly without replacement, in sampled
// order. Requesting more photos than the batch holds fails rather than
// repeating cards.
func samplePhotos(batch []apiPhoto, count int) ([]PhotoRecord, error) {
	if count > len(batch) {
		return nil, fmt.Errorf("%w: requested %d of %d", ErrInsufficientCandidates, count, len(batch))
	}

	picked := make([]PhotoRecord, 0, count)
	for _, i := range rand.Perm(len(batch))[:count] {
		picked = append(picked, project(batch[i]))
	}
	return picked, nil
}

// project maps a raw API photo into a PhotoRecord; absent optional fields
// become empty strings.
func project(p apiPhoto) PhotoRecord {
	return PhotoRecord{
		Title:        p.Title,
		Description:  p.Description.Content,
		DateTaken:    p.DateTaken,
		OwnerName:    p.OwnerName,
		OwnerID:      p.Owner,
		ThumbnailURL: p.URLT,
		LargeURL:     p.URLC,
	}
}
