// Package ghost reads recipe posts from a Ghost blog.
package ghost

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Post represents a single recipe post from the Ghost API.
type Post struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	HTML      string `json:"html"`
	URL       string `json:"url"`
	UpdatedAt string `json:"updated_at"`
}

type pagination struct {
	Page  int  `json:"page"`
	Pages int  `json:"pages"`
	Next  *int `json:"next"`
}

// PostsResponse is the top-level structure of the Ghost API response for posts.
type PostsResponse struct {
	Posts []Post `json:"posts"`
	Meta  struct {
		Pagination pagination `json:"pagination"`
	} `json:"meta"`
}

// Client fetches recipe posts from the Ghost Content API.
type Client interface {
	FetchRecipes(ctx context.Context) ([]Post, error)
}

// maxPages bounds pagination against a misbehaving server.
const maxPages = 50

type ghostClient struct {
	httpClient *http.Client
	baseURL    string
	contentKey string
	tag        string
}

// NewClient creates a new Ghost API client. A non-empty tag restricts the
// fetch to posts carrying that tag.
func NewClient(baseURL, contentKey, tag string) Client {
	return &ghostClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		contentKey: contentKey,
		tag:        tag,
	}
}

// FetchRecipes fetches every page of posts.
func (c *ghostClient) FetchRecipes(ctx context.Context) ([]Post, error) {
	var posts []Post
	for page := 1; page <= maxPages; {
		resp, err := c.fetchPage(ctx, page)
		if err != nil {
			return nil, err
		}
		posts = append(posts, resp.Posts...)

		next := resp.Meta.Pagination.Next
		if next == nil || *next <= page {
			return posts, nil
		}
		page = *next
	}
	return posts, nil
}

func (c *ghostClient) fetchPage(ctx context.Context, page int) (*PostsResponse, error) {
	q := url.Values{}
	q.Set("key", c.contentKey)
	q.Set("formats", "html")
	q.Set("page", fmt.Sprint(page))
	if c.tag != "" {
		q.Set("filter", "tag:"+c.tag)
	}
	endpoint := fmt.Sprintf("%s/ghost/api/v3/content/posts/?%s", c.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("content api error: status %d", resp.StatusCode)
	}

	var postsResponse PostsResponse
	if err := json.NewDecoder(resp.Body).Decode(&postsResponse); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &postsResponse, nil
}
