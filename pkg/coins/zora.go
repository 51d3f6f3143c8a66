package coins

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"prizmora/models"
	"prizmora/pkg/errno"
)

const (
	listTopGainers = "TOP_GAINERS"
	listNew        = "NEW"

	maxResponseSize = 8 << 20
)

// ZoraClient Zora explore REST 接口，提供热门与新币列表
//
// 不实现 ProfileQuerier：用户币列表由 Adapter 返回 501。
type ZoraClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewZoraClient(baseURL, apiKey string, client *http.Client) *ZoraClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &ZoraClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: client,
	}
}

func (z *ZoraClient) Name() string { return "zora" }

func (z *ZoraClient) Trending(ctx context.Context, count int, after string) (RawPage, error) {
	return z.explore(ctx, listTopGainers, count, after)
}

func (z *ZoraClient) Newest(ctx context.Context, count int, after string) (RawPage, error) {
	return z.explore(ctx, listNew, count, after)
}

type exploreList struct {
	Edges []struct {
		Node map[string]any `json:"node"`
	} `json:"edges"`
	PageInfo models.PageInfo `json:"pageInfo"`
}

// exploreResponse 兼容带 data 包裹与不带包裹两种结构
type exploreResponse struct {
	ExploreList *exploreList `json:"exploreList"`
	Data        *struct {
		ExploreList *exploreList `json:"exploreList"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (z *ZoraClient) explore(ctx context.Context, listType string, count int, after string) (RawPage, error) {
	q := url.Values{}
	q.Set("listType", listType)
	q.Set("count", strconv.Itoa(count))
	if after != "" {
		q.Set("after", after)
	}
	endpoint := z.baseURL + "/explore?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return RawPage{}, err
	}
	req.Header.Set("Accept", "application/json")
	if z.apiKey != "" {
		req.Header.Set("api-key", z.apiKey)
	}

	resp, err := z.httpClient.Do(req)
	if err != nil {
		return RawPage{}, errno.Wrap(errno.KindUpstreamUnavailable, "Failed to fetch coins from Zora", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return RawPage{}, errno.Wrap(errno.KindUpstreamUnavailable, "Failed to fetch coins from Zora", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		zap.L().Warn("zora explore returned error", zap.Int("status", resp.StatusCode), zap.String("list", listType))
		return RawPage{}, errno.New(errno.KindUpstreamUnavailable, fmt.Sprintf("Zora API Error: %s", http.StatusText(resp.StatusCode))).
			WithDetails(strings.TrimSpace(string(body))).
			WithStatus(upstreamStatus(resp.StatusCode))
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var out exploreResponse
	if err := dec.Decode(&out); err != nil {
		return RawPage{}, errno.Wrap(errno.KindUpstreamUnavailable, "Invalid response from Zora", err)
	}
	if len(out.Errors) > 0 {
		return RawPage{}, errno.New(errno.KindUpstreamUnavailable, "Zora API Error: "+out.Errors[0].Message)
	}

	list := out.ExploreList
	if list == nil && out.Data != nil {
		list = out.Data.ExploreList
	}
	page := RawPage{Nodes: []map[string]any{}}
	if list == nil {
		return page, nil
	}
	for _, e := range list.Edges {
		if e.Node != nil {
			page.Nodes = append(page.Nodes, e.Node)
		}
	}
	page.PageInfo = list.PageInfo
	return page, nil
}

// upstreamStatus 只透传 4xx/5xx，其余异常状态按网关错误处理
func upstreamStatus(code int) int {
	if code >= 400 && code < 600 {
		return code
	}
	return http.StatusBadGateway
}
