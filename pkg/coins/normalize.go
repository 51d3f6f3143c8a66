package coins

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"prizmora/models"
)

// TimeLayout createdAt 的输出格式，UTC 毫秒精度
const TimeLayout = "2006-01-02T15:04:05.000Z"

// 毫秒时间戳判定阈值，小于它视为秒
const millisThreshold = 1e11

// rule 一条字段提取规则，shape 标记该路径来自哪种上游结构
type rule struct {
	shape string
	path  []string
}

// 各字段的候选路径，按顺序取第一个非空值
var (
	addressRules = []rule{
		{"coin", []string{"address"}},
		{"collection", []string{"collectionAddress"}},
		{"contract", []string{"contractAddress"}},
	}
	nameRules = []rule{
		{"coin", []string{"name"}},
		{"token", []string{"token", "name"}},
	}
	symbolRules = []rule{
		{"coin", []string{"symbol"}},
		{"token", []string{"token", "symbol"}},
	}
	uriRules = []rule{
		{"token", []string{"token", "metadata", "content", "uri"}},
		{"token", []string{"token", "metadata", "image", "uri"}},
		{"token", []string{"token", "imageURI"}},
		{"coin", []string{"imageURI"}},
		{"coin", []string{"uri"}},
		{"coin", []string{"mediaContent", "previewImage", "medium"}},
	}
	creatorRules = []rule{
		{"coin", []string{"creatorAddress"}},
		{"mint", []string{"minter"}},
		{"owner", []string{"owner"}},
	}
	createdAtRules = []rule{
		{"epoch", []string{"createdAtTimestamp"}},
		{"epoch", []string{"firstMintedTimestamp"}},
		{"coin", []string{"createdAt"}},
	}
	supplyRules = []rule{
		{"coin", []string{"totalSupply"}},
	}
	holderRules = []rule{
		{"coin", []string{"holderCount"}},
		{"owner", []string{"ownerCount"}},
		{"mint", []string{"totalMinted"}},
		{"coin", []string{"uniqueHolders"}},
	}
	metadataRules = []rule{
		{"coin", []string{"metadata"}},
		{"token", []string{"token", "metadata"}},
	}
)

// Normalize 把一个上游节点转换为 CoinSummary
//
// 缺失字段取默认值：字符串为空，totalSupply 为 "0"，holders 为 0，createdAt 为 now。
func Normalize(node map[string]any, now time.Time) models.CoinSummary {
	c := models.CoinSummary{
		Address:     firstString(node, addressRules),
		Name:        firstString(node, nameRules),
		Symbol:      firstString(node, symbolRules),
		URI:         firstString(node, uriRules),
		Creator:     firstString(node, creatorRules),
		CreatedAt:   NormalizeTime(first(node, createdAtRules), now),
		TotalSupply: firstString(node, supplyRules),
		Holders:     firstInt(node, holderRules),
	}
	if c.TotalSupply == "" {
		c.TotalSupply = "0"
	}
	if m, ok := first(node, metadataRules).(map[string]any); ok {
		c.Metadata = m
	}
	return c
}

// NormalizeTime 支持秒、毫秒时间戳与 ISO 字符串，无法识别时返回 now
func NormalizeTime(v any, now time.Time) string {
	if t, ok := parseTime(v); ok {
		return t.UTC().Format(TimeLayout)
	}
	return now.UTC().Format(TimeLayout)
}

func parseTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case float64:
		return fromEpoch(x)
	case int64:
		return fromEpoch(float64(x))
	case int:
		return fromEpoch(float64(x))
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return fromEpoch(f)
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, false
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return fromEpoch(f)
		}
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func fromEpoch(f float64) (time.Time, bool) {
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, false
	}
	if f >= millisThreshold {
		return time.UnixMilli(int64(f)), true
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)), true
}

func first(node map[string]any, rules []rule) any {
	for _, r := range rules {
		if v, ok := lookup(node, r.path); ok && !empty(v) {
			return v
		}
	}
	return nil
}

func firstString(node map[string]any, rules []rule) string {
	switch v := first(node, rules).(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

// firstInt 与其他字段不同，0 也视为缺失并继续尝试下一条规则
func firstInt(node map[string]any, rules []rule) int64 {
	for _, r := range rules {
		v, ok := lookup(node, r.path)
		if !ok {
			continue
		}
		if n := toInt(v); n != 0 {
			return n
		}
	}
	return 0
}

func toInt(v any) int64 {
	switch x := v.(type) {
	case float64:
		return int64(x)
	case int:
		return int64(x)
	case int64:
		return x
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			f, _ := x.Float64()
			return int64(f)
		}
		return n
	case string:
		n, _ := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		return n
	}
	return 0
}

func lookup(node map[string]any, path []string) (any, bool) {
	var cur any = node
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func empty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	}
	return false
}
