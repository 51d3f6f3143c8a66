package share

import (
	"errors"
	"net/url"
	"strings"
)

const (
	PlatformTwitter   = "twitter"
	PlatformFacebook  = "facebook"
	PlatformInstagram = "instagram"

	// DefaultText 分享时附带的文案
	DefaultText = "Just fused this AI artwork using Prizmora! ✨"

	// InstagramHint Instagram 不支持网页分享链接
	InstagramHint = "Instagram does not support direct web sharing. Download the image and upload it from the Instagram app."
)

var (
	ErrUnsupportedPlatform = errors.New("share: unsupported platform")
	ErrEmptyURL            = errors.New("share: url is required")
)

// URL 生成指定平台的分享链接
func URL(platform, target string) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", ErrEmptyURL
	}
	switch strings.ToLower(strings.TrimSpace(platform)) {
	case PlatformTwitter, "x":
		q := url.Values{}
		q.Set("text", DefaultText)
		q.Set("url", target)
		return "https://twitter.com/intent/tweet?" + q.Encode(), nil
	case PlatformFacebook:
		return "https://www.facebook.com/sharer/sharer.php?u=" + url.QueryEscape(target), nil
	default:
		return "", ErrUnsupportedPlatform
	}
}
