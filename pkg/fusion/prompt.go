package fusion

import (
	"fmt"
	"unicode/utf8"
)

const (
	// MaxPromptLength 生成服务接受的提示词最大长度
	MaxPromptLength = 1000
	defaultPrompt   = "Create a unique artistic image"
)

// DescribeImages 描述上传了几张图以及如何融合
func DescribeImages(n int) string {
	switch {
	case n <= 0:
		return ""
	case n == 1:
		return "The uploaded image contains visual elements that should be incorporated into the generated artwork. Use it as a reference for style, content, and composition."
	case n == 2:
		return "The two uploaded images contain different visual elements that should be creatively combined. Merge the subjects, styles, and compositions from both images."
	default:
		return fmt.Sprintf("The %d uploaded images contain different visual elements that should be creatively combined into a single cohesive artwork. Take inspiration from all images for color palette, style, and subject matter.", n)
	}
}

// BuildPrompt 合成最终提示词并截断到 MaxPromptLength 个字符
func BuildPrompt(prompt string, imageCount int) string {
	full := prompt
	if full == "" {
		full = defaultPrompt
	}
	if desc := DescribeImages(imageCount); desc != "" {
		if imageCount == 1 {
			full += fmt.Sprintf(". Use this context: %s. Create a variation of the uploaded image.", desc)
		} else {
			full += fmt.Sprintf(". Use this context: %s. Combine elements from all %d uploaded images into one cohesive artwork.", desc, imageCount)
		}
	}
	return truncate(full, MaxPromptLength)
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-3]) + "..."
}
