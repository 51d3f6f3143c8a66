package gifx

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/png"
	"mime"
	"strings"

	"prizmora/util"
)

const (
	MediaTypeGIF = "image/gif"
	// MaxSize GIF 文件大小上限
	MaxSize = 20 << 20
)

var (
	ErrUnsupportedInput  = errors.New("gifx: only GIF files up to 20MB are supported")
	ErrNoFramesExtracted = errors.New("gifx: no frames extracted from GIF")
)

// ExtractFrames 把 GIF 拆成独立的 PNG 帧，顺序与动画时间顺序一致
//
// 每一帧都绘制在逻辑屏幕大小的画布上（处理小于画布的局部帧），并按帧的处置方式
// 恢复画布后再绘制下一帧。媒体类型和大小在解码前校验。
func ExtractFrames(mediaType string, data []byte) ([][]byte, error) {
	if !isGIF(mediaType) {
		return nil, fmt.Errorf("%w: media type %q", ErrUnsupportedInput, mediaType)
	}
	if len(data) > MaxSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrUnsupportedInput, len(data))
	}

	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		// image/gif 在读到结束符 0x3B 前没有遇到任何图像描述符 0x2C 时
		// 返回 "gif: missing image data"，标准库没有导出该错误值
		if strings.Contains(err.Error(), "missing image data") {
			return nil, ErrNoFramesExtracted
		}
		return nil, fmt.Errorf("decode gif: %w", err)
	}
	if len(g.Image) == 0 {
		return nil, ErrNoFramesExtracted
	}

	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		bounds = g.Image[0].Bounds()
		for _, fr := range g.Image[1:] {
			bounds = bounds.Union(fr.Bounds())
		}
	}

	canvas := image.NewRGBA(bounds)
	frames := make([][]byte, 0, len(g.Image))
	for i, fr := range g.Image {
		disposal := byte(gif.DisposalNone)
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}

		var saved *image.RGBA
		if disposal == gif.DisposalPrevious {
			saved = image.NewRGBA(bounds)
			copy(saved.Pix, canvas.Pix)
		}

		draw.Draw(canvas, fr.Bounds(), fr, fr.Bounds().Min, draw.Over)

		var buf bytes.Buffer
		if err := png.Encode(&buf, canvas); err != nil {
			return nil, fmt.Errorf("encode frame %d: %w", i, err)
		}
		frames = append(frames, buf.Bytes())

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, fr.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			copy(canvas.Pix, saved.Pix)
		}
	}
	return frames, nil
}

// ToDataURLs 把 PNG 帧编码为 data URI，便于前端直接作为上传图片使用
func ToDataURLs(frames [][]byte) []string {
	out := make([]string, len(frames))
	for i, f := range frames {
		out[i] = util.DataURL("image/png", f)
	}
	return out
}

func isGIF(mediaType string) bool {
	mt, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return false
	}
	return strings.EqualFold(mt, MediaTypeGIF)
}
