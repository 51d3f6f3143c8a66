package models

// MaxFusionImages 单次融合最多上传的图片数
const MaxFusionImages = 4

// GenerateRequest /api/generate-image 与 /api/fuse 的请求体
type GenerateRequest struct {
	Prompt string   `json:"prompt"`
	Images []string `json:"images" binding:"max=4"`
	// Session 可选，用于订阅 /events?session= 的进度事件
	Session string `json:"session,omitempty"`
}

// GenerateResponse /api/generate-image 的成功响应
type GenerateResponse struct {
	ImageURL string `json:"imageUrl"`
	IsMock   bool   `json:"isMock,omitempty"`
}

// FusionResult 一次融合的结果，创建后不再修改
//
// PrimaryURL 用于下载；MirrorURL 用于分享，镜像失败时等于 PrimaryURL。
type FusionResult struct {
	PrimaryURL string `json:"primaryUrl"`
	MirrorURL  string `json:"mirrorUrl"`
	IsMock     bool   `json:"isMock"`
}

// MirrorRequest /api/upload-to-cloudinary 的请求体
type MirrorRequest struct {
	ImageURL string `json:"imageUrl"`
}

// MirrorResponse /api/upload-to-cloudinary 的响应
type MirrorResponse struct {
	Success       bool   `json:"success"`
	CloudinaryURL string `json:"cloudinaryUrl"`
	Message       string `json:"message,omitempty"`
	Error         string `json:"error,omitempty"`
	IsDevelopment bool   `json:"isDevelopment,omitempty"`
}

// FusionEvent 推送到 SSE 的融合进度事件
type FusionEvent struct {
	Session  string `json:"session"`
	Stage    string `json:"stage"`
	Provider string `json:"provider,omitempty"`
	URL      string `json:"url,omitempty"`
	Error    string `json:"error,omitempty"`
}
