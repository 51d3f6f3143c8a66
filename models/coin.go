package models

// CoinProperties 固定的分类属性
type CoinProperties struct {
	Category     string `json:"category" validate:"required"`
	Type         string `json:"type" validate:"required"`
	CreationDate string `json:"creationDate" validate:"required"`
}

// CoinContent 内容本体的类型与地址
type CoinContent struct {
	Mime string `json:"mime" validate:"required"`
	URI  string `json:"uri" validate:"required,ipfsuri"`
}

// CoinMetadata 上传到 IPFS 的币元数据，固定后不可变
type CoinMetadata struct {
	Name        string         `json:"name" validate:"required,max=100"`
	Symbol      string         `json:"symbol" validate:"required,max=32"`
	Description string         `json:"description" validate:"max=5000"`
	Image       string         `json:"image" validate:"required,ipfsuri"`
	Content     CoinContent    `json:"content"`
	Properties  CoinProperties `json:"properties"`
}

// CoinCreationResult 铸币流程的最终结果，不自动重试
type CoinCreationResult struct {
	Success bool   `json:"success"`
	Hash    string `json:"hash,omitempty"`
	Address string `json:"address,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CoinSummary 统一后的币列表条目
type CoinSummary struct {
	Address     string         `json:"address"`
	Name        string         `json:"name"`
	Symbol      string         `json:"symbol"`
	URI         string         `json:"uri"`
	Creator     string         `json:"creator"`
	CreatedAt   string         `json:"createdAt"`
	TotalSupply string         `json:"totalSupply"`
	Holders     int64          `json:"holders"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// PageInfo 分页游标
type PageInfo struct {
	EndCursor   string `json:"endCursor,omitempty"`
	HasNextPage bool   `json:"hasNextPage"`
}

// CoinPage 列表响应
type CoinPage struct {
	Coins    []CoinSummary `json:"coins"`
	PageInfo PageInfo      `json:"pageInfo"`
}
