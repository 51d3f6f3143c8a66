package zora

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ipfs/go-cid"

	"prizmora/models"
	"prizmora/pkg/ipfs"
)

const (
	CategoryAIArt  = "AI Art"
	TypeFusionArt  = "Fusion Art"
	creationLayout = "2006-01-02T15:04:05.000Z"
)

// NewValidator 注册 ipfsuri 规则的校验器
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("ipfsuri", validIPFSURI)
	return v
}

// validIPFSURI 字段必须是 ipfs://<合法 CID>
func validIPFSURI(fl validator.FieldLevel) bool {
	rest, ok := strings.CutPrefix(fl.Field().String(), "ipfs://")
	if !ok || rest == "" {
		return false
	}
	_, err := cid.Decode(rest)
	return err == nil
}

// BuildMetadata 以内容 CID 组装币元数据
func BuildMetadata(title, symbol, description, contentType, contentCID string, now time.Time) models.CoinMetadata {
	uri := ipfs.URI(contentCID)
	return models.CoinMetadata{
		Name:        title,
		Symbol:      symbol,
		Description: description,
		Image:       uri,
		Content: models.CoinContent{
			Mime: contentType,
			URI:  uri,
		},
		Properties: models.CoinProperties{
			Category:     CategoryAIArt,
			Type:         TypeFusionArt,
			CreationDate: now.UTC().Format(creationLayout),
		},
	}
}
