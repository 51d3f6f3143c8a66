package settings

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	ModeDev     = "dev"
	ModeRelease = "release"
)

// AppConfig 全局配置
type AppConfig struct {
	Name           string        `mapstructure:"name"`
	Mode           string        `mapstructure:"mode"`
	Port           int           `mapstructure:"port"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	AllowOrigins   []string      `mapstructure:"allow_origins"`

	Log        LogConfig        `mapstructure:"log"`
	Generation GenerationConfig `mapstructure:"generation"`
	Cloudinary CloudinaryConfig `mapstructure:"cloudinary"`
	Pinata     PinataConfig     `mapstructure:"pinata"`
	Zora       ZoraConfig       `mapstructure:"zora"`
	Redis      RedisConfig      `mapstructure:"redis"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// GenerationConfig 图像生成配置，Primary/Fallback 取值 ark 或 gemini
type GenerationConfig struct {
	Primary      string `mapstructure:"primary"`
	Fallback     string `mapstructure:"fallback"`
	MockImageURL string `mapstructure:"mock_image_url"`
	ArkAPIKey    string `mapstructure:"ark_api_key"`
	ArkModel     string `mapstructure:"ark_model"`
	ArkSize      string `mapstructure:"ark_size"`
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	GeminiModel  string `mapstructure:"gemini_model"`
}

type CloudinaryConfig struct {
	CloudName string `mapstructure:"cloud_name"`
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
	Folder    string `mapstructure:"folder"`
	BaseURL   string `mapstructure:"base_url"`
}

type PinataConfig struct {
	JWT     string `mapstructure:"jwt"`
	Gateway string `mapstructure:"gateway"`
	APIURL  string `mapstructure:"api_url"`
	// CacheSize 未配置 JWT 时内存 CAS 的最大对象数
	CacheSize int `mapstructure:"cache_size"`
}

// ZoraConfig 链上铸币与币列表配置
type ZoraConfig struct {
	APIKey           string `mapstructure:"api_key"`
	APIURL           string `mapstructure:"api_url"`
	RPCURL           string `mapstructure:"rpc_url"`
	ChainID          int64  `mapstructure:"chain_id"`
	FactoryAddress   string `mapstructure:"factory_address"`
	PrivateKey       string `mapstructure:"private_key"`
	PlatformReferrer string `mapstructure:"platform_referrer"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	CoinTTL  time.Duration `mapstructure:"coin_ttl"`
}

// MockMode 开发模式下生成失败时返回占位图
func (c *AppConfig) MockMode() bool {
	return c.Mode == ModeDev
}

// legacyEnv 兼容前端项目原有的环境变量名
var legacyEnv = map[string]string{
	"generation.gemini_api_key": "GEMINI_API_KEY",
	"generation.ark_api_key":    "ARK_API_KEY",
	"cloudinary.cloud_name":     "CLOUDINARY_CLOUD_NAME",
	"cloudinary.api_key":        "CLOUDINARY_API_KEY",
	"cloudinary.api_secret":     "CLOUDINARY_API_SECRET",
	"pinata.jwt":                "PINATA_JWT",
	"pinata.gateway":            "PINATA_GATEWAY",
	"zora.api_key":              "ZORA_API_KEY",
	"zora.platform_referrer":    "PLATFORM_REFERRER_ADDRESS",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("name", "prizmora")
	v.SetDefault("mode", ModeRelease)
	v.SetDefault("port", 8080)
	v.SetDefault("request_timeout", 2*time.Minute)
	v.SetDefault("allow_origins", []string{"*"})

	v.SetDefault("log.level", "info")

	v.SetDefault("generation.primary", "ark")
	v.SetDefault("generation.fallback", "gemini")
	v.SetDefault("generation.mock_image_url", "https://images.unsplash.com/photo-1618005182384-a83a8bd57fbe?q=80&w=1064&auto=format&fit=crop")
	v.SetDefault("generation.ark_api_key", "")
	v.SetDefault("generation.ark_model", "doubao-seedream-4-0-250828")
	v.SetDefault("generation.ark_size", "1K")
	v.SetDefault("generation.gemini_api_key", "")
	v.SetDefault("generation.gemini_model", "gemini-2.5-flash-image")

	v.SetDefault("cloudinary.cloud_name", "")
	v.SetDefault("cloudinary.api_key", "")
	v.SetDefault("cloudinary.api_secret", "")
	v.SetDefault("cloudinary.folder", "prizmora")
	v.SetDefault("cloudinary.base_url", "https://api.cloudinary.com")

	v.SetDefault("pinata.jwt", "")
	v.SetDefault("pinata.gateway", "")
	v.SetDefault("pinata.api_url", "https://api.pinata.cloud")
	v.SetDefault("pinata.cache_size", 512)

	v.SetDefault("zora.api_key", "")
	v.SetDefault("zora.api_url", "https://api-sdk.zora.engineering")
	v.SetDefault("zora.rpc_url", "")
	v.SetDefault("zora.chain_id", 8453)
	v.SetDefault("zora.factory_address", "0x777777751622c0d3258f214F9DF38E35BF45baF3")
	v.SetDefault("zora.private_key", "")
	v.SetDefault("zora.platform_referrer", "")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.coin_ttl", 30*time.Second)
}

// Load 读取配置：默认值 < 配置文件 < 环境变量
//
// path 为空时尝试读取当前目录下的 config.yaml，不存在则只使用默认值和环境变量。
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("PRIZMORA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		prefixed := "PRIZMORA_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	conf := new(AppConfig)
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if conf.Mode != ModeDev && conf.Mode != ModeRelease {
		return nil, fmt.Errorf("invalid mode %q, want %s or %s", conf.Mode, ModeDev, ModeRelease)
	}
	return conf, nil
}
