package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/viper"
)

var (
	globalConfig Config
	once         sync.Once
)

// Config 扁平化配置结构体
// 这里只放需要重启才能生效的配置；可热更新的配置见 config/db
type Config struct {
	// 服务器配置
	ServerHost         string        `mapstructure:"server_host"`
	ServerPort         int           `mapstructure:"server_port"`
	ServerDomain       string        `mapstructure:"server_domain"`
	ServerReadTimeout  time.Duration `mapstructure:"server_read_timeout"`
	ServerWriteTimeout time.Duration `mapstructure:"server_write_timeout"`
	ServerIdleTimeout  time.Duration `mapstructure:"server_idle_timeout"`

	// 管理端令牌
	AdminToken string `mapstructure:"admin_token"`

	// 数据库配置
	DBType     string `mapstructure:"db_type"`
	DBHost     string `mapstructure:"db_host"`
	DBPort     int    `mapstructure:"db_port"`
	DBUsername string `mapstructure:"db_username"`
	DBPassword string `mapstructure:"db_password"`
	DBName     string `mapstructure:"db_name"`
	DBFilePath string `mapstructure:"db_file_path"`

	// 存储配置
	StorageType  string `mapstructure:"storage_type"` // local / s3
	UploadFolder string `mapstructure:"upload_folder"`

	// S3 兼容对象存储配置
	S3Endpoint    string        `mapstructure:"s3_endpoint"`
	S3AccessKey   string        `mapstructure:"s3_access_key"`
	S3SecretKey   string        `mapstructure:"s3_secret_key"`
	S3Bucket      string        `mapstructure:"s3_bucket"`
	S3Domain      string        `mapstructure:"s3_domain"`
	S3ThumbSuffix string        `mapstructure:"s3_thumb_suffix"`
	S3UseSSL      bool          `mapstructure:"s3_use_ssl"`
	S3Timeout     time.Duration `mapstructure:"s3_timeout"`

	// 上传配置
	UploadMaxSizeMB int `mapstructure:"upload_max_size_mb"`

	// 图片处理静态默认值（可被数据库热更新配置覆盖）
	ImgMaxDimension   int  `mapstructure:"img_max_dimension"`
	ImgQuality        int  `mapstructure:"img_quality"`
	EnableImgCompress bool `mapstructure:"enable_img_compress"`
	MaxRefImages      int  `mapstructure:"max_ref_images"`

	// 显示默认值
	ItemsPerPage          int  `mapstructure:"items_per_page"`
	AdminPerPage          int  `mapstructure:"admin_per_page"`
	UseThumbnailInPreview bool `mapstructure:"use_thumbnail_in_preview"`

	// 限流默认值（每秒请求数 / 突发数）
	UploadRateRPS   float64 `mapstructure:"upload_rate_rps"`
	UploadRateBurst int     `mapstructure:"upload_rate_burst"`
}

// InitConfig Initialize configuration
func InitConfig() {
	once.Do(func() {
		loadConfig()
	})
}

func Get() *Config {
	return &globalConfig
}

// loadConfig Core configuration loading
func loadConfig() {
	setDefaults()

	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintln(os.Stderr, "Info: .env file not found, using defaults and environment variables")
	} else {
		fmt.Fprintln(os.Stderr, "Info: Loaded configuration from .env file")
	}

	viper.AutomaticEnv()
	for _, key := range viper.AllKeys() {
		viper.BindEnv(key)
	}

	if err := viper.Unmarshal(&globalConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: Unable to unmarshal config, %v\n", err)
		os.Exit(1)
	}
}

// setDefaults 设置默认值
func setDefaults() {
	// 服务器配置默认值
	viper.SetDefault("server_host", "127.0.0.1")
	viper.SetDefault("server_port", 8080)
	viper.SetDefault("server_domain", "")
	viper.SetDefault("server_read_timeout", "15s")
	viper.SetDefault("server_write_timeout", "30s")
	viper.SetDefault("server_idle_timeout", "120s")

	viper.SetDefault("admin_token", "")

	// 数据库配置默认值
	viper.SetDefault("db_type", "sqlite")
	viper.SetDefault("db_host", "localhost")
	viper.SetDefault("db_port", 5432)
	viper.SetDefault("db_username", "postgres")
	viper.SetDefault("db_password", "")
	viper.SetDefault("db_name", "prompt-manager")
	viper.SetDefault("db_file_path", "")

	// 存储配置默认值
	viper.SetDefault("storage_type", "local")
	viper.SetDefault("upload_folder", "static/uploads")

	viper.SetDefault("s3_endpoint", "")
	viper.SetDefault("s3_access_key", "")
	viper.SetDefault("s3_secret_key", "")
	viper.SetDefault("s3_bucket", "")
	viper.SetDefault("s3_domain", "")
	viper.SetDefault("s3_thumb_suffix", "")
	viper.SetDefault("s3_use_ssl", true)
	viper.SetDefault("s3_timeout", "30s")

	// 上传配置默认值
	viper.SetDefault("upload_max_size_mb", 50)

	// 图片处理默认值
	viper.SetDefault("img_max_dimension", 1600)
	viper.SetDefault("img_quality", 85)
	viper.SetDefault("enable_img_compress", true)
	viper.SetDefault("max_ref_images", 10)

	// 显示默认值
	viper.SetDefault("items_per_page", 24)
	viper.SetDefault("admin_per_page", 12)
	viper.SetDefault("use_thumbnail_in_preview", true)

	// 限流默认值
	viper.SetDefault("upload_rate_rps", 0.03) // ~100 per hour
	viper.SetDefault("upload_rate_burst", 10)
}

// Addr 返回监听地址，格式为 "host:port"
func (c *Config) Addr() string {
	host := c.ServerHost
	if host == "" {
		host = "0.0.0.0"
	}
	port := c.ServerPort
	if port == 0 {
		port = 8080
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// BaseURL 返回基础 URL，用于把本地相对路径拼成完整链接
func (c *Config) BaseURL() string {
	if c.ServerDomain != "" {
		return c.ServerDomain
	}
	host := c.ServerHost
	if host == "0.0.0.0" || host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, c.ServerPort)
}
