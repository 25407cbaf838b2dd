package conf

import (
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

var Conf *viper.Viper

func InitConf(path string) {
	Conf = newConf()
	Conf.SetConfigFile(path)
	if err := Conf.ReadInConfig(); err != nil {
		// 没有配置文件时使用默认值和环境变量
		return
	}
	Conf.OnConfigChange(func(e fsnotify.Event) {
		for _, fn := range watchers {
			fn(e.Name)
		}
	})
	Conf.WatchConfig()
}

// InitDefault 只加载默认值，测试中使用
func InitDefault() {
	Conf = newConf()
}

var watchers []func(string)

// OnChange 注册配置文件变更回调，须在 InitConf 之前调用
func OnChange(fn func(file string)) {
	watchers = append(watchers, fn)
}

func newConf() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("VPSWEB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", ":12580")
	v.SetDefault("frontend.host", "http://localhost:5173")
	v.SetDefault("api.base_url", "http://127.0.0.1:8000/api")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("cache.stale_time", 10*time.Second)
	v.SetDefault("cache.uploaders_stale_time", 60*time.Second)
	v.SetDefault("chart.buckets", 100)
	v.SetDefault("chart.y_min", 0)
	v.SetDefault("chart.y_max", 12)
	v.SetDefault("upload.max_size", 200*1024*1024)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.dir", "./logs")
	v.SetDefault("mysql.dsn", "")
	return v
}
