package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vpsweb/apiclient"
	"vpsweb/handler"
	"vpsweb/pkg/conf"
	"vpsweb/pkg/logger"
	"vpsweb/pkg/metrics"
	"vpsweb/service"
)

func main() {
	conf.OnChange(func(file string) {
		logger.Logger.Infof("配置文件 %s 已变更，部分配置需重启后生效", file)
	})
	conf.InitConf("./vpsweb.yaml")
	logger.InitLogger("vpsweb", conf.Conf.GetString("log.dir"), conf.Conf.GetString("log.level"))
	defer logger.Sync()

	var audit service.AuditRecorder = service.NopAudit{}
	if dsn := conf.Conf.GetString("mysql.dsn"); dsn != "" {
		a, err := service.OpenAudit(dsn)
		if err != nil {
			logger.Logger.Errorf("failed to connect database: %v", err)
			return
		}
		audit = a
	}

	client := apiclient.New(conf.Conf.GetString("api.base_url"), conf.Conf.GetDuration("api.timeout"))
	svc := service.NewService(client, audit, service.OptionsFromConf())
	r := SetupRouter(svc)

	addr := conf.Conf.GetString("server.addr")
	logger.Logger.Infof("vpsweb 监听 %s，远端 %s", addr, conf.Conf.GetString("api.base_url"))
	if err := r.Run(addr); err != nil {
		logger.Logger.Errorf("server exited: %v", err)
	}
}

func SetupRouter(svc *service.Service) *gin.Engine {
	r := gin.Default()

	config := cors.DefaultConfig()
	config.AllowOrigins = []string{conf.Conf.GetString("frontend.host")}
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-Id"}
	config.ExposeHeaders = []string{"Content-Disposition", "X-Request-Id"}
	r.Use(cors.New(config), handler.RequestID)

	handler.NewHandler(svc).Register(r.Group("/v1"))
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	return r
}
