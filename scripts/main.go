// 本地启动一个内存版远端 vps-api，用于在没有后端时联调控制台：
//
//	go run ./scripts -l :8000
//
// 然后把 api.base_url 指向 http://127.0.0.1:8000/api
package main

import (
	"flag"
	"fmt"
	"net/http"
	"time"

	"vpsweb/model"
	"vpsweb/simulator"
)

func main() {
	addr := flag.String("l", ":8000", "监听地址")
	videos := flag.Int("n", 0, "额外生成的视频数量")
	failPath := flag.String("f", "", "让该接口返回业务错误，如 /admin/users/set-role")
	failCode := flag.Int("c", 500, "-f 使用的错误码")
	flag.Parse()

	api := simulator.New()
	adminID, userID := api.Seed()
	statuses := []model.VideoStatus{model.VideoCompleted, model.VideoPending, model.VideoProcessing, model.VideoFailed}
	for i := 0; i < *videos; i++ {
		owner := userID
		if i%2 == 0 {
			owner = adminID
		}
		api.AddVideo(fmt.Sprintf("generated-%03d", i+1), owner, statuses[i%len(statuses)])
	}
	if *failPath != "" {
		api.Fail(*failPath, *failCode, "injected failure")
		fmt.Printf("接口 %s 将返回错误码 %d\n", *failPath, *failCode)
	}

	fmt.Printf("模拟 vps-api 监听 %s，账号 admin/123456、alice/123456\n", *addr)
	srv := &http.Server{
		Addr:              *addr,
		Handler:           api,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		fmt.Printf("服务退出: %v\n", err)
	}
}
