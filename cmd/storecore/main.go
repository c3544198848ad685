package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/openmart/storecore/config"
	"github.com/openmart/storecore/internal/app"
	"go.uber.org/zap"
)

var (
	h        bool
	initdb   bool
	conffile string
)

func init() {
	flag.BoolVar(&h, "h", false, "help usage")
	flag.BoolVar(&initdb, "initdb", false, "drop and recreate the database schema")
	flag.StringVar(&conffile, "c", "", "config yaml file")
}

func main() {
	flag.Parse()
	if h {
		flag.Usage()
		os.Exit(0)
	}

	cfg := config.LoadConfig(conffile)

	application := app.NewApplication(cfg)
	application.Init(cfg)
	defer application.Release()

	if initdb {
		application.InitDb()
		fmt.Println("database initialized")
		return
	}

	zap.L().Info("storecore started",
		zap.String("appid", cfg.System.Appid),
		zap.String("workdir", cfg.System.Workdir))

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM)
	<-sc

	zap.L().Info("storecore shutting down")
}
