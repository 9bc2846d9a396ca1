// Command cubeworld runs the voxel sandbox server.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dm-vev/cubeworld/server"
)

func main() {
	configPath := flag.String("config", "cubeworld.toml", "path to the TOML config file")
	initWorld := flag.Bool("init", false, "create a new world file at the configured path and exit")
	flag.Parse()

	log := slog.Default()

	conf, err := server.LoadConfig(*configPath)
	if err != nil {
		log.Error("load config", "err", err)
		os.Exit(1)
	}
	conf.Log = log

	if *initWorld {
		if err := server.InitWorld(conf); err != nil {
			log.Error("init world", "err", err)
			os.Exit(1)
		}
		log.Info("created new world", "path", conf.WorldPath)
		return
	}

	srv, err := server.New(conf)
	if err != nil {
		log.Error("create server", "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	if err := srv.Run(ctx); err != nil {
		log.Error("run server", "err", err)
		os.Exit(1)
	}
}
