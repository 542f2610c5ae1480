package main

import (
	"errors"
	"io/fs"
	"os"

	"nutriscan/internal/config"
	"nutriscan/internal/db"
	"nutriscan/internal/logger"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	var cfg *config.Config

	cliApp := &cli.App{
		Name:  "nutriscan",
		Usage: "ingredient community API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Value: ".env",
				Usage: "dotenv file loaded before reading configuration",
			},
		},
		Before: func(ctx *cli.Context) error {
			// .env 不存在不算错误，直接用系统环境变量
			if err := godotenv.Load(ctx.String("env-file")); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			cfg = loaded
			return logger.Init(cfg.LogLevel, cfg.LogFormat)
		},
		After: func(ctx *cli.Context) error {
			logger.Sync()
			return nil
		},
		// 不带子命令时默认启动服务
		Action: func(ctx *cli.Context) error {
			return serve(ctx.Context, cfg)
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "start http server",
				Action: func(ctx *cli.Context) error {
					return serve(ctx.Context, cfg)
				},
			},
			{
				Name:  "migrate",
				Usage: "create or update tables",
				Action: func(ctx *cli.Context) error {
					gdb, err := db.Open(cfg)
					if err != nil {
						return err
					}
					return db.Migrate(gdb)
				},
			},
			{
				Name:  "seed",
				Usage: "migrate and insert the starter ingredient catalogue",
				Action: func(ctx *cli.Context) error {
					gdb, err := db.Open(cfg)
					if err != nil {
						return err
					}
					if err := db.Migrate(gdb); err != nil {
						return err
					}
					return db.Seed(gdb)
				},
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		logger.L.Fatal("nutriscan exited", zap.Error(err))
	}
}
