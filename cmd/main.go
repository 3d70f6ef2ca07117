package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"catalog_studio_v1_202610/internal/config"
	"catalog_studio_v1_202610/internal/middleware"
	"catalog_studio_v1_202610/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:  "catalog-studio",
		Usage: "商品变体图片录入、裁剪与提交服务",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "额外加载的 .env 文件",
				Value: cli.NewStringSlice(".env"),
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			seedCommand(),
			cropCommand(),
			tokenCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// ==================== 公共初始化 ====================

// bootstrap 加载配置并构建根 logger
func bootstrap(c *cli.Context) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(c.StringSlice("env-file")...)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}

	middleware.SetJWTConfig(&middleware.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenTTL: cfg.JWT.TTL,
		Issuer:         cfg.JWT.Issuer,
	})
	return cfg, log, nil
}
