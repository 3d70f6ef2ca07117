package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"catalog_studio_v1_202610/internal/config"
	"catalog_studio_v1_202610/internal/middleware"
	"catalog_studio_v1_202610/internal/repository"
	"catalog_studio_v1_202610/internal/service"
)

// ==================== seed ====================

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "写入初始品牌与分类（已存在则跳过）",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "brand", Usage: "品牌名称，可重复"},
			&cli.StringSliceFlag{Name: "category", Usage: "分类名称，可重复"},
		},
		Action: func(c *cli.Context) error {
			cfg, log, err := bootstrap(c)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if err := config.ValidateDatabase(cfg); err != nil {
				return err
			}
			db, err := initDatabase(cfg, log)
			if err != nil {
				return err
			}

			catalog := service.NewCatalogService(
				repository.NewBrandRepository(db),
				repository.NewCategoryRepository(db),
				0,
			)
			brands, categories := c.StringSlice("brand"), c.StringSlice("category")
			if err := catalog.Seed(c.Context, brands, categories); err != nil {
				return err
			}
			log.Info("种子数据已写入", zap.Int("brands", len(brands)), zap.Int("categories", len(categories)))
			return nil
		},
	}
}

// ==================== crop ====================

// cropCommand 离线走一遍 录入校验 -> 裁剪 -> JPEG 输出
func cropCommand() *cli.Command {
	return &cli.Command{
		Name:      "crop",
		Usage:     "离线裁剪一张图片为正方形 JPEG",
		ArgsUsage: "<input> <output>",
		Flags: []cli.Flag{
			&cli.Float64Flag{Name: "x", Usage: "裁剪框左上角 X（显示坐标）"},
			&cli.Float64Flag{Name: "y", Usage: "裁剪框左上角 Y（显示坐标）"},
			&cli.Float64Flag{Name: "size", Usage: "裁剪框边长（显示坐标），0 表示取最短边", Value: 0},
			&cli.Float64Flag{Name: "display-width", Usage: "显示宽度，0 表示按原图"},
			&cli.Float64Flag{Name: "display-height", Usage: "显示高度，0 表示按原图"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return cli.Exit("usage: crop <input> <output>", 2)
			}
			in, out := c.Args().Get(0), c.Args().Get(1)

			_, log, err := bootstrap(c)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			data, err := os.ReadFile(in)
			if err != nil {
				return err
			}

			src := service.SourceImage{
				Name:        filepath.Base(in),
				ContentType: service.DeclaredType("", data),
				Data:        data,
			}
			if err := service.NewIntakeValidator().Check(service.FileDescriptor{
				Name:        src.Name,
				ContentType: src.ContentType,
				Size:        int64(len(data)),
			}); err != nil {
				return err
			}

			engine := service.NewCropEngine(log)
			snap, err := engine.Begin(src, "cli")
			if err != nil {
				return err
			}
			if w, h := c.Float64("display-width"), c.Float64("display-height"); w > 0 && h > 0 {
				if err := engine.SetDisplaySize(service.DisplaySize{Width: w, Height: h}); err != nil {
					return err
				}
				snap = engine.Snapshot()
			}

			size := c.Float64("size")
			if size <= 0 {
				size = min(snap.Display.Width, snap.Display.Height)
			}
			if _, err := engine.UpdateRect(service.Rect{X: c.Float64("x"), Y: c.Float64("y"), Width: size, Height: size}); err != nil {
				return err
			}

			encoded, _, err := engine.Apply()
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, encoded.Data, 0o644); err != nil {
				return err
			}
			fmt.Printf("%s: %dx%d, %d bytes\n", out, encoded.Width, encoded.Height, len(encoded.Data))
			return nil
		},
	}
}

// ==================== token ====================

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "签发操作员 Token（本地调试用）",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "user-id", Value: 1},
			&cli.StringFlag{Name: "username", Value: "operator"},
			&cli.StringFlag{Name: "role", Value: middleware.RoleOperator},
		},
		Action: func(c *cli.Context) error {
			cfg, log, err := bootstrap(c)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if cfg.JWT.Secret == "" {
				return cli.Exit("JWT_SECRET 未配置", 1)
			}
			token, err := middleware.GenerateAccessToken(c.Int64("user-id"), c.String("username"), c.String("role"))
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
}
