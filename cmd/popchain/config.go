package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/popchain/popchain-core/pkg/repo"
)

var configCMD = &cli.Command{
	Name:  "config",
	Usage: "The config manage commands",
	Subcommands: []*cli.Command{
		{
			Name:   "init",
			Usage:  "Generate the default config (if not exist)",
			Action: initConfig,
		},
		{
			Name:   "show",
			Usage:  "Show the complete config processed by the environment variable",
			Action: showConfig,
		},
	},
}

func initConfig(ctx *cli.Context) error {
	p, err := getRootPath(ctx)
	if err != nil {
		return err
	}
	if _, err := os.Stat(cfgPath(p)); err == nil {
		fmt.Println("popchain repo already exists")
		return nil
	}
	if err := os.MkdirAll(p, 0755); err != nil {
		return err
	}
	if err := repo.Default(p).Flush(); err != nil {
		return err
	}
	fmt.Printf("config successfully generated in %s\n", p)
	return nil
}

func showConfig(ctx *cli.Context) error {
	r, err := prepareRepo(ctx)
	if err != nil {
		return err
	}
	str, err := repo.MarshalConfig(r.Config)
	if err != nil {
		return err
	}
	r.PrintInfo(func(c string) {
		fmt.Println(c)
	})
	fmt.Println(str)
	return nil
}
