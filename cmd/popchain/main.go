package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/popchain/popchain-core/pkg/repo"
)

func main() {
	loadEnvFile()

	app := cli.NewApp()
	app.Name = "popchain"
	app.Usage = "Create accounts, run events and mint attendance certificates on PopChain"
	app.Compiled = time.Now()

	// global flags
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:  "repo",
			Usage: "Work path",
		},
		&cli.StringFlag{
			Name:    userKeyFlagName,
			Usage:   "sign as this user (suiprivkey) instead of the sponsor",
			EnvVars: []string{repo.EnvPrefix + "_USER_SECRET_KEY"},
		},
	}

	app.Commands = []*cli.Command{
		configCMD,
		accountCMD,
		eventCMD,
		whitelistCMD,
		certificateCMD,
		treasuryCMD,
		sponsorCMD,
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func loadEnvFile() {
	envFile := os.Getenv(repo.EnvPrefix + "_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			fmt.Printf("load env file %s failed: %s\n", envFile, err)
		}
	}
}
