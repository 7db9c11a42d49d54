package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/popchain/popchain-core/internal/service"
	"github.com/popchain/popchain-core/internal/submit"
	"github.com/popchain/popchain-core/internal/txbuilder"
)

var certificateCMD = &cli.Command{
	Name:  "certificate",
	Usage: "The certificate commands",
	Subcommands: []*cli.Command{
		{
			Name:  "upload",
			Usage: "Upload a certificate image and print its public url",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "file", Required: true},
				&cli.StringFlag{Name: "content-type", Usage: "detected from the content when empty"},
			},
			Action: withService(func(ctx *cli.Context, svc *service.Service, _ submit.SignerChoice) error {
				data, err := os.ReadFile(ctx.String("file"))
				if err != nil {
					return errors.Wrap(err, "read image")
				}
				contentType := ctx.String("content-type")
				if contentType == "" {
					contentType = http.DetectContentType(data)
				}
				up, err := svc.UploadCertificateImage(ctx.Context, data, contentType)
				if err != nil {
					return err
				}
				if !up.Visible {
					fmt.Println("uploaded; the public url is not available yet")
				}
				return pretty(up)
			}),
		},
		{
			Name:  "mint",
			Usage: "Mint a certificate for a whitelisted attendee",
			Flags: []cli.Flag{
				eventFlag,
				&cli.StringFlag{Name: "recipient", Usage: "recipient address", Required: true},
				&cli.StringFlag{Name: "email", Required: true},
				&cli.StringFlag{Name: "url", Usage: "certificate image url", Required: true},
				&cli.StringFlag{Name: "tier", Value: "participant", Usage: "participant, bronze, silver or gold"},
			},
			Action: withService(func(ctx *cli.Context, svc *service.Service, choice submit.SignerChoice) error {
				tier, err := txbuilder.ParseTier(ctx.String("tier"))
				if err != nil {
					return err
				}
				out, err := svc.MintCertificate(ctx.Context, ctx.String("event"), ctx.String("recipient"), ctx.String("email"), ctx.String("url"), tier, choice)
				if err != nil {
					return err
				}
				return printOutcome(out)
			}),
		},
	},
}

var treasuryCMD = &cli.Command{
	Name:  "treasury",
	Usage: "The treasury commands",
	Subcommands: []*cli.Command{
		{
			Name:  "withdraw",
			Usage: "Withdraw from the treasury; only its admin may",
			Flags: []cli.Flag{
				&cli.Uint64Flag{Name: "amount", Usage: "amount in mist", Required: true},
			},
			Action: withService(func(ctx *cli.Context, svc *service.Service, choice submit.SignerChoice) error {
				out, err := svc.WithdrawTreasury(ctx.Context, ctx.Uint64("amount"), choice)
				if err != nil {
					return err
				}
				return printOutcome(out)
			}),
		},
	},
}
