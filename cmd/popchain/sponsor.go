package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/popchain/popchain-core/internal/service"
	"github.com/popchain/popchain-core/internal/signer"
	"github.com/popchain/popchain-core/internal/sponsor"
	"github.com/popchain/popchain-core/internal/submit"
)

var sponsorCMD = &cli.Command{
	Name:  "sponsor",
	Usage: "The sponsor wallet commands",
	Subcommands: []*cli.Command{
		{
			Name:  "info",
			Usage: "Show the sponsor address and how its key was decoded",
			Action: withService(func(ctx *cli.Context, svc *service.Service, _ submit.SignerChoice) error {
				w := svc.Sponsor()
				if w == nil {
					return sponsor.ErrNotConfigured
				}
				fmt.Printf("address: %s\n", w.Address())
				fmt.Printf("encoding: %s\n", w.Encoding())
				fmt.Printf("verified: %v\n", w.Verified())
				return nil
			}),
		},
		{
			Name:  "funding",
			Usage: "Check the sponsor balance against the configured minimum",
			Action: withService(func(ctx *cli.Context, svc *service.Service, _ submit.SignerChoice) error {
				f, err := svc.SponsorFunding(ctx.Context)
				if err != nil {
					return err
				}
				fmt.Println(f.Message())
				if !f.Sufficient {
					return cli.Exit("", 1)
				}
				return nil
			}),
		},
		{
			Name:  "generate",
			Usage: "Generate a new key in the canonical suiprivkey encoding",
			Action: func(ctx *cli.Context) error {
				k, err := signer.GenerateKeypair()
				if err != nil {
					return err
				}
				secret, err := k.ExportBech32()
				if err != nil {
					return err
				}
				fmt.Printf("address: %s\n", k.Address())
				fmt.Printf("secret: %s\n", secret)
				return nil
			},
		},
	},
}
