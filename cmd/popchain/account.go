package main

import (
	"github.com/urfave/cli/v2"

	"github.com/popchain/popchain-core/internal/service"
	"github.com/popchain/popchain-core/internal/submit"
)

var accountCMD = &cli.Command{
	Name:  "account",
	Usage: "The account manage commands",
	Subcommands: []*cli.Command{
		{
			Name:  "create",
			Usage: "Create an on-chain account for an email",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "email", Required: true},
				&cli.StringFlag{Name: "role", Value: "attendee", Usage: "attendee or organizer"},
				&cli.StringFlag{Name: "owner", Value: "0x0", Usage: "wallet owning the account, 0x0 for none"},
			},
			Action: withService(func(ctx *cli.Context, svc *service.Service, choice submit.SignerChoice) error {
				out, err := svc.CreateAccount(ctx.Context, ctx.String("email"), ctx.String("role"), ctx.String("owner"), choice)
				if err != nil {
					return err
				}
				return printOutcome(out)
			}),
		},
		{
			Name:  "link-wallet",
			Usage: "Link a wallet to an existing account",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "account", Required: true},
				&cli.StringFlag{Name: "wallet", Required: true},
			},
			Action: withService(func(ctx *cli.Context, svc *service.Service, choice submit.SignerChoice) error {
				out, err := svc.LinkWallet(ctx.Context, ctx.String("account"), ctx.String("wallet"), choice)
				if err != nil {
					return err
				}
				return printOutcome(out)
			}),
		},
		{
			Name:  "show",
			Usage: "Show the off-chain profile of an email",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "email", Required: true},
			},
			Action: withService(func(ctx *cli.Context, svc *service.Service, _ submit.SignerChoice) error {
				p, err := svc.Profile(ctx.Context, ctx.String("email"))
				if err != nil {
					return err
				}
				return pretty(p)
			}),
		},
	},
}
