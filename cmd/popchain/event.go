package main

import (
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/popchain/popchain-core/internal/service"
	"github.com/popchain/popchain-core/internal/submit"
)

var eventFlag = &cli.StringFlag{Name: "event", Usage: "event object id", Required: true}

var eventCMD = &cli.Command{
	Name:  "event",
	Usage: "The event manage commands",
	Subcommands: []*cli.Command{
		{
			Name:  "create",
			Usage: "Create an event",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "name", Required: true},
				&cli.StringFlag{Name: "description"},
				&cli.StringFlag{Name: "start", Usage: "RFC3339 start time", Required: true},
				&cli.StringFlag{Name: "end", Usage: "RFC3339 end time", Required: true},
			},
			Action: withService(func(ctx *cli.Context, svc *service.Service, choice submit.SignerChoice) error {
				start, err := time.Parse(time.RFC3339, ctx.String("start"))
				if err != nil {
					return errors.Wrap(err, "parse start")
				}
				end, err := time.Parse(time.RFC3339, ctx.String("end"))
				if err != nil {
					return errors.Wrap(err, "parse end")
				}
				out, err := svc.CreateEvent(ctx.Context, ctx.String("name"), ctx.String("description"), start, end, choice)
				if err != nil {
					return err
				}
				return printOutcome(out)
			}),
		},
		{
			Name:  "deposit",
			Usage: "Deposit funds into an event",
			Flags: []cli.Flag{
				eventFlag,
				&cli.Uint64Flag{Name: "amount", Usage: "amount in mist", Required: true},
			},
			Action: withService(func(ctx *cli.Context, svc *service.Service, choice submit.SignerChoice) error {
				out, err := svc.Deposit(ctx.Context, ctx.String("event"), ctx.Uint64("amount"), choice)
				if err != nil {
					return err
				}
				return printOutcome(out)
			}),
		},
		{
			Name:  "close",
			Usage: "Close an event",
			Flags: []cli.Flag{eventFlag},
			Action: withService(func(ctx *cli.Context, svc *service.Service, choice submit.SignerChoice) error {
				out, err := svc.CloseEvent(ctx.Context, ctx.String("event"), choice)
				if err != nil {
					return err
				}
				return printOutcome(out)
			}),
		},
	},
}
